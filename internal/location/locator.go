package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultScanPeriod is the interval between scans of the locate loop.
const DefaultScanPeriod = 3 * time.Second

// ErrNoScanner is returned when a scan is requested without a configured scanner.
var ErrNoScanner = errors.New("no scanner configured")

// Scanner produces the access points currently visible.
type Scanner interface {
	Scan(ctx context.Context) ([]Reading, error)
}

// FingerprintSource provides the stored fingerprints to match against.
type FingerprintSource interface {
	List(ctx context.Context) ([]Fingerprint, error)
}

// Result is the outcome of matching one scan.
type Result struct {
	Location  string             `json:"location"`
	OK        bool               `json:"ok"`
	Distances []LocationDistance `json:"distances"`
	Readings  int                `json:"readings"`
	ScannedAt time.Time          `json:"scanned_at"`
}

// LocatorConfig configures a Locator.
type LocatorConfig struct {
	Scanner Scanner
	Source  FingerprintSource
	Period  time.Duration
	K       int
	Logger  *zap.Logger
}

// Locator periodically scans and matches the scan against a cached fingerprint set.
type Locator struct {
	scanner Scanner
	source  FingerprintSource
	period  time.Duration
	matcher Matcher
	logger  *zap.Logger

	mu           sync.RWMutex
	fingerprints []Fingerprint
	current      *Result

	subMu       sync.Mutex
	subscribers map[int]chan Result
	nextSub     int
}

// NewLocator creates a Locator. Fingerprints are not loaded until Reload is called.
func NewLocator(cfg LocatorConfig) *Locator {
	if cfg.Period <= 0 {
		cfg.Period = DefaultScanPeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Locator{
		scanner:     cfg.Scanner,
		source:      cfg.Source,
		period:      cfg.Period,
		matcher:     Matcher{K: cfg.K},
		logger:      cfg.Logger,
		subscribers: make(map[int]chan Result),
	}
}

// Reload refreshes the cached fingerprints from the source.
func (l *Locator) Reload(ctx context.Context) error {
	if l.source == nil {
		return nil
	}
	fps, err := l.source.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load fingerprints: %w", err)
	}

	l.mu.Lock()
	l.fingerprints = fps
	l.mu.Unlock()

	l.logger.Info("fingerprints loaded", zap.Int("count", len(fps)))
	return nil
}

// Fingerprints returns the number of cached fingerprints.
func (l *Locator) Fingerprints() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fingerprints)
}

// Locate matches readings against the cached fingerprints without scanning.
// Unlike BestMatch, which lets every fingerprint tie at distance 0 and still votes,
// a scan that saw no access points never matches here; the distances are still reported.
func (l *Locator) Locate(readings []Reading) Result {
	l.mu.RLock()
	fps := l.fingerprints
	l.mu.RUnlock()

	live := NewFingerprint(UnknownLocation, readings)
	loc, distances, ok := l.matcher.BestMatch(live, fps)
	if len(live.Levels) == 0 {
		loc, ok = "", false
	}
	return Result{
		Location:  loc,
		OK:        ok,
		Distances: distances,
		Readings:  len(live.Levels),
		ScannedAt: time.Now(),
	}
}

// LocateOnce scans, matches, records the result and notifies subscribers.
func (l *Locator) LocateOnce(ctx context.Context) (Result, error) {
	if l.scanner == nil {
		return Result{}, ErrNoScanner
	}

	readings, err := l.scanner.Scan(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("scan failed: %w", err)
	}

	result := l.Locate(readings)

	l.mu.Lock()
	l.current = &result
	l.mu.Unlock()

	l.logger.Debug("located",
		zap.String("location", result.Location),
		zap.Bool("ok", result.OK),
		zap.Int("readings", result.Readings),
	)

	l.publish(result)
	return result, nil
}

// Run scans every period until ctx is done. Scan errors are logged and the loop continues.
func (l *Locator) Run(ctx context.Context) {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		if _, err := l.LocateOnce(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn("locate failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Current returns the most recent result of LocateOnce.
func (l *Locator) Current() (Result, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return Result{}, false
	}
	return *l.current, true
}

// Subscribe returns a channel receiving every new result and a function to unsubscribe.
// Slow subscribers miss results rather than block the loop.
func (l *Locator) Subscribe() (<-chan Result, func()) {
	ch := make(chan Result, 4)

	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subscribers[id] = ch
	l.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subscribers, id)
			l.subMu.Unlock()
			close(ch)
		})
	}
}

func (l *Locator) publish(result Result) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	for _, ch := range l.subscribers {
		select {
		case ch <- result:
		default:
		}
	}
}
