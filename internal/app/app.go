// Package app wires gesture recognition and WiFi location matching into one service.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/tracematch/internal/gesture"
	"github.com/ayusman/tracematch/internal/location"
	"github.com/ayusman/tracematch/internal/plugin"
	"github.com/ayusman/tracematch/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	Store              *store.Store
	TemplatePath       string
	PluginDir          string
	ScannerName        string
	PluginTimeout      time.Duration
	ScanPeriod         time.Duration
	K                  int
	Locations          []string
	Gestures           []string
	ExamplesPerGesture int
	Logger             *zap.Logger
}

// LocationInfo is a known location with the number of fingerprints recorded there.
type LocationInfo struct {
	Name         string `json:"name"`
	Fingerprints int    `json:"fingerprints"`
}

// App owns the template set, the training session, the scanner plugins and the locate loop.
type App struct {
	config       Config
	logger       *zap.Logger
	templates    *gesture.TemplateSet
	templateFile *gesture.TemplateFile
	trainer      *gesture.Trainer
	pluginMgr    *plugin.Manager
	pluginExec   *plugin.Executor
	locator      *location.Locator

	// trainMu serializes changes to the template set and its file.
	trainMu sync.Mutex

	mu          sync.RWMutex
	scanner     location.Scanner
	enabled     bool
	cancel      context.CancelFunc
	done        chan struct{}
	lastGesture *gesture.Match
	lastPlace   string

	onGesture  func(*gesture.Match)
	onLocation func(location.Result)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.PluginTimeout <= 0 {
		config.PluginTimeout = 5 * time.Second
	}
	if config.ScanPeriod <= 0 {
		config.ScanPeriod = location.DefaultScanPeriod
	}

	a := &App{
		config:       config,
		logger:       config.Logger,
		templates:    gesture.NewTemplateSet(),
		templateFile: gesture.NewTemplateFile(config.TemplatePath),
		trainer:      gesture.NewTrainer(config.Gestures, config.ExamplesPerGesture),
		pluginMgr:    plugin.NewManager(config.PluginDir, config.Logger.Named("plugin")),
		pluginExec:   plugin.NewExecutor(config.PluginTimeout),
		enabled:      true,
	}

	var source location.FingerprintSource
	if config.Store != nil {
		source = config.Store.Fingerprints()
	}
	a.locator = location.NewLocator(location.LocatorConfig{
		Scanner: a,
		Source:  source,
		Period:  config.ScanPeriod,
		K:       config.K,
		Logger:  config.Logger.Named("locator"),
	})

	return a
}

// Store returns the backing store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// SetEnabled enables or disables scanning in the locate loop.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether scanning is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// OnGesture sets a callback invoked for every recognized gesture.
func (a *App) OnGesture(fn func(*gesture.Match)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onGesture = fn
}

// OnLocationChange sets a callback invoked when the located place changes.
func (a *App) OnLocationChange(fn func(location.Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLocation = fn
}

// LoadTemplates reads the template file into the template set.
// A truncated trailing record is logged and the file is rewritten with the complete prefix.
func (a *App) LoadTemplates() error {
	a.trainMu.Lock()
	defer a.trainMu.Unlock()

	templates, err := a.templateFile.Load()
	if err != nil {
		if !errors.Is(err, gesture.ErrTruncatedTemplate) && !errors.Is(err, gesture.ErrInvalidTemplate) {
			return err
		}
		a.logger.Warn("template file damaged, keeping readable prefix",
			zap.String("path", a.templateFile.Path()),
			zap.Int("templates", len(templates)),
			zap.Error(err),
		)
		if err := a.templateFile.Save(templates); err != nil {
			return fmt.Errorf("failed to repair template file: %w", err)
		}
	}

	a.templates.Replace(templates)
	a.trainer.Resume(len(templates))

	a.logger.Info("templates loaded",
		zap.String("path", a.templateFile.Path()),
		zap.Int("count", len(templates)),
	)
	return nil
}

// Templates returns the in-memory template set.
func (a *App) Templates() *gesture.TemplateSet {
	return a.templates
}

// ResetTemplates removes every template, truncates the template file and restarts training.
func (a *App) ResetTemplates() error {
	a.trainMu.Lock()
	defer a.trainMu.Unlock()

	if err := a.templateFile.Save(nil); err != nil {
		return err
	}
	a.templates.Reset()
	a.trainer.Reset()
	a.logger.Info("templates reset")
	return nil
}

// Recognize matches a stroke against the template set. It returns nil when nothing matches.
func (a *App) Recognize(stroke []gesture.Point) *gesture.Match {
	m := a.templates.Recognize(stroke)
	if m == nil {
		a.logger.Debug("no gesture match", zap.Int("points", len(stroke)), zap.Int("templates", a.templates.Len()))
		return nil
	}

	a.logger.Info("gesture recognized",
		zap.String("gesture", m.Template.Name),
		zap.Int("id", m.Template.ID),
		zap.Float64("score", m.Score),
		zap.Float64("theta", m.Theta),
	)

	a.mu.Lock()
	a.lastGesture = m
	callback := a.onGesture
	a.mu.Unlock()

	if callback != nil {
		callback(m)
	}
	return m
}

// LastGesture returns the most recent match, or nil.
func (a *App) LastGesture() *gesture.Match {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastGesture
}

// Trainer returns the training session.
func (a *App) Trainer() *gesture.Trainer {
	return a.trainer
}

// Train records a stroke for the current training prompt, appends the resulting template to
// the template file and returns it together with the next prompt. The session only moves on
// once the template is stored.
func (a *App) Train(stroke []gesture.Point) (*gesture.Template, gesture.Prompt, error) {
	a.trainMu.Lock()
	defer a.trainMu.Unlock()

	t, err := a.trainer.Template(stroke)
	if err != nil {
		return nil, a.trainer.Prompt(), err
	}

	if err := a.templateFile.Append(t); err != nil {
		return nil, a.trainer.Prompt(), fmt.Errorf("failed to save template: %w", err)
	}
	a.templates.Add(t)
	a.trainer.Advance()

	next := a.trainer.Prompt()
	a.logger.Info("training example recorded",
		zap.String("gesture", t.Name),
		zap.Int("collected", next.Collected),
		zap.Int("total", next.Total),
	)
	return t, next, nil
}

// TrainSamples replaces the templates of a gesture with ones built from recorded samples and
// stores the samples. If the samples cannot be stored the previous templates are restored.
func (a *App) TrainSamples(name string, samples []json.RawMessage) ([]*gesture.Template, error) {
	a.trainMu.Lock()
	defer a.trainMu.Unlock()

	templates, err := gesture.TrainFromSamples(a.gestureID(name), name, samples)
	if err != nil {
		return nil, err
	}

	previous := a.templates.List()
	var kept []*gesture.Template
	for _, t := range previous {
		if t.Name != name {
			kept = append(kept, t)
		}
	}
	all := append(kept, templates...)

	if err := a.templateFile.Save(all); err != nil {
		return nil, fmt.Errorf("failed to save templates: %w", err)
	}

	if a.config.Store != nil {
		if _, err := a.config.Store.Samples().Create(name, samples); err != nil {
			if rerr := a.templateFile.Save(previous); rerr != nil {
				a.logger.Error("failed to restore template file", zap.Error(rerr))
			}
			return nil, fmt.Errorf("failed to save samples: %w", err)
		}
	}
	a.templates.Replace(all)

	a.logger.Info("gesture trained from samples", zap.String("gesture", name), zap.Int("samples", len(samples)))
	return templates, nil
}

// gestureID returns the template ID used for a gesture name: its position in the configured
// gesture set, an ID already in use for that name, or the next free ID.
func (a *App) gestureID(name string) int {
	for i, g := range a.trainer.Gestures() {
		if g == name {
			return i
		}
	}
	next := len(a.trainer.Gestures())
	for _, t := range a.templates.List() {
		if t.Name == name {
			return t.ID
		}
		next = max(next, t.ID+1)
	}
	return next
}

// DiscoverPlugins scans the plugin directory and selects the scanner plugin.
// The configured scanner name is preferred; otherwise the first plugin offering a scan action is used.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return err
	}

	p, err := a.pluginMgr.Get(a.config.ScannerName)
	if err != nil || !p.Manifest.HasAction(plugin.ScanAction) {
		p, err = a.pluginMgr.FindByAction(plugin.ScanAction)
	}
	if err != nil {
		a.logger.Warn("no scanner plugin found", zap.String("dir", a.pluginMgr.PluginDir()))
		return nil
	}

	a.SetScanner(plugin.NewScanPlugin(p, a.pluginExec, nil))
	a.logger.Info("using scanner plugin", zap.String("name", p.Manifest.Name), zap.String("version", p.Manifest.Version))
	return nil
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// SetScanner replaces the scanner used by the locate loop.
func (a *App) SetScanner(s location.Scanner) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanner = s
}

// Scan implements location.Scanner by delegating to the selected scanner.
func (a *App) Scan(ctx context.Context) ([]location.Reading, error) {
	a.mu.RLock()
	s := a.scanner
	a.mu.RUnlock()

	if s == nil {
		return nil, location.ErrNoScanner
	}
	return s.Scan(ctx)
}

// Locator returns the locate loop.
func (a *App) Locator() *location.Locator {
	return a.locator
}

// LoadFingerprints refreshes the fingerprints the locator matches against.
func (a *App) LoadFingerprints(ctx context.Context) error {
	return a.locator.Reload(ctx)
}

// Locations returns the configured locations followed by any other stored location, with
// fingerprint counts.
func (a *App) Locations(ctx context.Context) ([]LocationInfo, error) {
	counts := map[string]int{}
	if a.config.Store != nil {
		var err error
		if counts, err = a.config.Store.Fingerprints().Counts(ctx); err != nil {
			return nil, err
		}
	}

	infos := make([]LocationInfo, 0, len(a.config.Locations)+len(counts))
	seen := make(map[string]bool)
	for _, name := range a.config.Locations {
		infos = append(infos, LocationInfo{Name: name, Fingerprints: counts[name]})
		seen[name] = true
	}
	for _, name := range sortedKeys(counts) {
		if !seen[name] {
			infos = append(infos, LocationInfo{Name: name, Fingerprints: counts[name]})
		}
	}
	return infos, nil
}

// Fingerprints returns every stored fingerprint. Without a store there are none.
func (a *App) Fingerprints(ctx context.Context) ([]location.Fingerprint, error) {
	if a.config.Store == nil {
		return nil, nil
	}
	return a.config.Store.Fingerprints().List(ctx)
}

// RecordFingerprint stores readings as a fingerprint of name and reloads the locator.
func (a *App) RecordFingerprint(ctx context.Context, name string, readings []location.Reading) (int64, error) {
	if a.config.Store == nil {
		return 0, errors.New("no store configured")
	}

	id, err := a.config.Store.Fingerprints().Create(ctx, location.NewFingerprint(name, readings))
	if err != nil {
		return 0, err
	}
	a.logger.Info("fingerprint recorded", zap.String("location", name), zap.Int("readings", len(readings)))

	return id, a.locator.Reload(ctx)
}

// DeleteLocation removes every fingerprint of a location and reloads the locator.
func (a *App) DeleteLocation(ctx context.Context, name string) (int64, error) {
	if a.config.Store == nil {
		return 0, store.ErrNotFound
	}

	n, err := a.config.Store.Fingerprints().DeleteLocation(ctx, name)
	if err != nil {
		return 0, err
	}
	a.logger.Info("location deleted", zap.String("location", name), zap.Int64("fingerprints", n))

	return n, a.locator.Reload(ctx)
}

// Start loads the fingerprints and begins the locate loop. Calling Start twice is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.locator.Reload(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.runPipeline(ctx, a.done)

	a.logger.Info("locate loop started", zap.Duration("period", a.config.ScanPeriod))
	return nil
}

// Stop halts the locate loop and waits for it to exit.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	a.logger.Info("locate loop stopped")
}
