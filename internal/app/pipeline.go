package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/tracematch/internal/location"
)

// runPipeline is the locate loop. Every scan period it scans the access points in range and
// matches them against the stored fingerprints.
//
// Pipeline logic:
// 1. Skip the tick while scanning is disabled
// 2. Scan and locate through the locator, which publishes the result to its subscribers
// 3. Report a change of the best matching location
// 4. Back off to a longer period while no scanner is available
func (a *App) runPipeline(ctx context.Context, done chan struct{}) {
	defer close(done)

	period := a.config.ScanPeriod
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	idle := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			result, err := a.locator.LocateOnce(ctx)
			if errors.Is(err, location.ErrNoScanner) {
				if !idle {
					idle = true
					ticker.Reset(4 * period)
					a.logger.Warn("no scanner available, slowing down")
				}
				continue
			}
			if idle {
				idle = false
				ticker.Reset(period)
			}
			if err != nil {
				if ctx.Err() == nil {
					a.logger.Warn("locate failed", zap.Error(err))
				}
				continue
			}

			a.handleResult(result)
		}
	}
}

// handleResult records the located place and fires the change callback when it differs
// from the previous one.
func (a *App) handleResult(result location.Result) {
	place := location.UnknownLocation
	if result.OK {
		place = result.Location
	}

	a.mu.Lock()
	changed := place != a.lastPlace
	a.lastPlace = place
	callback := a.onLocation
	a.mu.Unlock()

	if !changed {
		return
	}

	a.logger.Info("location changed",
		zap.String("location", place),
		zap.Int("readings", result.Readings),
	)
	if callback != nil {
		callback(result)
	}
}

// CurrentLocation returns the last located place, or location.UnknownLocation.
func (a *App) CurrentLocation() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.lastPlace == "" {
		return location.UnknownLocation
	}
	return a.lastPlace
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
