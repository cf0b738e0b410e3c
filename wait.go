// FILE: lixenwraith/yacman/wait.go
package yacman

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
)

// Acquirer polls the lock marker protocol with a bounded wait.
// The zero value is not usable; use NewAcquirer.
type Acquirer struct {
	fs           afero.Fs
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewAcquirer creates an Acquirer polling at DefaultPollInterval.
func NewAcquirer(fs afero.Fs, logger *slog.Logger) *Acquirer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		fs:           fs,
		pollInterval: DefaultPollInterval,
		logger:       logger,
	}
}

// WithPollInterval returns a copy of the Acquirer polling at d.
// Non-positive values keep the current interval.
func (a *Acquirer) WithPollInterval(d time.Duration) *Acquirer {
	cp := *a
	if d > 0 {
		cp.pollInterval = d
	}
	return &cp
}

// Acquire creates the marker for target, retrying every poll interval until
// maxWait has elapsed. A maxWait of zero makes exactly one attempt.
// Timeout is reported as ErrLockTimeout; the caller decides what it means.
func (a *Acquirer) Acquire(ctx context.Context, target string, maxWait time.Duration) error {
	markerPath := MarkerPath(target)
	start := time.Now()
	reported := false

	for {
		created, err := TryCreateMarker(a.fs, markerPath)
		if err != nil {
			return err
		}
		if created {
			a.logger.Debug("lock acquired",
				"path", target,
				"lock_path", markerPath,
				"waited", time.Since(start))
			return nil
		}

		elapsed := time.Since(start)
		if elapsed >= maxWait {
			return fmt.Errorf("%w: '%s' held by another process after %v", ErrLockTimeout, markerPath, maxWait)
		}
		if !reported && elapsed >= waitLogThreshold {
			a.logger.Debug("waiting for lock",
				"path", target,
				"lock_path", markerPath,
				"wait", maxWait)
			reported = true
		}

		sleep := a.pollInterval
		if remaining := maxWait - elapsed; remaining < sleep {
			sleep = remaining
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("lock wait for '%s' interrupted: %w", markerPath, ctx.Err())
		case <-timer.C:
		}
	}
}

// Release removes the marker for target.
func (a *Acquirer) Release(target string) error {
	markerPath := MarkerPath(target)
	if err := RemoveMarker(a.fs, markerPath); err != nil {
		return err
	}
	a.logger.Debug("lock released", "path", target, "lock_path", markerPath)
	return nil
}

// Held reports whether any process currently holds the marker for target.
func (a *Acquirer) Held(target string) bool {
	return MarkerExists(a.fs, MarkerPath(target))
}
