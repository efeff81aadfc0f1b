package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the state directory while a run is active.
const LockFileName = "cascade.lock"

// ErrLocked is returned when another run holds the state directory.
var ErrLocked = errors.New("another run is in progress")

func (a *App) lockPath() string {
	return filepath.Join(a.model.StateDir(), LockFileName)
}

// acquire takes the run lock without waiting. The returned func releases it.
// Every call opens its own handle, so two runs of the same App exclude each
// other as well.
func (a *App) acquire() (func(), error) {
	if err := os.MkdirAll(a.model.StateDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	lock := flock.New(a.lockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, lock.Path())
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			a.logger.Warn("Failed to release run lock.", "path", lock.Path(), "error", err)
		}
	}, nil
}
