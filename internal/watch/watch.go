// Package watch re-triggers runs when the content directory changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/fsutil"
)

// DefaultDebounce is the quiet period that must pass before a run starts.
const DefaultDebounce = 500 * time.Millisecond

// Trigger starts one run. Errors are logged and watching continues.
type Trigger func(ctx context.Context) error

// Watcher watches a directory tree and calls its trigger after each burst
// of changes. Calls never overlap.
type Watcher struct {
	root     string
	matcher  *fsutil.Matcher
	trigger  Trigger
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for root. m may be nil.
func New(root string, m *fsutil.Matcher, trigger Trigger, opts ...Option) *Watcher {
	w := &Watcher{root: root, matcher: m, trigger: trigger, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("root", w.root)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	dirs, err := fsutil.FindDirs(w.root, w.matcher)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", w.root, err)
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	logger.Info("👀 Watching for changes", "dirs", len(dirs), "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watcher stopped.")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if !w.relevant(fw, ev) {
				continue
			}
			logger.Debug("Change detected.", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			logger.Warn("Watcher error.", "error", err)

		case <-timer.C:
			logger.Debug("Changes settled, triggering run.")
			if err := w.trigger(ctx); err != nil {
				logger.Error("Triggered run failed.", "error", err)
			}
		}
	}
}

// relevant filters out ignored paths and chmod-only events, and starts
// watching directories created after Run began.
func (w *Watcher) relevant(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	if w.matcher.Ignored(filepath.ToSlash(rel)) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			dirs, err := fsutil.FindDirs(ev.Name, nil)
			if err == nil {
				for _, d := range dirs {
					_ = fw.Add(d)
				}
			}
		}
	}
	return true
}
