package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/fsutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startWatcher runs w in the background and returns a stop func that waits
// for Run to return.
func startWatcher(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(ctxlog.Discard(context.Background()))
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	var calls atomic.Int32
	w := New(root, nil, func(context.Context) error {
		calls.Add(1)
		return nil
	}, WithDebounce(150*time.Millisecond))
	stop := startWatcher(t, w)
	defer stop()
	time.Sleep(100 * time.Millisecond)

	// --- Act ---
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte{byte('a' + i)}, 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	// --- Assert ---
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst must trigger exactly one run")
}

func TestWatcher_NewDirectoriesAreWatched(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	var calls atomic.Int32
	w := New(root, nil, func(context.Context) error {
		calls.Add(1)
		return nil
	}, WithDebounce(50*time.Millisecond))
	stop := startWatcher(t, w)
	defer stop()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Mkdir(filepath.Join(root, "docs"), 0o755))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)

	// --- Act ---
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "intro.md"), []byte("# hi"), 0o644))

	// --- Assert ---
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoredPathsDoNotTrigger(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	m, err := fsutil.NewMatcher("*.bak")
	require.NoError(t, err)
	var calls atomic.Int32
	w := New(root, m, func(context.Context) error {
		calls.Add(1)
		return nil
	}, WithDebounce(50*time.Millisecond))
	stop := startWatcher(t, w)
	defer stop()
	time.Sleep(100 * time.Millisecond)

	// --- Act ---
	require.NoError(t, os.WriteFile(filepath.Join(root, "draft.bak"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)

	// --- Assert ---
	assert.Zero(t, calls.Load())
}

func TestWatcher_MissingRoot(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope"), nil, func(context.Context) error { return nil })

	err := w.Run(ctxlog.Discard(context.Background()))

	require.Error(t, err)
}
