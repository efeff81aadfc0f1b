package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", FileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestArtifacts_UpsertAndRead(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	s := openTemp(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// --- Act ---
	require.NoError(t, s.Upsert(ctx,
		Record{Path: "/a.md", ContentHash: "h1", OutputPath: "/a.html", RunID: "r1", DeployedAt: at},
		Record{Path: "/b.ts", ContentHash: "h2", RunID: "r1", DeployedAt: at},
	))
	require.NoError(t, s.Upsert(ctx, Record{Path: "/a.md", ContentHash: "h3", OutputPath: "/a.html", RunID: "r2", DeployedAt: at.Add(time.Hour)}))

	// --- Assert ---
	hashes, err := s.Hashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"/a.md": "h3", "/b.ts": "h2"}, hashes)

	rec, err := s.Get(ctx, "/a.md")
	require.NoError(t, err)
	assert.Equal(t, "r2", rec.RunID)
	assert.Equal(t, "/a.html", rec.OutputPath)
	assert.True(t, rec.DeployedAt.Equal(at.Add(time.Hour)))

	_, err = s.Get(ctx, "/missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsert_Empty(t *testing.T) {
	require.NoError(t, openTemp(t).Upsert(context.Background()))
}

func TestRuns_Lifecycle(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	s := openTemp(t)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// --- Act ---
	require.NoError(t, s.BeginRun(ctx, "old", t0))
	require.NoError(t, s.FinishRun(ctx, "old", RunComplete, 3, 1, t0.Add(time.Second)))
	require.NoError(t, s.BeginRun(ctx, "new", t0.Add(time.Minute)))

	// --- Assert ---
	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, RunRunning, runs[0].Status)
	assert.Nil(t, runs[0].FinishedAt)
	assert.Equal(t, "old", runs[1].ID)
	assert.Equal(t, RunComplete, runs[1].Status)
	assert.Equal(t, 3, runs[1].Succeeded)
	assert.Equal(t, 1, runs[1].Failed)
	require.NotNil(t, runs[1].FinishedAt)

	limited, err := s.Runs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	r, err := s.GetRun(ctx, "old")
	require.NoError(t, err)
	assert.True(t, r.StartedAt.Equal(t0))

	_, err = s.GetRun(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.FinishRun(ctx, "nope", RunFailed, 0, 0, t0), ErrNotFound)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), FileName)

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, Record{Path: "/a", ContentHash: "h", RunID: "r"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	hashes, err := s.Hashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h", hashes["/a"])
}

func TestOpen_SchemaMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), FileName)

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, "UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, path)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}
