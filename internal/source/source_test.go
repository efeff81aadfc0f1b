package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/route"
	"github.com/specialistvlad/cascade/internal/scheduler"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	// --- Arrange ---
	ctx := ctxlog.Discard(context.Background())
	dir := t.TempDir()
	write(t, dir, "lib/util.ts", "export const x = 1\n")
	write(t, dir, "api/[service].ts", "---\nfiles: ../lib/util.ts\n---\nhandler\n")
	write(t, dir, "index.html.md", "---\nfiles:\n  - /api/orders.ts\n  - /missing.ts\noutput: /index.html\ntitle: Home\n---\nHome page\n")
	write(t, dir, "drafts/skip.md", "ignored")

	recorded := map[string]string{"/lib/util.ts": HashContent([]byte("export const x = 1\n"))}

	// --- Act ---
	snap, err := Load(ctx, Options{ContentDir: dir, Ignore: []string{"drafts"}, Recorded: recorded})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"/api/[service].ts", "/index.html.md", "/lib/util.ts"}, snap.Artifacts.Paths())

	util := snap.Artifacts["/lib/util.ts"]
	assert.False(t, util.HasChanges, "hash matches the recorded deploy")
	assert.Empty(t, util.Dependencies)

	api := snap.Artifacts["/api/[service].ts"]
	assert.True(t, api.HasChanges)
	assert.Equal(t, []string{"/lib/util.ts"}, api.Dependencies)

	page := snap.Artifacts["/index.html.md"]
	assert.Equal(t, []string{"/api/[service].ts", "/missing.ts"}, page.Dependencies)

	pl := snap.PayloadOf("/index.html.md")
	require.NotNil(t, pl)
	assert.Equal(t, route.KindContent, pl.Kind)
	assert.Equal(t, "Home page\n", string(pl.Body))
	assert.Equal(t, "/index.html", pl.OutputPath())
	assert.Equal(t, "Home", pl.Header.Meta["title"])
	assert.Equal(t, "/lib/util.ts", snap.PayloadOf("/lib/util.ts").OutputPath())
	assert.Nil(t, snap.PayloadOf("/nope"))

	m, ok := snap.Resolver.Resolve("/api/orders.ts")
	require.True(t, ok)
	assert.Equal(t, "/api/[service].ts", m.Pattern())
}

func TestLoad_Force(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	dir := t.TempDir()
	write(t, dir, "a.md", "a")
	recorded := map[string]string{"/a.md": HashContent([]byte("a"))}

	snap, err := Load(ctx, Options{ContentDir: dir, Recorded: recorded, Force: true})

	require.NoError(t, err)
	assert.True(t, snap.Artifacts["/a.md"].HasChanges)
}

func TestLoad_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("missing dir", func(t *testing.T) {
		_, err := Load(ctx, Options{ContentDir: filepath.Join(t.TempDir(), "nope")})
		require.Error(t, err)
	})

	t.Run("broken front-matter", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "a.md", "---\nfiles: x\n")
		_, err := Load(ctx, Options{ContentDir: dir})
		require.ErrorContains(t, err, "/a.md")
	})
}

func TestLoad_SiblingsKeepTheirOwnIdentity(t *testing.T) {
	// --- Arrange ---
	ctx := ctxlog.Discard(context.Background())
	dir := t.TempDir()
	files := map[string]string{
		"docs/page.html": "---\nfiles: page.md\n---\n<p>page</p>\n",
		"docs/page.md":   "# page\n",
		"lib/util.ts":    "export const x = 1\n",
		"lib/util.ts.md": "util prompt\n",
		"app.md":         "---\nfiles:\n  - /docs/page.md\n  - /lib/util.ts.md\n---\napp\n",
	}
	recorded := make(map[string]string, len(files))
	for rel, content := range files {
		write(t, dir, rel, content)
		recorded["/"+rel] = HashContent([]byte(content))
	}
	write(t, dir, "docs/page.md", "# page, edited\n")

	// --- Act ---
	snap, err := Load(ctx, Options{ContentDir: dir, Recorded: recorded})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/page.md", "/lib/util.ts.md"}, snap.Artifacts["/app.md"].Dependencies)
	assert.Equal(t, []string{"/docs/page.md"}, snap.Artifacts["/docs/page.html"].Dependencies)

	wf := scheduler.ComputeWorkflow(snap.Artifacts)
	assert.Equal(t, [][]string{{"/docs/page.md"}, {"/app.md", "/docs/page.html"}}, wf.Batches)
	assert.Empty(t, wf.Unprocessed)
}

func TestLoad_InvalidPatternNamesRouteLiterally(t *testing.T) {
	// --- Arrange ---
	ctx := ctxlog.Discard(context.Background())
	dir := t.TempDir()
	write(t, dir, "img[1].png", "png")
	write(t, dir, "a/[id]/[id].ts", "dup")
	write(t, dir, "api/[id.ts", "open")
	write(t, dir, "api/[service].ts", "---\nfiles: ../img[1].png\n---\nhandler\n")

	// --- Act ---
	snap, err := Load(ctx, Options{ContentDir: dir})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/[id]/[id].ts", "/api/[id.ts", "/api/[service].ts", "/img[1].png"}, snap.Artifacts.Paths())
	assert.Equal(t, []string{"/img[1].png"}, snap.Artifacts["/api/[service].ts"].Dependencies)

	m, ok := snap.Resolver.Resolve("/a/[id]/[id].ts")
	require.True(t, ok)
	assert.Empty(t, m.Params)
	_, ok = snap.Resolver.Resolve("/a/x/y.ts")
	assert.False(t, ok)
	_, ok = snap.Resolver.Resolve("/img1.png")
	assert.False(t, ok)

	m, ok = snap.Resolver.Resolve("/api/orders.ts")
	require.True(t, ok)
	assert.Equal(t, "/api/[service].ts", m.Pattern())
}
