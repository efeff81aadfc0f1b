package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/cascade/internal/config"
	"github.com/specialistvlad/cascade/internal/ctxlog"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

const fullManifest = `
project "site" {
  content_dir = "content"
  concurrency = 2
  ignore      = ["drafts", "*.bak"]
}

recompute "http" {
  url = "${env.BUILD_URL}/build"
}

deploy "upload" {
  base_url = "https://cdn.example.com"
}

relay "socketio" {
  url = "http://localhost:3000"
}
`

type httpArgs struct {
	URL string `hcl:"url"`
}

func TestLoad_FullManifest(t *testing.T) {
	// --- Arrange ---
	ctx := ctxlog.Discard(context.Background())
	dir := t.TempDir()
	path := writeFile(t, dir, "cascade.hcl", fullManifest)
	loader := NewLoaderWithEnv(map[string]string{"BUILD_URL": "http://builder"})

	// --- Act ---
	model, decoder, err := loader.Load(ctx, path)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, dir, model.Dir)
	assert.Equal(t, "site", model.Project.Name)
	assert.Equal(t, filepath.Join(dir, "content"), model.ContentDir())
	assert.Equal(t, filepath.Join(dir, config.DefaultStateDir), model.StateDir())
	assert.Equal(t, 2, model.Project.Concurrency)
	assert.Equal(t, []string{"drafts", "*.bak"}, model.Project.Ignore)

	require.NotNil(t, model.Recompute)
	assert.Equal(t, "http", model.Recompute.Type)
	assert.Equal(t, config.KindRecompute, model.Recompute.Kind)
	require.Len(t, model.Deploys, 1)
	assert.Equal(t, "upload", model.Deploys[0].Type)
	require.Len(t, model.Relays, 1)
	assert.Equal(t, "socketio", model.Relays[0].Type)
	require.NoError(t, model.Validate())

	var args httpArgs
	require.NoError(t, decoder.DecodeBody(ctx, model.Recompute.Body, &args))
	assert.Equal(t, "http://builder/build", args.URL)
}

func TestLoad_DirectoryMergesFiles(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	dir := t.TempDir()
	writeFile(t, dir, "a.hcl", `recompute "command" {
  command = ["cat"]
}`)
	writeFile(t, dir, "b/deploys.hcl", `deploy "upload" {
  base_url = "http://one"
}
deploy "upload" {
  base_url = "http://two"
}`)
	writeFile(t, dir, "notes.txt", "not hcl")

	model, _, err := NewLoaderWithEnv(nil).Load(ctx, dir)

	require.NoError(t, err)
	assert.Equal(t, dir, model.Dir)
	assert.Equal(t, filepath.Base(dir), model.Project.Name, "project name defaults to the directory")
	assert.Equal(t, "command", model.Recompute.Type)
	assert.Len(t, model.Deploys, 2)
}

func TestLoad_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	testCases := []struct {
		name      string
		manifest  string
		expectErr string
	}{
		{name: "syntax", manifest: `project "x" {`, expectErr: "failed to parse"},
		{name: "unknown block", manifest: `step "x" {}`, expectErr: "failed to decode"},
		{name: "two recomputes", manifest: "recompute \"a\" {}\nrecompute \"b\" {}", expectErr: "only one recompute block"},
		{name: "two projects", manifest: "project \"a\" {}\nproject \"b\" {}", expectErr: "only one project block"},
		{name: "unknown project attribute", manifest: `project "a" { colour = "red" }`, expectErr: "failed to decode"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "cascade.hcl", tc.manifest)
			_, _, err := NewLoaderWithEnv(nil).Load(ctx, path)
			require.ErrorContains(t, err, tc.expectErr)
		})
	}

	t.Run("missing path", func(t *testing.T) {
		_, _, err := NewLoaderWithEnv(nil).Load(ctx, filepath.Join(t.TempDir(), "nope.hcl"))
		require.Error(t, err)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, _, err := NewLoaderWithEnv(nil).Load(ctx, t.TempDir())
		require.ErrorContains(t, err, "no .hcl manifest")
	})
}

func TestDecoder(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	path := writeFile(t, t.TempDir(), "cascade.hcl", `
recompute "http" {
  url = env.MISSING
}
deploy "noop" {}
relay "noop" {
  extra = 1
}`)

	model, decoder, err := NewLoaderWithEnv(map[string]string{"OTHER": "x"}).Load(ctx, path)
	require.NoError(t, err)

	var args httpArgs
	require.Error(t, decoder.DecodeBody(ctx, model.Recompute.Body, &args), "unknown env names are reported")
	require.NoError(t, decoder.DecodeBody(ctx, model.Deploys[0].Body, nil))
	require.ErrorContains(t, decoder.DecodeBody(ctx, model.Relays[0].Body, nil), "takes no arguments")
}
