// Package testutil holds helpers shared by the package tests: a thread-safe
// buffer, on-disk project scaffolding and in-process driver doubles.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ManifestFile is the name WriteProject gives the manifest.
const ManifestFile = "cascade.hcl"

// WriteProject creates a project in a temp dir. manifest is written to
// cascade.hcl and files maps slash-separated paths (relative to the project
// root) to their content. It returns the project root.
func WriteProject(t *testing.T, manifest string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, map[string]string{ManifestFile: manifest})
	WriteFiles(t, dir, files)
	return dir
}

// WriteFiles writes files below dir, creating parent directories.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}
