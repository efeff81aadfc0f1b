package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel_Defaults(t *testing.T) {
	m := NewModel(filepath.Join("work", "site"))

	assert.Equal(t, "site", m.Project.Name)
	assert.Equal(t, filepath.Join("work", "site", "src"), m.ContentDir())
	assert.Equal(t, filepath.Join("work", "site", ".cascade"), m.StateDir())
	assert.Equal(t, DefaultConcurrency, m.Project.Concurrency)
}

func TestModel_AbsoluteDirsAreKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "content")
	m := NewModel("proj")
	m.Project.ContentDir = abs

	assert.Equal(t, abs, m.ContentDir())
}

func TestModel_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(m *Model)
		expectErr string
	}{
		{name: "valid", mutate: func(m *Model) {}},
		{name: "no recompute", mutate: func(m *Model) { m.Recompute = nil }, expectErr: "recompute block is required"},
		{name: "zero concurrency", mutate: func(m *Model) { m.Project.Concurrency = 0 }, expectErr: "concurrency must be at least 1"},
		{name: "empty content dir", mutate: func(m *Model) { m.Project.ContentDir = "" }, expectErr: "content_dir must not be empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModel("p")
			m.Recompute = &Driver{Kind: KindRecompute, Type: "command"}
			tc.mutate(m)

			err := m.Validate()
			if tc.expectErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.expectErr)
		})
	}
}

func TestDriver_String(t *testing.T) {
	d := &Driver{Kind: KindDeploy, Type: "upload"}
	assert.Equal(t, `deploy "upload"`, d.String())
}
