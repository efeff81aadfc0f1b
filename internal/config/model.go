package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
)

const (
	DefaultContentDir  = "src"
	DefaultStateDir    = ".cascade"
	DefaultConcurrency = 4
)

// Model is the unified representation of a project manifest.
type Model struct {
	// Dir is the directory relative paths are resolved against.
	Dir       string
	Project   *Project
	Recompute *Driver
	Deploys   []*Driver
	Relays    []*Driver
}

// Project holds the `project` block.
type Project struct {
	Name        string
	ContentDir  string
	StateDir    string
	Concurrency int
	Ignore      []string
}

// DriverKind is the block a driver was declared in.
type DriverKind string

const (
	KindRecompute DriverKind = "recompute"
	KindDeploy    DriverKind = "deploy"
	KindRelay     DriverKind = "relay"
)

// Driver is a `recompute`, `deploy` or `relay` block.
type Driver struct {
	Kind DriverKind
	Type string
	Body hcl.Body
	// Where the block was declared, for error messages.
	DeclRange hcl.Range
}

// String identifies the block, e.g. `deploy "upload"`.
func (d *Driver) String() string {
	return fmt.Sprintf("%s %q", d.Kind, d.Type)
}

// NewModel returns a model with project defaults filled in.
func NewModel(dir string) *Model {
	return &Model{
		Dir: dir,
		Project: &Project{
			Name:        filepath.Base(dir),
			ContentDir:  DefaultContentDir,
			StateDir:    DefaultStateDir,
			Concurrency: DefaultConcurrency,
		},
	}
}

// ContentDir returns the content directory resolved against Dir.
func (m *Model) ContentDir() string { return m.resolve(m.Project.ContentDir) }

// StateDir returns the state directory resolved against Dir.
func (m *Model) StateDir() string { return m.resolve(m.Project.StateDir) }

func (m *Model) resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Validate checks the structural rules of a manifest.
func (m *Model) Validate() error {
	var errs []error
	if m.Recompute == nil {
		errs = append(errs, errors.New("a recompute block is required"))
	}
	if m.Project.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("project %q: concurrency must be at least 1, got %d", m.Project.Name, m.Project.Concurrency))
	}
	if m.Project.ContentDir == "" {
		errs = append(errs, fmt.Errorf("project %q: content_dir must not be empty", m.Project.Name))
	}
	if m.Project.StateDir == "" {
		errs = append(errs, fmt.Errorf("project %q: state_dir must not be empty", m.Project.Name))
	}
	return errors.Join(errs...)
}
