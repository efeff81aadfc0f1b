// Package hcl_adapter loads cascade manifests written in HCL.
package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/cascade/internal/config"
	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

// NewLoader creates a new HCL manifest loader that exposes the process
// environment as `env`.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// NewLoaderWithEnv creates a loader with a fixed environment, for tests.
func NewLoaderWithEnv(env map[string]string) *Loader {
	return &Loader{environ: func() []string {
		out := make([]string, 0, len(env))
		for k, v := range env {
			out = append(out, k+"="+v)
		}
		return out
	}}
}

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Projects   []*projectBlock `hcl:"project,block"`
	Recomputes []*driverBlock  `hcl:"recompute,block"`
	Deploys    []*driverBlock  `hcl:"deploy,block"`
	Relays     []*driverBlock  `hcl:"relay,block"`
}

type projectBlock struct {
	Name        string   `hcl:"name,label"`
	ContentDir  *string  `hcl:"content_dir,optional"`
	StateDir    *string  `hcl:"state_dir,optional"`
	Concurrency *int     `hcl:"concurrency,optional"`
	Ignore      []string `hcl:"ignore,optional"`
}

type driverBlock struct {
	Type      string    `hcl:"type,label"`
	Body      hcl.Body  `hcl:",remain"`
	DeclRange hcl.Range `hcl:",def_range"`
}

// Load parses every .hcl file found in paths, in lexical order per
// directory, and merges them into one model. Relative directories in the
// model resolve against the first path's directory.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Decoder, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no manifest path given")
	}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(hclFiles) == 0 {
		return nil, nil, fmt.Errorf("no .hcl manifest found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	evalCtx := newEvalContext(l.environ())
	model := config.NewModel(manifestDir(paths[0]))
	parser := hclparse.NewParser()
	var sawProject bool

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Projects {
			if sawProject {
				return nil, nil, fmt.Errorf("%s: only one project block is allowed", file)
			}
			sawProject = true
			applyProject(model.Project, p)
		}
		for _, d := range root.Recomputes {
			if model.Recompute != nil {
				return nil, nil, fmt.Errorf("%s: only one recompute block is allowed, already have %s", d.DeclRange, model.Recompute)
			}
			model.Recompute = translateDriver(config.KindRecompute, d)
		}
		for _, d := range root.Deploys {
			model.Deploys = append(model.Deploys, translateDriver(config.KindDeploy, d))
		}
		for _, d := range root.Relays {
			model.Relays = append(model.Relays, translateDriver(config.KindRelay, d))
		}
	}

	logger.Debug("HCL loading complete.",
		"project", model.Project.Name,
		"deploys", len(model.Deploys),
		"relays", len(model.Relays),
	)
	return model, &Decoder{evalCtx: evalCtx}, nil
}

func applyProject(dst *config.Project, p *projectBlock) {
	dst.Name = p.Name
	if p.ContentDir != nil {
		dst.ContentDir = *p.ContentDir
	}
	if p.StateDir != nil {
		dst.StateDir = *p.StateDir
	}
	if p.Concurrency != nil {
		dst.Concurrency = *p.Concurrency
	}
	dst.Ignore = p.Ignore
}

func translateDriver(kind config.DriverKind, d *driverBlock) *config.Driver {
	return &config.Driver{Kind: kind, Type: d.Type, Body: d.Body, DeclRange: d.DeclRange}
}

func manifestDir(p string) string {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return p
	}
	return filepath.Dir(p)
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		for _, f := range files {
			add(f)
		}
	}
	return allFiles, nil
}
