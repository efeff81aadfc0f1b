package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/progress"
)

// Module is the interface that all driver modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// RecomputeDriver builds a recompute collaborator from its decoded input.
type RecomputeDriver struct {
	// NewInput returns a pointer to the struct the block body decodes into,
	// or nil when the driver takes no arguments.
	NewInput func() any
	New      func(ctx context.Context, input any) (executor.Recomputer, error)
}

// DeployDriver builds a batch hook from its decoded input.
type DeployDriver struct {
	NewInput func() any
	New      func(ctx context.Context, input any) (executor.BatchHook, error)
}

// RelayDriver builds an extra progress sink from its decoded input. Sinks
// implementing io.Closer are closed when the run ends.
type RelayDriver struct {
	NewInput func() any
	New      func(ctx context.Context, input any) (progress.Sink, error)
}

// Registry holds all registered drivers for a single application instance.
type Registry struct {
	recomputers map[string]*RecomputeDriver
	deployers   map[string]*DeployDriver
	relays      map[string]*RelayDriver
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		recomputers: make(map[string]*RecomputeDriver),
		deployers:   make(map[string]*DeployDriver),
		relays:      make(map[string]*RelayDriver),
	}
}

// RegisterRecomputer registers a recompute driver type.
func (r *Registry) RegisterRecomputer(name string, d *RecomputeDriver) {
	if _, exists := r.recomputers[name]; exists {
		panic(fmt.Sprintf("recompute driver '%s' already registered", name))
	}
	slog.Debug("Registering recompute driver.", "name", name)
	r.recomputers[name] = d
}

// RegisterDeployer registers a deploy driver type.
func (r *Registry) RegisterDeployer(name string, d *DeployDriver) {
	if _, exists := r.deployers[name]; exists {
		panic(fmt.Sprintf("deploy driver '%s' already registered", name))
	}
	slog.Debug("Registering deploy driver.", "name", name)
	r.deployers[name] = d
}

// RegisterRelay registers a relay driver type.
func (r *Registry) RegisterRelay(name string, d *RelayDriver) {
	if _, exists := r.relays[name]; exists {
		panic(fmt.Sprintf("relay driver '%s' already registered", name))
	}
	slog.Debug("Registering relay driver.", "name", name)
	r.relays[name] = d
}

// Types lists the registered type names per block kind, sorted.
func (r *Registry) Types() map[string][]string {
	return map[string][]string{
		"recompute": sortedKeys(r.recomputers),
		"deploy":    sortedKeys(r.deployers),
		"relay":     sortedKeys(r.relays),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
