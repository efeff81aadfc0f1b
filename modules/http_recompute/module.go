// Package http_recompute provides the `recompute "http"` driver: each
// artifact is POSTed as JSON to an external build service, which answers
// with the regenerated content.
package http_recompute

import (
	"context"
	"fmt"

	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of the `recompute "http"` block.
type Input struct {
	URL     string            `hcl:"url"`
	Timeout string            `hcl:"timeout,optional"`
	Headers map[string]string `hcl:"headers,optional"`
}

// Register registers the driver with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRecomputer("http", &registry.RecomputeDriver{
		NewInput: func() any { return new(Input) },
		New: func(ctx context.Context, input any) (executor.Recomputer, error) {
			in, ok := input.(*Input)
			if !ok {
				return nil, fmt.Errorf("unexpected input type %T", input)
			}
			rc, err := New(in)
			if err != nil {
				return nil, err
			}
			return rc, nil
		},
	})
}
