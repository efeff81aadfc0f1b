package testutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/registry"
	"github.com/specialistvlad/cascade/internal/source"
)

// EchoInput configures `recompute "echo"`.
type EchoInput struct {
	// Fail lists artifact paths whose recompute returns an error.
	Fail []string `hcl:"fail,optional"`
}

// CaptureInput configures `deploy "capture"`.
type CaptureInput struct {
	Fail bool `hcl:"fail,optional"`
}

// Drivers is a registry module with two in-process drivers that record
// what they were asked to do: `recompute "echo"` returns each artifact's
// body as its output, and `deploy "capture"` remembers every batch.
type Drivers struct {
	mu         sync.Mutex
	recomputed []string
	batches    [][]string
}

func (d *Drivers) Register(r *registry.Registry) {
	r.RegisterRecomputer("echo", &registry.RecomputeDriver{
		NewInput: func() any { return new(EchoInput) },
		New: func(_ context.Context, input any) (executor.Recomputer, error) {
			in := input.(*EchoInput)
			return executor.RecomputeFunc(func(_ context.Context, req *executor.Request) (*executor.Result, error) {
				d.mu.Lock()
				d.recomputed = append(d.recomputed, req.Artifact.Path)
				d.mu.Unlock()
				if slices.Contains(in.Fail, req.Artifact.Path) {
					return nil, fmt.Errorf("echo refused %s", req.Artifact.Path)
				}
				var body []byte
				if pl, ok := req.Artifact.Payload.(*source.Payload); ok {
					body = pl.Body
				}
				return &executor.Result{Output: body, Detail: fmt.Sprintf("%d upstream", len(req.Upstream))}, nil
			}), nil
		},
	})
	r.RegisterDeployer("capture", &registry.DeployDriver{
		NewInput: func() any { return new(CaptureInput) },
		New: func(_ context.Context, input any) (executor.BatchHook, error) {
			in := input.(*CaptureInput)
			return executor.BatchHookFunc(func(_ context.Context, b *executor.Batch) error {
				d.mu.Lock()
				d.batches = append(d.batches, slices.Clone(b.Paths))
				d.mu.Unlock()
				if in.Fail {
					return errors.New("capture rejected the batch")
				}
				return nil
			}), nil
		},
	})
}

// Recomputed returns the recomputed paths, sorted.
func (d *Drivers) Recomputed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := slices.Clone(d.recomputed)
	slices.Sort(out)
	return out
}

// Batches returns the paths of every batch the deploy hook saw, in order.
func (d *Drivers) Batches() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.batches)
}

// Reset forgets everything recorded so far.
func (d *Drivers) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recomputed = nil
	d.batches = nil
}
