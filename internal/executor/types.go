package executor

import (
	"context"

	"github.com/specialistvlad/cascade/internal/artifact"
)

// Result is what a successful recompute produced.
type Result struct {
	// OutputPath is where the output should be published, relative to the
	// deploy root. Empty means the artifact's own path.
	OutputPath string
	Output     []byte
	// Detail is a short human-readable note carried on the result event.
	Detail string
}

// Request is the input to one recompute call.
type Request struct {
	RunID    string
	Artifact *artifact.Artifact
	Batch    int
	// Upstream holds the results of this artifact's dependencies that were
	// recomputed earlier in the same run.
	Upstream map[string]*Result
}

// Recomputer regenerates a single artifact. It must be safe to call
// concurrently for distinct paths.
type Recomputer interface {
	Recompute(ctx context.Context, req *Request) (*Result, error)
}

// RecomputeFunc adapts a function to Recomputer.
type RecomputeFunc func(ctx context.Context, req *Request) (*Result, error)

func (f RecomputeFunc) Recompute(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// Outcome is the settled state of one path in a batch.
type Outcome struct {
	Path     string
	Artifact *artifact.Artifact
	Result   *Result
	Err      error
}

// Succeeded reports whether the recompute returned without error.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Batch is handed to the hook once every path in it has settled.
type Batch struct {
	Index int
	Paths []string
	// Outcomes are in the same order as Paths.
	Outcomes []Outcome
}

// Succeeded returns the outcomes that carry a result.
func (b *Batch) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// BatchHook runs once per batch, after all of its recompute calls settled.
type BatchHook interface {
	OnBatchComplete(ctx context.Context, b *Batch) error
}

// BatchHookFunc adapts a function to BatchHook.
type BatchHookFunc func(ctx context.Context, b *Batch) error

func (f BatchHookFunc) OnBatchComplete(ctx context.Context, b *Batch) error {
	return f(ctx, b)
}

// noopHook is used when no hook is supplied.
type noopHook struct{}

func (noopHook) OnBatchComplete(context.Context, *Batch) error { return nil }
