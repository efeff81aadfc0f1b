package executor

import (
	"github.com/google/uuid"

	"github.com/specialistvlad/cascade/internal/artifact"
)

// DefaultConcurrency bounds in-flight recompute calls when no option is given.
const DefaultConcurrency = 4

const defaultBuffer = 16

// Executor runs workflows over a fixed artifact set.
type Executor struct {
	artifacts   artifact.Set
	recompute   Recomputer
	hook        BatchHook
	concurrency int
	buffer      int
	runID       string
}

// Option configures an Executor.
type Option func(*Executor)

// WithConcurrency sets the maximum number of recompute calls in flight.
// Values below one are treated as one.
func WithConcurrency(n int) Option {
	return func(e *Executor) {
		e.concurrency = max(n, 1)
	}
}

// WithRunID sets the identifier stamped on every event.
func WithRunID(id string) Option {
	return func(e *Executor) {
		if id != "" {
			e.runID = id
		}
	}
}

// WithBuffer sets the event channel capacity.
func WithBuffer(n int) Option {
	return func(e *Executor) {
		e.buffer = max(n, 0)
	}
}

// New creates an executor. recompute must not be nil; a nil hook is a no-op.
func New(artifacts artifact.Set, recompute Recomputer, hook BatchHook, opts ...Option) *Executor {
	if hook == nil {
		hook = noopHook{}
	}
	e := &Executor{
		artifacts:   artifacts,
		recompute:   recompute,
		hook:        hook,
		concurrency: DefaultConcurrency,
		buffer:      defaultBuffer,
		runID:       uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunID returns the identifier stamped on this executor's events.
func (e *Executor) RunID() string { return e.runID }
