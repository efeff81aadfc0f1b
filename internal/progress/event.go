// Package progress defines the events a workflow run emits and the sinks
// that consume them.
package progress

import (
	"time"

	"github.com/specialistvlad/cascade/internal/scheduler"
)

// Kind names an event type on the wire.
type Kind string

const (
	KindUnprocessedWarning Kind = "unprocessed-warning"
	KindArtifactResult     Kind = "artifact-result"
	KindBatchComplete      Kind = "batch-complete"
	KindRunComplete        Kind = "run-complete"
	KindRunFailed          Kind = "run-failed"
	KindRunCanceled        Kind = "run-canceled"
)

// Terminal reports whether no further events follow an event of this kind.
func (k Kind) Terminal() bool {
	return k == KindRunComplete || k == KindRunFailed || k == KindRunCanceled
}

// Status is the outcome of a single artifact.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// RunLevel is the batch index carried by events that belong to no batch.
const RunLevel = -1

// Summary totals a finished run.
type Summary struct {
	Batches     int           `json:"batches"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Unprocessed int           `json:"unprocessed"`
	Duration    time.Duration `json:"duration_ns"`
}

// Event is one entry in a run's ordered event stream.
type Event struct {
	Kind  Kind      `json:"kind"`
	RunID string    `json:"run_id"`
	Seq   int       `json:"seq"`
	Time  time.Time `json:"time"`
	Batch int       `json:"batch"`

	// artifact-result
	Path   string `json:"path,omitempty"`
	Status Status `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`

	// artifact-result (failure), run-failed
	Error string `json:"error,omitempty"`

	// unprocessed-warning, batch-complete
	Paths  []string          `json:"paths,omitempty"`
	Issues []scheduler.Issue `json:"issues,omitempty"`

	// run-complete, run-failed, run-canceled
	Summary *Summary `json:"summary,omitempty"`
}
