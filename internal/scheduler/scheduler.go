package scheduler

import (
	"sort"

	"github.com/specialistvlad/cascade/internal/artifact"
)

// Workflow is the scheduler output.
type Workflow struct {
	// Batches are processed in order; paths within a batch are independent.
	Batches [][]string `json:"batches"`
	// Unprocessed are the paths that could never be scheduled.
	Unprocessed []string `json:"unprocessed"`
}

// Len returns the number of paths across all batches.
func (w *Workflow) Len() int {
	n := 0
	for _, b := range w.Batches {
		n += len(b)
	}
	return n
}

// Empty reports whether there is nothing to recompute.
func (w *Workflow) Empty() bool {
	return len(w.Batches) == 0
}

// workItem is the scheduler's private copy of one artifact.
type workItem struct {
	changed bool
	deps    map[string]struct{}
}

// ComputeWorkflow computes the ordered batches for the given artifact set.
// The input is never mutated. Paths inside each batch and the unprocessed
// list are sorted lexically.
func ComputeWorkflow(artifacts artifact.Set) *Workflow {
	work := make(map[string]*workItem, len(artifacts))
	for p, a := range artifacts {
		deps := make(map[string]struct{}, len(a.Dependencies))
		for _, d := range a.Dependencies {
			deps[d] = struct{}{}
		}
		work[p] = &workItem{changed: a.HasChanges, deps: deps}
	}

	wf := &Workflow{Batches: [][]string{}}
	for len(work) > 0 {
		var removable []string
		for p, item := range work {
			if len(item.deps) == 0 {
				removable = append(removable, p)
			}
		}
		if len(removable) == 0 {
			break
		}
		sort.Strings(removable)

		var changed []string
		changedSet := make(map[string]struct{})
		for _, p := range removable {
			if work[p].changed {
				changed = append(changed, p)
				changedSet[p] = struct{}{}
			}
			delete(work, p)
		}

		// Staleness must be read off the dependency lists before they are pruned.
		for _, item := range work {
			if item.changed {
				continue
			}
			for d := range item.deps {
				if _, ok := changedSet[d]; ok {
					item.changed = true
					break
				}
			}
		}
		for _, item := range work {
			for _, p := range removable {
				delete(item.deps, p)
			}
		}

		if len(changed) > 0 {
			wf.Batches = append(wf.Batches, changed)
		}
	}

	wf.Unprocessed = make([]string, 0, len(work))
	for p := range work {
		wf.Unprocessed = append(wf.Unprocessed, p)
	}
	sort.Strings(wf.Unprocessed)
	return wf
}
