package scheduler

import (
	"sort"

	"github.com/specialistvlad/cascade/internal/artifact"
	"github.com/specialistvlad/cascade/internal/dag"
)

// Reason classifies why a path could not be scheduled.
type Reason string

const (
	// ReasonMissingDependency: the path depends on something outside the artifact set.
	ReasonMissingDependency Reason = "missing-dependency"
	// ReasonCycle: the path sits on a dependency cycle.
	ReasonCycle Reason = "cycle"
	// ReasonBlocked: the path depends on another unprocessed path.
	ReasonBlocked Reason = "blocked"
)

// Issue explains one unprocessed path.
type Issue struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
	// Related holds the missing paths, the cycle (first element repeated at
	// the end), or the unprocessed dependencies, depending on Reason.
	Related []string `json:"related,omitempty"`
	// Blocks lists the other unprocessed paths that depend on Path.
	Blocks []string `json:"blocks,omitempty"`
}

// Explain returns one issue per unprocessed path, in the order given.
func Explain(artifacts artifact.Set, unprocessed []string) []Issue {
	if len(unprocessed) == 0 {
		return nil
	}

	g := dag.New()
	for _, p := range unprocessed {
		g.AddNode(p)
	}
	for _, p := range unprocessed {
		a, ok := artifacts[p]
		if !ok {
			continue
		}
		for _, d := range a.Dependencies {
			if g.Has(d) {
				// Both ends were just added, so this cannot fail.
				_ = g.AddEdge(d, p)
			}
		}
	}

	issues := make([]Issue, 0, len(unprocessed))
	for _, p := range unprocessed {
		a, ok := artifacts[p]
		if !ok {
			continue
		}

		var missing []string
		for _, d := range a.Dependencies {
			if _, ok := artifacts[d]; !ok {
				missing = append(missing, d)
			}
		}
		issue := Issue{Path: p, Blocks: waitingOn(g, p)}

		switch {
		case len(missing) > 0:
			sort.Strings(missing)
			issue.Reason, issue.Related = ReasonMissingDependency, missing
		default:
			if cycle := g.CycleThrough(p); cycle != nil {
				issue.Reason, issue.Related = ReasonCycle, cycle
				break
			}
			// Only edges between unprocessed paths are in the graph.
			blockedBy, _ := g.Dependencies(p)
			issue.Reason, issue.Related = ReasonBlocked, blockedBy
		}
		issues = append(issues, issue)
	}
	return issues
}

// waitingOn returns the other unprocessed paths that depend on p.
func waitingOn(g *dag.Graph, p string) []string {
	dependents, _ := g.Dependents(p)
	out := dependents[:0]
	for _, d := range dependents {
		if d != p {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
