// Package artifact defines the unit of schedulable work: a canonical path
// plus the change and dependency metadata the scheduler reasons about.
package artifact

import "sort"

// Artifact is one schedulable unit of work.
type Artifact struct {
	// Path is the canonical identity, e.g. "/api/[id].ts".
	Path string
	// HasChanges is true when the artifact's own content changed in this run.
	HasChanges bool
	// Dependencies are the canonical paths this artifact depends on.
	Dependencies []string
	// Payload is whatever the recompute and deploy collaborators need. The
	// scheduler never inspects it.
	Payload any
}

// New creates an artifact with the given dependencies.
func New(path string, hasChanges bool, deps ...string) *Artifact {
	return &Artifact{Path: path, HasChanges: hasChanges, Dependencies: deps}
}

// Set is the full artifact set for one scheduling run, keyed by canonical path.
type Set map[string]*Artifact

// NewSet builds a Set from a list of artifacts. Later duplicates win.
func NewSet(artifacts ...*Artifact) Set {
	s := make(Set, len(artifacts))
	for _, a := range artifacts {
		s[a.Path] = a
	}
	return s
}

// Add inserts or replaces an artifact.
func (s Set) Add(a *Artifact) {
	s[a.Path] = a
}

// Paths returns all paths in lexical order.
func (s Set) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Changed returns the paths whose own content changed, in lexical order.
func (s Set) Changed() []string {
	var paths []string
	for p, a := range s {
		if a.HasChanges {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

