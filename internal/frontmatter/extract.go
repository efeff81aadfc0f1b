package frontmatter

import (
	"path"
	"strings"

	"github.com/specialistvlad/cascade/internal/route"
)

// Extractor turns declared references into canonical artifact paths.
type Extractor struct {
	resolver *route.Resolver
}

// NewExtractor creates an extractor that resolves through r.
func NewExtractor(r *route.Resolver) *Extractor {
	return &Extractor{resolver: r}
}

// Dependencies resolves refs declared by the artifact at artifactPath.
// Relative references are taken from the artifact's directory. A reference
// matching no route is kept as its cleaned path so the scheduler reports
// it as dangling. Duplicates are dropped, declaration order is kept.
func (e *Extractor) Dependencies(artifactPath string, refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	deps := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		canonical := e.Canonical(artifactPath, ref)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		deps = append(deps, canonical)
	}
	return deps
}

// Canonical resolves a single reference.
func (e *Extractor) Canonical(artifactPath, ref string) string {
	abs := Absolute(artifactPath, ref)
	if m, ok := e.resolver.ResolveWithIndexFallback(abs); ok {
		return m.Pattern()
	}
	return abs
}

// Absolute joins a relative reference onto the artifact's directory.
func Absolute(artifactPath, ref string) string {
	if strings.HasPrefix(ref, "/") {
		return path.Clean(ref)
	}
	return path.Join(path.Dir(artifactPath), ref)
}
