// Package source builds the artifact set for a run from a content
// directory on disk.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/cascade/internal/artifact"
	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/frontmatter"
	"github.com/specialistvlad/cascade/internal/fsutil"
	"github.com/specialistvlad/cascade/internal/route"
)

// Payload is what the recompute and deploy drivers get for each artifact.
type Payload struct {
	Path   string
	File   string
	Kind   route.Kind
	Raw    []byte
	Body   []byte
	Hash   string
	Header *frontmatter.Header
}

// OutputPath is where the artifact is published unless the recompute
// result names another location.
func (p *Payload) OutputPath() string {
	if p.Header != nil && p.Header.Output != "" {
		return p.Header.Output
	}
	return p.Path
}

// Options controls a load.
type Options struct {
	ContentDir string
	Ignore     []string
	// Force marks every artifact as changed.
	Force bool
	// Recorded maps canonical paths to the content hash of their last
	// successful deploy.
	Recorded map[string]string
}

// Snapshot is the artifact set plus the resolver built from it.
type Snapshot struct {
	Artifacts artifact.Set
	Resolver  *route.Resolver
}

// PayloadOf returns the payload of the artifact at p, or nil.
func (s *Snapshot) PayloadOf(p string) *Payload {
	a, ok := s.Artifacts[p]
	if !ok {
		return nil
	}
	pl, _ := a.Payload.(*Payload)
	return pl
}

// CanonicalPath turns a slash-separated path relative to the content dir
// into an artifact identity.
func CanonicalPath(rel string) string {
	return "/" + rel
}

// HashContent returns the hex sha256 of b.
func HashContent(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Load walks the content directory and returns the artifact set.
func Load(ctx context.Context, opts Options) (*Snapshot, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading artifacts.", "content_dir", opts.ContentDir, "force", opts.Force)

	matcher, err := fsutil.NewMatcher(opts.Ignore...)
	if err != nil {
		return nil, err
	}
	rels, err := fsutil.FindFiles(opts.ContentDir, matcher)
	if err != nil {
		return nil, fmt.Errorf("failed to scan content dir %s: %w", opts.ContentDir, err)
	}

	paths := make([]string, len(rels))
	for i, rel := range rels {
		paths[i] = CanonicalPath(rel)
	}
	resolver, err := buildResolver(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("failed to build routes: %w", err)
	}
	extractor := frontmatter.NewExtractor(resolver)

	set := artifact.NewSet()
	for i, rel := range rels {
		p := paths[i]
		file := filepath.Join(opts.ContentDir, filepath.FromSlash(rel))
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		header, body, err := frontmatter.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}

		kind, _ := route.Classify(p)
		hash := HashContent(raw)
		changed := opts.Force || opts.Recorded[p] != hash
		deps := extractor.Dependencies(p, header.Files)

		logger.Debug("Artifact loaded.", "path", p, "kind", kind, "changed", changed, "deps", deps)
		set.Add(&artifact.Artifact{
			Path:         p,
			HasChanges:   changed,
			Dependencies: deps,
			Payload: &Payload{
				Path:   p,
				File:   file,
				Kind:   kind,
				Raw:    raw,
				Body:   body,
				Hash:   hash,
				Header: header,
			},
		})
	}

	logger.Debug("Artifacts loaded.", "count", len(set), "changed", len(set.Changed()))
	return &Snapshot{Artifacts: set, Resolver: resolver}, nil
}

// buildResolver compiles one route per artifact path in specificity order.
// A file name that is not a valid pattern is routed literally.
func buildResolver(ctx context.Context, paths []string) (*route.Resolver, error) {
	logger := ctxlog.FromContext(ctx)
	sorted := route.SortBySpecificity(paths)
	routes := make([]*route.Route, 0, len(sorted))
	for _, p := range sorted {
		rt, err := route.New(p)
		if errors.Is(err, route.ErrInvalidPattern) {
			logger.Warn("Path is not a valid route pattern, matching it literally.", "path", p, "error", err)
			rt, err = route.NewLiteral(p)
		}
		if err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	return route.NewResolverFromRoutes(routes...), nil
}
