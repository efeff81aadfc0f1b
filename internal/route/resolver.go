package route

import (
	"slices"
	"strings"
)

// IndexDocument is the document name tried by ResolveWithIndexFallback.
const IndexDocument = "index.html"

// Match is the result of a successful resolution.
type Match struct {
	Route  *Route            `json:"-"`
	Path   string            `json:"path"`
	Kind   Kind              `json:"kind"`
	Params map[string]string `json:"params"`
}

// Pattern returns the canonical identity of the matched route.
func (m *Match) Pattern() string { return m.Route.Pattern }

// Resolver matches paths against an ordered, immutable set of routes.
type Resolver struct {
	routes []*Route
	// static indexes placeholder-free routes by pattern.
	static map[string]*Route
}

// NewResolver compiles the given patterns. The order of patterns is the
// tiebreak when a path matches more than one route.
func NewResolver(patterns ...string) (*Resolver, error) {
	routes := make([]*Route, 0, len(patterns))
	for _, p := range patterns {
		r, err := New(p)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return NewResolverFromRoutes(routes...), nil
}

// NewResolverFromRoutes builds a resolver over already compiled routes,
// kept in the given order.
func NewResolverFromRoutes(routes ...*Route) *Resolver {
	r := &Resolver{routes: slices.Clone(routes), static: make(map[string]*Route)}
	for _, rt := range routes {
		if _, dup := r.static[rt.Pattern]; !dup && rt.IsStatic() {
			r.static[rt.Pattern] = rt
		}
	}
	return r
}

// Routes returns the routes in resolution order.
func (r *Resolver) Routes() []*Route {
	out := make([]*Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Len returns the number of routes.
func (r *Resolver) Len() int { return len(r.routes) }

// Resolve matches pathname against the routes and returns the first match.
// A static route spelled exactly like pathname always wins, so a path never
// resolves to a sibling that only shares its suffix-stripped name.
// A path matching no route is reported with ok == false.
func (r *Resolver) Resolve(pathname string) (*Match, bool) {
	if pathname == "" {
		return nil, false
	}
	kind, suffix := Classify(pathname)
	if rt, ok := r.static[pathname]; ok {
		return &Match{Route: rt, Path: pathname, Kind: kind, Params: map[string]string{}}, true
	}
	base := strings.TrimSuffix(pathname, suffix)

	for _, rt := range r.routes {
		if params, ok := rt.match(kind, base); ok {
			return &Match{Route: rt, Path: pathname, Kind: kind, Params: params}, true
		}
	}
	return nil, false
}

// ResolveWithIndexFallback resolves pathname and, when that fails and the
// path does not already name an index document, retries with
// pathname + "/index.html".
func (r *Resolver) ResolveWithIndexFallback(pathname string) (*Match, bool) {
	if m, ok := r.Resolve(pathname); ok {
		return m, true
	}
	if pathname == "" || isIndexDocument(pathname) {
		return nil, false
	}
	return r.Resolve(strings.TrimSuffix(pathname, "/") + "/" + IndexDocument)
}

func isIndexDocument(pathname string) bool {
	return pathname == IndexDocument || strings.HasSuffix(pathname, "/"+IndexDocument)
}
