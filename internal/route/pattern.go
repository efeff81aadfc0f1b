package route

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned for route patterns that cannot be compiled.
var ErrInvalidPattern = errors.New("invalid route pattern")

// paramNameRegex restricts placeholder names to valid regexp group names.
var paramNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Route is a compiled route pattern. It is immutable once built.
type Route struct {
	Pattern string
	Kind    Kind
	Suffix  string
	Params  []string

	full *regexp.Regexp // the whole pattern
	bare *regexp.Regexp // pattern without its kind suffix
	stem *regexp.Regexp // bare pattern without a trailing extension, nil if none
}

// New compiles a route pattern.
func New(pattern string) (*Route, error) {
	return build(pattern, compile)
}

// NewLiteral compiles pattern as a static route. Brackets are matched as
// plain characters, so any non-empty path is accepted.
func NewLiteral(pattern string) (*Route, error) {
	return build(pattern, compileLiteral)
}

type compileFunc func(pattern string) (*regexp.Regexp, []string, error)

func build(pattern string, compile compileFunc) (*Route, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	full, params, err := compile(pattern)
	if err != nil {
		return nil, err
	}

	kind, suffix := Classify(pattern)
	r := &Route{
		Pattern: pattern,
		Kind:    kind,
		Suffix:  suffix,
		Params:  params,
		full:    full,
		bare:    full,
	}

	bare := strings.TrimSuffix(pattern, suffix)
	if suffix != "" {
		if r.bare, _, err = compile(bare); err != nil {
			return nil, err
		}
	}
	if ext := path.Ext(bare); ext != "" && (r.IsStatic() || !strings.ContainsAny(ext, "[]")) {
		if r.stem, _, err = compile(strings.TrimSuffix(bare, ext)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew is like New but panics on error. Intended for tests and fixed tables.
func MustNew(pattern string) *Route {
	r, err := New(pattern)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the declared pattern.
func (r *Route) String() string { return r.Pattern }

// IsStatic reports whether the pattern has no placeholders.
func (r *Route) IsStatic() bool { return len(r.Params) == 0 }

// formFor picks the compiled form a request of the given kind is compared
// against, or nil when the kinds cannot correspond.
func (r *Route) formFor(req Kind) *regexp.Regexp {
	switch req {
	case KindCode:
		return r.full
	case KindContent:
		switch r.Kind {
		case KindContent:
			return r.bare
		case KindCode:
			return r.full
		}
	case KindOpenAPI, KindTypesDoc:
		if r.Kind == req {
			return r.bare
		}
		if r.Kind == KindCode {
			return r.stem
		}
	}
	return nil
}

// match compares a suffix-stripped request path against the route.
func (r *Route) match(req Kind, base string) (map[string]string, bool) {
	re := r.formFor(req)
	if re == nil {
		return nil, false
	}
	groups := re.FindStringSubmatch(base)
	if groups == nil {
		return nil, false
	}
	params := make(map[string]string, len(r.Params))
	for i, name := range re.SubexpNames() {
		if i > 0 && name != "" {
			params[name] = groups[i]
		}
	}
	return params, true
}

func compileLiteral(pattern string) (*regexp.Regexp, []string, error) {
	return regexp.MustCompile("^" + regexp.QuoteMeta(pattern) + "$"), nil, nil
}

// compile turns a pattern into an anchored regular expression, replacing
// each `[name]` with a named group that matches one or more non-`/` runes.
func compile(pattern string) (*regexp.Regexp, []string, error) {
	var sb strings.Builder
	var params []string
	seen := make(map[string]struct{})

	sb.WriteByte('^')
	rest := pattern
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			sb.WriteString(regexp.QuoteMeta(rest))
			break
		}
		end := strings.IndexByte(rest[open:], ']')
		if end < 0 {
			return nil, nil, fmt.Errorf("%w: unterminated parameter in %q", ErrInvalidPattern, pattern)
		}
		end += open

		name := rest[open+1 : end]
		if !paramNameRegex.MatchString(name) {
			return nil, nil, fmt.Errorf("%w: bad parameter name %q in %q", ErrInvalidPattern, name, pattern)
		}
		if _, dup := seen[name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate parameter %q in %q", ErrInvalidPattern, name, pattern)
		}
		seen[name] = struct{}{}
		params = append(params, name)

		sb.WriteString(regexp.QuoteMeta(rest[:open]))
		sb.WriteString("(?P<" + name + ">[^/]+)")
		rest = rest[end+1:]
	}
	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, params, nil
}
