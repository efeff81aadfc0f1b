package route

import "strings"

// Kind tags what a path represents, derived from its suffix.
type Kind int

const (
	KindCode Kind = iota
	KindContent
	KindOpenAPI
	KindTypesDoc
)

// String returns the stable name of the kind used in logs and JSON output.
func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindContent:
		return "content"
	case KindOpenAPI:
		return "openapi"
	case KindTypesDoc:
		return "types-doc"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsDefinition reports whether the kind describes another (code) artifact.
func (k Kind) IsDefinition() bool {
	return k == KindOpenAPI || k == KindTypesDoc
}

type suffixRule struct {
	kind     Kind
	suffixes []string
}

// suffixRules are evaluated in order; the first rule with any matching
// suffix decides the kind.
var suffixRules = []suffixRule{
	{kind: KindTypesDoc, suffixes: []string{".ts.html"}},
	{kind: KindOpenAPI, suffixes: []string{".openapi.json"}},
	{kind: KindContent, suffixes: []string{".prompt.md", ".md", ".html", ".txt"}},
}

// Classify returns the kind of pathname together with the suffix that
// selected it. Code paths have an empty suffix. Within a rule, the longest
// matching suffix wins.
func Classify(pathname string) (Kind, string) {
	for _, rule := range suffixRules {
		best := ""
		for _, s := range rule.suffixes {
			if len(s) > len(best) && strings.HasSuffix(pathname, s) && len(pathname) > len(s) {
				best = s
			}
		}
		if best != "" {
			return rule.kind, best
		}
	}
	return KindCode, ""
}
