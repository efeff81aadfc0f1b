package route

import (
	"slices"
	"strings"
)

// SortBySpecificity orders patterns so that, segment by segment, static
// segments come before segments holding a placeholder. Ties fall back to
// more segments first and then lexical order, so the result is stable
// for any input order.
func SortBySpecificity(patterns []string) []string {
	out := slices.Clone(patterns)
	slices.SortFunc(out, compareSpecificity)
	return slices.Compact(out)
}

func compareSpecificity(a, b string) int {
	as := strings.Split(strings.Trim(a, "/"), "/")
	bs := strings.Split(strings.Trim(b, "/"), "/")

	for i := 0; i < min(len(as), len(bs)); i++ {
		ad, bd := strings.Contains(as[i], "["), strings.Contains(bs[i], "[")
		if ad != bd {
			if ad {
				return 1
			}
			return -1
		}
	}
	if len(as) != len(bs) {
		return len(bs) - len(as)
	}
	return strings.Compare(a, b)
}
