/*
Package route resolves request paths against declared route patterns.

A pattern is a slash-separated path whose segments may contain `[name]`
placeholders, e.g. `/api/[product]/[id]/index.html`. Every placeholder
matches one or more characters other than `/`, and matching is anchored to
the whole path.

Paths are classified by suffix before matching. The kinds, from most to
least specific, are:

	types-doc  `.ts.html`       rendered type definitions of a code file
	openapi    `.openapi.json`  machine-readable definition of a code file
	content    `.prompt.md`, `.md`, `.html`, `.txt`
	code       everything else

The matched suffix is stripped before the pattern comparison. Definition
kinds (types-doc, openapi) also match code routes once the route's own
trailing extension is removed, so `/lib/util.ts.html` resolves to the code
route `/lib/[name].ts`.
*/
package route
