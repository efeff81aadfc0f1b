// Package dag provides a small, concurrency-safe directed graph of string
// IDs. The scheduler uses it to explain why paths could not be scheduled:
// which ones sit on a dependency cycle, and which other paths they hold up.
package dag
