package dag

import "sync"

// Graph holds path IDs and the edges between a path and what it depends on.
// It is safe for concurrent use.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
}

type node struct {
	id string
	// deps are the paths id depends on; dependents are the paths waiting on id.
	deps       map[string]*node
	dependents map[string]*node
}
