// Package scheduler decides which artifacts must be recomputed and in what
// order.
//
// ComputeWorkflow repeatedly peels off every artifact whose dependencies
// have all been settled, propagating staleness from changed artifacts to
// their dependents before pruning the settled ones from the remaining
// dependency lists. Each pass that removes at least one changed artifact
// yields a batch; artifacts in the same batch never depend on one another
// and may be processed in parallel.
//
// The loop stops as soon as a pass removes nothing, so it runs at most
// len(artifacts) passes. Whatever is left could never be settled: it sits
// on a dependency cycle, depends on a path outside the artifact set, or
// depends on something that does. Explain tells those cases apart.
package scheduler
