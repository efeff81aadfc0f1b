// Package executor drives a computed workflow: it recomputes every path of
// a batch with bounded concurrency, runs the batch hook once the batch has
// settled, and reports everything on a single ordered event stream.
//
// A failed recompute is data, not an error: it becomes a failure
// artifact-result and the batch carries on. A failed batch hook ends the
// run with run-failed because later batches can no longer trust what came
// before. Cancelling the context, or calling Stream.Stop, prevents new
// recompute calls from starting; calls already in flight finish on a
// detached context and still report their result before the stream closes.
package executor
