package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/progress"
	"github.com/specialistvlad/cascade/internal/scheduler"
)

// Execute starts running wf in the background and returns its stream.
// ctx must carry a logger. Cancelling it stops the run from scheduling
// further recompute calls. The caller must either drain Events or call
// Stop, otherwise the run blocks on delivery.
func (e *Executor) Execute(ctx context.Context, wf *scheduler.Workflow) *Stream {
	schedCtx, cancel := context.WithCancel(ctx)
	s := newStream(e.runID, e.buffer, cancel)

	go func() {
		defer close(s.done)
		defer close(s.events)
		defer cancel()
		e.run(ctxlog.With(schedCtx, "run_id", e.runID), s, wf)
	}()
	return s
}

// runState accumulates what happened so far.
type runState struct {
	mu       sync.Mutex
	results  map[string]*Result
	summary  progress.Summary
	started  time.Time
	complete int
}

func (st *runState) record(o Outcome) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if o.Succeeded() {
		st.results[o.Path] = o.Result
		st.summary.Succeeded++
		return
	}
	st.summary.Failed++
}

func (st *runState) upstream(deps []string) map[string]*Result {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[string]*Result)
	for _, d := range deps {
		if r, ok := st.results[d]; ok {
			out[d] = r
		}
	}
	return out
}

func (st *runState) finish() *progress.Summary {
	st.mu.Lock()
	defer st.mu.Unlock()
	sum := st.summary
	sum.Batches = st.complete
	sum.Duration = time.Since(st.started)
	return &sum
}

func (e *Executor) run(ctx context.Context, s *Stream, wf *scheduler.Workflow) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Starting run", "batches", len(wf.Batches), "artifacts", wf.Len(), "concurrency", e.concurrency)

	st := &runState{
		results: make(map[string]*Result),
		started: time.Now(),
		summary: progress.Summary{Unprocessed: len(wf.Unprocessed)},
	}

	if len(wf.Unprocessed) > 0 {
		logger.Warn("Some artifacts cannot be scheduled.", "unprocessed", wf.Unprocessed)
		s.emit(progress.Event{
			Kind:   progress.KindUnprocessedWarning,
			Batch:  progress.RunLevel,
			Paths:  wf.Unprocessed,
			Issues: scheduler.Explain(e.artifacts, wf.Unprocessed),
		})
	}

	// Recompute and hook calls outlive cancellation so external work is
	// never cut off half way.
	callCtx := context.WithoutCancel(ctx)
	sem := semaphore.NewWeighted(int64(e.concurrency))

	for i, paths := range wf.Batches {
		if ctx.Err() != nil {
			e.canceled(ctx, s, st)
			return
		}

		batch, ok := e.runBatch(ctx, callCtx, s, st, sem, i, paths)
		if !ok {
			e.canceled(ctx, s, st)
			return
		}

		logger.Debug("Running batch hook.", "batch", i)
		if err := e.hook.OnBatchComplete(ctxlog.With(callCtx, "batch", i), batch); err != nil {
			logger.Error("Batch hook failed, stopping run.", "batch", i, "error", err)
			s.emit(progress.Event{
				Kind:    progress.KindRunFailed,
				Batch:   i,
				Error:   fmt.Sprintf("batch %d hook: %v", i, err),
				Summary: st.finish(),
			})
			return
		}
		st.mu.Lock()
		st.complete++
		st.mu.Unlock()

		s.emit(progress.Event{Kind: progress.KindBatchComplete, Batch: i, Paths: paths})
		logger.Info("✅ Batch complete", "batch", i, "artifacts", len(paths))
	}

	sum := st.finish()
	s.emit(progress.Event{Kind: progress.KindRunComplete, Batch: progress.RunLevel, Summary: sum})
	logger.Info("🏁 Run complete", "succeeded", sum.Succeeded, "failed", sum.Failed, "unprocessed", sum.Unprocessed)
}

func (e *Executor) canceled(ctx context.Context, s *Stream, st *runState) {
	ctxlog.FromContext(ctx).Warn("Run canceled.", "reason", context.Cause(ctx))
	s.emit(progress.Event{Kind: progress.KindRunCanceled, Batch: progress.RunLevel, Summary: st.finish()})
}

// runBatch recomputes every path of one batch and waits for all of them.
// It reports false when cancellation prevented some paths from starting.
func (e *Executor) runBatch(
	ctx, callCtx context.Context,
	s *Stream,
	st *runState,
	sem *semaphore.Weighted,
	index int,
	paths []string,
) (*Batch, bool) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting batch.", "batch", index, "paths", paths)

	batch := &Batch{Index: index, Paths: paths, Outcomes: make([]Outcome, len(paths))}
	var wg sync.WaitGroup
	complete := true

	for j, p := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			logger.Debug("Not starting remaining paths.", "batch", index, "next", p, "error", err)
			complete = false
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			o := e.recomputeOne(ctxlog.With(callCtx, "batch", index, "path", p), st, index, p)
			batch.Outcomes[j] = o
			st.record(o)
			s.emit(resultEvent(index, o))
		}()
	}

	wg.Wait()
	return batch, complete
}

func (e *Executor) recomputeOne(ctx context.Context, st *runState, index int, p string) (o Outcome) {
	logger := ctxlog.FromContext(ctx)
	o.Path = p

	a, ok := e.artifacts[p]
	if !ok {
		o.Err = fmt.Errorf("artifact %s is not in the artifact set", p)
		return o
	}
	o.Artifact = a

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recompute panicked.", "panic", r)
			o.Result = nil
			o.Err = fmt.Errorf("recompute panicked: %v", r)
		}
	}()

	logger.Debug("Recomputing artifact.")
	req := &Request{RunID: e.runID, Artifact: a, Batch: index, Upstream: st.upstream(a.Dependencies)}
	res, err := e.recompute.Recompute(ctx, req)
	if err != nil {
		logger.Debug("Recompute failed.", "error", err)
		o.Err = err
		return o
	}
	if res == nil {
		res = &Result{}
	}
	o.Result = res
	logger.Debug("Recompute succeeded.", "bytes", len(res.Output))
	return o
}

func resultEvent(index int, o Outcome) progress.Event {
	ev := progress.Event{Kind: progress.KindArtifactResult, Batch: index, Path: o.Path}
	if o.Err != nil {
		ev.Status = progress.StatusFailure
		ev.Error = o.Err.Error()
		return ev
	}
	ev.Status = progress.StatusSuccess
	ev.Detail = o.Result.Detail
	return ev
}
