package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/deploy"
	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/progress"
	"github.com/specialistvlad/cascade/internal/store"
)

// ErrHookFailed is wrapped by the error Run returns when a batch hook
// stopped the run.
var ErrHookFailed = errors.New("deploy hook failed")

// RunOptions controls a single run.
type RunOptions struct {
	// Force treats every artifact as changed.
	Force bool
}

// Report describes a finished run.
type Report struct {
	RunID    string
	Plan     *Plan
	Terminal progress.Event
}

// Run computes the workflow and executes it. Every event is published to
// sinks, the app log and the configured relays. The returned error wraps
// ErrHookFailed when a batch hook failed and the context error when the run
// was canceled; the report is returned in both cases.
func (a *App) Run(ctx context.Context, opts RunOptions, sinks ...progress.Sink) (*Report, error) {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)

	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	snap, err := a.load(ctx, st, opts.Force)
	if err != nil {
		return nil, err
	}
	p := plan(snap)

	runID := uuid.NewString()
	ctx = ctxlog.With(ctx, "run_id", runID)

	recompute, err := a.registry.BuildRecomputer(ctx, a.decoder, a.model.Recompute)
	if err != nil {
		return nil, err
	}
	hooks := make([]deploy.Named, 0, len(a.model.Deploys)+1)
	for _, d := range a.model.Deploys {
		h, err := a.registry.BuildDeployer(ctx, a.decoder, d)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, deploy.Named{Name: d.String(), Hook: h})
	}
	hooks = append(hooks, deploy.Named{Name: "record", Hook: &deploy.Recorder{Writer: st, RunID: runID}})

	relays := make(progress.Fanout, 0, len(a.model.Relays))
	defer func() {
		if err := relays.Close(); err != nil {
			logger.Warn("Failed to close relays.", "error", err)
		}
	}()
	for _, d := range a.model.Relays {
		s, err := a.registry.BuildRelay(ctx, a.decoder, d)
		if err != nil {
			return nil, err
		}
		relays = append(relays, s)
	}

	if err := st.BeginRun(ctx, runID, time.Now()); err != nil {
		return nil, err
	}

	exec := executor.New(snap.Artifacts, recompute, deploy.Chain(hooks...),
		executor.WithConcurrency(a.model.Project.Concurrency),
		executor.WithRunID(runID),
	)

	fanout := make(progress.Fanout, 0, len(sinks)+len(relays)+1)
	fanout = append(fanout, sinks...)
	fanout = append(fanout, progress.LogSink{})
	fanout = append(fanout, relays...)

	stream := exec.Execute(ctx, p.Workflow)
	last, ok := progress.Pump(ctx, stream.Events(), fanout)
	<-stream.Done()

	report := &Report{RunID: runID, Plan: p, Terminal: last}
	status := store.RunCanceled
	var runErr error
	switch {
	case !ok:
		runErr = errors.New("run ended without a terminal event")
	case last.Kind == progress.KindRunComplete:
		status = store.RunComplete
	case last.Kind == progress.KindRunFailed:
		status = store.RunFailed
		runErr = fmt.Errorf("%w: %s", ErrHookFailed, last.Error)
	case last.Kind == progress.KindRunCanceled:
		runErr = fmt.Errorf("run canceled: %w", context.Cause(ctx))
	}

	var succeeded, failed int
	if last.Summary != nil {
		succeeded, failed = last.Summary.Succeeded, last.Summary.Failed
	}
	if err := st.FinishRun(context.WithoutCancel(ctx), runID, status, succeeded, failed, time.Now()); err != nil {
		logger.Error("Failed to record run result.", "error", err)
	}

	logger.Debug("Run recorded.", "status", status, "succeeded", succeeded, "failed", failed)
	return report, runErr
}
