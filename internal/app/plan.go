package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/route"
	"github.com/specialistvlad/cascade/internal/scheduler"
	"github.com/specialistvlad/cascade/internal/source"
	"github.com/specialistvlad/cascade/internal/store"
)

// Plan is the workflow a run would execute, with a diagnostic for every
// artifact it cannot schedule.
type Plan struct {
	*scheduler.Workflow
	Issues []scheduler.Issue `json:"issues"`

	snapshot *source.Snapshot
}

func (a *App) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, filepath.Join(a.model.StateDir(), store.FileName))
}

// load builds the artifact set, marking as changed everything whose content
// differs from the last successful deploy.
func (a *App) load(ctx context.Context, st *store.Store, force bool) (*source.Snapshot, error) {
	recorded, err := st.Hashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read deploy records: %w", err)
	}
	return source.Load(ctx, source.Options{
		ContentDir: a.model.ContentDir(),
		Ignore:     a.model.Project.Ignore,
		Force:      force,
		Recorded:   recorded,
	})
}

func plan(snap *source.Snapshot) *Plan {
	wf := scheduler.ComputeWorkflow(snap.Artifacts)
	issues := scheduler.Explain(snap.Artifacts, wf.Unprocessed)
	if issues == nil {
		issues = []scheduler.Issue{}
	}
	return &Plan{Workflow: wf, Issues: issues, snapshot: snap}
}

// Plan computes the workflow without running it.
func (a *App) Plan(ctx context.Context, force bool) (*Plan, error) {
	ctx = a.withLogger(ctx)
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	snap, err := a.load(ctx, st, force)
	if err != nil {
		return nil, err
	}
	p := plan(snap)
	ctxlog.FromContext(ctx).Debug("Plan computed.", "batches", len(p.Batches), "unprocessed", len(p.Unprocessed))
	return p, nil
}

// Resolve matches pathname against the routes of the current content
// directory, falling back to an index document.
func (a *App) Resolve(ctx context.Context, pathname string) (*route.Match, bool, error) {
	ctx = a.withLogger(ctx)
	snap, err := source.Load(ctx, source.Options{
		ContentDir: a.model.ContentDir(),
		Ignore:     a.model.Project.Ignore,
	})
	if err != nil {
		return nil, false, err
	}
	m, ok := snap.Resolver.ResolveWithIndexFallback(pathname)
	return m, ok, nil
}

// History returns up to limit recorded runs, newest first.
func (a *App) History(ctx context.Context, limit int) ([]store.Run, error) {
	ctx = a.withLogger(ctx)
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Runs(ctx, limit)
}
