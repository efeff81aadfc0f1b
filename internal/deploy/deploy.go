// Package deploy composes batch hooks and records successful deploys.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/source"
	"github.com/specialistvlad/cascade/internal/store"
)

// Named pairs a hook with the name it is logged and reported under.
type Named struct {
	Name string
	Hook executor.BatchHook
}

// Chain runs hooks in order and stops at the first error.
func Chain(hooks ...Named) executor.BatchHook {
	return executor.BatchHookFunc(func(ctx context.Context, b *executor.Batch) error {
		logger := ctxlog.FromContext(ctx)
		for _, h := range hooks {
			logger.Debug("Running deploy hook.", "hook", h.Name, "batch", b.Index)
			if err := h.Hook.OnBatchComplete(ctx, b); err != nil {
				return fmt.Errorf("%s: %w", h.Name, err)
			}
		}
		return nil
	})
}

// OutputPath is where the outcome should be published: the path the
// recompute returned, the front-matter override, or the artifact path.
func OutputPath(o executor.Outcome) string {
	if o.Result != nil && o.Result.OutputPath != "" {
		return o.Result.OutputPath
	}
	if o.Artifact != nil {
		if pl, ok := o.Artifact.Payload.(*source.Payload); ok {
			return pl.OutputPath()
		}
	}
	return o.Path
}

// RecordWriter persists deploy records.
type RecordWriter interface {
	Upsert(ctx context.Context, records ...store.Record) error
}

// Recorder is the last hook of every chain: it stores the content hash of
// each successful artifact so the next run treats it as unchanged.
type Recorder struct {
	Writer RecordWriter
	RunID  string
	Now    func() time.Time
}

func (r *Recorder) OnBatchComplete(ctx context.Context, b *executor.Batch) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	var records []store.Record
	for _, o := range b.Succeeded() {
		pl, ok := o.Artifact.Payload.(*source.Payload)
		if !ok {
			continue
		}
		records = append(records, store.Record{
			Path:        o.Path,
			ContentHash: pl.Hash,
			OutputPath:  OutputPath(o),
			RunID:       r.RunID,
			DeployedAt:  now(),
		})
	}
	ctxlog.FromContext(ctx).Debug("Recording deployed artifacts.", "batch", b.Index, "count", len(records))
	if err := r.Writer.Upsert(ctx, records...); err != nil {
		return fmt.Errorf("failed to record batch %d: %w", b.Index, err)
	}
	return nil
}
