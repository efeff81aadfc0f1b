package registry

import (
	"context"
	"fmt"

	"github.com/specialistvlad/cascade/internal/config"
	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/executor"
	"github.com/specialistvlad/cascade/internal/progress"
)

func decodeInput(ctx context.Context, dec config.Decoder, d *config.Driver, newInput func() any) (any, error) {
	var input any
	if newInput != nil {
		input = newInput()
	}
	if err := dec.DecodeBody(ctx, d.Body, input); err != nil {
		return nil, fmt.Errorf("%s at %s: %w", d, d.DeclRange, err)
	}
	return input, nil
}

// BuildRecomputer decodes and builds the driver declared by d.
func (r *Registry) BuildRecomputer(ctx context.Context, dec config.Decoder, d *config.Driver) (executor.Recomputer, error) {
	drv, ok := r.recomputers[d.Type]
	if !ok {
		return nil, fmt.Errorf("unknown recompute driver type %q", d.Type)
	}
	input, err := decodeInput(ctx, dec, d, drv.NewInput)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Building recompute driver.", "type", d.Type)
	rc, err := drv.New(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d, err)
	}
	return rc, nil
}

// BuildDeployer decodes and builds the driver declared by d.
func (r *Registry) BuildDeployer(ctx context.Context, dec config.Decoder, d *config.Driver) (executor.BatchHook, error) {
	drv, ok := r.deployers[d.Type]
	if !ok {
		return nil, fmt.Errorf("unknown deploy driver type %q", d.Type)
	}
	input, err := decodeInput(ctx, dec, d, drv.NewInput)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Building deploy driver.", "type", d.Type)
	h, err := drv.New(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d, err)
	}
	return h, nil
}

// BuildRelay decodes and builds the driver declared by d.
func (r *Registry) BuildRelay(ctx context.Context, dec config.Decoder, d *config.Driver) (progress.Sink, error) {
	drv, ok := r.relays[d.Type]
	if !ok {
		return nil, fmt.Errorf("unknown relay driver type %q", d.Type)
	}
	input, err := decodeInput(ctx, dec, d, drv.NewInput)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Building relay driver.", "type", d.Type)
	s, err := drv.New(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d, err)
	}
	return s, nil
}
