package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/cascade/internal/config"
	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	ctx        context.Context
	logger     *slog.Logger
	cfg        *Config
	registry   *registry.Registry
	model      *config.Model
	decoder    config.Decoder
	httpServer *http.Server
}

// NewApp is the constructor for the main application. outW receives run
// output, errW receives logs. When no modules are given the core driver
// modules are registered.
func NewApp(outW, errW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, decoder, err := loader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded.", "project", model.Project.Name, "dir", model.Dir)

	if cfg.Concurrency > 0 {
		model.Project.Concurrency = cfg.Concurrency
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.Validate(ctx, model); err != nil {
		return nil, err
	}

	return &App{
		outW:     outW,
		ctx:      ctx,
		logger:   logger,
		cfg:      cfg,
		registry: reg,
		model:    model,
		decoder:  decoder,
	}, nil
}

// Context returns a background context carrying the app logger.
func (a *App) Context() context.Context { return a.ctx }

// Model returns the loaded manifest.
func (a *App) Model() *config.Model { return a.model }

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// withLogger attaches the app logger to a caller context.
func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Close stops the healthcheck server if it was started.
func (a *App) Close() error {
	return a.closeHealthCheckServer()
}
