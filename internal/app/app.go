// Package app provides the top-level application lifecycle management for the
// sealed product EV service. It wires together all dependencies (store,
// caches, blob storage, services, pipeline, and notifications) and starts the
// appropriate goroutines based on the configured operating mode.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alanyoungcy/sealedev/internal/config"
	"github.com/alanyoungcy/sealedev/internal/service"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()

	// request and out are used by analyze mode.
	request service.AnalyzeRequest
	out     io.Writer
}

// Option customises an App.
type Option func(*App)

// WithAnalyzeRequest sets the product analyze mode evaluates.
func WithAnalyzeRequest(req service.AnalyzeRequest) Option {
	return func(a *App) { a.request = req }
}

// WithOutput redirects analyze mode output (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *App {
	a := &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode, starts the corresponding goroutines, and blocks until the
// context is cancelled. On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	svcs, err := NewServices(a.cfg, deps, a.logger)
	if err != nil {
		return fmt.Errorf("app: build services: %w", err)
	}

	switch strings.ToLower(a.cfg.Mode) {
	case "server":
		return a.ServerMode(ctx, deps, svcs)
	case "refresh":
		return a.RefreshMode(ctx, deps, svcs)
	case "full":
		return a.FullMode(ctx, deps, svcs)
	case "analyze":
		return a.AnalyzeMode(ctx, svcs)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
