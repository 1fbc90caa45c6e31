package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/sealedev/internal/pipeline"
	"github.com/alanyoungcy/sealedev/internal/server"
	"github.com/alanyoungcy/sealedev/internal/server/handler"
	"github.com/alanyoungcy/sealedev/internal/server/ws"
)

// ServerMode serves the HTTP API until ctx is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svcs)
	return g.Wait()
}

// RefreshMode re-analyses watched sets and runs the archive cron.
func (a *App) RefreshMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting refresh mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startPipeline(ctx, g, deps, svcs)
	return g.Wait()
}

// FullMode runs the HTTP API and the background pipeline together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startPipeline(ctx, g, deps, svcs)
	a.startHTTPServer(ctx, g, deps, svcs)
	return g.Wait()
}

// AnalyzeMode runs one analysis and prints it as indented JSON.
func (a *App) AnalyzeMode(ctx context.Context, svcs *Services) error {
	if a.request.SetName == "" && a.request.SetID == "" && a.request.ProductName == "" {
		return errors.New("analyze mode: a set name or product is required")
	}

	rec, err := svcs.Analysis.Analyze(ctx, a.request)
	if err != nil {
		return fmt.Errorf("analyze mode: %w", err)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("analyze mode: write result: %w", err)
	}
	return nil
}

// startPipeline adds the set refresher and archive cron to g.
func (a *App) startPipeline(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *Services) {
	pc := a.cfg.Pipeline

	refresher := pipeline.NewSetRefresher(svcs.Analysis, svcs.Catalog, deps.LockManager, pipeline.RefreshConfig{
		WatchSets:   pc.WatchSets,
		WatchLatest: pc.WatchLatest,
		LockTTL:     pc.LockTTL.Duration,
	}, a.logger)

	var archiver *pipeline.Archiver
	if deps.Archiver != nil {
		archiver = pipeline.NewArchiver(deps.Archiver, pc.ArchiveRetentionDays, a.logger)
	} else {
		a.logger.InfoContext(ctx, "archive disabled (needs postgres and s3)")
	}

	orch := pipeline.NewOrchestrator(refresher, archiver, pc.RefreshInterval.Duration, pc.ArchiveCron, a.logger)
	g.Go(func() error {
		return orch.Run(ctx)
	})
}

// startHTTPServer adds the HTTP server, and the WebSocket hub when a signal
// bus is wired, to g. The server shuts down gracefully when ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *Services) {
	checks := make(map[string]handler.Pinger, len(deps.Pingers))
	for name, ping := range deps.Pingers {
		checks[name] = ping
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: time.Now().UTC(),
		})
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("ws hub: %w", err)
			}
			return nil
		})
	}

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(checks, a.logger),
		Analysis: handler.NewAnalysisHandler(svcs.Analysis, a.logger),
		Sets:     handler.NewSetHandler(svcs.Analysis, a.logger),
		Trending: handler.NewTrendingHandler(svcs.Analysis, a.logger),
		Ranking:  handler.NewRankingHandler(svcs.Ranking, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
