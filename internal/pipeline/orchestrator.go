package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the background jobs: periodic set refresh and the
// archive cron. Either may be nil.
type Orchestrator struct {
	refresher       *SetRefresher
	archiver        *Archiver
	refreshInterval time.Duration
	archiveCron     string
	logger          *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	refresher *SetRefresher,
	archiver *Archiver,
	refreshInterval time.Duration,
	archiveCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		refresher:       refresher,
		archiver:        archiver,
		refreshInterval: refreshInterval,
		archiveCron:     archiveCron,
		logger:          logger.With(slog.String("component", "pipeline")),
	}
}

// Run starts the jobs and blocks until ctx is cancelled or one of them fails.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.InfoContext(ctx, "pipeline orchestrator starting",
		slog.Duration("refresh_interval", o.refreshInterval),
		slog.String("archive_cron", o.archiveCron),
		slog.Bool("archive_enabled", o.archiver != nil),
	)

	g, ctx := errgroup.WithContext(ctx)

	if o.refresher != nil {
		g.Go(func() error {
			err := o.refresher.RunLoop(ctx, o.refreshInterval)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("set refresher: %w", err)
		})
	}

	if o.archiver != nil && o.archiveCron != "" {
		g.Go(func() error {
			err := o.archiver.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	if err := g.Wait(); err != nil {
		o.logger.ErrorContext(ctx, "pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}
	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}
