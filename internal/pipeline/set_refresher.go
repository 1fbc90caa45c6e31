package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/service"
)

// Analyzer runs and records one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (domain.Recommendation, error)
}

// SetLister lists sets newest first.
type SetLister interface {
	ListSets(ctx context.Context, limit int) ([]domain.CardSet, error)
}

// RefreshConfig selects which sets are re-analysed.
type RefreshConfig struct {
	// WatchSets are set ids refreshed on every run.
	WatchSets []string
	// WatchLatest adds the newest N sets to every run.
	WatchLatest int
	// LockTTL bounds how long one set refresh may hold its lock.
	LockTTL time.Duration
}

// SetRefresher periodically re-analyses watched sets so trending data and
// stored history stay current. A distributed lock keeps several instances
// from refreshing the same set at once.
type SetRefresher struct {
	analyzer Analyzer
	sets     SetLister
	locks    domain.LockManager
	cfg      RefreshConfig
	logger   *slog.Logger
}

// NewSetRefresher creates a SetRefresher. sets and locks may be nil.
func NewSetRefresher(analyzer Analyzer, sets SetLister, locks domain.LockManager, cfg RefreshConfig, logger *slog.Logger) *SetRefresher {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &SetRefresher{
		analyzer: analyzer,
		sets:     sets,
		locks:    locks,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "set_refresher")),
	}
}

func (r *SetRefresher) targets(ctx context.Context) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range r.cfg.WatchSets {
		add(id)
	}
	if r.cfg.WatchLatest > 0 && r.sets != nil {
		latest, err := r.sets.ListSets(ctx, r.cfg.WatchLatest)
		if err != nil {
			r.logger.WarnContext(ctx, "list latest sets failed", slog.String("error", err.Error()))
		}
		for _, s := range latest {
			add(s.ID)
		}
	}
	return ids
}

// Run refreshes every target set once and returns how many were analysed.
// Per-set failures are logged and skipped.
func (r *SetRefresher) Run(ctx context.Context) (int, error) {
	refreshed := 0
	for _, id := range r.targets(ctx) {
		if err := ctx.Err(); err != nil {
			return refreshed, fmt.Errorf("set refresher cancelled: %w", err)
		}
		ok, err := r.refreshOne(ctx, id)
		if err != nil {
			r.logger.WarnContext(ctx, "set refresh failed",
				slog.String("set_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			refreshed++
		}
	}

	r.logger.InfoContext(ctx, "set refresh complete", slog.Int("refreshed", refreshed))
	return refreshed, nil
}

func (r *SetRefresher) refreshOne(ctx context.Context, setID string) (bool, error) {
	if r.locks != nil {
		unlock, err := r.locks.Acquire(ctx, "refresh:"+setID, r.cfg.LockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			r.logger.DebugContext(ctx, "set refresh already running elsewhere", slog.String("set_id", setID))
			return false, nil
		}
		if err != nil {
			return false, err
		}
		defer unlock()
	}

	rec, err := r.analyzer.Analyze(ctx, service.AnalyzeRequest{SetID: setID})
	if err != nil {
		return false, err
	}
	r.logger.DebugContext(ctx, "set refreshed",
		slog.String("set_id", setID),
		slog.String("category", string(rec.Category)),
	)
	return true, nil
}

// RunLoop refreshes immediately and then on every interval until ctx is
// cancelled.
func (r *SetRefresher) RunLoop(ctx context.Context, interval time.Duration) error {
	if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
		r.logger.ErrorContext(ctx, "set refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "set refresher loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "set refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}
