package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/strategy"
	"github.com/alanyoungcy/sealedev/internal/valuation"
)

// MaxRankItems caps a single ranking request.
const MaxRankItems = 50

// Evaluator computes a recommendation for one request.
type Evaluator interface {
	Evaluate(ctx context.Context, req AnalyzeRequest) (domain.Recommendation, error)
}

// RankingService evaluates many products concurrently and orders them by
// their best projected return.
type RankingService struct {
	eval    Evaluator
	workers int64
	logger  *slog.Logger
}

// NewRankingService creates a RankingService running at most workers
// evaluations at once.
func NewRankingService(eval Evaluator, workers int, logger *slog.Logger) *RankingService {
	if workers <= 0 {
		workers = 4
	}
	return &RankingService{
		eval:    eval,
		workers: int64(workers),
		logger:  logger.With(slog.String("component", "ranking")),
	}
}

// Rank evaluates every request under the max_roi policy. A failing item is
// reported in its row; it does not fail the batch. Rows are sorted by best
// ROI percent descending, failed rows last, input order breaking ties.
func (s *RankingService) Rank(ctx context.Context, reqs []AnalyzeRequest) ([]domain.RankedProduct, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("ranking_service: %w", domain.Invalid("products required"))
	}
	if len(reqs) > MaxRankItems {
		return nil, fmt.Errorf("ranking_service: %w", domain.Invalid(fmt.Sprintf("at most %d products per request", MaxRankItems)))
	}

	out := make([]domain.RankedProduct, len(reqs))
	sem := semaphore.NewWeighted(s.workers)
	g, gctx := errgroup.WithContext(ctx)

	for i, req := range reqs {
		if err := sem.Acquire(gctx, 1); err != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("ranking_service: acquire: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			req.Strategy = strategy.NameMaxROI
			out[i] = s.rankOne(gctx, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ranking_service: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Error == "") != (out[j].Error == "") {
			return out[i].Error == ""
		}
		return out[i].BestROIPercent > out[j].BestROIPercent
	})
	return out, nil
}

// rowError renders err for a client without leaking internals.
func rowError(err error) string {
	var ue *domain.UserError
	switch {
	case errors.As(err, &ue):
		return ue.Msg
	case errors.Is(err, domain.ErrNotFound):
		return "Set not found"
	default:
		return "analysis failed"
	}
}

func (s *RankingService) rankOne(ctx context.Context, req AnalyzeRequest) domain.RankedProduct {
	rec, err := s.eval.Evaluate(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "ranking_service: evaluate failed",
			slog.String("product", req.ProductName),
			slog.String("error", err.Error()),
		)
		return domain.RankedProduct{
			ProductName: req.ProductName,
			SetID:       req.SetID,
			SetName:     req.SetName,
			Error:       rowError(err),
		}
	}
	rec = valuation.Present(rec)
	return domain.RankedProduct{
		ProductName:    rec.ProductName,
		SetID:          rec.SetID,
		SetName:        rec.SetName,
		SealedPrice:    rec.Pricing.SealedBoxCost,
		EVTotal:        rec.EVBreakdown.EVTotal,
		ROI:            rec.ROI,
		Action:         rec.Category,
		BestROIPercent: rec.ROI.Entry(rec.Category).Percent,
		Confidence:     rec.ConfidenceScore,
	}
}
