package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/service"
)

// RankingService ranks many products at once.
type RankingService interface {
	Rank(ctx context.Context, reqs []service.AnalyzeRequest) ([]domain.RankedProduct, error)
}

// RankingHandler serves bulk ranking.
type RankingHandler struct {
	ranking RankingService
	logger  *slog.Logger
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(ranking RankingService, logger *slog.Logger) *RankingHandler {
	return &RankingHandler{ranking: ranking, logger: logger.With(slog.String("handler", "ranking"))}
}

type rankRequest struct {
	Products []service.AnalyzeRequest `json:"products"`
}

// Rank evaluates the posted products and returns them best first.
// POST /api/rank
func (h *RankingHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}

	rows, err := h.ranking.Rank(r.Context(), req.Products)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Set not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"strategy": "max_roi", "results": rows})
}
