package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/service"
)

// TrendingService returns the latest analysis per set.
type TrendingService interface {
	Trending(ctx context.Context, limit int) ([]domain.TrendingEntry, error)
}

// TrendingHandler serves the trending list.
type TrendingHandler struct {
	trending TrendingService
	logger   *slog.Logger
}

// NewTrendingHandler creates a TrendingHandler.
func NewTrendingHandler(trending TrendingService, logger *slog.Logger) *TrendingHandler {
	return &TrendingHandler{trending: trending, logger: logger.With(slog.String("handler", "trending"))}
}

// ListTrending returns recently analysed sets, newest first.
// GET /api/trending
func (h *TrendingHandler) ListTrending(w http.ResponseWriter, r *http.Request) {
	entries, err := h.trending.Trending(r.Context(), parseLimit(r, service.MaxTrending, service.MaxTrending))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}
	if entries == nil {
		entries = []domain.TrendingEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trending": entries})
}
