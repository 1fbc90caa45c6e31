package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// SetService lists sets newest first.
type SetService interface {
	ListSets(ctx context.Context, limit int) ([]domain.CardSet, error)
}

// SetHandler serves the set catalog.
type SetHandler struct {
	sets   SetService
	logger *slog.Logger
}

// NewSetHandler creates a SetHandler.
func NewSetHandler(sets SetService, logger *slog.Logger) *SetHandler {
	return &SetHandler{sets: sets, logger: logger.With(slog.String("handler", "sets"))}
}

type listSetsResponse struct {
	Sets  []domain.CardSet `json:"sets"`
	Count int              `json:"count"`
}

// ListSets returns recent sets.
// GET /api/sets?limit=50
func (h *SetHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.sets.ListSets(r.Context(), parseLimit(r, 50, 500))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Set not found")
		return
	}
	if sets == nil {
		sets = []domain.CardSet{}
	}
	writeJSON(w, http.StatusOK, listSetsResponse{Sets: sets, Count: len(sets)})
}
