package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alanyoungcy/sealedev/internal/domain"
	"github.com/alanyoungcy/sealedev/internal/service"
)

// AnalysisService is what the analysis endpoints need from the service
// layer.
type AnalysisService interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (domain.Recommendation, error)
	GetAnalysis(ctx context.Context, id string) (domain.Recommendation, error)
	History(ctx context.Context, id string, limit int) ([]domain.Recommendation, error)
	Strategies() []string
}

// AnalysisHandler serves the analysis endpoints.
type AnalysisHandler struct {
	analyses AnalysisService
	logger   *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(analyses AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{analyses: analyses, logger: logger.With(slog.String("handler", "analysis"))}
}

// Analyze runs a new analysis.
// POST /api/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req service.AnalyzeRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeServiceError(w, r, h.logger, err, "")
		return
	}
	if strings.TrimSpace(req.ProductName) == "" && strings.TrimSpace(req.SetName) == "" && strings.TrimSpace(req.SetID) == "" {
		writeError(w, http.StatusBadRequest, "product_name or set_name required", CategoryInvalidInput)
		return
	}

	rec, err := h.analyses.Analyze(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Set not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetAnalysis returns a stored analysis by analysis id, or the latest one
// for a set id. With ?history=N it lists up to N analyses of the set instead.
// GET /api/analyze/{id}
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing analysis id", CategoryInvalidInput)
		return
	}

	if raw, ok := r.URL.Query()["history"]; ok {
		limit := service.MaxHistory
		if v := strings.TrimSpace(raw[0]); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "history must be a positive integer", CategoryInvalidInput)
				return
			}
			limit = min(n, service.MaxHistory)
		}
		recs, err := h.analyses.History(r.Context(), id, limit)
		if err != nil {
			writeServiceError(w, r, h.logger, err, "Analysis not found")
			return
		}
		writeJSON(w, http.StatusOK, historyResponse{Analyses: recs, Count: len(recs)})
		return
	}

	rec, err := h.analyses.GetAnalysis(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Analysis not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type historyResponse struct {
	Analyses []domain.Recommendation `json:"analyses"`
	Count    int                     `json:"count"`
}

// ListStrategies returns the selectable recommendation policies.
// GET /api/strategies
func (h *AnalysisHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": h.analyses.Strategies()})
}
