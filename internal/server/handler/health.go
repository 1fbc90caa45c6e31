package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// Pinger checks one dependency.
type Pinger func(ctx context.Context) error

// HealthHandler serves the health check.
type HealthHandler struct {
	checks map[string]Pinger
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthHandler creates a HealthHandler. checks may be nil.
func NewHealthHandler(checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger.With(slog.String("handler", "health")), now: time.Now}
}

// HealthCheck reports "ok" when every dependency answers and "degraded"
// otherwise. It always returns 200 so the API stays routable while an
// optional backend is down.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for n := range h.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	status := "ok"
	deps := make(map[string]string, len(names))
	for _, n := range names {
		if err := h.checks[n](ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				slog.String("dependency", n),
				slog.String("error", err.Error()),
			)
			deps[n] = "down"
			status = "degraded"
			continue
		}
		deps[n] = "up"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"timestamp":    h.now().UTC().Format(time.RFC3339),
		"dependencies": deps,
	})
}
