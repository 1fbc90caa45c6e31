package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/sealedev/internal/domain"
)

// Error categories returned in every error body.
const (
	CategoryInvalidInput = "invalid_input"
	CategoryNotFound     = "not_found"
	CategoryInternal     = "internal"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

// writeJSON marshals v and writes it with the given status. If marshaling
// fails it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error","category":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends an {error, category} body.
func writeError(w http.ResponseWriter, status int, msg, category string) {
	writeJSON(w, status, errorBody{Error: msg, Category: category})
}

// writeServiceError maps a service error onto a status and client-safe body.
// notFoundMsg is used for domain.ErrNotFound. Anything unexpected is logged
// and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFoundMsg string) {
	var ue *domain.UserError
	switch {
	case errors.As(err, &ue):
		writeError(w, http.StatusBadRequest, ue.Msg, CategoryInvalidInput)
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid request", CategoryInvalidInput)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg, CategoryNotFound)
	default:
		logger.ErrorContext(r.Context(), "handler: request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error", CategoryInternal)
	}
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, w http.ResponseWriter, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Invalid(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// parseLimit reads ?limit=, defaulting to def and capping at max.
func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}
