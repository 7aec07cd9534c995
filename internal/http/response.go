package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
)

// apiResponse is the envelope every JSON endpoint answers with.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", applog.FieldError, err.Error())
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, apiResponse{Success: true, Data: data})
}

// writeError maps domain errors onto HTTP statuses. Validation failures are
// the caller's fault, missing ids are 404, and an interrupted cascade is a
// 500 that still reports how far the cascade got. Anything else is an
// opaque 500 so internals do not leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := applog.FromContext(r.Context())

	var cascadeErr *core.CascadeError
	switch {
	case errors.As(err, &cascadeErr):
		fields := applog.NewFields().
			WithOperation(applog.OpCascade).
			WithCascade(cascadeErr.CategoriesRemoved, cascadeErr.ExpensesRemoved).
			WithError(cascadeErr.Err)
		logger.ErrorContext(r.Context(), "cascade delete incomplete", fields.ToSlice()...)
		writeJSON(w, http.StatusInternalServerError, apiResponse{
			Success: false,
			Message: "delete incomplete, retry the operation",
			Data: map[string]int64{
				"categories_removed": cascadeErr.CategoriesRemoved,
				"expenses_removed":   cascadeErr.ExpensesRemoved,
			},
		})
	case errors.Is(err, core.ErrValidation):
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: err.Error()})
	default:
		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
			WithError(err)
		logger.ErrorContext(r.Context(), "request failed", fields.ToSlice()...)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "internal server error"})
	}
}

func logRequestStart(r *http.Request, clientIP string) {
	fields := applog.NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
		WithClientIP(clientIP)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "request started", fields.ToSlice()...)
}

func logRequestEnd(r *http.Request, status int, duration time.Duration, clientIP string) {
	fields := applog.NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
		WithHTTPResponse(status, duration.Milliseconds(), status < 400).
		WithClientIP(clientIP)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "request completed", fields.ToSlice()...)
}

func logRateLimited(r *http.Request, clientIP string) {
	fields := applog.NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
		WithClientIP(clientIP)
	applog.FromContext(r.Context()).WarnContext(r.Context(), "rate limit exceeded", fields.ToSlice()...)
}
