// v0
// internal/httpapi/respond.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"projetbda/analytics/internal/kpi"
	"projetbda/analytics/internal/planner"
	"projetbda/analytics/internal/schedule"
)

// envelope is the response body shape shared with the portals:
// {"ok":true,"data":...} or {"ok":false,"error":"..."}.
type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// badRequest marks parameter validation failures.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func writeData(w http.ResponseWriter, logger *slog.Logger, data any) {
	writeJSON(w, logger, http.StatusOK, envelope{OK: true, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "http_request_failed",
		slog.String("path", r.URL.Path),
		slog.String("requestId", RequestID(r.Context())),
		slog.Int("status", status),
		slog.Any("err", err),
	)
	writeJSON(w, logger, status, errorBody{OK: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("write_response_failed", slog.Any("err", err))
	}
}

// statusFor maps domain errors to HTTP codes: bad parameters 400, rejected
// data 422, breaker open 503, timeouts 504, anything else from upstream 502.
func statusFor(err error) int {
	var br badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, schedule.ErrMalformedPayload), errors.Is(err, kpi.ErrInvalidSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, planner.ErrCircuitBreakerOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
