package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Damiangorskii/web-order-service/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts service errors to HTTP responses. Server side
// failures are logged; their details are not sent to the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrUpstreamUnavailable):
		logger.ErrorContext(r.Context(), "cart service call failed", slog.Any("error", err))
		respondError(w, http.StatusBadGateway, "upstream_unavailable", "cart service unavailable")
	case errors.Is(err, service.ErrMalformedPayload):
		logger.WarnContext(r.Context(), "upload rejected", slog.Any("error", err))
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "could not parse uploaded orders",
			Code:    "malformed_payload",
			Details: err.Error(),
		})
	default:
		logger.ErrorContext(r.Context(), "request failed", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
