package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
)

// apiResponse is the uniform success envelope.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiErrorResponse is the uniform error envelope. Errors is always present,
// even when empty.
type apiErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Auth:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(apperr.KindOf(err))
	message := apperr.MessageOf(err)

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "error", err)
	default:
		logger.Warn("request returned client error", "status", status, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := apiErrorResponse{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     []string{},
	}

	if encodeErr := json.NewEncoder(w).Encode(payload); encodeErr != nil {
		logger.Error("encode error body", "status", status, "error", encodeErr)
	}
}
