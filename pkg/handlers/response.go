package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/logging"
)

// ApiResponse wraps data in the format expected by the frontend.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindNoMatches:
		return http.StatusUnprocessableEntity
	case apperrors.KindRankingRateLimited:
		return http.StatusTooManyRequests
	case apperrors.KindUpstreamUnavailable,
		apperrors.KindRankingBadRequest,
		apperrors.KindRankingMalformedResponse,
		apperrors.KindRankingUnknown,
		apperrors.KindReferentialIntegrity:
		return http.StatusBadGateway
	case apperrors.KindRankingUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs err and writes the classified error response.
// Only the user message reaches the client; the cause stays in the logs.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, action string, err error) {
	kind := apperrors.KindOf(err)
	status := StatusForKind(kind)

	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("error", logging.SanitizeError(err)),
	}
	if status >= http.StatusInternalServerError {
		logger.Error(action, fields...)
	} else {
		logger.Info(action, fields...)
	}

	if err := ErrorResponse(w, status, string(kind), apperrors.UserMessage(err)); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
