package httputil

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/openclaw/dailyflows-gateway-go/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// FailureResponse is the standard error response format
type FailureResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("an unexpected error occurred")
	}

	WriteJSON(w, StatusFromCode(appErr.Code), FailureResponse{
		OK:    false,
		Error: appErr.Message,
	})
}

// StatusFromCode maps ErrorCode to HTTP status code
func StatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeMissingRequired:
		return http.StatusBadRequest

	case apperrors.ErrCodeUnauthorized,
		apperrors.ErrCodeStaleTimestamp,
		apperrors.ErrCodeInvalidSignature,
		apperrors.ErrCodeSecretNotConfigured,
		apperrors.ErrCodeInvalidPairingCode:
		return http.StatusUnauthorized

	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound

	case apperrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed

	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests

	case apperrors.ErrCodeDeliveryFailed:
		return http.StatusBadGateway

	case apperrors.ErrCodeConfigWriteFailed,
		apperrors.ErrCodeInternal,
		apperrors.ErrCodeDatabase:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
