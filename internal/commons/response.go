// Package commons holds the HTTP response helpers shared by the
// controllers.
package commons

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "shiptrack/internal/errors"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateUsername  = "DUPLICATE_USERNAME"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeLiveUpdatesDown    = "LIVE_UPDATES_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	TraceID string `json:"traceId,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func WriteJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, traceID string, status int, code, message string, logger *zap.Logger) {
	WriteJSON(w, status, ErrorResponse{
		TraceID: traceID,
		Error:   code,
		Message: message,
	}, logger)
}

func WriteValidationError(w http.ResponseWriter, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	if details == nil {
		details = []apperrors.ValidationDetail{}
	}
	WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   CodeValidation,
		Message: message,
		Details: details,
	}, logger)
}

// WriteServiceError maps an error returned by a service to its HTTP form.
// Backend detail is logged, never sent.
func WriteServiceError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, ve.Message, logger, ve.Details...)
		return
	}

	if de, ok := apperrors.IsDuplicateUsernameError(err); ok {
		logger.Info("duplicate username", zap.String("username", de.Username))
		WriteError(w, traceID, http.StatusConflict, CodeDuplicateUsername, "username is already taken", logger)
		return
	}

	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		WriteError(w, traceID, http.StatusUnauthorized, CodeUnauthorized, "authentication required", logger)
		return
	}

	if se, ok := apperrors.IsStorageError(err); ok {
		logger.Error("storage failure", zap.String("op", se.Op), zap.Error(se.Cause))
		WriteError(w, traceID, http.StatusServiceUnavailable, CodeStorageUnavailable, "the service is temporarily unavailable, please try again", logger)
		return
	}

	if se, ok := apperrors.IsSubscriptionError(err); ok {
		logger.Error("subscription failure", zap.String("topic", se.Topic), zap.Error(se.Cause))
		WriteError(w, traceID, http.StatusServiceUnavailable, CodeLiveUpdatesDown, "live updates are unavailable, please try again", logger)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	WriteError(w, traceID, http.StatusInternalServerError, CodeInternal, "an unexpected error occurred", logger)
}

// DecodeRecord reads a JSON object body. It reports false after writing a
// validation response when the body is not an object.
func DecodeRecord(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (map[string]any, bool) {
	var record map[string]any
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil || record == nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		WriteValidationError(w, "invalid JSON body", logger, apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be a JSON object",
		})
		return nil, false
	}
	return record, true
}
