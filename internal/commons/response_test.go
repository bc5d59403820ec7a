package commons

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "shiptrack/internal/errors"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation",
			err:        apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{Field: "etd", Message: "etd is required"}),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
		{
			name:       "duplicate username",
			err:        fmt.Errorf("creating user: %w", apperrors.NewDuplicateUsernameError("alice")),
			wantStatus: http.StatusConflict,
			wantCode:   CodeDuplicateUsername,
		},
		{
			name:       "unauthorized",
			err:        apperrors.NewUnauthorizedError("bad token"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   CodeUnauthorized,
		},
		{
			name:       "storage",
			err:        apperrors.NewStorageError("insert order", errors.New("dial tcp 10.0.0.7:5432: connection refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   CodeStorageUnavailable,
		},
		{
			name:       "subscription",
			err:        apperrors.NewSubscriptionError("orders", errors.New("hub is closed")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   CodeLiveUpdatesDown,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			WriteServiceError(rec, "trace-1", tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestWriteServiceError_DoesNotLeakBackendDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperrors.NewStorageError("insert order", errors.New("pq: password authentication failed for user admin"))

	WriteServiceError(rec, "trace-1", err, zap.NewNop())

	assert.NotContains(t, rec.Body.String(), "password authentication")
	assert.NotContains(t, rec.Body.String(), "insert order")
}

func TestWriteValidationError_EmptyDetailsIsArray(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteValidationError(rec, "validation failed", zap.NewNop())

	assert.Contains(t, rec.Body.String(), `"details":[]`)
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantOK bool
	}{
		{name: "object", body: `{"company_name":"Acme"}`, wantOK: true},
		{name: "malformed", body: `{"company_name":`, wantOK: false},
		{name: "array", body: `[1,2]`, wantOK: false},
		{name: "null", body: `null`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			record, ok := DecodeRecord(rec, req, zap.NewNop())

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "Acme", record["company_name"])
			} else {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}
