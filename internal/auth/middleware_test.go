package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shiptrack/internal/commons"
)

func TestMiddleware(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)
	token, err := ti.Issue(7)
	require.NoError(t, err)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
		wantUserID int64
	}{
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
			wantUserID: 7,
		},
		{
			name: "query parameter",
			prepare: func(r *http.Request) {
				q := r.URL.Query()
				q.Set(AccessTokenParam, token)
				r.URL.RawQuery = q.Encode()
			},
			wantStatus: http.StatusOK,
			wantUserID: 7,
		},
		{
			name:       "missing token",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID int64
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = UserIDFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			Middleware(ti, zap.NewNop())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUserID, gotUserID)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

				var body commons.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, commons.CodeUnauthorized, body.Error)
				assert.NotEmpty(t, body.Message)
				assert.NotEmpty(t, body.TraceID, "401 bodies carry a trace id like every other error")
			}
		})
	}
}

func TestUserIDFrom(t *testing.T) {
	_, ok := UserIDFrom(context.Background())
	assert.False(t, ok)

	userID, ok := UserIDFrom(WithUserID(context.Background(), 3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), userID)

	_, ok = UserIDFrom(WithUserID(context.Background(), 0))
	assert.False(t, ok)
}
