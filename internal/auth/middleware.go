package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiptrack/internal/commons"
)

// AccessTokenParam is accepted in place of the Authorization header, since
// EventSource clients cannot set headers.
const AccessTokenParam = "access_token"

// Middleware rejects requests without a valid session token and stores the
// user id of those that have one.
func Middleware(issuer *TokenIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				traceID := uuid.New().String()
				commons.WriteError(w, traceID, http.StatusUnauthorized, commons.CodeUnauthorized,
					"authentication required", logger.With(zap.String("traceId", traceID)))
				return
			}

			userID, err := issuer.Parse(token)
			if err != nil {
				traceID := uuid.New().String()
				log := logger.With(zap.String("traceId", traceID))
				log.Debug("rejected session token", zap.String("path", r.URL.Path), zap.Error(err))
				commons.WriteError(w, traceID, http.StatusUnauthorized, commons.CodeUnauthorized,
					"invalid or expired session", log)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get(AccessTokenParam)
}
