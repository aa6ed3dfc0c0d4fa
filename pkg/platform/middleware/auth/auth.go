// Package auth authenticates admin API callers from their bearer token.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
	"memberpanel/pkg/platform/httputil"
	"memberpanel/pkg/requestcontext"
)

// JWTValidator verifies a raw token and returns its claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims is what the middleware needs from a verified token.
type JWTClaims struct {
	// UserID is the panel user the token was issued to.
	UserID string
}

var (
	errMissingToken = dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header")
	errInvalidToken = dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
)

// RequireAuth rejects requests without a valid bearer token and stores the panel user id
// in the request context (requestcontext.UserID). Rejections never say which check failed.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized: missing bearer token", "request_id", requestID)
				httputil.WriteError(w, errMissingToken)
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized: token rejected", "request_id", requestID, "error", err)
				httputil.WriteError(w, errInvalidToken)
				return
			}
			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized: token subject is not a user id", "request_id", requestID)
				httputil.WriteError(w, errInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
		})
	}
}
