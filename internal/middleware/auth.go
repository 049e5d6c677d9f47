package middleware

import (
	"context"
	"net/http"
	"strings"

	"movex/internal/domain"

	"go.uber.org/zap"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenVerifier resolves an opaque bearer token to the authenticated
// principal. Production wires the Firebase Admin verifier; local development
// and tests wire the HMAC JWT verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Principal, error)
}

// AuthMiddleware extracts the bearer token, verifies it, and stores the
// principal in the request context. Failures answer 401 with {"error": ...}.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				respondWithError(w, http.StatusUnauthorized, "unauthorized: no token provided")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				respondWithError(w, http.StatusUnauthorized, "unauthorized: invalid authorization header")
				return
			}

			principal, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				logger.Debug("Token verification failed", zap.Error(err))
				respondWithError(w, http.StatusUnauthorized, "unauthorized: invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)

			logger.Debug("User authenticated",
				zap.String("uid", principal.UID),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the authenticated principal from the context.
func GetPrincipal(ctx context.Context) (*domain.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(*domain.Principal)
	return principal, ok
}
