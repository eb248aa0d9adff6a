package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/solarview/solarview/internal/api/response"
	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/user"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

const identityKey contextKey = "identity"

// Authenticator resolves an API key to an active user.
type Authenticator interface {
	AuthenticateByAPIKey(ctx context.Context, key string) (user.User, error)
}

// Auth is middleware that extracts the X-API-Key header and resolves it
// to a user via the authenticator. Missing or invalid keys return 401.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			u, err := authenticator.AuthenticateByAPIKey(r.Context(), r.Header.Get(APIKeyHeader))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrUnauthenticated):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required", requestID)
				case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInactiveUser):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key", requestID)
				default:
					slog.Error("failed to authenticate request", "error", err, "requestId", requestID)
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), &u)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying the authenticated user.
func WithIdentity(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, identityKey, u)
}

// GetIdentity retrieves the authenticated user from the request context.
func GetIdentity(ctx context.Context) *user.User {
	if u, ok := ctx.Value(identityKey).(*user.User); ok {
		return u
	}
	return nil
}
