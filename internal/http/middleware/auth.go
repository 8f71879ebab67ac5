package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/princekumarofficial/ingest-service/internal/utils/response"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	TenantIDKey contextKey = "tenantID"
)

// Authenticator resolves a bearer token to the uploader it was issued to.
type Authenticator interface {
	Authenticate(token string) (userID, tenantID string, err error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's identity in the request context.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(err))
				return
			}

			userID, tenantID, err := auth.Authenticate(token)
			if err != nil {
				slog.Debug("Rejected bearer token", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusUnauthorized, response.Message("Invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			if tenantID != "" {
				ctx = context.WithValue(ctx, TenantIDKey, tenantID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization header required")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("Invalid authorization header format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.New("Token not provided")
	}

	return token, nil
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetTenantIDFromContext returns the tenant claimed by the bearer token, if any.
func GetTenantIDFromContext(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(string)
	return tenantID, ok
}
