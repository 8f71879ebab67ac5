package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/princekumarofficial/ingest-service/internal/utils/response"
)

// Limiter is a per-subject request budget.
type Limiter interface {
	Allow(ctx context.Context, subject, action string) (bool, int64, error)
	Limit() int64
	Window() time.Duration
}

// RateLimit enforces limiter for action, keyed by the authenticated user or
// the client address when no user is known. Limiter errors let the request
// through.
func RateLimit(limiter Limiter, action string, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "ratelimit"), slog.String("action", action))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := GetUserIDFromContext(r.Context())
			if !ok {
				subject = "ip:" + ClientIP(r)
			}

			allowed, remaining, err := limiter.Allow(r.Context(), subject, action)
			if err != nil {
				logger.Error("Rate limit check failed, allowing request",
					slog.String("subject", subject),
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			reset := strconv.Itoa(int(limiter.Window().Seconds()))
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", reset)

			if !allowed {
				logger.Warn("Rate limit exceeded", slog.String("subject", subject))
				w.Header().Set("Retry-After", reset)
				response.WriteJSON(w, http.StatusTooManyRequests, response.Message("Rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
