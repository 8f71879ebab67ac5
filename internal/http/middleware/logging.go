package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/princekumarofficial/ingest-service/internal/utils/response"
)

// RequestLogger logs every request at a level chosen by its status code.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			if wrapped.status >= 500 {
				level = slog.LevelError
			} else if wrapped.status >= 400 {
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "HTTP request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", ClientIP(r)),
			)
		})
	}
}

// Recover turns a handler panic into a 500 with a generic body.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Error("Handler panic",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", v))
					response.WriteJSON(w, http.StatusInternalServerError, response.Message("Internal server error"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
