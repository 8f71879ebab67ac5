package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/princekumarofficial/ingest-service/internal/utils/response"
)

const checkTimeout = 3 * time.Second

// Pinger is any dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthz pings every dependency
// @Summary Health check
// @Description Pings Postgres, Redis and MinIO.
// @Tags health
// @Produce json
// @Success 200 {object} Response "All dependencies reachable"
// @Failure 503 {object} Response "At least one dependency is down"
// @Router /healthz [get]
func Healthz(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		res := Response{Status: "ok", Checks: make(map[string]string, len(deps))}
		status := http.StatusOK
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				slog.Warn("Health check failed", slog.String("dependency", name), slog.String("error", err.Error()))
				res.Checks[name] = "unavailable"
				res.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			res.Checks[name] = "ok"
		}

		response.WriteJSON(w, status, res)
	}
}
