package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

// Key patterns
const (
	QuarantineCountKey = "quarantine:count:%s" // quarantine:count:uploaderID
)

const (
	TallyWindow  = 24 * time.Hour
	tallyTimeout = 500 * time.Millisecond
)

// QuarantineTally counts quarantine events per uploader over a rolling
// window. It only reports; nothing is blocked based on the count.
type QuarantineTally struct {
	redis  redis.Cmdable
	window time.Duration
	logger *slog.Logger
}

func NewQuarantineTally(client redis.Cmdable, logger *slog.Logger) *QuarantineTally {
	return &QuarantineTally{
		redis:  client,
		window: TallyWindow,
		logger: logger.With(slog.String("component", "quarantine_tally")),
	}
}

// FileQuarantined increments the uploader's counter. Redis errors are
// logged and dropped.
func (t *QuarantineTally) FileQuarantined(ctx context.Context, rec *files.QuarantineRecord) {
	ctx, cancel := context.WithTimeout(ctx, tallyTimeout)
	defer cancel()

	n, err := t.Increment(ctx, rec.UploaderID)
	if err != nil {
		t.logger.Warn("Failed to update quarantine tally",
			slog.String("uploader_id", rec.UploaderID),
			slog.String("error", err.Error()))
		return
	}

	level := slog.LevelInfo
	if n > 1 {
		level = slog.LevelWarn
	}
	t.logger.Log(ctx, level, "Quarantine tally updated",
		slog.String("uploader_id", rec.UploaderID),
		slog.String("tenant_id", rec.TenantID),
		slog.String("reason", string(rec.Reason)),
		slog.Int64("count", n),
		slog.Duration("window", t.window))
}

func (t *QuarantineTally) FileStored(context.Context, *files.StoredFile) {}

// Increment bumps the counter and starts the window on the first event.
func (t *QuarantineTally) Increment(ctx context.Context, uploaderID string) (int64, error) {
	key := fmt.Sprintf(QuarantineCountKey, uploaderID)

	n, err := t.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := t.redis.Expire(ctx, key, t.window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Count returns the uploader's quarantine count in the current window.
func (t *QuarantineTally) Count(ctx context.Context, uploaderID string) (int64, error) {
	n, err := t.redis.Get(ctx, fmt.Sprintf(QuarantineCountKey, uploaderID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
