package storage

import (
	"context"
	"time"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

// Store persists upload metadata and audit records.
type Store interface {
	InsertQuarantine(ctx context.Context, rec *files.QuarantineRecord) error
	InsertStoredFile(ctx context.Context, file *files.StoredFile) error
	InsertAccessLog(ctx context.Context, entry *files.AccessLogEntry) error
	QuarantineSummary(ctx context.Context, since time.Time) ([]files.QuarantineSummary, error)
	Ping(ctx context.Context) error
}
