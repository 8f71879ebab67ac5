package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/princekumarofficial/ingest-service/internal/config"
	"github.com/princekumarofficial/ingest-service/internal/storage/postgres"
	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

// Summarizer reads aggregated quarantine counts.
type Summarizer interface {
	QuarantineSummary(ctx context.Context, since time.Time) ([]files.QuarantineSummary, error)
}

// DigestWorker periodically logs who has been tripping the upload filters.
// It only reports.
type DigestWorker struct {
	storage  Summarizer
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewDigestWorker(storage Summarizer, interval, window time.Duration, logger *slog.Logger) *DigestWorker {
	return &DigestWorker{
		storage:  storage,
		interval: interval,
		window:   window,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "quarantine_digest")),
	}
}

func (dw *DigestWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(dw.interval)
	defer ticker.Stop()

	dw.logger.Info("Quarantine digest started",
		slog.String("interval", dw.interval.String()),
		slog.String("window", dw.window.String()))

	// Run once immediately on startup
	dw.report(ctx)

	for {
		select {
		case <-ctx.Done():
			dw.logger.Info("Quarantine digest shutting down")
			return
		case <-ticker.C:
			dw.report(ctx)
		}
	}
}

// report logs one line per uploader and a total. It returns the number of
// quarantine events in the window.
func (dw *DigestWorker) report(ctx context.Context) int {
	startTime := time.Now()
	since := dw.now().Add(-dw.window).UTC()

	rows, err := dw.storage.QuarantineSummary(ctx, since)
	if err != nil {
		dw.logger.Error("Failed to load quarantine summary",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
		return 0
	}

	total := 0
	for _, row := range rows {
		total += row.Count
		dw.logger.Warn("Uploader quarantine activity",
			slog.String("uploader_id", row.UploaderID),
			slog.String("tenant_id", row.TenantID),
			slog.Int("count", row.Count),
			slog.Time("last_at", row.LastAt))
	}

	dw.logger.Info("Quarantine digest complete",
		slog.Time("since", since),
		slog.Int("uploaders", len(rows)),
		slog.Int("quarantined", total),
		slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))

	return total
}

func main() {
	cfg := config.MustLoad()
	logger := config.SetupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := postgres.NewPostgres(ctx, cfg.PGSQL)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer storage.Close()

	worker := NewDigestWorker(storage, cfg.Digest.Interval, cfg.Digest.Window, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	worker.Start(ctx)

	slog.Info("Quarantine digest stopped")
}
