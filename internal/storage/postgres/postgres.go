package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/princekumarofficial/ingest-service/internal/config"
	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

type Postgres struct {
	Db *sql.DB
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Postgres {
	return &Postgres{Db: db}
}

// NewPostgres connects, pings and creates the schema if needed.
func NewPostgres(ctx context.Context, cfg config.PQSQL) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pg := New(db)
	if err := pg.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	slog.Info("Connected to Postgres database", slog.String("host", cfg.Host), slog.String("dbname", cfg.DBName))

	if err := pg.CreateTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS quarantined_files (
			id BIGSERIAL PRIMARY KEY,
			original_filename TEXT NOT NULL,
			uploader_id VARCHAR(255) NOT NULL,
			tenant_id VARCHAR(128),
			reason VARCHAR(64) NOT NULL,
			detail TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			claimed_mime_type VARCHAR(255),
			leading_bytes_hex VARCHAR(64),
			uploader_ip VARCHAR(64),
			user_agent TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_quarantined_files_created_at ON quarantined_files (created_at);`,
		`
		CREATE TABLE IF NOT EXISTS uploaded_files (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(128),
			uploader_id VARCHAR(255) NOT NULL,
			original_filename TEXT NOT NULL,
			stored_filename TEXT NOT NULL,
			file_type VARCHAR(32) NOT NULL,
			mime_type VARCHAR(255) NOT NULL,
			file_size BIGINT NOT NULL,
			storage_path TEXT NOT NULL,
			raw_path TEXT,
			standard_path TEXT,
			preview_path TEXT,
			thumb_path TEXT,
			processing_status VARCHAR(32) NOT NULL,
			metadata_stripped BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS file_access_logs (
			id BIGSERIAL PRIMARY KEY,
			file_id UUID NOT NULL REFERENCES uploaded_files(id) ON DELETE CASCADE,
			action VARCHAR(32) NOT NULL CHECK (action IN ('upload', 'download', 'delete')),
			actor_id VARCHAR(255) NOT NULL,
			ip_address VARCHAR(64),
			user_agent TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) InsertQuarantine(ctx context.Context, rec *files.QuarantineRecord) error {
	query := `
	INSERT INTO quarantined_files (original_filename, uploader_id, tenant_id, reason, detail, file_size,
		claimed_mime_type, leading_bytes_hex, uploader_ip, user_agent, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id
	`

	err := p.Db.QueryRowContext(ctx, query,
		rec.OriginalFilename, rec.UploaderID, nullString(rec.TenantID), string(rec.Reason), rec.Detail, rec.Size,
		nullString(rec.ClaimedMimeType), nullString(rec.LeadingBytesHex), nullString(rec.UploaderIP),
		nullString(rec.UserAgent), rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert quarantine record: %w", err)
	}

	return nil
}

func (p *Postgres) InsertStoredFile(ctx context.Context, f *files.StoredFile) error {
	query := `
	INSERT INTO uploaded_files (id, tenant_id, uploader_id, original_filename, stored_filename, file_type,
		mime_type, file_size, storage_path, raw_path, standard_path, preview_path, thumb_path,
		processing_status, metadata_stripped, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := p.Db.ExecContext(ctx, query,
		f.ID, nullString(f.TenantID), f.UploaderID, f.OriginalFilename, f.StoredFilename, string(f.Category),
		f.MimeType, f.Size, f.Paths.Canonical, nullString(f.Paths.Raw), nullString(f.Paths.Standard),
		nullString(f.Paths.Preview), nullString(f.Paths.Thumb), string(f.Status), f.MetadataStripped, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert uploaded file: %w", err)
	}

	return nil
}

func (p *Postgres) InsertAccessLog(ctx context.Context, e *files.AccessLogEntry) error {
	query := `
	INSERT INTO file_access_logs (file_id, action, actor_id, ip_address, user_agent, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
	`

	err := p.Db.QueryRowContext(ctx, query,
		e.FileID, string(e.Action), e.ActorID, nullString(e.IP), nullString(e.UserAgent), e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}

	return nil
}

// QuarantineSummary counts quarantine events per uploader and tenant since
// the given time, busiest uploaders first.
func (p *Postgres) QuarantineSummary(ctx context.Context, since time.Time) ([]files.QuarantineSummary, error) {
	query := `
	SELECT uploader_id, COALESCE(tenant_id, ''), COUNT(*), MAX(created_at)
	FROM quarantined_files
	WHERE created_at >= $1
	GROUP BY uploader_id, tenant_id
	ORDER BY COUNT(*) DESC, uploader_id
	`

	rows, err := p.Db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query quarantine summary: %w", err)
	}
	defer rows.Close()

	var out []files.QuarantineSummary
	for rows.Next() {
		var s files.QuarantineSummary
		if err := rows.Scan(&s.UploaderID, &s.TenantID, &s.Count, &s.LastAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.Db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
