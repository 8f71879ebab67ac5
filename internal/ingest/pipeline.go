package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/princekumarofficial/ingest-service/internal/types/files"
)

// Mode selects which storage layout a pipeline uses.
type Mode string

const (
	// ModeDocuments stores one copy under the processed bucket.
	ModeDocuments Mode = "documents"
	// ModePhotos stores the raw original plus standard, preview and thumb
	// renditions.
	ModePhotos Mode = "photos"
)

const octetStream = "application/octet-stream"

// File is one uploaded payload. Size and ContentType come from the request
// envelope; Open is only called once the cheap checks have passed.
type File interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

// Uploader identifies who sent a batch.
type Uploader struct {
	ID        string
	TenantID  string
	IP        string
	UserAgent string
}

// Batch is a single upload request.
type Batch struct {
	Uploader Uploader
	Files    []File
}

// FileResult is the per-file outcome returned to the caller.
type FileResult struct {
	FileName    string `json:"fileName"`
	Success     bool   `json:"success"`
	FileID      string `json:"fileId,omitempty"`
	URL         string `json:"url,omitempty"`
	StandardURL string `json:"standardUrl,omitempty"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
	Error       string `json:"error,omitempty"`
	Quarantined bool   `json:"quarantined,omitempty"`
}

// BatchResult aggregates the outcomes of a batch.
type BatchResult struct {
	Success     bool         `json:"success"`
	Processed   int          `json:"processed"`
	Failed      int          `json:"failed"`
	Quarantined int          `json:"quarantined"`
	Results     []FileResult `json:"results"`
}

// MetadataStore receives the records written by the pipeline.
type MetadataStore interface {
	InsertQuarantine(ctx context.Context, rec *files.QuarantineRecord) error
	InsertStoredFile(ctx context.Context, file *files.StoredFile) error
	InsertAccessLog(ctx context.Context, entry *files.AccessLogEntry) error
}

// BlobStore is the object storage used for file bytes.
type BlobStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Remove(ctx context.Context, bucket, key string) error
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Observer is told about every terminal file outcome. Implementations must
// not block.
type Observer interface {
	FileStored(ctx context.Context, file *files.StoredFile)
	FileQuarantined(ctx context.Context, rec *files.QuarantineRecord)
}

type Options struct {
	Mode            Mode
	Policies        *PolicyTable
	RawBucket       string
	ProcessedBucket string
	URLTTL          time.Duration
	MaxFiles        int
	MaxBatchBytes   int64

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

type Pipeline struct {
	opts      Options
	store     MetadataStore
	blobs     BlobStore
	observers []Observer
	logger    *slog.Logger
}

func NewPipeline(opts Options, store MetadataStore, blobs BlobStore, logger *slog.Logger, observers ...Observer) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Policies == nil {
		if opts.Mode == ModePhotos {
			opts.Policies = PhotoPolicies()
		} else {
			opts.Policies = DocumentPolicies()
		}
	}
	return &Pipeline{
		opts:      opts,
		store:     store,
		blobs:     blobs,
		observers: observers,
		logger:    logger.With(slog.String("component", "ingest"), slog.String("pipeline", string(opts.Mode))),
	}
}

// Mode returns the pipeline's storage layout.
func (p *Pipeline) Mode() Mode { return p.opts.Mode }

// MaxBatchBytes is the combined size ceiling for one batch.
func (p *Pipeline) MaxBatchBytes() int64 { return p.opts.MaxBatchBytes }

// Process validates the batch limits and then runs every file through the
// pipeline in order. A file's failure never affects its siblings. The
// returned error is either a *LimitError or a context error.
func (p *Pipeline) Process(ctx context.Context, batch Batch) (*BatchResult, error) {
	if err := p.checkBatch(batch.Files); err != nil {
		batchesRejectedTotal.WithLabelValues(string(p.opts.Mode)).Inc()
		p.logger.Warn("Batch rejected",
			slog.String("uploader_id", batch.Uploader.ID),
			slog.Int("files", len(batch.Files)),
			slog.String("error", err.Error()))
		return nil, err
	}

	result := &BatchResult{Results: make([]FileResult, 0, len(batch.Files))}
	for _, f := range batch.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r := p.processFile(ctx, batch.Uploader, f)
		switch {
		case r.Success:
			result.Processed++
		case r.Quarantined:
			result.Quarantined++
		default:
			result.Failed++
		}
		result.Results = append(result.Results, r)
	}
	result.Success = result.Processed > 0

	p.logger.Info("Batch processed",
		slog.String("uploader_id", batch.Uploader.ID),
		slog.String("tenant_id", batch.Uploader.TenantID),
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed),
		slog.Int("quarantined", result.Quarantined))

	return result, nil
}

func (p *Pipeline) checkBatch(fs []File) error {
	if len(fs) == 0 {
		return &LimitError{Err: ErrNoFiles, Message: "No files provided"}
	}
	if len(fs) > p.opts.MaxFiles {
		return &LimitError{Err: ErrTooManyFiles, Message: fmt.Sprintf("Maximum %d files per request", p.opts.MaxFiles)}
	}
	var total int64
	for _, f := range fs {
		total += f.Size()
	}
	if total > p.opts.MaxBatchBytes {
		return &LimitError{Err: ErrBatchTooLarge, Message: fmt.Sprintf("Total upload size exceeds %dMB", p.opts.MaxBatchBytes/mb)}
	}
	return nil
}

func (p *Pipeline) processFile(ctx context.Context, u Uploader, f File) FileResult {
	name := baseName(f.Name())
	logger := p.logger.With(
		slog.String("file_name", name),
		slog.String("uploader_id", u.ID),
		slog.String("tenant_id", u.TenantID))

	ext, rej := CheckName(name)
	if rej != nil {
		return p.quarantine(ctx, logger, u, f, rej)
	}

	if ext == "" {
		return p.fail(logger, name, "File type not supported: (none)")
	}
	policy, ok := p.opts.Policies.Lookup(ext)
	if !ok {
		return p.fail(logger, name, fmt.Sprintf("File type not supported: %s", ext))
	}

	if f.Size() > policy.MaxSizeBytes {
		return p.fail(logger, name, fmt.Sprintf("File too large. Maximum size for .%s files is %dMB", ext, policy.MaxSizeBytes/mb))
	}

	declared := normalizeMIME(f.ContentType())
	mimeType := declared
	if !policy.AllowsMIME(declared) {
		if p.opts.Policies.StrictMIME() {
			return p.fail(logger, name, fmt.Sprintf("Invalid file type: %s", declared))
		}
		if declared != octetStream && declared != "" {
			logger.Warn("Declared MIME type not in policy",
				slog.String("mime_type", declared),
				slog.String("extension", ext))
		}
		mimeType = policy.CanonicalMIME()
	} else if p.opts.Policies.StrictMIME() {
		mimeType = policy.CanonicalMIME()
	}

	data, err := readLimited(f, policy.MaxSizeBytes)
	if err != nil {
		logger.Error("Failed to read file", slog.String("error", err.Error()))
		return p.fail(logger, name, "Failed to read file")
	}
	if int64(len(data)) > policy.MaxSizeBytes {
		return p.fail(logger, name, fmt.Sprintf("File too large. Maximum size for .%s files is %dMB", ext, policy.MaxSizeBytes/mb))
	}

	if rej := VerifySignature(policy, data); rej != nil {
		return p.quarantine(ctx, logger, u, f, rej)
	}

	if policy.Scan {
		if rej := Scan(data); rej != nil {
			return p.quarantine(ctx, logger, u, f, rej)
		}
	}

	return p.persist(ctx, logger, u, name, ext, mimeType, policy, data)
}

func (p *Pipeline) fail(logger *slog.Logger, name, msg string) FileResult {
	filesTotal.WithLabelValues(string(p.opts.Mode), outcomeFailed).Inc()
	logger.Info("File rejected", slog.String("error", msg))
	return FileResult{FileName: name, Error: msg}
}

func (p *Pipeline) quarantine(ctx context.Context, logger *slog.Logger, u Uploader, f File, rej *Rejection) FileResult {
	rec := &files.QuarantineRecord{
		OriginalFilename: baseName(f.Name()),
		UploaderID:       u.ID,
		TenantID:         u.TenantID,
		Reason:           rej.Reason,
		Detail:           rej.Message,
		Size:             f.Size(),
		ClaimedMimeType:  f.ContentType(),
		LeadingBytesHex:  rej.LeadingBytes,
		UploaderIP:       u.IP,
		UserAgent:        u.UserAgent,
		CreatedAt:        p.opts.Now().UTC(),
	}

	if err := p.store.InsertQuarantine(ctx, rec); err != nil {
		logger.Error("Failed to write quarantine record",
			slog.String("reason", string(rej.Reason)),
			slog.String("error", err.Error()))
	}

	filesTotal.WithLabelValues(string(p.opts.Mode), outcomeQuarantined).Inc()
	quarantineTotal.WithLabelValues(string(rej.Reason)).Inc()
	logger.Warn("File quarantined",
		slog.String("reason", string(rej.Reason)),
		slog.String("detail", rej.Message),
		slog.String("leading_bytes", rej.LeadingBytes))

	for _, o := range p.observers {
		o.FileQuarantined(ctx, rec)
	}

	return FileResult{FileName: rec.OriginalFilename, Error: rej.Message, Quarantined: true}
}

// written tracks objects put during one file so they can be removed when a
// later step fails.
type written struct {
	bucket string
	key    string
}

func (p *Pipeline) persist(ctx context.Context, logger *slog.Logger, u Uploader, name, ext, mimeType string, policy TypePolicy, data []byte) FileResult {
	id := p.opts.NewID()
	now := p.opts.Now().UTC()
	partition := Partition(u.ID, now)

	sf := &files.StoredFile{
		ID:               id,
		TenantID:         u.TenantID,
		UploaderID:       u.ID,
		OriginalFilename: name,
		StoredFilename:   id + "." + ext,
		Category:         policy.Category,
		MimeType:         mimeType,
		Size:             int64(len(data)),
		Status:           files.StatusCompleted,
		CreatedAt:        now,
	}

	var objects []written
	put := func(bucket, key string, b []byte, contentType string) error {
		if err := p.blobs.Put(ctx, bucket, key, b, contentType); err != nil {
			return err
		}
		objects = append(objects, written{bucket, key})
		return nil
	}
	cleanup := func() {
		for _, o := range objects {
			if err := p.blobs.Remove(ctx, o.bucket, o.key); err != nil {
				logger.Warn("Failed to remove orphaned object",
					slog.String("bucket", o.bucket),
					slog.String("key", o.key),
					slog.String("error", err.Error()))
			}
		}
	}

	var err error
	if p.opts.Mode == ModePhotos {
		err = p.writePhoto(logger, put, sf, partition, ext, data)
	} else {
		sf.Paths.Canonical = objectKey(partition, id, "", ext)
		err = put(p.opts.ProcessedBucket, sf.Paths.Canonical, data, mimeType)
	}
	if err != nil {
		cleanup()
		logger.Error("Failed to store file", slog.String("file_id", id), slog.String("error", err.Error()))
		return p.fail(logger, name, "Failed to store file")
	}

	if err := p.store.InsertStoredFile(ctx, sf); err != nil {
		cleanup()
		logger.Error("Failed to record file metadata", slog.String("file_id", id), slog.String("error", err.Error()))
		return p.fail(logger, name, "Failed to save file metadata")
	}

	outcome := outcomeStored
	entry := &files.AccessLogEntry{
		FileID:    id,
		Action:    files.ActionUpload,
		ActorID:   u.ID,
		IP:        u.IP,
		UserAgent: u.UserAgent,
		CreatedAt: now,
	}
	if err := p.store.InsertAccessLog(ctx, entry); err != nil {
		outcome = outcomeAuditIncomplete
		logger.Error("Failed to write access log, upload kept",
			slog.String("file_id", id),
			slog.String("error", err.Error()))
	}
	filesTotal.WithLabelValues(string(p.opts.Mode), outcome).Inc()

	res := FileResult{FileName: name, Success: true, FileID: id}
	if p.opts.Mode == ModePhotos {
		res.StandardURL = p.signedURL(ctx, logger, p.opts.ProcessedBucket, sf.Paths.Standard)
		res.PreviewURL = p.signedURL(ctx, logger, p.opts.ProcessedBucket, sf.Paths.Preview)
		res.ThumbURL = p.signedURL(ctx, logger, p.opts.ProcessedBucket, sf.Paths.Thumb)
	} else {
		res.URL = p.signedURL(ctx, logger, p.opts.ProcessedBucket, sf.Paths.Canonical)
	}

	logger.Info("File stored",
		slog.String("file_id", id),
		slog.String("category", string(sf.Category)),
		slog.Int64("size", sf.Size),
		slog.Bool("metadata_stripped", sf.MetadataStripped))

	for _, o := range p.observers {
		o.FileStored(ctx, sf)
	}

	return res
}

// writePhoto stores the untouched original in the raw bucket and the three
// renditions in the processed bucket.
func (p *Pipeline) writePhoto(logger *slog.Logger, put func(bucket, key string, b []byte, contentType string) error,
	sf *files.StoredFile, partition, ext string, data []byte) error {

	sf.Paths.Raw = objectKey(partition, sf.ID, "_raw", ext)
	if err := put(p.opts.RawBucket, sf.Paths.Raw, data, sf.MimeType); err != nil {
		return fmt.Errorf("raw: %w", err)
	}

	photo, err := DecodePhoto(data, ext)
	if err != nil && !errors.Is(err, errUndecodable) {
		logger.Warn("Photo decoding failed, storing original bytes", slog.String("error", err.Error()))
	}

	stripped := true
	for _, spec := range PhotoVariants {
		out := &Rendition{Data: data, ContentType: sf.MimeType}
		if photo != nil {
			r, err := photo.Render(spec)
			if err != nil {
				logger.Warn("Variant rendering failed, storing original bytes",
					slog.String("variant", spec.Name),
					slog.String("error", err.Error()))
			} else {
				out = r
			}
		}
		stripped = stripped && out.Reencoded

		key := objectKey(partition, sf.ID, "_"+spec.Name, ext)
		if err := put(p.opts.ProcessedBucket, key, out.Data, out.ContentType); err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}

		switch spec.Name {
		case "standard":
			sf.Paths.Standard = key
		case "preview":
			sf.Paths.Preview = key
		case "thumb":
			sf.Paths.Thumb = key
		}
	}

	sf.Paths.Canonical = sf.Paths.Standard
	sf.MetadataStripped = stripped
	return nil
}

func (p *Pipeline) signedURL(ctx context.Context, logger *slog.Logger, bucket, key string) string {
	if key == "" {
		return ""
	}
	u, err := p.blobs.SignedURL(ctx, bucket, key, p.opts.URLTTL)
	if err != nil {
		logger.Warn("Failed to sign URL", slog.String("key", key), slog.String("error", err.Error()))
		return ""
	}
	return u
}

func readLimited(f File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(io.LimitReader(rc, limit+1))
}

// normalizeMIME drops parameters such as charset and lowercases the type.
func normalizeMIME(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		if i := strings.IndexByte(contentType, ';'); i >= 0 {
			contentType = contentType[:i]
		}
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
