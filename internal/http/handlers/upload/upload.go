package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/ingest-service/internal/http/middleware"
	"github.com/princekumarofficial/ingest-service/internal/ingest"
	"github.com/princekumarofficial/ingest-service/internal/utils/response"
)

const (
	// envelope is the multipart overhead allowed on top of the batch limit.
	envelope = 1 << 20
	// maxMemory is how much of a form is buffered before parts spill to disk.
	maxMemory = 32 << 20
)

// Processor runs a batch through an ingestion pipeline.
type Processor interface {
	Process(ctx context.Context, batch ingest.Batch) (*ingest.BatchResult, error)
	Mode() ingest.Mode
	MaxBatchBytes() int64
}

// Form holds the non-file multipart fields.
type Form struct {
	TenantID string `validate:"omitempty,max=128,printascii"`
}

type Handler struct {
	pipeline Processor
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(pipeline Processor, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "upload"), slog.String("pipeline", string(pipeline.Mode()))),
	}
}

// UploadDocument handles document uploads
// @Summary Upload documents
// @Description Validate, scan and store up to 10 documents. Each file gets its own result; rejected files are quarantined.
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files to upload (1-10)"
// @Param tenant_id formData string false "Tenant the files belong to"
// @Success 200 {object} ingest.BatchResult "Batch processed"
// @Failure 400 {object} response.ErrorResponse "Bad request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 429 {object} response.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /upload-document [post]
func (h *Handler) UploadDocument() http.HandlerFunc { return h.serve }

// UploadPhoto handles photo uploads
// @Summary Upload photos
// @Description Validate and store up to 10 photos with standard, preview and thumbnail variants.
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Photos to upload (1-10)"
// @Param tenant_id formData string false "Tenant the photos belong to"
// @Success 200 {object} ingest.BatchResult "Batch processed"
// @Failure 400 {object} response.ErrorResponse "Bad request"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 429 {object} response.ErrorResponse "Rate limit exceeded"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /upload-photo [post]
func (h *Handler) UploadPhoto() http.HandlerFunc { return h.serve }

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteJSON(w, http.StatusUnauthorized, response.Message("Unauthorized"))
		return
	}

	limit := h.pipeline.MaxBatchBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+envelope)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(fmt.Sprintf("Total upload size exceeds %dMB", limit>>20)))
			return
		}
		h.logger.Info("Unparseable upload body", slog.String("uploader_id", userID), slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusBadRequest, response.Message("Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := Form{TenantID: strings.TrimSpace(r.FormValue("tenant_id"))}
	if err := h.validate.Struct(form); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return
	}
	if form.TenantID == "" {
		form.TenantID, _ = middleware.GetTenantIDFromContext(r.Context())
	}

	headers := r.MultipartForm.File["files"]
	batch := ingest.Batch{
		Uploader: ingest.Uploader{
			ID:        userID,
			TenantID:  form.TenantID,
			IP:        middleware.ClientIP(r),
			UserAgent: r.UserAgent(),
		},
		Files: make([]ingest.File, 0, len(headers)),
	}
	for _, fh := range headers {
		batch.Files = append(batch.Files, formFile{fh})
	}

	result, err := h.pipeline.Process(r.Context(), batch)
	if err != nil {
		var le *ingest.LimitError
		if errors.As(err, &le) {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(le.Message))
			return
		}
		h.logger.Error("Upload failed", slog.String("uploader_id", userID), slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.Message("Internal server error"))
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

// formFile adapts a multipart part to ingest.File.
type formFile struct {
	fh *multipart.FileHeader
}

func (f formFile) Name() string        { return f.fh.Filename }
func (f formFile) Size() int64         { return f.fh.Size }
func (f formFile) ContentType() string { return f.fh.Header.Get("Content-Type") }

func (f formFile) Open() (io.ReadCloser, error) {
	return f.fh.Open()
}
