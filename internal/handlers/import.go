// internal/handlers/import.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ammerola/inventory-api/internal/core/ports"
)

const zipMIME = "application/zip"

// ImportHandler accepts spreadsheet uploads and queues them for the worker
type ImportHandler struct {
	queue     ports.JobQueue
	uploadDir string
	maxMemory int64
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler. uploadDir must be readable
// by the worker processes.
func NewImportHandler(queue ports.JobQueue, uploadDir string, maxMemory int64, logger *slog.Logger) (*ImportHandler, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &ImportHandler{
		queue:     queue,
		uploadDir: uploadDir,
		maxMemory: maxMemory,
		logger:    logger.With(slog.String("handler", "import")),
	}, nil
}

// ImportExcel handles POST /import
func (h *ImportHandler) ImportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, h.logger, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, h.logger, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	path, err := h.saveUpload(file)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to save upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, msgInternal)
		return
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil || !isZipFamily(mtype) {
		os.Remove(path)
		respondError(w, h.logger, http.StatusBadRequest, "Only .xlsx files are allowed")
		return
	}

	jobID, err := h.queue.EnqueueImport(ctx, path)
	if err != nil {
		os.Remove(path)
		h.logger.ErrorContext(ctx, "failed to queue import job",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, msgInternal)
		return
	}

	h.logger.InfoContext(ctx, "Excel import queued",
		slog.String("job_id", jobID),
		slog.String("filename", header.Filename))

	respondJSON(w, h.logger, http.StatusAccepted, map[string]string{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Excel import has been queued for processing",
	})
}

func (h *ImportHandler) saveUpload(r io.Reader) (string, error) {
	dst, err := os.CreateTemp(h.uploadDir, "import-*.xlsx")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}

	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return dst.Name(), nil
}

// isZipFamily accepts xlsx and any other zip container; the worker rejects
// workbooks it cannot read.
func isZipFamily(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(zipMIME) {
			return true
		}
	}
	return false
}
