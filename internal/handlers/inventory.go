// internal/handlers/inventory.go
package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/ports"
)

// sniffLen is how much of a photo is read ahead to detect its content type
const sniffLen = 3072

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	service   ports.InventoryService
	maxMemory int64
	logger    *slog.Logger
}

// NewInventoryHandler creates a new inventory handler. maxMemory bounds the
// part of a multipart form kept in memory; the rest spills to temp files.
func NewInventoryHandler(service ports.InventoryService, maxMemory int64, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service:   service,
		maxMemory: maxMemory,
		logger:    logger.With(slog.String("handler", "inventory")),
	}
}

// Register handles POST /register
func (h *InventoryHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.parseForm(w, r) {
		return
	}

	in := ports.RegisterInput{
		Name:        r.FormValue("inventory_name"),
		Description: r.FormValue("description"),
	}

	file, header, ok := h.formFile(w, r, false)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
		in.Photo = file
		in.PhotoName = header.Filename
	}

	item, err := h.service.Register(ctx, in)
	if err != nil {
		mapError(w, r, h.logger, err, "register inventory item")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, item)
}

// List handles GET /inventory
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		mapError(w, r, h.logger, err, "list inventory items")
		return
	}

	if items == nil {
		items = []domain.InventoryItem{}
	}

	respondJSON(w, h.logger, http.StatusOK, items)
}

// Get handles GET /inventory/{id}
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		mapError(w, r, h.logger, err, "get inventory item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// Update handles PUT /inventory/{id}
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	item, err := h.service.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		mapError(w, r, h.logger, err, "update inventory item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// Delete handles DELETE /inventory/{id}
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		mapError(w, r, h.logger, err, "delete inventory item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Inventory item deleted",
		"id":      id,
	})
}

// GetPhoto handles GET /inventory/{id}/photo
func (h *InventoryHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	rc, err := h.service.OpenPhoto(ctx, id)
	if err != nil {
		mapError(w, r, h.logger, err, "open photo")
		return
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		mapError(w, r, h.logger, domain.NewStorageError("failed to read photo", err), "read photo")
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(head).String())
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, br); err != nil {
		h.logger.WarnContext(ctx, "photo stream interrupted",
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
}

// PutPhoto handles PUT /inventory/{id}/photo
func (h *InventoryHandler) PutPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !h.parseForm(w, r) {
		return
	}

	file, header, ok := h.formFile(w, r, true)
	if !ok {
		return
	}
	defer file.Close()

	item, err := h.service.AttachPhoto(r.Context(), id, file, header.Filename)
	if err != nil {
		mapError(w, r, h.logger, err, "attach photo")
		return
	}

	photo := ""
	if item.HasPhoto() {
		photo = *item.Photo
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Photo updated",
		"id":      item.ID,
		"photo":   photo,
	})
}

// Search handles POST /search
func (h *InventoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	id := strings.TrimSpace(r.FormValue("id"))
	if id == "" {
		respondError(w, h.logger, http.StatusBadRequest, "id is required")
		return
	}

	item, err := h.service.Search(r.Context(), id, parseFlag(r.FormValue("includePhoto")))
	if err != nil {
		mapError(w, r, h.logger, err, "search inventory")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, item)
}

// parseForm accepts both urlencoded and multipart bodies. It writes the error
// response and returns false when the body cannot be parsed.
func (h *InventoryHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(h.maxMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respondError(w, h.logger, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}

	respondError(w, h.logger, http.StatusBadRequest, "Invalid form body")
	return false
}

// formFile returns the uploaded photo part. A missing part is an error only
// when required; then the 400 has already been written.
func (h *InventoryHandler) formFile(w http.ResponseWriter, r *http.Request, required bool) (multipart.File, *multipart.FileHeader, bool) {
	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		return file, header, true
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		if required {
			respondError(w, h.logger, http.StatusBadRequest, "photo file is required")
			return nil, nil, false
		}
		return nil, nil, true
	default:
		respondError(w, h.logger, http.StatusBadRequest, "Invalid photo upload")
		return nil, nil, false
	}
}

func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on":
		return true
	default:
		return false
	}
}
