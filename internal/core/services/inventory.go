// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/ports"
)

// InventoryService handles inventory business logic
type InventoryService struct {
	repo   ports.InventoryRepository
	photos ports.PhotoStore
	queue  ports.JobQueue
	logger *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. queue may be nil, in
// which case no background jobs are scheduled.
func NewInventoryService(repo ports.InventoryRepository, photos ports.PhotoStore, queue ports.JobQueue, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:   repo,
		photos: photos,
		queue:  queue,
		logger: logger.With(slog.String("service", "inventory")),
	}
}

// Register creates an item, storing the optional photo first. The name is
// checked before any bytes are written.
func (s *InventoryService) Register(ctx context.Context, in ports.RegisterInput) (*domain.InventoryItem, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &domain.ValidationError{Field: "inventory_name", Reason: "is required"}
	}

	var photo *string
	if in.Photo != nil {
		key, err := s.photos.Save(ctx, in.Photo, in.PhotoName)
		if err != nil {
			return nil, err
		}
		photo = &key
	}

	item, err := s.repo.Create(ctx, in.Name, in.Description, photo)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "registered inventory item",
		slog.String("id", item.ID),
		slog.String("inventory_name", item.Name),
		slog.Bool("has_photo", item.HasPhoto()))

	return item, nil
}

// List returns every item in insertion order
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.repo.List(ctx)
}

// Get retrieves an inventory item by ID
func (s *InventoryService) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update
func (s *InventoryService) Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.InventoryItem, error) {
	item, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "updated inventory item",
		slog.String("id", id),
		slog.Bool("name_changed", patch.Name != nil),
		slog.Bool("description_changed", patch.Description != nil))

	return item, nil
}

// Delete removes an item. Its photo blob is left in place.
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "deleted inventory item", slog.String("id", id))
	s.scheduleAudit(ctx, "item deleted")

	return nil
}

// AttachPhoto stores a new photo and points the item at it
func (s *InventoryService) AttachPhoto(ctx context.Context, id string, r io.Reader, filename string) (*domain.InventoryItem, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := s.photos.Save(ctx, r, filename)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.SetPhoto(ctx, id, key)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "attached photo",
		slog.String("id", id),
		slog.String("photo", key))

	if current.HasPhoto() {
		s.scheduleAudit(ctx, "photo replaced")
	}

	return item, nil
}

// OpenPhoto opens the photo blob of an item
func (s *InventoryService) OpenPhoto(ctx context.Context, id string) (io.ReadCloser, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !item.HasPhoto() {
		return nil, domain.PhotoNotFound(id)
	}

	return s.photos.Open(ctx, *item.Photo)
}

// Search looks an item up by id. With includePhoto the returned copy's
// description references the photo URL; the stored record is unchanged.
func (s *InventoryService) Search(ctx context.Context, id string, includePhoto bool) (*domain.InventoryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := item.Clone()
	if includePhoto && item.HasPhoto() {
		result.Description += " (photo: " + domain.PhotoPath(item.ID) + ")"
	}

	return result, nil
}

// Import creates one item per row, skipping rows without a name. It stops at
// the first storage failure and reports what was created until then.
func (s *InventoryService) Import(ctx context.Context, rows []domain.ImportRow) (*ImportResult, error) {
	result := &ImportResult{}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item, err := s.repo.Create(ctx, row.Name, row.Description, nil)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				result.Skipped++
				s.logger.DebugContext(ctx, "skipping import row",
					slog.Int("row", i+1),
					slog.String("error", err.Error()))
				continue
			}
			return result, err
		}

		result.Created++
		result.IDs = append(result.IDs, item.ID)
	}

	s.logger.InfoContext(ctx, "import finished",
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

func (s *InventoryService) scheduleAudit(ctx context.Context, reason string) {
	if s.queue == nil {
		return
	}

	if err := s.queue.EnqueuePhotoAudit(ctx, reason); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue photo audit",
			slog.String("reason", reason),
			slog.String("error", err.Error()))
	}
}
