// internal/workers/audit_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-api/internal/core/ports"
)

// AuditReport compares stored photo keys with the keys items reference.
// Orphans are stored blobs no item points at; Dangling are references to
// blobs that are not stored.
type AuditReport struct {
	Items      int      `json:"items"`
	Stored     int      `json:"stored"`
	Referenced int      `json:"referenced"`
	Orphans    []string `json:"orphans"`
	Dangling   []string `json:"dangling"`
}

// PhotoAuditProcessor reports orphaned and dangling photos. It never deletes.
type PhotoAuditProcessor struct {
	repo   ports.InventoryRepository
	photos ports.PhotoLister
	logger *slog.Logger
}

// NewPhotoAuditProcessor creates a new audit processor
func NewPhotoAuditProcessor(repo ports.InventoryRepository, photos ports.PhotoLister, logger *slog.Logger) *PhotoAuditProcessor {
	return &PhotoAuditProcessor{
		repo:   repo,
		photos: photos,
		logger: logger.With(slog.String("processor", "photo_audit")),
	}
}

// Audit builds the report
func (p *PhotoAuditProcessor) Audit(ctx context.Context) (*AuditReport, error) {
	items, err := p.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	keys, err := p.photos.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	stored := make(map[string]bool, len(keys))
	for _, k := range keys {
		stored[k] = true
	}

	referenced := make(map[string]bool)
	report := &AuditReport{
		Items:    len(items),
		Stored:   len(keys),
		Orphans:  []string{},
		Dangling: []string{},
	}

	for _, item := range items {
		if !item.HasPhoto() {
			continue
		}
		key := *item.Photo
		if referenced[key] {
			continue
		}
		referenced[key] = true
		if !stored[key] {
			report.Dangling = append(report.Dangling, key)
		}
	}
	report.Referenced = len(referenced)

	for _, k := range keys {
		if !referenced[k] {
			report.Orphans = append(report.Orphans, k)
		}
	}

	sort.Strings(report.Orphans)
	sort.Strings(report.Dangling)

	return report, nil
}

// ProcessAudit handles photo:audit tasks
func (p *PhotoAuditProcessor) ProcessAudit(ctx context.Context, t *asynq.Task) error {
	var payload PhotoAuditPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	report, err := p.Audit(ctx)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if len(report.Orphans) > 0 || len(report.Dangling) > 0 {
		level = slog.LevelWarn
	}

	p.logger.Log(ctx, level, "photo audit completed",
		slog.String("reason", payload.Reason),
		slog.Int("items", report.Items),
		slog.Int("stored", report.Stored),
		slog.Int("referenced", report.Referenced),
		slog.Any("orphans", report.Orphans),
		slog.Any("dangling", report.Dangling))

	return nil
}
