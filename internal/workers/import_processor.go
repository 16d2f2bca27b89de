// internal/workers/import_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-api/internal/adapters/spreadsheet"
	"github.com/ammerola/inventory-api/internal/core/domain"
	"github.com/ammerola/inventory-api/internal/core/services"
)

// Importer creates items from parsed rows
type Importer interface {
	Import(ctx context.Context, rows []domain.ImportRow) (*services.ImportResult, error)
}

// ImportProcessor handles spreadsheet import tasks
type ImportProcessor struct {
	importer Importer
	logger   *slog.Logger
}

// NewImportProcessor creates a new import processor
func NewImportProcessor(importer Importer, logger *slog.Logger) *ImportProcessor {
	return &ImportProcessor{
		importer: importer,
		logger:   logger.With(slog.String("processor", "import")),
	}
}

// importProgress records how far an interrupted import got so a retry
// resumes after the rows already handled instead of creating them again
type importProgress struct {
	RowsDone int `json:"rows_done"`
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
}

func progressPath(filePath string) string {
	return filePath + ".progress"
}

// ProcessImport handles inventory:import_xlsx tasks. Malformed payloads and
// unreadable workbooks are not retried. A retry after a storage failure
// resumes from the first row not yet handled.
func (p *ImportProcessor) ProcessImport(ctx context.Context, t *asynq.Task) error {
	var payload ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "processing spreadsheet",
		slog.String("job_id", payload.JobID),
		slog.String("file_path", payload.FilePath))

	rows, err := spreadsheet.ReadImportFile(payload.FilePath)
	if err != nil {
		p.finish(ctx, payload)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	progress, err := readProgress(payload.FilePath)
	if err != nil {
		p.finish(ctx, payload)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if progress.RowsDone > len(rows) {
		progress.RowsDone = len(rows)
	}
	if progress.RowsDone > 0 {
		p.logger.InfoContext(ctx, "resuming spreadsheet import",
			slog.String("job_id", payload.JobID),
			slog.Int("rows_done", progress.RowsDone))
	}

	result, err := p.importer.Import(ctx, rows[progress.RowsDone:])
	if result != nil {
		progress.RowsDone += result.Created + result.Skipped
		progress.Created += result.Created
		progress.Skipped += result.Skipped
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "import interrupted",
			slog.String("job_id", payload.JobID),
			slog.Int("rows_done", progress.RowsDone),
			slog.Int("created", progress.Created),
			slog.String("error", err.Error()))

		if saveErr := writeProgress(payload.FilePath, progress); saveErr != nil {
			p.logger.ErrorContext(ctx, "failed to record import progress",
				slog.String("job_id", payload.JobID),
				slog.String("error", saveErr.Error()))
			// retrying without a record would create the handled rows again
			return fmt.Errorf("import failed: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("import failed: %w", err)
	}

	p.finish(ctx, payload)

	p.logger.InfoContext(ctx, "spreadsheet import completed",
		slog.String("job_id", payload.JobID),
		slog.Int("rows", len(rows)),
		slog.Int("created", progress.Created),
		slog.Int("skipped", progress.Skipped))

	return nil
}

// finish drops the progress record and, when asked, the uploaded workbook
func (p *ImportProcessor) finish(ctx context.Context, payload ImportPayload) {
	p.remove(ctx, progressPath(payload.FilePath))
	if payload.RemoveAfter {
		p.remove(ctx, payload.FilePath)
	}
}

func (p *ImportProcessor) remove(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.WarnContext(ctx, "failed to remove import file",
			slog.String("file_path", path),
			slog.String("error", err.Error()))
	}
}

func readProgress(filePath string) (importProgress, error) {
	var progress importProgress

	data, err := os.ReadFile(progressPath(filePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return progress, nil
		}
		return progress, fmt.Errorf("failed to read import progress: %w", err)
	}
	if err := json.Unmarshal(data, &progress); err != nil {
		return progress, fmt.Errorf("failed to decode import progress: %w", err)
	}

	return progress, nil
}

func writeProgress(filePath string, progress importProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}

	tmp := progressPath(filePath) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, progressPath(filePath))
}
