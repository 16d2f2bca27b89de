// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TempSweeper removes stale partial uploads
type TempSweeper interface {
	SweepTempFiles(ctx context.Context, maxAge time.Duration) (int, error)
}

// CleanupProcessor handles cleanup tasks
type CleanupProcessor struct {
	sweeper TempSweeper
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(sweeper TempSweeper, maxAge time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		sweeper: sweeper,
		maxAge:  maxAge,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupTempFiles removes upload temp files older than the configured age
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, _ *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up temp files",
		slog.Duration("max_age", p.maxAge))

	deleted, err := p.sweeper.SweepTempFiles(ctx, p.maxAge)
	if err != nil {
		return fmt.Errorf("failed to sweep temp files: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", deleted))

	return nil
}
