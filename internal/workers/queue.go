// internal/workers/queue.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-api/internal/core/ports"
)

// Enqueuer is the part of *asynq.Client the queue uses
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqQueue schedules background jobs through asynq
type AsynqQueue struct {
	client   Enqueuer
	retryMax int
	logger   *slog.Logger
}

var _ ports.JobQueue = (*AsynqQueue)(nil)

// NewAsynqQueue creates a job queue backed by client
func NewAsynqQueue(client Enqueuer, retryMax int, logger *slog.Logger) *AsynqQueue {
	return &AsynqQueue{
		client:   client,
		retryMax: retryMax,
		logger:   logger.With(slog.String("component", "job_queue")),
	}
}

// EnqueuePhotoAudit schedules an orphan photo audit. A duplicate of an audit
// that is already pending is not an error.
func (q *AsynqQueue) EnqueuePhotoAudit(ctx context.Context, reason string) error {
	task, err := NewPhotoAuditTask(reason)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			q.logger.DebugContext(ctx, "photo audit already pending")
			return nil
		}
		return fmt.Errorf("failed to enqueue photo audit: %w", err)
	}

	q.logger.DebugContext(ctx, "photo audit enqueued",
		slog.String("task_id", info.ID),
		slog.String("reason", reason))

	return nil
}

// EnqueueImport schedules a spreadsheet import of filePath and returns the job id.
// The worker removes the file when the job has run.
func (q *AsynqQueue) EnqueueImport(ctx context.Context, filePath string) (string, error) {
	jobID := uuid.NewString()

	task, err := NewImportTask(ImportPayload{
		JobID:       jobID,
		FilePath:    filePath,
		RemoveAfter: true,
	}, q.retryMax)
	if err != nil {
		return "", err
	}

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue import: %w", err)
	}

	q.logger.InfoContext(ctx, "import job enqueued",
		slog.String("job_id", jobID),
		slog.String("queue", info.Queue))

	return jobID, nil
}
