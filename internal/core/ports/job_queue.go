// internal/core/ports/job_queue.go
package ports

import "context"

// JobQueue schedules background work
type JobQueue interface {
	EnqueuePhotoAudit(ctx context.Context, reason string) error
	EnqueueImport(ctx context.Context, filePath string) (string, error)
}
