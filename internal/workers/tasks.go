// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypePhotoAudit       = "photo:audit"
	TypeCleanupTempFiles = "files:cleanup_temp"
	TypeImportXLSX       = "inventory:import_xlsx"
)

// QueueDefault and QueueLow are the queues tasks are routed to
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// auditUniqueness collapses bursts of audit requests into one task
const auditUniqueness = time.Minute

// PhotoAuditPayload is the payload of a photo audit task
type PhotoAuditPayload struct {
	Reason string `json:"reason"`
}

// ImportPayload is the payload of a spreadsheet import task
// RemoveAfter deletes FilePath once the import has run.
type ImportPayload struct {
	JobID       string `json:"job_id"`
	FilePath    string `json:"file_path"`
	RemoveAfter bool   `json:"remove_after"`
}

// NewPhotoAuditTask builds a photo audit task
func NewPhotoAuditTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(PhotoAuditPayload{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit payload: %w", err)
	}
	return asynq.NewTask(TypePhotoAudit, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Unique(auditUniqueness)), nil
}

// NewCleanupTempFilesTask builds a temp upload sweep task
func NewCleanupTempFilesTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupTempFiles, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1))
}

// NewImportTask builds a spreadsheet import task. The job id doubles as the
// asynq task id so a job cannot be enqueued twice.
func NewImportTask(p ImportPayload, maxRetry int) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	return asynq.NewTask(TypeImportXLSX, payload,
		asynq.Queue(QueueDefault),
		asynq.TaskID(p.JobID),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(10*time.Minute)), nil
}
