// internal/workers/server.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-api/internal/pkg/config"
	"github.com/ammerola/inventory-api/internal/pkg/logger"
)

// RedisOpt returns the asynq connection settings
func RedisOpt(cfg config.AsynqConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// Processors groups the task handlers a worker serves. Cleanup is nil when
// photos are not kept on local disk.
type Processors struct {
	Audit   *PhotoAuditProcessor
	Cleanup *CleanupProcessor
	Import  *ImportProcessor
}

// NewServeMux routes every task type to its processor
func NewServeMux(p Processors, log *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(LoggingMiddleware(log))

	mux.HandleFunc(TypePhotoAudit, p.Audit.ProcessAudit)
	mux.HandleFunc(TypeImportXLSX, p.Import.ProcessImport)
	if p.Cleanup != nil {
		mux.HandleFunc(TypeCleanupTempFiles, p.Cleanup.CleanupTempFiles)
	}

	return mux
}

// RegisterSchedules adds the periodic audit and, when sweep is true, the temp
// file sweep. An empty cron expression disables that entry.
func RegisterSchedules(s *asynq.Scheduler, cfg config.AsynqConfig, sweep bool) error {
	if cfg.AuditSchedule != "" {
		task, err := NewPhotoAuditTask("scheduled")
		if err != nil {
			return err
		}
		if _, err := s.Register(cfg.AuditSchedule, task); err != nil {
			return fmt.Errorf("failed to schedule photo audit: %w", err)
		}
	}

	if sweep && cfg.SweepSchedule != "" {
		if _, err := s.Register(cfg.SweepSchedule, NewCleanupTempFilesTask()); err != nil {
			return fmt.Errorf("failed to schedule temp file sweep: %w", err)
		}
	}

	return nil
}

// LoggingMiddleware puts the task id and type on the context and logs each
// task's outcome
func LoggingMiddleware(log *slog.Logger) asynq.MiddlewareFunc {
	log = log.With(slog.String("component", "asynq_worker"))

	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()

			ctx = context.WithValue(ctx, logger.ContextKeyTaskType, t.Type())
			if id, ok := asynq.GetTaskID(ctx); ok {
				ctx = context.WithValue(ctx, logger.ContextKeyTaskID, id)
			}

			err := next.ProcessTask(ctx, t)

			attrs := []any{slog.Duration("duration_ms", time.Since(start))}
			if retry, ok := asynq.GetRetryCount(ctx); ok {
				attrs = append(attrs, slog.Int("retry", retry))
			}

			if err != nil {
				log.ErrorContext(ctx, "task failed", append(attrs, slog.String("error", err.Error()))...)
				return err
			}

			log.InfoContext(ctx, "task completed", attrs...)
			return nil
		})
	}
}

// ErrorHandler logs tasks that exhausted a processing attempt
func ErrorHandler(log *slog.Logger) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		log.ErrorContext(ctx, "task processing failed",
			slog.String("type", task.Type()),
			slog.String("payload", string(task.Payload())),
			slog.String("error", err.Error()))
	})
}

// ExponentialBackoff doubles the retry delay up to ten minutes
func ExponentialBackoff(n int, _ error, _ *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	if n > 20 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// AsynqLogger adapts slog for Asynq
type AsynqLogger struct {
	logger *slog.Logger
}

// NewAsynqLogger creates an asynq logger writing to logger
func NewAsynqLogger(logger *slog.Logger) *AsynqLogger {
	return &AsynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *AsynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
