package workers_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"

	"github.com/ammerola/inventory-api/internal/pkg/logger"
	"github.com/ammerola/inventory-api/internal/workers"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenType any
	handler := workers.LoggingMiddleware(log)(asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		seenType = ctx.Value(logger.ContextKeyTaskType)
		return nil
	}))

	err := handler.ProcessTask(context.Background(), asynq.NewTask(workers.TypePhotoAudit, nil))
	assert.NoError(t, err)
	assert.Equal(t, workers.TypePhotoAudit, seenType)
	assert.Contains(t, buf.String(), "task completed")
}

func TestLoggingMiddleware_PropagatesError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	wantErr := errors.New("boom")

	handler := workers.LoggingMiddleware(log)(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return wantErr
	}))

	err := handler.ProcessTask(context.Background(), asynq.NewTask(workers.TypeImportXLSX, nil))
	assert.ErrorIs(t, err, wantErr)
	assert.Contains(t, buf.String(), "task failed")
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, time.Second},
		{3, 8 * time.Second},
		{10, 10 * time.Minute},
		{40, 10 * time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, workers.ExponentialBackoff(tt.retry, nil, nil))
	}
}
