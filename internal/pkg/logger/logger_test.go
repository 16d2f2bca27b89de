package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-api/internal/pkg/logger"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_JSONWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewLogger(&logger.LogConfig{
		Level:       "debug",
		Format:      "json",
		Output:      &buf,
		ServiceName: "inventory-api",
	})

	ctx := context.WithValue(context.Background(), logger.ContextKeyRequestID, "req-1")
	ctx = context.WithValue(ctx, logger.ContextKeyPath, "/inventory")

	l.InfoContext(ctx, "item created", slog.String("id", "42"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "item created", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["severity"])
	assert.Equal(t, "req-1", lines[0]["request_id"])
	assert.Equal(t, "/inventory", lines[0]["path"])
	assert.Equal(t, "42", lines[0]["id"])
	assert.Equal(t, "inventory-api", lines[0]["service"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewLogger(&logger.LogConfig{Level: "warn", Format: "json", Output: &buf})

	l.Info("dropped")
	l.Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestSanitizationHandler(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewLogger(&logger.LogConfig{Level: "info", Format: "json", Output: &buf})

	l.Info("connecting with password=hunter2",
		slog.String("db_password", "hunter2"),
		slog.String("dsn", "user:x@tcp(db)/inv?token=abc"),
		slog.Group("aws", slog.String("secret_access_key", "AKIA")))

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "abc")
	assert.NotContains(t, out, "AKIA")
	assert.Contains(t, out, "***REDACTED***")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewLogger(&logger.LogConfig{Level: "info", Format: "json", Output: &buf})

	ctx := context.WithValue(context.Background(), logger.ContextKeyTaskType, "photo:audit")
	l.WithContext(ctx).Info("task started")

	lines := decodeLines(t, &buf)
	require.NotEmpty(t, lines)
	assert.Equal(t, "photo:audit", lines[0]["task_type"])
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewLogger(&logger.LogConfig{Level: "info", Format: "text", Output: &buf})

	l.With(slog.String("component", "test")).Info("hello", slog.Int("n", 3))

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "n=3")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, logger.ParseLevel(tt.in), tt.in)
	}
}
