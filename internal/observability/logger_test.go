package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "info", "json")

	l.Info("session restored", "backend", "file")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session restored", entry["msg"])
	assert.Equal(t, "file", entry["backend"])
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "info", "text")

	l.Info("guard redirect", "route", "/courses")

	assert.Contains(t, buf.String(), "msg=\"guard redirect\"")
	assert.Contains(t, buf.String(), "route=/courses")
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "warn", "text")

	l.Info("dropped")
	l.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning_alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase", "DEBUG", slog.LevelDebug},
		{"unknown", "unknown", slog.LevelInfo},
		{"empty", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestFromContext(t *testing.T) {
	saved := logger
	defer func() { logger = saved }()

	t.Run("falls_back_to_default_when_not_initialized", func(t *testing.T) {
		logger = nil
		assert.Equal(t, slog.Default(), FromContext(context.Background()))
	})

	t.Run("attaches_request_and_client_ids", func(t *testing.T) {
		var buf bytes.Buffer
		logger = NewLogger(&buf, "info", "json")

		ctx := WithRequestID(context.Background(), "req-123")
		ctx = WithClientID(ctx, "client-456")
		FromContext(ctx).Info("hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "req-123", entry["request_id"])
		assert.Equal(t, "client-456", entry["client_id"])
	})

	t.Run("empty_values_are_ignored", func(t *testing.T) {
		var buf bytes.Buffer
		logger = NewLogger(&buf, "info", "json")

		ctx := WithRequestID(context.Background(), "")
		FromContext(ctx).Info("hello")

		assert.NotContains(t, buf.String(), "request_id")
	})
}

func TestWithClientID(t *testing.T) {
	ctx := WithClientID(context.Background(), "old")
	ctx = WithClientID(ctx, "new")

	assert.Equal(t, "new", ctx.Value(clientIDKey))
}
