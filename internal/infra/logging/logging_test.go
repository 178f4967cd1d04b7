package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maxwbh/boleto-cnab-api/internal/core/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "text"})

	logger.Debug("hidden")
	logger.Info("call succeeded", "path", "/api/health")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "call succeeded")
	assert.Contains(t, out, "path=/api/health")
	assert.NotContains(t, out, "\x1b[", "colors must be off for non-terminal writers")
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LoggingConfig{Level: "debug", Format: "json"})

	logger.Debug("attempt", "attempt", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "attempt", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, 2.0, rec["attempt"])
}

func TestNewWithWriter_None(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, config.LoggingConfig{Level: "debug", Format: "none"})
	logger.Error("dropped")
	assert.Zero(t, buf.Len())

	Discard().Error("dropped too")
}
