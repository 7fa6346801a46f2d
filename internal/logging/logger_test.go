package logging_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/concierge/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestNew_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(slog.LevelInfo, logging.WithWriter(&buf))
	logger.Info("boom", "error", "bad")
	assert.Contains(t, buf.String(), "err=bad")
}

func TestNew_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(slog.LevelInfo,
		logging.WithWriter(&buf),
		logging.WithJSON(true),
		logging.WithRedaction(logging.DefaultRedaction...),
	)
	logger.Info("turn", "utterance", "o meu NIF é 123456789", "field_id", "nif_requerente", "nif", "123")

	out := buf.String()
	assert.NotContains(t, out, "123456789")
	assert.Contains(t, out, `"utterance":"***"`)
	assert.Contains(t, out, `"nif":"***"`)
	assert.Contains(t, out, `"field_id":"nif_requerente"`, "only keys are matched, not values")
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.ParseLevel("warn"), logging.WithWriter(&buf))
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("loud"))
}
