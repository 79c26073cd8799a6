package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restore puts back the global logger state after a test.
func restore(t *testing.T) {
	logger, level, def := log.Logger, zerolog.GlobalLevel(), zerolog.DefaultContextLogger
	t.Cleanup(func() {
		log.Logger = logger
		zerolog.SetGlobalLevel(level)
		zerolog.DefaultContextLogger = def
	})
}

func TestInitLevel(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "warn", Format: "json", Out: &buf, ServiceName: "folio"}))

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"service":"folio"`)
}

func TestInitContextLogger(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "info", Out: &buf}))

	zerolog.Ctx(context.Background()).Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")
}

func TestInitInvalidLevel(t *testing.T) {
	restore(t)
	require.Error(t, Init(Config{Level: "loud"}))
}

func TestInitFiles(t *testing.T) {
	restore(t)
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Init(Config{Level: "debug", FileEnabled: true, FilePath: dir, RotationSize: 1, RetentionDays: 1, Out: &bytes.Buffer{}}))

	log.Info().Msg("informational")
	log.Error().Msg("failure")

	app, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(app), "informational")
	assert.Contains(t, string(app), "failure")

	errs, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(errs), "informational")
	assert.Contains(t, string(errs), "failure")
}
