package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/folio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"FOLIO_ENV", "FOLIO_HOST", "PORT", "FOLIO_DB_DRIVER", "FOLIO_SQLITE_PATH",
		"DATABASE_URL", "DB_MAX_CONNS", "POLYGON_API_KEY", "POLYGON_BASE_URL",
		"POLYGON_DAYS", "POLYGON_RPM", "FOLIO_HTTP_CACHE_DIR", "FOLIO_CURRENCY",
		"FOLIO_RETURNS_MODE", "FOLIO_CONCURRENCY", "FOLIO_PRICE_CACHE_TTL_SEC",
		"FOLIO_PRICE_CACHE_MAX_ITEMS", "ALLOWED_ORIGINS", "ENABLE_METRICS",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE_ENABLED", "LOG_FILE_PATH",
		"REQUEST_TIMEOUT_SEC",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Server.EnableMetrics)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 14, cfg.Polygon.Days)
	assert.Equal(t, "USD", cfg.Returns.Currency)
	assert.Equal(t, folio.Lenient, cfg.Returns.Mode)
	assert.Equal(t, folio.DefaultConcurrency, cfg.Returns.Concurrency)
	assert.False(t, cfg.IsProduction())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte(`
FOLIO_DB_DRIVER=postgres
DATABASE_URL=postgres://folio@localhost/folio
FOLIO_RETURNS_MODE=strict
ALLOWED_ORIGINS=http://a.example, http://b.example
FOLIO_PRICE_CACHE_TTL_SEC=0
`), 0644))
	t.Setenv("PORT", "9000") // the environment wins over .env

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, folio.Strict, cfg.Returns.Mode)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Duration(0), cfg.Returns.CacheTTL)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		key, value string
	}{
		{"FOLIO_DB_DRIVER", "mysql"},
		{"FOLIO_RETURNS_MODE", "relaxed"},
		{"POLYGON_DAYS", "two"},
		{"FOLIO_CONCURRENCY", "-1"},
		{"ENABLE_METRICS", "maybe"},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
		})
	}

	t.Run("postgres without url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FOLIO_DB_DRIVER", "postgres")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.Error(t, err)
	})
}
