// Package config loads the folio configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/folio"
	"github.com/joho/godotenv"
)

// Config is the folio configuration.
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Polygon  PolygonConfig
	Returns  ReturnsConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration
	EnableMetrics  bool
}

// Addr is the listen address.
func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

type DatabaseConfig struct {
	Driver     string // sqlite or postgres
	SQLitePath string
	URL        string
	MaxConns   int32
}

type PolygonConfig struct {
	APIKey   string
	BaseURL  string
	Days     int
	RPM      int
	CacheDir string // raw responses cache, disabled when empty
}

type ReturnsConfig struct {
	Currency      string
	Mode          folio.Mode
	Concurrency   int
	CacheTTL      time.Duration
	CacheMaxItems int
}

type LoggingConfig struct {
	Level       string
	Format      string
	FileEnabled bool
	FilePath    string
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads the .env files (".env" when none is given, missing files are
// ignored) and then the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var p parser
	cfg := &Config{
		Env: getEnv("FOLIO_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("FOLIO_HOST", "0.0.0.0"),
			Port:           getEnv("PORT", "8000"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
			RequestTimeout: time.Duration(p.int("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
			EnableMetrics:  p.bool("ENABLE_METRICS", true),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("FOLIO_DB_DRIVER", "sqlite")),
			SQLitePath: getEnv("FOLIO_SQLITE_PATH", "folio.db"),
			URL:        getEnv("DATABASE_URL", ""),
			MaxConns:   int32(p.int("DB_MAX_CONNS", 10)),
		},
		Polygon: PolygonConfig{
			APIKey:   getEnv("POLYGON_API_KEY", ""),
			BaseURL:  getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),
			Days:     p.int("POLYGON_DAYS", 14),
			RPM:      p.int("POLYGON_RPM", 5),
			CacheDir: getEnv("FOLIO_HTTP_CACHE_DIR", ""),
		},
		Returns: ReturnsConfig{
			Currency:      strings.ToUpper(getEnv("FOLIO_CURRENCY", "USD")),
			Concurrency:   p.int("FOLIO_CONCURRENCY", folio.DefaultConcurrency),
			CacheTTL:      time.Duration(p.int("FOLIO_PRICE_CACHE_TTL_SEC", 300)) * time.Second,
			CacheMaxItems: p.int("FOLIO_PRICE_CACHE_MAX_ITEMS", 10000),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "pretty"),
			FileEnabled: p.bool("LOG_FILE_ENABLED", false),
			FilePath:    getEnv("LOG_FILE_PATH", "logs"),
		},
	}
	if p.err != nil {
		return nil, p.err
	}

	mode, err := folio.ParseMode(getEnv("FOLIO_RETURNS_MODE", "lenient"))
	if err != nil {
		return nil, fmt.Errorf("FOLIO_RETURNS_MODE: %w", err)
	}
	cfg.Returns.Mode = mode

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("FOLIO_DB_DRIVER: unknown driver %q want sqlite or postgres", cfg.Database.Driver)
	}
	if cfg.Database.Driver == "postgres" && cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is required with the postgres driver")
	}
	return cfg, nil
}

// getEnv gets environment variable with fallback.
func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var res []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}

// parser reads typed variables and keeps the first error.
type parser struct{ err error }

func (p *parser) int(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		if p.err == nil {
			p.err = fmt.Errorf("%s: invalid non negative integer %q", key, v)
		}
		return fallback
	}
	return i
}

func (p *parser) bool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("%s: invalid boolean %q", key, v)
		}
		return fallback
	}
	return b
}
