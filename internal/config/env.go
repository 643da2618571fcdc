package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres  = "postgres"
	StoreDriverSQLite    = "sqlite"
	StoreDriverDatastore = "datastore"
	StoreDriverMemory    = "memory"
)

type envConfig struct {
	APP_PORT      string
	LOG_FILE_PATH string
	LOG_LEVEL     string

	STORE_DRIVER string
	SQLITE_PATH  string

	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_MAX_OPEN_CONNS    int
	DB_MAX_IDLE_CONNS    int
	DB_CONN_MAX_LIFETIME time.Duration

	GCP_PROJECT_ID string

	POLL_ENABLED        bool
	POLL_INTERVAL       time.Duration
	POLL_WINDOW_MINUTES int
	POLL_CONCURRENCY    int

	EXPORT_LAYOUT_PATH string
}

// DefaultEnvConfig holds the loaded configuration.
var DefaultEnvConfig = defaults()

func defaults() envConfig {
	return envConfig{
		APP_PORT:             "8080",
		LOG_LEVEL:            "info",
		STORE_DRIVER:         StoreDriverPostgres,
		SQLITE_PATH:          "dayplanner.db",
		DB_HOST:              "localhost",
		DB_PORT:              5432,
		DB_USER:              "postgres",
		DB_NAME:              "dayplanner",
		DB_SSL_MODE:          "disable",
		DB_MAX_OPEN_CONNS:    25,
		DB_MAX_IDLE_CONNS:    5,
		DB_CONN_MAX_LIFETIME: 5 * time.Minute,
		POLL_ENABLED:         true,
		POLL_INTERVAL:        time.Minute,
		POLL_WINDOW_MINUTES:  15,
		POLL_CONCURRENCY:     4,
	}
}

// LoadEnvConfig reads .env (if present) and the process environment into DefaultEnvConfig.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := parseEnv(os.Getenv)
	if err != nil {
		return err
	}
	DefaultEnvConfig = cfg
	return nil
}

func parseEnv(getenv func(string) string) (envConfig, error) {
	cfg := defaults()
	p := envParser{getenv: getenv}

	cfg.APP_PORT = p.str("APP_PORT", cfg.APP_PORT)
	cfg.LOG_FILE_PATH = p.str("LOG_FILE_PATH", cfg.LOG_FILE_PATH)
	cfg.LOG_LEVEL = p.str("LOG_LEVEL", cfg.LOG_LEVEL)

	cfg.STORE_DRIVER = strings.ToLower(p.str("STORE_DRIVER", cfg.STORE_DRIVER))
	cfg.SQLITE_PATH = p.str("SQLITE_PATH", cfg.SQLITE_PATH)

	cfg.DB_HOST = p.str("DB_HOST", cfg.DB_HOST)
	cfg.DB_PORT = p.int("DB_PORT", cfg.DB_PORT)
	cfg.DB_USER = p.str("DB_USER", cfg.DB_USER)
	cfg.DB_PASSWORD = p.str("DB_PASSWORD", cfg.DB_PASSWORD)
	cfg.DB_NAME = p.str("DB_NAME", cfg.DB_NAME)
	cfg.DB_SSL_MODE = p.str("DB_SSL_MODE", cfg.DB_SSL_MODE)
	cfg.DB_MAX_OPEN_CONNS = p.int("DB_MAX_OPEN_CONNS", cfg.DB_MAX_OPEN_CONNS)
	cfg.DB_MAX_IDLE_CONNS = p.int("DB_MAX_IDLE_CONNS", cfg.DB_MAX_IDLE_CONNS)
	cfg.DB_CONN_MAX_LIFETIME = p.duration("DB_CONN_MAX_LIFETIME", cfg.DB_CONN_MAX_LIFETIME)

	cfg.GCP_PROJECT_ID = p.str("GCP_PROJECT_ID", cfg.GCP_PROJECT_ID)

	cfg.POLL_ENABLED = p.bool("POLL_ENABLED", cfg.POLL_ENABLED)
	cfg.POLL_INTERVAL = p.duration("POLL_INTERVAL", cfg.POLL_INTERVAL)
	cfg.POLL_WINDOW_MINUTES = p.int("POLL_WINDOW_MINUTES", cfg.POLL_WINDOW_MINUTES)
	cfg.POLL_CONCURRENCY = p.int("POLL_CONCURRENCY", cfg.POLL_CONCURRENCY)

	cfg.EXPORT_LAYOUT_PATH = p.str("EXPORT_LAYOUT_PATH", cfg.EXPORT_LAYOUT_PATH)

	if p.err != nil {
		return envConfig{}, p.err
	}

	switch cfg.STORE_DRIVER {
	case StoreDriverPostgres, StoreDriverSQLite, StoreDriverMemory:
	case StoreDriverDatastore:
		if cfg.GCP_PROJECT_ID == "" {
			return envConfig{}, fmt.Errorf("GCP_PROJECT_ID is required when STORE_DRIVER=%s", StoreDriverDatastore)
		}
	default:
		return envConfig{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.STORE_DRIVER)
	}
	if cfg.POLL_WINDOW_MINUTES <= 0 || cfg.POLL_CONCURRENCY <= 0 || cfg.POLL_INTERVAL <= 0 {
		return envConfig{}, fmt.Errorf("poll interval, window and concurrency must be positive")
	}
	return cfg, nil
}

// envParser keeps the first conversion error so parseEnv reads every key before failing.
type envParser struct {
	getenv func(string) string
	err    error
}

func (p *envParser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *envParser) int(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *envParser) bool(key string, def bool) bool {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *envParser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
