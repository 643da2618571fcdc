package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseEnvDefaults(t *testing.T) {
	cfg, err := parseEnv(envFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.APP_PORT)
	assert.Equal(t, StoreDriverPostgres, cfg.STORE_DRIVER)
	assert.Equal(t, 5432, cfg.DB_PORT)
	assert.Equal(t, 5*time.Minute, cfg.DB_CONN_MAX_LIFETIME)
	assert.Equal(t, 15, cfg.POLL_WINDOW_MINUTES)
}

func TestParseEnvOverrides(t *testing.T) {
	cfg, err := parseEnv(envFrom(map[string]string{
		"APP_PORT":            "9000",
		"STORE_DRIVER":        "SQLite",
		"SQLITE_PATH":         "/tmp/tasks.db",
		"DB_PORT":             "6543",
		"POLL_INTERVAL":       "30s",
		"POLL_WINDOW_MINUTES": "5",
		"POLL_ENABLED":        "false",
	}))
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.APP_PORT)
	assert.Equal(t, StoreDriverSQLite, cfg.STORE_DRIVER)
	assert.Equal(t, "/tmp/tasks.db", cfg.SQLITE_PATH)
	assert.Equal(t, 6543, cfg.DB_PORT)
	assert.Equal(t, 30*time.Second, cfg.POLL_INTERVAL)
	assert.Equal(t, 5, cfg.POLL_WINDOW_MINUTES)
	assert.False(t, cfg.POLL_ENABLED)
}

func TestParseEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"DB_PORT": "five"}},
		{"bad duration", map[string]string{"POLL_INTERVAL": "soon"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"datastore without project", map[string]string{"STORE_DRIVER": "datastore"}},
		{"zero window", map[string]string{"POLL_WINDOW_MINUTES": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEnv(envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_PORT", "7070")
	t.Cleanup(func() { DefaultEnvConfig = defaults() })

	require.NoError(t, LoadEnvConfig())
	assert.Equal(t, StoreDriverMemory, DefaultEnvConfig.STORE_DRIVER)
	assert.Equal(t, "7070", DefaultEnvConfig.APP_PORT)
}
