package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "app", Password: "secret", DBName: "dayplanner"}
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=dayplanner sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteDB(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db, SQLite))
	require.NoError(t, Migrate(ctx, db, SQLite))

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrateSQLiteRejectsInvertedSlot(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteDB(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(ctx, db, SQLite))

	_, err = db.ExecContext(ctx,
		`INSERT INTO tasks (owner_id, task_date, start_minute, end_minute, created_at) VALUES (1, '2024-01-01', 600, 540, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestMigrateUnknownDialect(t *testing.T) {
	assert.Error(t, Migrate(context.Background(), nil, Dialect("oracle")))
}
