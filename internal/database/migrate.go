package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect names the SQL flavour behind a *sql.DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var schemas = map[Dialect][]string{
	Postgres: {
		`CREATE TABLE IF NOT EXISTS tasks (
			id              BIGSERIAL PRIMARY KEY,
			owner_id        BIGINT       NOT NULL,
			body            VARCHAR(140) NOT NULL DEFAULT '',
			task_date       DATE         NOT NULL,
			start_minute    INTEGER      NOT NULL CHECK (start_minute >= 0 AND start_minute < 1440),
			end_minute      INTEGER      NOT NULL CHECK (end_minute >= 0 AND end_minute < 1440),
			done            BOOLEAN      NOT NULL DEFAULT FALSE,
			color           VARCHAR(14)  NOT NULL DEFAULT '6c757d',
			frequency_days  INTEGER      NULL CHECK (frequency_days >= 0),
			series_end_date DATE         NULL,
			link_id         BIGINT       NULL,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			CHECK (start_minute < end_minute)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_date ON tasks (owner_id, task_date)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_link ON tasks (owner_id, link_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_recurring ON tasks (owner_id) WHERE frequency_days > 0`,
	},
	SQLite: {
		`CREATE TABLE IF NOT EXISTS tasks (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id        INTEGER NOT NULL,
			body            TEXT    NOT NULL DEFAULT '',
			task_date       TEXT    NOT NULL,
			start_minute    INTEGER NOT NULL CHECK (start_minute >= 0 AND start_minute < 1440),
			end_minute      INTEGER NOT NULL CHECK (end_minute >= 0 AND end_minute < 1440),
			done            INTEGER NOT NULL DEFAULT 0,
			color           TEXT    NOT NULL DEFAULT '6c757d',
			frequency_days  INTEGER NULL CHECK (frequency_days >= 0),
			series_end_date TEXT    NULL,
			link_id         INTEGER NULL,
			created_at      TIMESTAMP NOT NULL,
			CHECK (start_minute < end_minute)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_date ON tasks (owner_id, task_date)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_link ON tasks (owner_id, link_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_owner_frequency ON tasks (owner_id, frequency_days)`,
	},
}

// Migrate creates the tasks table and its indexes. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	stmts, ok := schemas[dialect]
	if !ok {
		return fmt.Errorf("unknown dialect %q", dialect)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
