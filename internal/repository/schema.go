package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Dialect selects placeholder syntax. The DDL below is shared by SQLite and
// Postgres: timestamps are RFC3339 text and booleans are integers.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) builder() squirrel.StatementBuilderType {
	if d == DialectPostgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tag_events (
		id TEXT PRIMARY KEY,
		row_hash TEXT NOT NULL,
		client_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		tag TEXT NOT NULL,
		category TEXT NOT NULL,
		polarity TEXT NOT NULL,
		origin TEXT NOT NULL,
		processed_at TEXT NOT NULL,
		UNIQUE (row_hash, tag)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tag_events_tag ON tag_events (tag)`,
	`CREATE TABLE IF NOT EXISTS processed_rows (
		row_hash TEXT PRIMARY KEY,
		client_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		event_count INTEGER NOT NULL DEFAULT 0,
		processed_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_cache (
		row_hash TEXT PRIMARY KEY,
		catalog_signature TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tag_catalog (
		tag TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		synonyms TEXT NOT NULL DEFAULT '',
		enabled INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS tag_catalog_pending (
		tag TEXT PRIMARY KEY,
		first_seen_at TEXT NOT NULL,
		example_text TEXT NOT NULL DEFAULT '',
		occurrences INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		spend DOUBLE PRECISION NOT NULL DEFAULT 0,
		category TEXT NOT NULL,
		score INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		suggested_action TEXT NOT NULL DEFAULT '',
		promotion TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// Migrate creates all tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
