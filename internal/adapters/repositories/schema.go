package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Dialect selects the DDL flavour for InitSchema.
type Dialect string

const (
	DialectSqlite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Initialize the client-state schema (session keys and the sighting snapshot).
func InitSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	var statements []string
	switch dialect {
	case DialectSqlite:
		statements = sqliteSchema
	case DialectPostgres:
		statements = postgresSchema
	default:
		return fmt.Errorf("init schema: unknown dialect %q", dialect)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

var sqliteSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS client_state (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, key)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS sighting_snapshot (
		namespace TEXT NOT NULL,
		position INTEGER NOT NULL,
		sighting_id TEXT NOT NULL,
		lon REAL NOT NULL,
		lat REAL NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		PRIMARY KEY (namespace, position)
	);
	`,
}

var postgresSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS client_state (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, key)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS sighting_snapshot (
		namespace TEXT NOT NULL,
		position INTEGER NOT NULL,
		sighting_id TEXT NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (namespace, position)
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_sighting_snapshot_sighting
	ON sighting_snapshot(namespace, sighting_id);
	`,
}
