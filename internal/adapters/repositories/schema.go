package repositories

import (
	"context"
	"database/sql"
	"errors"
	"event-discovery-service/internal/platform/db"
	"fmt"
)

var sqliteSchema = []string{`
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		street TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		lat REAL NULL,
		lng REAL NULL,
		tier TEXT NOT NULL,
		featured_until TEXT NULL,
		start_date_time TEXT NOT NULL,
		created_at TEXT NOT NULL,
		vote_count INTEGER NOT NULL DEFAULT 0,
		save_count INTEGER NOT NULL DEFAULT 0
	);
	`, `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lat REAL NOT NULL,
        lng REAL NOT NULL,
        source TEXT NOT NULL
    );
	`, `
	CREATE TABLE IF NOT EXISTS route_cache (
        fingerprint TEXT PRIMARY KEY,
        distance_meters REAL NOT NULL,
        duration_seconds REAL NOT NULL,
        geometry BLOB NULL
    );
	`, `
	CREATE INDEX IF NOT EXISTS idx_events_start
    ON events(start_date_time);
	`,
}

var postgresSchema = []string{`
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		street TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NULL,
		lng DOUBLE PRECISION NULL,
		tier TEXT NOT NULL,
		featured_until TEXT NULL,
		start_date_time TEXT NOT NULL,
		created_at TEXT NOT NULL,
		vote_count INTEGER NOT NULL DEFAULT 0,
		save_count INTEGER NOT NULL DEFAULT 0
	);
	`, `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lat DOUBLE PRECISION NOT NULL,
        lng DOUBLE PRECISION NOT NULL,
        source TEXT NOT NULL
    );
	`, `
	CREATE TABLE IF NOT EXISTS route_cache (
        fingerprint TEXT PRIMARY KEY,
        distance_meters DOUBLE PRECISION NOT NULL,
        duration_seconds DOUBLE PRECISION NOT NULL,
        geometry BYTEA NULL
    );
	`, `
	CREATE INDEX IF NOT EXISTS idx_events_start
    ON events(start_date_time);
	`,
}

// InitSchema creates the events table and the geocode and route caches.
func InitSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	switch dialect {
	case db.SQLite:
		return initSchema(ctx, conn, sqliteSchema)
	case db.Postgres:
		return initSchema(ctx, conn, postgresSchema)
	}
	return fmt.Errorf("init schema: unsupported dialect %q", dialect)
}

// InitSqliteSchema initializes the SQLite database schema.
func InitSqliteSchema(ctx context.Context, conn *sql.DB) error {
	return initSchema(ctx, conn, sqliteSchema)
}

func initSchema(ctx context.Context, conn *sql.DB, statements []string) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
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
