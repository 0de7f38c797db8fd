package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the SQLite database at dataDir/webexmcp.db.
// It enables WAL mode for concurrent reads and runs migrations.
func Open(dataDir string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "webexmcp.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	// Set busy timeout for write contention (5 seconds).
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory database: %w", err)
	}
	// Each pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			name       TEXT PRIMARY KEY,
			kind       TEXT NOT NULL DEFAULT 'messaging',
			settings   BLOB NOT NULL,
			version    INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,

		`CREATE TABLE IF NOT EXISTS usage_metrics (
			surface      TEXT NOT NULL,
			metric_name  TEXT NOT NULL,
			metric_value INTEGER NOT NULL DEFAULT 0,
			period       TEXT NOT NULL,
			PRIMARY KEY (surface, metric_name, period)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL DEFAULT (datetime('now')),
			actor     TEXT NOT NULL,
			action    TEXT NOT NULL,
			resource  TEXT NOT NULL DEFAULT '',
			detail    TEXT NOT NULL DEFAULT '{}',
			outcome   TEXT NOT NULL DEFAULT 'success'
		)`,
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_usage_metrics_period ON usage_metrics(period)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_resource ON audit_log(resource)`,
	}

	for _, ddl := range tables {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("exec DDL: %w", err)
		}
	}
	for _, ddl := range indexes {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("exec index: %w", err)
		}
	}

	return nil
}
