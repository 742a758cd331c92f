// Package db provides a centralized database connection and schema for skysyncd.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Decision ledger - append-only record of every gate decision, for
	// auditing and the /decisions endpoint. One row per target per reading.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS decision_ledger (
			id TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT,
			error TEXT,
			payload TEXT,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_decision_target_ts ON decision_ledger(target, timestamp);
		CREATE INDEX IF NOT EXISTS idx_decision_outcome_ts ON decision_ledger(outcome, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to create decision_ledger table: %w", err)
	}

	// Resource state - generic JSON state store keyed by (kind, id). Holds
	// the per-target filter state so restarts keep the rate-limit clock.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS resource_state (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			payload TEXT NOT NULL,
			version INTEGER DEFAULT 1,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (kind, id)
		);
		CREATE INDEX IF NOT EXISTS idx_resource_state_kind ON resource_state(kind);
	`)
	if err != nil {
		return fmt.Errorf("failed to create resource_state table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
