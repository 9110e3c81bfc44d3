// Package db provides the shared SQLite connection and schema for dawnlamp.
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
	// Single-row persisted device configuration. This is the only state that
	// crosses the hibernation boundary besides the wake-cause register.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS device_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			alarm_hour INTEGER NOT NULL,
			alarm_minute INTEGER NOT NULL,
			alarm_enabled INTEGER NOT NULL,
			color_temp INTEGER NOT NULL,
			wake_bright INTEGER NOT NULL,
			sunrise_duration INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create device_config table: %w", err)
	}

	// Event ledger - append-only device event history for auditing
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS event_ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			payload TEXT,
			source TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_type_ts ON event_ledger(event_type, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to create event_ledger table: %w", err)
	}

	return nil
}
