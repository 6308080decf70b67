// Package db provides the SQLite connection and schema for lifxswitch.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database and initializes the schema
func Open(dbPath string) (*DB, error) {
	dsn := dbPath
	if !strings.HasPrefix(dbPath, ":memory:") {
		dsn = dbPath + "?_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Gesture history: one row per classified gesture and one per action outcome,
	// linked by gesture_id
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS gesture_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			at INTEGER NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			gesture_id TEXT NOT NULL DEFAULT '',
			detail TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_history_at ON gesture_history(at);
		CREATE INDEX IF NOT EXISTS idx_history_kind_at ON gesture_history(kind, at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create gesture_history table: %w", err)
	}

	// Device inventory - every device discovery has seen, keyed by hardware address
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS device_inventory (
			mac TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			group_label TEXT NOT NULL,
			first_seen INTEGER NOT NULL,
			last_seen INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_inventory_group ON device_inventory(group_label);
	`)
	if err != nil {
		return fmt.Errorf("failed to create device_inventory table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
