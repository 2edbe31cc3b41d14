// Package store is the SQLite persistence layer: activities with their
// per-second records, precomputed mean-max tables, and the metric value
// cache.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrActivityNotFound is returned when an activity doesn't exist
var ErrActivityNotFound = errors.New("activity not found")

// Open opens the SQLite database at path, creating it and its directory if
// necessary.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a throwaway in-memory database, for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The metrics cache is consulted from a single connection's worth of
	// statements; in-memory databases vanish per connection.
	db.SetMaxOpenConns(1)
	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func prepare(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Activity summaries
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			start_time TEXT NOT NULL,
			timer_time REAL NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_time ON activities(start_time)`,

		// Session sport classification, one row per session
		`CREATE TABLE IF NOT EXISTS sessions (
			activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			sport TEXT NOT NULL,
			sub_sport TEXT,
			PRIMARY KEY (activity_id, seq)
		)`,

		// Per-second signal records
		`CREATE TABLE IF NOT EXISTS records (
			activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			time_offset INTEGER NOT NULL,
			power REAL,
			heartrate REAL,
			speed REAL,
			cadence REAL,
			altitude REAL,
			distance REAL,
			PRIMARY KEY (activity_id, time_offset)
		)`,

		// Precomputed mean-max tables, long format
		`CREATE TABLE IF NOT EXISTS meanmaxes (
			activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			signal TEXT NOT NULL,
			duration INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (activity_id, signal, duration)
		)`,

		// Metric value cache. value and json_value are mutually exclusive;
		// a row with both null records a computed "no value".
		`CREATE TABLE IF NOT EXISTS metrics (
			activity_id INTEGER NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			value REAL,
			json_value TEXT,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (activity_id, name)
		)`,
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
