package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Open opens the default database under ~/.config/preflight, creating the
// directory and schema on first use.
func Open() (*DB, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("finding home directory: %w", err)
	}

	dir := filepath.Join(home, ".config", "preflight")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return OpenPath(filepath.Join(dir, "preflight.db"))
}

// OpenPath opens a database at an explicit path. Tests use it with a temp
// directory.
func OpenPath(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	store := &DB{db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (db *DB) migrate() error {
	// The entity tables deliberately have no UNIQUE constraint on the
	// business IDs: duplicate IDs are a data problem the validator reports,
	// not one the store may silently reject. position preserves source order.
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position INTEGER NOT NULL,
			client_id TEXT NOT NULL,
			client_name TEXT NOT NULL,
			priority_level INTEGER NOT NULL,
			requested_task_ids TEXT NOT NULL,
			group_tag TEXT NOT NULL,
			attributes_json TEXT NOT NULL,
			raw_attributes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS workers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position INTEGER NOT NULL,
			worker_id TEXT NOT NULL,
			worker_name TEXT NOT NULL,
			skills TEXT NOT NULL,
			available_slots TEXT NOT NULL,
			max_load_per_phase INTEGER NOT NULL,
			worker_group TEXT NOT NULL,
			qualification_level INTEGER NOT NULL,
			raw_available_slots TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position INTEGER NOT NULL,
			task_id TEXT NOT NULL,
			task_name TEXT NOT NULL,
			category TEXT NOT NULL,
			duration INTEGER NOT NULL,
			required_skills TEXT NOT NULL,
			preferred_phases TEXT NOT NULL,
			max_concurrent INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rules (
			rule_id TEXT PRIMARY KEY,
			rule_type TEXT NOT NULL,
			body TEXT NOT NULL,
			pending INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	return nil
}

func (db *DB) GetState(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (db *DB) SetState(key, value string) error {
	_, err := db.Exec(
		"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
