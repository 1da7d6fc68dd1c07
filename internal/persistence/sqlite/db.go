package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle shared by the repositories.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database file and applies the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for concurrent readers while a mutation is in flight.
	if _, err := db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, path: path}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			room_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name    TEXT NOT NULL,
			status  TEXT NOT NULL DEFAULT 'open'
		);
	`); err != nil {
		return fmt.Errorf("create rooms table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name    TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS songs (
			song_id  INTEGER PRIMARY KEY AUTOINCREMENT,
			artist   TEXT NOT NULL DEFAULT '',
			title    TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 0
		);
	`); err != nil {
		return fmt.Errorf("create songs table: %w", err)
	}

	// queue_id doubles as the play order: AUTOINCREMENT guarantees ids are
	// monotonically increasing and never reused after a delete.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS queue (
			queue_id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id  INTEGER NOT NULL REFERENCES rooms(room_id),
			song_id  INTEGER NOT NULL REFERENCES songs(song_id),
			user_id  INTEGER NOT NULL REFERENCES users(user_id)
		);
	`); err != nil {
		return fmt.Errorf("create queue table: %w", err)
	}

	return nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}
