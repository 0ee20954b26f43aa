// Package state persists fetch history in a local SQLite database.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/timeline-badge/timeline/internal/utils"
)

const dbFileName = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS fetches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	pass_id      TEXT NOT NULL,
	resource     TEXT NOT NULL,
	url          TEXT NOT NULL,
	dest_path    TEXT NOT NULL,
	bytes        INTEGER NOT NULL DEFAULT 0,
	from_cache   INTEGER NOT NULL DEFAULT 0,
	forced       INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	completed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetches_completed ON fetches(completed_at);
`

// Store is the fetch history database. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return OpenPath(filepath.Join(dir, dbFileName))
}

// OpenPath opens the database file at path.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	// One writer at a time; sqlite serialises anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 1000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	utils.Debug("State: opened %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
