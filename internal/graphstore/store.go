package graphstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/graphmind/graphmind/internal/clog"
)

// Store is the sqlite-backed graph store: a *sql.DB plus a small amount of
// in-process coordination. Store stripes its write lock per logical id (see
// locks.go) so mutating operations on unrelated entities don't serialize
// against each other.
type Store struct {
	db     *sql.DB
	dbPath string
	locks  *stripedLocks
}

// Open initializes (creating if needed) the sqlite database at path and
// applies any pending schema migrations.
func Open(path string) (*Store, error) {
	log := clog.For(clog.CategoryGraphStore)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-writer model: one connection avoids sqlite lock contention.

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	log.Sugar().Infow("graph store opened", "path", path)

	return &Store{db: db, dbPath: path, locks: newStripedLocks(256)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for packages that need to read/write
// durable state outside the version tables.
func (s *Store) DB() *sql.DB {
	return s.db
}
