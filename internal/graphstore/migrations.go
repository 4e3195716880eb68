package graphstore

import (
	"database/sql"
	"fmt"
)

// migration is a numbered schema change applied at most once; applied
// versions are recorded in a schema_migrations table so restarts are
// idempotent.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS node_versions (
	version_id    TEXT PRIMARY KEY,
	logical_id    TEXT NOT NULL,
	type          TEXT NOT NULL,
	description   TEXT NOT NULL,
	meta          TEXT NOT NULL DEFAULT '{}',
	valid_from    TEXT NOT NULL,
	valid_to      TEXT,
	known_from    TEXT NOT NULL,
	known_to      TEXT,
	supersedes    TEXT,
	superseded_by TEXT,
	version_seq   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_node_logical_known ON node_versions(logical_id, known_to);
CREATE INDEX IF NOT EXISTS idx_node_logical_valid ON node_versions(logical_id, valid_from, valid_to);

CREATE TABLE IF NOT EXISTS link_versions (
	version_id    TEXT PRIMARY KEY,
	logical_id    TEXT NOT NULL,
	src_logical   TEXT NOT NULL,
	dst_logical   TEXT NOT NULL,
	type          TEXT NOT NULL,
	weight_log    REAL NOT NULL,
	confidence    REAL NOT NULL,
	valid_from    TEXT NOT NULL,
	valid_to      TEXT,
	known_from    TEXT NOT NULL,
	known_to      TEXT,
	supersedes    TEXT,
	superseded_by TEXT,
	version_seq   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_link_logical_known ON link_versions(logical_id, known_to);
CREATE INDEX IF NOT EXISTS idx_link_src_known ON link_versions(src_logical, known_to);
CREATE INDEX IF NOT EXISTS idx_link_dst_known ON link_versions(dst_logical, known_to);

CREATE TABLE IF NOT EXISTS config_record (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS link_weights (
	logical_id TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	weight_log REAL NOT NULL,
	sticky_s   REAL NOT NULL DEFAULT 1.0
);
`,
	},
}

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("reading schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scanning schema_migrations: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, applied_at) VALUES (?, datetime('now'))`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}
	return nil
}
