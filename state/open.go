package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Schema holds the tables owned by this package: the persisted snapshot
// (singleton meta row plus one row per ranked entry) and the cycle log.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	observed_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_entries (
	pos   INTEGER PRIMARY KEY,
	name  TEXT NOT NULL UNIQUE,
	score REAL
);
CREATE TABLE IF NOT EXISTS cycle_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at INTEGER NOT NULL,
	outcome    TEXT NOT NULL,
	step       TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT ''
);
`

type openConfig struct {
	busyTimeout int
	mkdirAll    bool
	schemas     []string
}

// OpenOption customises Open behaviour.
type OpenOption func(*openConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) OpenOption {
	return func(c *openConfig) { c.busyTimeout = ms }
}

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() OpenOption {
	return func(c *openConfig) { c.mkdirAll = true }
}

// WithSchema queues additional SQL to execute after the state schema is
// applied. Other packages sharing the database (the subscriber registry)
// register their tables this way.
func WithSchema(s string) OpenOption {
	return func(c *openConfig) { c.schemas = append(c.schemas, s) }
}

// Open opens the arenawatch SQLite database with production-safe pragmas
// (WAL, busy_timeout, synchronous=NORMAL, foreign keys) and the state schema
// applied. The caller must blank-import modernc.org/sqlite.
func Open(path string, opts ...OpenOption) (*sql.DB, error) {
	cfg := openConfig{busyTimeout: 10_000}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("state: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("state: %s: %w", p, err)
		}
	}

	for _, s := range append([]string{Schema}, cfg.schemas...) {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("state: exec schema: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("state: ping: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory database for testing. MaxOpenConns is pinned
// to 1 so every query sees the same in-memory database, and Cleanup closes it.
func OpenMemory(t testing.TB, opts ...OpenOption) *sql.DB {
	t.Helper()
	db, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("state.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
