/*
Package sqlite provides a SQLite-backed KV implementation.

PURPOSE:
  Durable single-file storage for ledger snapshots and spend records.
  The KV surface is deliberately small (Get/Set/Delete/Clear) so the
  snapshot store stays agnostic about where bytes live. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

SCHEMA:
  kv: key TEXT PRIMARY KEY, value BLOB. Whole snapshots are written as
  single values, so there is no need for row-level structure here.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  kv, err := sqlite.New("./data/piggy.db")
  if err != nil {
      log.Fatal(err)
  }
  defer kv.Close()

  snapshots := store.New(kv)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - store/store.go: KV interface definition and SnapshotStore
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// KV implements store.KV on a SQLite database.
type KV struct {
	db *sql.DB
}

// New creates a new SQLite KV with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*KV, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	kv := &KV{db: db}
	if err := kv.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return kv, nil
}

// Close closes the database connection.
func (k *KV) Close() error {
	return k.db.Close()
}

// migrate creates the database schema.
func (k *KV) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);
	`
	if _, err := k.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (k *KV) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (k *KV) Set(key string, value []byte) error {
	_, err := k.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(key string) error {
	if _, err := k.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (k *KV) Clear() error {
	if _, err := k.db.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}
