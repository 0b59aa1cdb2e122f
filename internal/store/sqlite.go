package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores entries in a single SQLite table.
type SQLiteBackend struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteBackend opens (or creates) a SQLite database at dbPath and
// applies the schema. Use ":memory:" for an in-memory database in tests.
func NewSQLiteBackend(dbPath string, logger *slog.Logger) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	b := &SQLiteBackend{
		db:     db,
		logger: logger.With("component", "store.sqlite"),
	}
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return b, nil
}

// Close closes the underlying database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Read(key string) (string, bool, error) {
	b.logger.Debug("sql", "op", "select", "table", "credentials", "key", key)

	var value string
	err := b.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (b *SQLiteBackend) Write(key, value string) error {
	b.logger.Debug("sql", "op", "upsert", "table", "credentials", "key", key)

	_, err := b.db.Exec(
		`INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (b *SQLiteBackend) Remove(key string) error {
	b.logger.Debug("sql", "op", "delete", "table", "credentials", "key", key)

	_, err := b.db.Exec(`DELETE FROM credentials WHERE key = ?`, key)
	return err
}
