package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// SQLiteFileName is the database file created inside the credentials
// directory by the sqlite backend.
const SQLiteFileName = "credentials.db"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds a CredentialStore of the given kind rooted at dir. The returned
// closer releases backend resources and must be called when done.
func Open(kind, dir string, logger *slog.Logger) (*CredentialStore, io.Closer, error) {
	switch kind {
	case KindFile, "":
		return New(NewFileBackend(dir), logger), nopCloser{}, nil
	case KindSQLite:
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, nil, fmt.Errorf("create credentials directory: %w", err)
		}
		b, err := NewSQLiteBackend(filepath.Join(dir, SQLiteFileName), logger)
		if err != nil {
			return nil, nil, err
		}
		return New(b, logger), b, nil
	case KindMemory:
		return New(NewMemoryBackend(), logger), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown credentials backend %q (want file, sqlite or memory)", kind)
}
