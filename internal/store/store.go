// Package store persists the current credentials (bearer token and user
// profile) so a session survives process restarts.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/quill/pkg/model"
)

// Entry keys. The layout is fixed: one plain-string token entry and one
// JSON user entry.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Backend is a synchronous, durable key/value store.
type Backend interface {
	// Read returns the value for key; ok is false if the key is absent.
	Read(key string) (value string, ok bool, err error)
	// Write stores value under key, replacing any previous value.
	Write(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Credentials is a persisted token together with its user.
type Credentials struct {
	Token string
	User  model.User
}

// CredentialStore reads and writes Credentials on a Backend as a pair.
type CredentialStore struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a CredentialStore on top of backend.
func New(backend Backend, logger *slog.Logger) *CredentialStore {
	return &CredentialStore{
		backend: backend,
		logger:  logger.With("component", "store"),
	}
}

// Put writes both entries. If the user entry cannot be written the token
// entry is rolled back, so a failed Put never leaves a new token next to a
// stale user.
func (s *CredentialStore) Put(creds Credentials) error {
	if creds.Token == "" {
		return &model.StorageError{Op: "put", Key: KeyToken, Err: model.ErrPartialSession}
	}
	userJSON, err := json.Marshal(creds.User)
	if err != nil {
		return &model.StorageError{Op: "put", Key: KeyUser, Err: fmt.Errorf("marshal user: %w", err)}
	}

	prevToken, hadToken, err := s.backend.Read(KeyToken)
	if err != nil {
		return &model.StorageError{Op: "put", Key: KeyToken, Err: err}
	}

	if err := s.backend.Write(KeyToken, creds.Token); err != nil {
		return &model.StorageError{Op: "put", Key: KeyToken, Err: err}
	}
	if err := s.backend.Write(KeyUser, string(userJSON)); err != nil {
		s.rollbackToken(prevToken, hadToken)
		return &model.StorageError{Op: "put", Key: KeyUser, Err: err}
	}

	s.logger.Debug("credentials stored", "user_id", creds.User.ID)
	return nil
}

func (s *CredentialStore) rollbackToken(prev string, had bool) {
	var err error
	if had {
		err = s.backend.Write(KeyToken, prev)
	} else {
		err = s.backend.Remove(KeyToken)
	}
	if err != nil {
		s.logger.Warn("token rollback failed", "error", err)
	}
}

// Get returns the stored credentials, or nil if either entry is missing or
// does not deserialize. Backend failures are returned as *model.StorageError.
func (s *CredentialStore) Get() (*Credentials, error) {
	token, ok, err := s.backend.Read(KeyToken)
	if err != nil {
		return nil, &model.StorageError{Op: "get", Key: KeyToken, Err: err}
	}
	if !ok || token == "" {
		return nil, nil
	}

	raw, ok, err := s.backend.Read(KeyUser)
	if err != nil {
		return nil, &model.StorageError{Op: "get", Key: KeyUser, Err: err}
	}
	if !ok {
		return nil, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("discarding unreadable stored user", "error", err)
		return nil, nil
	}
	if err := user.Validate(); err != nil {
		s.logger.Warn("discarding invalid stored user", "error", err)
		return nil, nil
	}

	return &Credentials{Token: token, User: user}, nil
}

// Clear removes both entries. It attempts both removals even if the first
// fails.
func (s *CredentialStore) Clear() error {
	var errs []error
	for _, key := range []string{KeyToken, KeyUser} {
		if err := s.backend.Remove(key); err != nil {
			errs = append(errs, &model.StorageError{Op: "clear", Key: key, Err: err})
		}
	}
	return errors.Join(errs...)
}
