// Package session owns the process-wide login state: the current token and
// user, their persistence, and the login/logout transitions.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/me/quill/internal/store"
	"github.com/me/quill/pkg/model"
)

// Authenticator exchanges credentials for a token and user at the remote
// service.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
}

// CredentialStore persists the session across restarts.
type CredentialStore interface {
	Put(creds store.Credentials) error
	Get() (*store.Credentials, error)
	Clear() error
}

// Manager is the single owner of the current session. All reads go through
// Current and all writes through Login and Logout.
type Manager struct {
	auth   Authenticator
	store  CredentialStore
	logger *slog.Logger

	// persistMu orders store writes. It is taken before mu, and store I/O
	// happens with only persistMu held so Current never waits on storage.
	persistMu sync.Mutex

	mu          sync.Mutex
	current     model.Session
	seq         uint64 // last issued login/logout sequence number
	applied     uint64 // sequence number of the last committed change
	initialized bool

	listenersMu sync.Mutex
	listeners   map[int]func(model.Session)
	nextID      int
}

// NewManager creates a Manager with an empty session. Call Initialize to
// restore a persisted one.
func NewManager(auth Authenticator, st CredentialStore, logger *slog.Logger) *Manager {
	return &Manager{
		auth:      auth,
		store:     st,
		logger:    logger.With("component", "session"),
		listeners: make(map[int]func(model.Session)),
	}
}

// Initialize restores the persisted session, if any. Only the first call
// has an effect, and nothing is restored once a login or logout has been
// applied. A store failure leaves the session empty.
func (m *Manager) Initialize() {
	if sess, ok := m.hydrate(); ok {
		u, _ := sess.User()
		m.logger.Info("session restored", "user_id", u.ID, "role", u.Role)
		m.publish(sess)
	}
}

// hydrate reads the store with only persistMu held and commits the result
// unless a login or logout was applied meanwhile.
func (m *Manager) hydrate() (model.Session, bool) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	skip := m.initialized || m.seq != 0
	m.initialized = true
	m.mu.Unlock()
	if skip {
		return model.Session{}, false
	}

	creds, err := m.store.Get()
	if err != nil {
		m.logger.Warn("credential store unreadable, starting logged out", "error", err)
		return model.Session{}, false
	}
	if creds == nil {
		m.logger.Debug("no persisted session")
		return model.Session{}, false
	}

	user := creds.User
	sess, err := model.NewSession(creds.Token, &user)
	if err != nil {
		m.logger.Warn("discarding persisted session", "error", err)
		return model.Session{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied != 0 {
		return model.Session{}, false
	}
	m.current = sess
	return sess, true
}

// Login authenticates with the remote service and, on success, makes the
// returned identity the current session and persists it.
//
// The result is committed only if no other Login or Logout was issued while
// this one was in flight; otherwise ErrLoginSuperseded is returned and the
// session is left alone. On any error the session is unchanged.
func (m *Manager) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	m.logger.Debug("login started", "email", req.Email, "seq", seq)

	resp, err := m.auth.Login(ctx, req)
	if err != nil {
		m.logger.Info("login failed", "email", req.Email, "error", err)
		return nil, err
	}
	if resp == nil || resp.Token == "" || resp.User == nil {
		return nil, model.ErrIncompleteLogin
	}
	sess, err := model.NewSession(resp.Token, resp.User)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	user, _ := sess.User()

	m.persistMu.Lock()
	m.mu.Lock()
	if seq != m.seq {
		latest := m.seq
		m.mu.Unlock()
		m.persistMu.Unlock()
		m.logger.Info("discarding stale login", "seq", seq, "latest", latest)
		return nil, model.ErrLoginSuperseded
	}
	m.current = sess
	m.applied = seq
	m.mu.Unlock()

	if err := m.store.Put(store.Credentials{Token: resp.Token, User: user}); err != nil {
		m.logger.Warn("session not persisted", "error", err)
	}
	m.persistMu.Unlock()

	m.logger.Info("logged in", "user_id", user.ID, "role", user.Role)
	m.publish(sess)
	return &user, nil
}

// Logout clears the session and the persisted credentials. It never fails:
// the in-memory session is cleared even if the store cannot be. Logins in
// flight when Logout is called will not be committed.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.current = model.Session{}
	m.applied = seq
	m.mu.Unlock()

	// A login committed after this logout has already written its own
	// credentials by the time persistMu is free; leave them.
	m.persistMu.Lock()
	m.mu.Lock()
	latest := m.applied == seq
	m.mu.Unlock()
	if latest {
		if err := m.store.Clear(); err != nil {
			m.logger.Warn("persisted credentials not cleared", "error", err)
		}
	}
	m.persistMu.Unlock()

	m.logger.Info("logged out")
	m.publish(model.Session{})
}

// Current returns the current session.
func (m *Manager) Current() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() string {
	return m.Current().Token()
}

// Subscribe registers fn to receive every session committed after this
// call. The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(model.Session)) (cancel func()) {
	m.listenersMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.listenersMu.Unlock()

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

func (m *Manager) publish(sess model.Session) {
	m.listenersMu.Lock()
	fns := make([]func(model.Session), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}
