package model

import "fmt"

// Session is the current identity: either a token together with its user,
// or nothing. The zero value is the empty session.
type Session struct {
	token string
	user  *User
}

// NewSession builds an authenticated session. Both parts are required.
func NewSession(token string, user *User) (Session, error) {
	if token == "" || user == nil {
		return Session{}, ErrPartialSession
	}
	if err := user.Validate(); err != nil {
		return Session{}, fmt.Errorf("new session: %w", err)
	}
	u := *user
	return Session{token: token, user: &u}, nil
}

// IsAuthenticated reports whether a token is present.
func (s Session) IsAuthenticated() bool {
	return s.token != ""
}

// Token returns the bearer token, or "" for the empty session.
func (s Session) Token() string {
	return s.token
}

// User returns a copy of the session user. ok is false for the empty
// session.
func (s Session) User() (u User, ok bool) {
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Role returns the user's role, or "" for the empty session.
func (s Session) Role() Role {
	if s.user == nil {
		return ""
	}
	return s.user.Role
}
