// Package guard decides whether the current session may reach a protected
// screen or action.
package guard

import (
	"errors"

	"github.com/me/quill/pkg/model"
)

// Decision is the outcome of an access check.
type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota
	// RedirectLogin sends an unauthenticated user to the login screen.
	RedirectLogin
	// RedirectHome sends an authenticated user without a permitted role
	// to the home screen.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "ALLOW"
	case RedirectLogin:
		return "REDIRECT_LOGIN"
	case RedirectHome:
		return "REDIRECT_HOME"
	}
	return "UNKNOWN"
}

// Decide checks sess against the roles permitted for a resource. An
// unauthenticated session is always sent to login, even when the role would
// not match either. An empty required set admits any authenticated user.
func Decide(required model.RoleSet, sess model.Session) Decision {
	if !sess.IsAuthenticated() {
		return RedirectLogin
	}
	if !required.Empty() && !required.Has(sess.Role()) {
		return RedirectHome
	}
	return Allow
}

var (
	// ErrLoginRequired is returned by Check for RedirectLogin.
	ErrLoginRequired = errors.New("login required")
	// ErrForbidden is returned by Check for RedirectHome.
	ErrForbidden = errors.New("permission denied")
)

// SessionReader exposes the current session.
type SessionReader interface {
	Current() model.Session
}

// Check runs Decide on the reader's current session and returns nil,
// ErrLoginRequired or ErrForbidden.
func Check(reader SessionReader, required model.RoleSet) error {
	switch Decide(required, reader.Current()) {
	case RedirectLogin:
		return ErrLoginRequired
	case RedirectHome:
		return ErrForbidden
	}
	return nil
}
