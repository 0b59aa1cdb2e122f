package model

import (
	"errors"
	"fmt"
)

// DefaultLoginFailure is shown when the remote service rejects a login
// without supplying a message.
const DefaultLoginFailure = "Invalid credentials. Please try again."

var (
	// ErrPartialSession is returned when a session is built from a token
	// without a user or the reverse.
	ErrPartialSession = errors.New("session requires both token and user")

	// ErrIncompleteLogin indicates a successful login response that lacked
	// the token or the user.
	ErrIncompleteLogin = errors.New("login response missing token or user")

	// ErrLoginSuperseded indicates a login whose result was discarded because
	// a later login or a logout was issued while it was in flight.
	ErrLoginSuperseded = errors.New("login superseded by a later session change")
)

// InvalidCredentialsError is returned when the remote service rejects a
// login (HTTP 400/401).
type InvalidCredentialsError struct {
	Status  int
	Message string
}

func (e *InvalidCredentialsError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = DefaultLoginFailure
	}
	return fmt.Sprintf("login rejected (HTTP %d): %s", e.Status, msg)
}

// NetworkError is returned when a request could not complete at all
// (timeout, DNS failure, connection refused).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthorizationError is returned when an authenticated request is rejected
// with HTTP 401 or 403. The session is left as is.
type AuthorizationError struct {
	Status  int
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("not authorized (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("not authorized (HTTP %d)", e.Status)
}

// StorageError wraps a credential store failure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("credential store %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("credential store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// APIError is any other non-2xx response from the remote service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// IsAuthError reports whether err is a login rejection or an authorization
// failure.
func IsAuthError(err error) bool {
	var ic *InvalidCredentialsError
	var az *AuthorizationError
	return errors.As(err, &ic) || errors.As(err, &az)
}

// IsNotFound reports whether err is a 404 from the remote service.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == 404
}

// UserMessage returns the text to show next to the form or command that
// triggered err.
func UserMessage(err error) string {
	var ic *InvalidCredentialsError
	if errors.As(err, &ic) {
		if ic.Message != "" {
			return ic.Message
		}
		return DefaultLoginFailure
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return "Could not reach the server. Please try again."
	}
	var az *AuthorizationError
	if errors.As(err, &az) {
		if az.Message != "" {
			return az.Message
		}
		return "You are not allowed to do that. Try logging in again."
	}
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
