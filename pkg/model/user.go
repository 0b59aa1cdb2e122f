package model

import "fmt"

// User is the authenticated principal as reported by the remote service.
// A User value is never mutated once a session holds it.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Validate checks that the user carries a known role.
func (u User) Validate() error {
	if !u.Role.Valid() {
		return fmt.Errorf("user %d: invalid role %q", u.ID, u.Role)
	}
	return nil
}

// IsAdmin reports whether the user has the ADMIN role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsAuthor reports whether the user has the AUTHOR role.
func (u User) IsAuthor() bool {
	return u.Role == RoleAuthor
}
