package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Role is the authorization role of a user. The set of roles is closed.
type Role string

const (
	// RoleReader can read posts and leave comments.
	RoleReader Role = "READER"
	// RoleAuthor can additionally write and manage posts.
	RoleAuthor Role = "AUTHOR"
	// RoleAdmin can additionally manage user accounts.
	RoleAdmin Role = "ADMIN"
)

// AllRoles lists every valid role in display order.
var AllRoles = []Role{RoleReader, RoleAuthor, RoleAdmin}

// ParseRole converts a wire string to a Role. Matching is case-insensitive;
// unknown values are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleReader:
		return RoleReader, nil
	case RoleAuthor:
		return RoleAuthor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleReader, RoleAuthor, RoleAdmin:
		return true
	}
	return false
}

// String returns the wire representation of the role.
func (r Role) String() string {
	return string(r)
}

// Label returns a human-readable name for the role.
func (r Role) Label() string {
	switch r {
	case RoleReader:
		return "Reader"
	case RoleAuthor:
		return "Author"
	case RoleAdmin:
		return "Admin"
	}
	return "Unknown"
}

// UnmarshalJSON rejects roles outside the closed set.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalYAML rejects roles outside the closed set.
func (r *Role) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet is an explicit list of permitted roles. An empty set places no
// role requirement. Membership is exact: no role implies another.
type RoleSet []Role

// Roles builds a RoleSet.
func Roles(rs ...Role) RoleSet {
	return RoleSet(rs)
}

// Has reports whether r is a member of the set.
func (s RoleSet) Has(r Role) bool {
	return slices.Contains(s, r)
}

// Empty reports whether the set places no role requirement.
func (s RoleSet) Empty() bool {
	return len(s) == 0
}

// String renders the set as a comma-separated list.
func (s RoleSet) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

// ParseRoleSet parses a comma-separated list of roles. Blank input yields
// an empty set.
func ParseRoleSet(s string) (RoleSet, error) {
	var set RoleSet
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseRole(part)
		if err != nil {
			return nil, err
		}
		if !set.Has(r) {
			set = append(set, r)
		}
	}
	return set, nil
}
