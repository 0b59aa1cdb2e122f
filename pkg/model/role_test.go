package model

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"READER", RoleReader, false},
		{"author", RoleAuthor, false},
		{" Admin ", RoleAdmin, false},
		{"MODERATOR", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRole_UnmarshalJSON_RejectsUnknown(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"id":1,"name":"x","email":"x@y","role":"SUPERUSER"}`), &u)
	if err == nil {
		t.Fatal("expected error for unknown role")
	}

	if err := json.Unmarshal([]byte(`{"id":1,"name":"x","email":"x@y","role":"AUTHOR"}`), &u); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if u.Role != RoleAuthor {
		t.Errorf("Role = %q, want AUTHOR", u.Role)
	}
}

func TestRoleSet_Has_IsExactMembership(t *testing.T) {
	admins := Roles(RoleAdmin)
	if admins.Has(RoleAuthor) {
		t.Error("ADMIN-only set must not admit AUTHOR")
	}
	if !admins.Has(RoleAdmin) {
		t.Error("ADMIN-only set must admit ADMIN")
	}
	// No hierarchy: an AUTHOR set does not admit ADMIN.
	if Roles(RoleAuthor).Has(RoleAdmin) {
		t.Error("AUTHOR-only set must not admit ADMIN")
	}
}

func TestParseRoleSet(t *testing.T) {
	set, err := ParseRoleSet("author, ADMIN,author")
	if err != nil {
		t.Fatalf("ParseRoleSet: %v", err)
	}
	if got := set.String(); got != "AUTHOR,ADMIN" {
		t.Errorf("set = %q, want AUTHOR,ADMIN", got)
	}

	empty, err := ParseRoleSet("  ")
	if err != nil {
		t.Fatalf("ParseRoleSet blank: %v", err)
	}
	if !empty.Empty() {
		t.Errorf("blank input gave %v, want empty set", empty)
	}

	if _, err := ParseRoleSet("READER,OWNER"); err == nil {
		t.Error("expected error for unknown role in set")
	}
}

func TestRole_Label(t *testing.T) {
	for _, r := range AllRoles {
		if r.Label() == "Unknown" {
			t.Errorf("%q has no label", r)
		}
	}
	if Role("X").Label() != "Unknown" {
		t.Error("invalid role should be labelled Unknown")
	}
}
