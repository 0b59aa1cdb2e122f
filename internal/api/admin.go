package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/me/quill/pkg/model"
)

// ListUsers returns every account. Requires an ADMIN token.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser deletes an account.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", id), nil, nil)
}

// UpdateUserRole changes the role of an account.
// The response body is not interpreted.
func (c *Client) UpdateUserRole(ctx context.Context, id int64, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("update role: invalid role %q", role)
	}
	path := fmt.Sprintf("/admin/users/%d/role?role=%s", id, url.QueryEscape(role.String()))
	return c.do(ctx, http.MethodPut, path, nil, nil)
}
