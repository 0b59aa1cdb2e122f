package guard

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/me/quill/pkg/model"
)

// Route names used by the CLI and the web console. Patterns use chi syntax.
const (
	RouteDashboard  = "/dashboard"
	RoutePostNew    = "/posts/new"
	RoutePostEdit   = "/posts/{id}/edit"
	RoutePostDelete = "/posts/{id}/delete"
	RouteCommentNew = "/posts/{id}/comments/new"
	RouteAdmin      = "/admin"
	RouteAdminUsers = "/admin/users"
)

// Policy maps protected routes to the roles permitted on them. Routes not
// in the policy are public. An entry with an empty set requires login only.
type Policy map[string]model.RoleSet

// DefaultPolicy returns the stock route table.
func DefaultPolicy() Policy {
	writers := model.Roles(model.RoleAuthor, model.RoleAdmin)
	admins := model.Roles(model.RoleAdmin)
	return Policy{
		RouteDashboard:  writers,
		RoutePostNew:    writers,
		RoutePostEdit:   writers,
		RoutePostDelete: writers,
		RouteCommentNew: model.Roles(),
		RouteAdmin:      admins,
		RouteAdminUsers: admins,
	}
}

// Lookup returns the roles for route and whether the route is protected.
func (p Policy) Lookup(route string) (model.RoleSet, bool) {
	roles, ok := p[route]
	return roles, ok
}

// Merge returns a copy of p with the entries of overrides replacing or
// adding routes.
func (p Policy) Merge(overrides Policy) Policy {
	out := maps.Clone(p)
	if out == nil {
		out = Policy{}
	}
	maps.Copy(out, overrides)
	return out
}

// Validate checks that every route is a path and every role is known.
func (p Policy) Validate() error {
	for route, roles := range p {
		if !strings.HasPrefix(route, "/") {
			return fmt.Errorf("policy route %q must start with /", route)
		}
		for _, r := range roles {
			if !r.Valid() {
				return fmt.Errorf("policy route %q: invalid role %q", route, r)
			}
		}
	}
	return nil
}

// Routes returns the protected routes in sorted order.
func (p Policy) Routes() []string {
	return slices.Sorted(maps.Keys(p))
}
