package guard

import (
	"net/http"

	"github.com/me/quill/pkg/model"
)

// Redirect targets for the web console.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Middleware gates an HTTP handler on required roles. Unauthenticated
// requests are redirected to LoginPath and requests without a permitted
// role to HomePath, both with 303 See Other.
func Middleware(reader SessionReader, required model.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch Decide(required, reader.Current()) {
			case RedirectLogin:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			case RedirectHome:
				http.Redirect(w, r, HomePath, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// Route gates a handler with the roles the policy lists for route. Routes
// absent from the policy are served as is.
func (p Policy) Route(reader SessionReader, route string) func(http.Handler) http.Handler {
	roles, ok := p.Lookup(route)
	if !ok {
		return func(next http.Handler) http.Handler { return next }
	}
	return Middleware(reader, roles)
}
