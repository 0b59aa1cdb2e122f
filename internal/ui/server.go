// Package ui serves the local web console. Every page reads the one shared
// session; protected pages are gated by the access policy.
package ui

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/quill/internal/api"
	"github.com/me/quill/internal/guard"
	"github.com/me/quill/pkg/model"
)

// Sessions is the session surface the console needs.
type Sessions interface {
	guard.SessionReader
	Login(ctx context.Context, req model.LoginRequest) (*model.User, error)
	Logout()
}

// Server is the web console.
type Server struct {
	router   chi.Router
	sessions Sessions
	api      *api.Client
	policy   guard.Policy
	logger   *slog.Logger
}

// New creates the console. client should send the session's bearer token.
func New(sessions Sessions, client *api.Client, policy guard.Policy, logger *slog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		sessions: sessions,
		api:      client,
		policy:   policy,
		logger:   logger.With("component", "ui"),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for the console.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(s.logger))
	r.Use(sameOriginMiddleware(s.logger))

	r.Get("/", s.handleHome)
	r.Get("/login", s.handleLogin)
	r.Post("/login", s.handleLoginPost)
	r.Get("/register", s.handleRegister)
	r.Post("/register", s.handleRegisterPost)
	r.Post("/logout", s.handleLogout)

	r.With(s.gate(guard.RouteDashboard)).Get(guard.RouteDashboard, s.handleDashboard)

	r.Route("/posts", func(r chi.Router) {
		r.With(s.gate(guard.RoutePostNew)).Get("/new", s.handlePostForm)
		r.With(s.gate(guard.RoutePostNew)).Post("/new", s.handlePostCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handlePost)
			r.With(s.gate(guard.RoutePostEdit)).Get("/edit", s.handlePostForm)
			r.With(s.gate(guard.RoutePostEdit)).Post("/edit", s.handlePostUpdate)
			r.With(s.gate(guard.RoutePostDelete)).Post("/delete", s.handlePostDelete)
			r.With(s.gate(guard.RouteCommentNew)).Post("/comments/new", s.handleCommentCreate)
		})
	})

	r.Route(guard.RouteAdmin, func(r chi.Router) {
		r.Use(s.gate(guard.RouteAdmin))
		r.Get("/", s.handleAdmin)
		r.Route("/users/{id}", func(r chi.Router) {
			r.Use(s.gate(guard.RouteAdminUsers))
			r.Post("/role", s.handleSetRole)
			r.Post("/delete", s.handleDeleteUser)
		})
	})
}

func (s *Server) gate(route string) func(http.Handler) http.Handler {
	return s.policy.Route(s.sessions, route)
}
