// Package apitest runs an in-memory blog service for tests. It implements
// the remote contract consumed by package api, including server-side role
// checks, so clients can be exercised end to end.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/me/quill/pkg/model"
)

// Request records what the service saw for one call.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type account struct {
	user     model.User
	password string
}

// Server is a fake blog service.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account // by email
	tokens   map[string]int64    // token -> user id
	posts    map[int64]*model.Post
	comments map[int64][]model.Comment
	nextID   int64
	requests []Request
}

// NewServer starts a fake service. Its API root is URL + "/api". Call Close
// when done.
func NewServer() *Server {
	s := &Server{
		accounts: make(map[string]*account),
		tokens:   make(map[string]int64),
		posts:    make(map[int64]*model.Post),
		comments: make(map[int64][]model.Comment),
		nextID:   100,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{id}", s.handleGetPost)
		r.Get("/posts/author/{id}", s.handleListByAuthor)
		r.Get("/posts/{id}/comments", s.handleListComments)
		r.With(s.require()).Post("/posts/{id}/comments", s.handleCreateComment)

		r.Group(func(r chi.Router) {
			r.Use(s.require(model.RoleAuthor, model.RoleAdmin))
			r.Post("/posts", s.handleCreatePost)
			r.Put("/posts/{id}", s.handleUpdatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(s.require(model.RoleAdmin))
			r.Get("/", s.handleListUsers)
			r.Delete("/{id}", s.handleDeleteUser)
			r.Put("/{id}/role", s.handleUpdateRole)
		})
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL returns the API root to pass to api.NewClient.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// AddUser registers an account and returns its user.
func (s *Server) AddUser(name, email, password string, role model.Role) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password, role)
}

func (s *Server) addUserLocked(name, email, password string, role model.Role) model.User {
	s.nextID++
	u := model.User{ID: s.nextID, Name: name, Email: email, Role: role}
	s.accounts[strings.ToLower(email)] = &account{user: u, password: password}
	return u
}

// IssueToken returns a valid token for an existing user id.
func (s *Server) IssueToken(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := "tok_" + uuid.New().String()
	s.tokens[tok] = userID
	return tok
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]int64)
}

// AddPost stores a post and returns it with its id.
func (s *Server) AddPost(p model.Post) model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = model.PostPublished
	}
	s.posts[p.ID] = &p
	return p
}

// Requests returns the calls seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent call.
func (s *Server) LastRequest() Request {
	reqs := s.Requests()
	if len(reqs) == 0 {
		return Request{}
	}
	return reqs[len(reqs)-1]
}

// Users returns every account, ordered by id.
func (s *Server) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersLocked()
}

func (s *Server) usersLocked() []model.User {
	out := make([]model.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// require rejects requests without a valid bearer token (401) or, when
// roles are given, whose user holds none of them (403).
func (s *Server) require(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := s.bearerUser(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Full authentication is required to access this resource")
				return
			}
			if len(roles) > 0 && !model.Roles(roles...).Has(user.Role) {
				writeError(w, http.StatusForbidden, "Access Denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) bearerUser(r *http.Request) (model.User, bool) {
	tok, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return model.User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[tok]
	if !ok {
		return model.User{}, false
	}
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return model.User{}, false
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(req.Email)]
	if !ok || acct.password != req.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	tok := "tok_" + uuid.New().String()
	s.tokens[tok] = acct.user.ID
	user := acct.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.LoginResponse{Token: tok, User: &user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(req.Email)]; exists {
		writeError(w, http.StatusBadRequest, "Email is already in use")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleReader
	}
	u := s.addUserLocked(req.Name, req.Email, req.Password, req.Role)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sortedPostsLocked(func(*model.Post) bool { return true }))
}

func (s *Server) handleListByAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sortedPostsLocked(func(p *model.Post) bool { return p.AuthorID == id }))
}

func (s *Server) sortedPostsLocked(keep func(*model.Post) bool) []model.Post {
	out := []model.Post{}
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	p, found := s.posts[id]
	s.mu.Unlock()
	if !found {
		writeError(w, http.StatusNotFound, "Post not found with id: "+strconv.FormatInt(id, 10))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var p model.Post
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}
	user, _ := s.bearerUser(r)
	p.AuthorID = user.ID
	writeJSON(w, http.StatusCreated, s.AddPost(p))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p model.Post
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.posts[id]
	if !found {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	existing.Title, existing.Content, existing.Author = p.Title, p.Content, p.Author
	if p.Status != "" {
		existing.Status = p.Status
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.posts[id]; !found {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	delete(s.posts, id)
	delete(s.comments, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.Comment{}, s.comments[id]...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c model.Comment
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.posts[id]; !found {
		writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	s.nextID++
	c.ID = s.nextID
	c.CreatedAt = time.Now().UTC()
	s.comments[id] = append(s.comments[id], c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Users())
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, a := range s.accounts {
		if a.user.ID == id {
			delete(s.accounts, email)
			writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "User not found")
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	role, err := model.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == id {
			a.user.Role = role
			writeJSON(w, http.StatusOK, a.user)
			return
		}
	}
	writeError(w, http.StatusNotFound, "User not found")
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Message: msg})
}
