package ui

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/me/quill/internal/guard"
	"github.com/me/quill/pkg/model"
)

// page returns the data every template receives.
func (s *Server) page(title string) map[string]any {
	sess := s.sessions.Current()
	data := map[string]any{
		"Title":    title + " - Quill",
		"CanWrite": s.allowed(guard.RoutePostNew, sess),
		"IsAdmin":  s.allowed(guard.RouteAdmin, sess),
	}
	if u, ok := sess.User(); ok {
		data["User"] = u
	}
	return data
}

func (s *Server) allowed(route string, sess model.Session) bool {
	roles, ok := s.policy.Lookup(route)
	if !ok {
		return true
	}
	return guard.Decide(roles, sess) == guard.Allow
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	order, err := model.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		order = model.SortNewest
	}
	posts, err := s.api.ListPosts(r.Context())
	if err != nil {
		s.renderError(w, "Failed to load posts", err)
		return
	}
	data := s.page("Posts")
	data["Posts"] = model.SortPosts(posts, order)
	data["Sort"] = string(order)
	s.render(w, http.StatusOK, "home", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Current().IsAuthenticated() {
		http.Redirect(w, r, guard.HomePath, http.StatusSeeOther)
		return
	}
	data := s.page("Login")
	data["Email"] = ""
	data["Registered"] = r.URL.Query().Get("registered") != ""
	s.render(w, http.StatusOK, "login", data)
}

// handleLoginPost logs in and redirects home. Failures re-render the form
// with the error inline and the email kept.
func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderLoginError(w, http.StatusBadRequest, "", "Invalid request")
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		s.renderLoginError(w, http.StatusBadRequest, email, "Email and password are required")
		return
	}

	user, err := s.sessions.Login(r.Context(), model.LoginRequest{Email: email, Password: password})
	if err != nil {
		status := http.StatusOK
		var ic *model.InvalidCredentialsError
		var ne *model.NetworkError
		switch {
		case errors.As(err, &ic):
			status = http.StatusUnauthorized
		case errors.As(err, &ne):
			status = http.StatusBadGateway
		case errors.Is(err, model.ErrLoginSuperseded):
			status = http.StatusConflict
		}
		s.renderLoginError(w, status, email, model.UserMessage(err))
		return
	}

	s.logger.Info("console login", "user_id", user.ID, "role", user.Role)
	http.Redirect(w, r, guard.HomePath, http.StatusSeeOther)
}

func (s *Server) renderLoginError(w http.ResponseWriter, status int, email, msg string) {
	data := s.page("Login")
	data["Email"] = email
	data["Error"] = msg
	s.render(w, status, "login", data)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.sessions.Current().IsAuthenticated() {
		http.Redirect(w, r, guard.HomePath, http.StatusSeeOther)
		return
	}
	s.renderRegister(w, http.StatusOK, model.RegisterRequest{Role: model.RoleReader}, "")
}

// handleRegisterPost creates an account and sends the user to the login
// page. It does not start a session.
func (s *Server) handleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderRegister(w, http.StatusBadRequest, model.RegisterRequest{Role: model.RoleReader}, "Invalid request")
		return
	}
	req := model.RegisterRequest{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Role:     model.RoleReader,
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		s.renderRegister(w, http.StatusBadRequest, req, "Name, email and password are required")
		return
	}
	if v := r.FormValue("role"); v != "" {
		role, err := model.ParseRole(v)
		if err != nil {
			s.renderRegister(w, http.StatusBadRequest, req, err.Error())
			return
		}
		req.Role = role
	}

	user, err := s.api.Register(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		var ne *model.NetworkError
		if errors.As(err, &ne) {
			status = http.StatusBadGateway
		}
		s.renderRegister(w, status, req, model.UserMessage(err))
		return
	}

	s.logger.Info("console register", "user_id", user.ID, "role", user.Role)
	http.Redirect(w, r, guard.LoginPath+"?registered=1", http.StatusSeeOther)
}

func (s *Server) renderRegister(w http.ResponseWriter, status int, req model.RegisterRequest, msg string) {
	data := s.page("Register")
	data["Name"] = req.Name
	data["Email"] = req.Email
	data["Role"] = string(req.Role)
	data["Roles"] = []model.Role{model.RoleReader, model.RoleAuthor, model.RoleAdmin}
	data["Error"] = msg
	s.render(w, status, "register", data)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout()
	http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessions.Current().User()
	if !ok {
		http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
		return
	}
	posts, err := s.api.ListPostsByAuthor(r.Context(), user.ID)
	if err != nil {
		s.renderError(w, "Failed to load your posts", err)
		return
	}

	published, drafts := 0, 0
	for _, p := range posts {
		if p.Status == model.PostDraft {
			drafts++
		} else {
			published++
		}
	}

	data := s.page("Dashboard")
	data["Posts"] = posts
	data["Published"] = published
	data["Drafts"] = drafts
	s.render(w, http.StatusOK, "dashboard", data)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	post, err := s.api.GetPost(r.Context(), id)
	if err != nil {
		s.renderError(w, "Failed to load post", err)
		return
	}
	comments, err := s.api.ListComments(r.Context(), id)
	if err != nil {
		s.renderError(w, "Failed to load comments", err)
		return
	}

	data := s.page(post.Title)
	data["Post"] = post
	data["Comments"] = comments
	data["CanComment"] = s.allowed(guard.RouteCommentNew, s.sessions.Current())
	s.render(w, http.StatusOK, "post", data)
}

// handlePostForm renders the editor, empty for /posts/new and filled for
// /posts/{id}/edit.
func (s *Server) handlePostForm(w http.ResponseWriter, r *http.Request) {
	data := s.page("New post")
	post := &model.Post{Status: model.PostPublished}
	if chi.URLParam(r, "id") != "" {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		p, err := s.api.GetPost(r.Context(), id)
		if err != nil {
			s.renderError(w, "Failed to load post", err)
			return
		}
		post = p
		data = s.page("Edit post")
	}
	data["Post"] = post
	s.render(w, http.StatusOK, "post_form", data)
}

// postFromForm reads the editor fields. The author is always the current
// user's name.
func (s *Server) postFromForm(r *http.Request) (*model.Post, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	user, _ := s.sessions.Current().User()
	status, err := model.ParsePostStatus(r.FormValue("status"))
	if err != nil {
		status = model.PostPublished
	}
	p := &model.Post{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
		Author:  user.Name,
		Status:  status,
	}
	return p, p.Validate()
}

func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	post, err := s.postFromForm(r)
	if err != nil {
		s.renderFormError(w, "New post", post, err)
		return
	}
	created, err := s.api.CreatePost(r.Context(), post)
	if err != nil {
		s.renderFormError(w, "New post", post, err)
		return
	}
	http.Redirect(w, r, "/posts/"+strconv.FormatInt(created.ID, 10), http.StatusSeeOther)
}

func (s *Server) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	post, err := s.postFromForm(r)
	if err == nil {
		post.ID = id
		_, err = s.api.UpdatePost(r.Context(), id, post)
	}
	if err != nil {
		s.renderFormError(w, "Edit post", post, err)
		return
	}
	http.Redirect(w, r, "/posts/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (s *Server) renderFormError(w http.ResponseWriter, title string, post *model.Post, err error) {
	if post == nil {
		post = &model.Post{}
	}
	data := s.page(title)
	data["Post"] = post
	data["Error"] = model.UserMessage(err)
	s.render(w, http.StatusBadRequest, "post_form", data)
}

func (s *Server) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.api.DeletePost(r.Context(), id); err != nil {
		s.renderError(w, "Failed to delete post", err)
		return
	}
	http.Redirect(w, r, guard.RouteDashboard, http.StatusSeeOther)
}

func (s *Server) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	back := "/posts/" + strconv.FormatInt(id, 10)
	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	user, _ := s.sessions.Current().User()
	if _, err := s.api.CreateComment(r.Context(), id, user.Name, content); err != nil {
		s.renderError(w, "Failed to add comment", err)
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	users, err := s.api.ListUsers(r.Context())
	if err != nil {
		s.renderError(w, "Failed to load users", err)
		return
	}
	data := s.page("Users")
	data["Users"] = users
	data["Roles"] = model.AllRoles
	s.render(w, http.StatusOK, "admin", data)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	role, err := model.ParseRole(r.FormValue("role"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.api.UpdateUserRole(r.Context(), id, role); err != nil {
		s.renderError(w, "Failed to change role", err)
		return
	}
	http.Redirect(w, r, guard.RouteAdmin, http.StatusSeeOther)
}

// handleDeleteUser deletes an account other than the current user's.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if me, ok := s.sessions.Current().User(); ok && me.ID == id {
		http.Error(w, "You cannot delete your own account", http.StatusBadRequest)
		return
	}
	if err := s.api.DeleteUser(r.Context(), id); err != nil {
		s.renderError(w, "Failed to delete user", err)
		return
	}
	http.Redirect(w, r, guard.RouteAdmin, http.StatusSeeOther)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.render(w, http.StatusNotFound, "error", map[string]any{"Title": "Not Found - Quill", "Message": "Not found"})
		return 0, false
	}
	return id, true
}

// --- Helpers ---

func (s *Server) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, name, data); err != nil {
		s.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderError shows a service failure. The session is not touched, even on
// 401 or 403.
func (s *Server) renderError(w http.ResponseWriter, message string, err error) {
	status := http.StatusBadGateway
	var az *model.AuthorizationError
	var ae *model.APIError
	switch {
	case errors.As(err, &az):
		status = http.StatusForbidden
	case model.IsNotFound(err):
		status = http.StatusNotFound
	case errors.As(err, &ae) && ae.Status >= 400:
		status = ae.Status
	}
	s.logger.Warn(message, "error", err)
	data := s.page("Error")
	data["Message"] = message
	data["Detail"] = model.UserMessage(err)
	s.render(w, status, "error", data)
}
