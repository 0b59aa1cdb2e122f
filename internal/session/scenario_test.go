package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/me/quill/internal/api"
	"github.com/me/quill/internal/api/apitest"
	"github.com/me/quill/internal/authn"
	"github.com/me/quill/internal/logging"
	"github.com/me/quill/internal/store"
	"github.com/me/quill/pkg/model"
)

func fixedLoginServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScenario_RejectedLogin(t *testing.T) {
	srv := fixedLoginServer(t, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	client := api.NewClient(srv.URL, nil, logging.Discard())
	m := NewManager(client, newTestStore(), logging.Discard())
	m.Initialize()

	_, err := m.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "bad"})
	var ic *model.InvalidCredentialsError
	if !errors.As(err, &ic) {
		t.Fatalf("Login error = %v, want InvalidCredentialsError", err)
	}
	if ic.Message != "Invalid credentials" {
		t.Errorf("message = %q", ic.Message)
	}
	assertSession(t, m.Current(), "", nil)
}

func TestScenario_LoginSurvivesReload(t *testing.T) {
	srv := fixedLoginServer(t, http.StatusOK, `{"token":"t1","user":{"id":7,"name":"Ann","role":"AUTHOR"}}`)
	dir := filepath.Join(t.TempDir(), "quill")
	want := model.User{ID: 7, Name: "Ann", Role: model.RoleAuthor}

	client := api.NewClient(srv.URL, nil, logging.Discard())
	m := NewManager(client, store.New(store.NewFileBackend(dir), logging.Discard()), logging.Discard())
	m.Initialize()

	if _, err := m.Login(context.Background(), model.LoginRequest{Email: "a@x.com", Password: "good"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	assertSession(t, m.Current(), "t1", &want)

	// Reload: a fresh store and manager over the same directory.
	st := store.New(store.NewFileBackend(dir), logging.Discard())
	creds, err := st.Get()
	if err != nil || creds == nil {
		t.Fatalf("Get after reload = %+v, %v", creds, err)
	}
	if creds.Token != "t1" || creds.User != want {
		t.Errorf("persisted = %+v, want t1 / %+v", creds, want)
	}

	reloaded := NewManager(client, st, logging.Discard())
	reloaded.Initialize()
	assertSession(t, reloaded.Current(), "t1", &want)
}

func TestScenario_TransportFollowsSession(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	author := srv.AddUser("Ann", "a@x.com", "pw", model.RoleAuthor)

	// The manager logs in through an unauthenticated client and then serves
	// as the token source for the content client.
	m := NewManager(api.NewClient(srv.BaseURL(), nil, logging.Discard()), newTestStore(), logging.Discard())
	tr := authn.NewTransport(m, nil, logging.Discard())
	content := api.NewClient(srv.BaseURL(), tr.Client(0), logging.Discard())
	ctx := context.Background()

	if _, err := content.ListPosts(ctx); err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if got := srv.LastRequest().Authorization; got != "" {
		t.Errorf("logged-out request carried %q", got)
	}

	if _, err := m.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := content.CreatePost(ctx, &model.Post{Title: "T", Content: "C", Author: author.Name}); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if got := srv.LastRequest().Authorization; got != "Bearer "+m.Token() {
		t.Errorf("Authorization = %q, want current token", got)
	}

	// A 401 from the service does not log the user out.
	srv.RevokeTokens()
	_, err := content.CreatePost(ctx, &model.Post{Title: "T2", Content: "C", Author: author.Name})
	var az *model.AuthorizationError
	if !errors.As(err, &az) {
		t.Fatalf("CreatePost with revoked token error = %v", err)
	}
	if !m.Current().IsAuthenticated() {
		t.Error("session cleared by an authorization failure")
	}

	m.Logout()
	content.ListPosts(ctx)
	if got := srv.LastRequest().Authorization; got != "" {
		t.Errorf("request after logout carried %q", got)
	}
}
