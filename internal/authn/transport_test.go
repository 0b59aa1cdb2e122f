package authn

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/me/quill/internal/logging"
	"github.com/me/quill/pkg/model"
)

// mutableToken lets tests change the token between building and sending
// a request.
type mutableToken struct{ v atomic.Value }

func (m *mutableToken) Set(s string)  { m.v.Store(s) }
func (m *mutableToken) Token() string { s, _ := m.v.Load().(string); return s }

func echoAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Authorization", r.Header.Get("Authorization"))
		w.Header().Set("X-Seen-Request-ID", r.Header.Get(RequestIDHeader))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTransport_AttachesBearer(t *testing.T) {
	srv := echoAuthServer(t)
	tr := NewTransport(TokenFunc(func() string { return "t1" }), nil, logging.Discard())

	req, _ := http.NewRequest("GET", srv.URL+"/posts", nil)
	resp, err := tr.Client(0).Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Seen-Authorization"); got != "Bearer t1" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer t1")
	}
	if got := resp.Header.Get("X-Seen-Request-ID"); !strings.HasPrefix(got, "req_") {
		t.Errorf("request id = %q, want req_ prefix", got)
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("caller's request was mutated")
	}
}

func TestTransport_NoTokenSendsUnmodified(t *testing.T) {
	srv := echoAuthServer(t)
	tr := NewTransport(TokenFunc(func() string { return "" }), nil, logging.Discard())

	req, _ := http.NewRequest("GET", srv.URL+"/posts", nil)
	req.Header.Set(RequestIDHeader, "req_fixed")
	resp, err := tr.Client(0).Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Seen-Authorization"); got != "" {
		t.Errorf("Authorization = %q, want none", got)
	}
	if got := resp.Header.Get("X-Seen-Request-ID"); got != "req_fixed" {
		t.Errorf("request id = %q, want caller's id kept", got)
	}
}

func TestTransport_ReadsTokenAtSendTime(t *testing.T) {
	srv := echoAuthServer(t)
	src := &mutableToken{}
	src.Set("old")
	client := NewTransport(src, nil, logging.Discard()).Client(0)

	req, _ := http.NewRequest("GET", srv.URL+"/posts", nil)
	src.Set("new")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Seen-Authorization"); got != "Bearer new" {
		t.Errorf("Authorization = %q, want token current at send time", got)
	}

	src.Set("")
	req2, _ := http.NewRequest("GET", srv.URL+"/posts", nil)
	resp, err = client.Do(req2)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Seen-Authorization"); got != "" {
		t.Errorf("Authorization after logout = %q, want none", got)
	}
}

func TestTransport_PropagatesTransportError(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	base := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, boom })
	tr := NewTransport(TokenFunc(func() string { return "t1" }), base, logging.Discard())

	req, _ := http.NewRequest("GET", "http://example.invalid/posts", nil)
	if _, err := tr.RoundTrip(req); !errors.Is(err, boom) {
		t.Errorf("RoundTrip error = %v, want %v", err, boom)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		message string
	}{
		{"ok", 200, `{}`, func(err error) bool { return err == nil }, ""},
		{"created", 201, ``, func(err error) bool { return err == nil }, ""},
		{"unauthorized", 401, `{"message":"Token expired"}`, isAuthz, "Token expired"},
		{"forbidden", 403, `Access Denied`, isAuthz, "Access Denied"},
		{"not found", 404, `{"message":"Post not found"}`, isAPI, "Post not found"},
		{"server error html", 500, `<html>oops</html>`, isAPI, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckResponse(&http.Response{StatusCode: tt.status}, []byte(tt.body))
			if !tt.check(err) {
				t.Fatalf("CheckResponse error = %v (%T)", err, err)
			}
			if err == nil {
				return
			}
			var az *model.AuthorizationError
			var ae *model.APIError
			switch {
			case errors.As(err, &az):
				if az.Message != tt.message || az.Status != tt.status {
					t.Errorf("got %+v, want status %d message %q", az, tt.status, tt.message)
				}
			case errors.As(err, &ae):
				if ae.Message != tt.message || ae.Status != tt.status {
					t.Errorf("got %+v, want status %d message %q", ae, tt.status, tt.message)
				}
			}
		})
	}
}

func isAuthz(err error) bool { var e *model.AuthorizationError; return errors.As(err, &e) }
func isAPI(err error) bool   { var e *model.APIError; return errors.As(err, &e) }
