// Package authn attaches the current bearer token to outbound requests and
// classifies authentication failures in responses.
package authn

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/me/quill/pkg/model"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// TokenSource yields the bearer token to send, or "" to send the request
// unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Transport is an http.RoundTripper that sets "Authorization: Bearer <token>"
// from its Source. The token is read when the request is sent, not when it
// is built.
type Transport struct {
	Source TokenSource
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(src TokenSource, base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		Source: src,
		Base:   base,
		Logger: logger.With("component", "authn"),
	}
}

// RoundTrip implements http.RoundTripper. It never inspects the response
// status; see CheckResponse.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	token := ""
	if t.Source != nil {
		token = t.Source.Token()
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, "req_"+uuid.New().String()[:8])
	}

	start := time.Now()
	resp, err := t.Base.RoundTrip(out)
	if err != nil {
		t.Logger.Debug("HTTP request failed",
			"method", out.Method, "path", out.URL.Path,
			"request_id", out.Header.Get(RequestIDHeader), "error", err)
		return nil, err
	}
	t.Logger.Debug("HTTP request",
		"method", out.Method,
		"path", out.URL.Path,
		"authenticated", token != "",
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
		"request_id", out.Header.Get(RequestIDHeader),
	)
	return resp, nil
}

// Client returns an http.Client using t with the given timeout.
func (t *Transport) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: t, Timeout: timeout}
}

// CheckResponse maps a non-2xx response to a typed error. 401 and 403
// become *model.AuthorizationError, anything else *model.APIError. body is
// the already-read response body; the server's {message} is preserved.
// No session state is touched: callers decide whether to prompt re-login.
func CheckResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := ServerMessage(body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &model.AuthorizationError{Status: resp.StatusCode, Message: msg}
	}
	return &model.APIError{Status: resp.StatusCode, Message: msg}
}

// ServerMessage extracts the message from an error body. JSON bodies yield
// their "message" field; short plain-text bodies are returned as is.
func ServerMessage(body []byte) string {
	var er model.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		return er.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 || strings.HasPrefix(s, "<") {
		return ""
	}
	return s
}

// ReadBody reads and closes resp.Body, capped at limit bytes.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
