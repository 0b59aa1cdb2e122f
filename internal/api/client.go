// Package api is a typed client for the remote blog service. Every request
// goes through an http.Client whose transport attaches the current bearer
// token (see package authn).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/me/quill/internal/authn"
	"github.com/me/quill/pkg/model"
)

// DefaultBaseURL is the service root used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// maxBody caps how much of a response body is read.
const maxBody = 4 << 20

// Client is an HTTP client for the blog service API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates an API client. httpClient should carry an
// authn.Transport; http.DefaultClient sends every request unauthenticated.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
		Logger:     logger.With("component", "api"),
	}
}

// send performs an HTTP request and returns the response with its body
// read. Failure to complete the request is a *model.NetworkError.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, &model.NetworkError{Op: op, Err: err}
	}
	respBody, err := authn.ReadBody(resp, maxBody)
	if err != nil {
		return nil, nil, &model.NetworkError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	c.Logger.Debug("HTTP response", "op", op, "status", resp.StatusCode, "bytes", len(respBody))
	return resp, respBody, nil
}

// do performs a request, maps non-2xx statuses to typed errors and decodes
// a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, respBody, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := authn.CheckResponse(resp, respBody); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return decode(method+" "+path, respBody, out)
}

func decode(op string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: parse response: %w", op, err)
	}
	return nil
}
