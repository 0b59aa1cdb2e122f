package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/me/quill/internal/authn"
	"github.com/me/quill/pkg/model"
)

// Login exchanges an email and password for a token and user. Any 4xx
// response is a rejection and returns *model.InvalidCredentialsError with
// the server's message.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	resp, body, err := c.send(ctx, http.MethodPost, "/auth/login", req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &model.InvalidCredentialsError{
			Status:  resp.StatusCode,
			Message: authn.ServerMessage(body),
		}
	}
	if err := authn.CheckResponse(resp, body); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	var out model.LoginResponse
	if err := decode("login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("register: invalid role %q", req.Role)
	}
	var out model.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
