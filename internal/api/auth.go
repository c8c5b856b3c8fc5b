package api

import (
	"context"
	"net/http"

	"github.com/careq/queuecore/internal/models"
)

// LoginRequest is the login payload.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginResult carries the issued bearer token and the user profile.
type LoginResult struct {
	Token string         `json:"token"`
	User  models.Session `json:"user"`
}

// Login authenticates against the backend. Token persistence is the session
// layer's job, not this client's.
func (c *Client) Login(ctx context.Context, phone, password string) (*LoginResult, error) {
	var result LoginResult
	body := LoginRequest{Phone: phone, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register creates an account and returns the issued session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	var result LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
