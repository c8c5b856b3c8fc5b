// Package api implements the HTTP client for the hospital backend.
//
// The backend owns the wire contract; this package only consumes it. Every
// call attaches the stored bearer token when one exists, and any 401 response
// invalidates the local session before the error is returned.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/careq/queuecore/internal/errors"
	"github.com/careq/queuecore/internal/logging"
	"go.uber.org/zap"
)

// TokenSource supplies the current bearer token, or "" when logged out.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the hospital backend over JSON/HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource

	// onUnauthorized is invoked once per 401 response, before the error is
	// returned, so the session layer can clear local state and alert the UI.
	onUnauthorized func(ctx context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource attaches a bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler registers the 401 callback.
func WithUnauthorizedHandler(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewClient creates a backend client. The default http.Client carries no
// timeout; callers that want an outer bound on top of their context deadlines
// supply one through WithHTTPClient.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Permanent reports whether retrying the identical request is pointless.
// Validation-class rejections (4xx) are permanent; 401 is a session problem
// handled separately, and 408/429 are transient by definition.
func (e *APIError) Permanent() bool {
	if e.StatusCode < 400 || e.StatusCode >= 500 {
		return false
	}
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return true
}

// IsPermanent reports whether err is a definitive backend rejection.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Permanent()
	}
	return false
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// doJSON performs one JSON request/response exchange.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, "failed to encode request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			logging.Warn("failed to read stored token", zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Wrap(apperrors.ErrBackendTimeout, "request timed out", err)
		}
		return apperrors.Wrap(apperrors.ErrBackendUnreachable, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return apperrors.New(apperrors.ErrSessionExpired, "session expired, please log in again")
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		message := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &eb) == nil {
			if eb.Detail != "" {
				message = eb.Detail
			} else if eb.Message != "" {
				message = eb.Message
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.Wrap(apperrors.ErrInternal, "failed to decode response", err)
		}
	}
	return nil
}
