package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/careq/queuecore/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func TestJoinQueue(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"queue_number": 42, "position": 2, "estimated_wait": 15}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTokenSource(staticTokens("tok-1")))

	result, err := c.JoinQueue(context.Background(), 3, "high", "fever")
	require.NoError(t, err)

	assert.Equal(t, "/api/queue/join", gotPath)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, 42, result.QueueNumber)
	assert.Equal(t, 2, result.Position)
	assert.Equal(t, 15, result.EstimatedWait)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cleared := false
	c := NewClient(srv.URL, WithUnauthorizedHandler(func(ctx context.Context) {
		cleared = true
	}))

	_, err := c.JoinQueue(context.Background(), 1, "normal", "")
	require.Error(t, err)
	assert.True(t, cleared, "401 should invoke the unauthorized handler")
	assert.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
}

func TestBackendRejectionClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		permanent bool
	}{
		{"validation error", http.StatusUnprocessableEntity, true},
		{"bad request", http.StatusBadRequest, true},
		{"not found", http.StatusNotFound, true},
		{"server error", http.StatusInternalServerError, false},
		{"request timeout", http.StatusRequestTimeout, false},
		{"rate limited", http.StatusTooManyRequests, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail": "nope"}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL)
			_, err := c.JoinQueue(context.Background(), 1, "normal", "")
			require.Error(t, err)
			assert.Equal(t, tt.permanent, IsPermanent(err))
		})
	}
}

func TestNetworkErrorIsNotPermanent(t *testing.T) {
	// Port reserved then closed so the dial fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL)
	_, err := c.JoinQueue(context.Background(), 1, "normal", "")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
	assert.True(t, apperrors.Is(err, apperrors.ErrBackendUnreachable))
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	assert.NoError(t, c.Health(context.Background()))
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token": "issued-token", "user": {"user_id": 7, "name": "Amira", "phone": "555-0100"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	result, err := c.Login(context.Background(), "555-0100", "secret")
	require.NoError(t, err)
	assert.Equal(t, "issued-token", result.Token)
	assert.Equal(t, 7, result.User.UserID)
}

func TestDeadlineExceededClassifiedAsTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Health(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBackendTimeout),
		"deadline expiry must classify as a timeout, got %v", err)
	assert.False(t, IsPermanent(err), "a timeout is retryable")
}
