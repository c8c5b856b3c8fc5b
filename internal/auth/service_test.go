package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/careq/queuecore/internal/api"
	"github.com/careq/queuecore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recordingEmitter) Notify(n models.Notification) {
	r.mu.Lock()
	r.kinds = append(r.kinds, n.Kind)
	r.mu.Unlock()
}

func (r *recordingEmitter) byKind(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, k := range r.kinds {
		if k == kind {
			count++
		}
	}
	return count
}

func TestExpiredTokenNotifiesOnce(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.SaveSession(ctx, "stale-token", models.Session{UserID: 3}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	notes := &recordingEmitter{}
	var svc *Service
	client := api.NewClient(server.URL,
		api.WithTokenSource(mgr),
		api.WithUnauthorizedHandler(func(ctx context.Context) {
			svc.HandleUnauthorized(ctx)
		}),
	)
	svc = NewService(client, mgr, notes)

	// Several pending requests retried against an expired session.
	for i := 0; i < 3; i++ {
		_, err := client.JoinQueue(ctx, 1, "normal", "")
		require.Error(t, err)
	}

	assert.Equal(t, 1, notes.byKind(models.NotifySessionExpired),
		"one expiry must produce exactly one notification")

	token, err := mgr.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "session must be cleared after the first 401")
}

func TestHandleUnauthorizedWhenLoggedOut(t *testing.T) {
	mgr, _ := setupManager(t)
	notes := &recordingEmitter{}
	svc := NewService(nil, mgr, notes)

	svc.HandleUnauthorized(context.Background())

	assert.Zero(t, notes.byKind(models.NotifySessionExpired),
		"no session means nothing expired")
}
