package auth

import (
	"context"

	"github.com/careq/queuecore/internal/api"
	apperrors "github.com/careq/queuecore/internal/errors"
	"github.com/careq/queuecore/internal/logging"
	"github.com/careq/queuecore/internal/models"
	"github.com/careq/queuecore/internal/notify"
	"go.uber.org/zap"
)

// Service handles login, registration and logout against the backend,
// keeping the device session in step.
type Service struct {
	client   *api.Client
	sessions *Manager
	notifier notify.Emitter
}

// NewService creates an auth service.
func NewService(client *api.Client, sessions *Manager, notifier notify.Emitter) *Service {
	return &Service{client: client, sessions: sessions, notifier: notifier}
}

// Login authenticates and persists the issued session.
func (s *Service) Login(ctx context.Context, phone, password string) (*models.Session, error) {
	result, err := s.client.Login(ctx, phone, password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrLoginFailed, "login failed", err)
	}

	if err := s.sessions.SaveSession(ctx, result.Token, result.User); err != nil {
		return nil, err
	}

	logging.Info("logged in", zap.Int("user_id", result.User.UserID))
	return &result.User, nil
}

// Register creates an account and persists the issued session.
func (s *Service) Register(ctx context.Context, name, phone, password string) (*models.Session, error) {
	result, err := s.client.Register(ctx, api.RegisterRequest{Name: name, Phone: phone, Password: password})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrLoginFailed, "registration failed", err)
	}

	if err := s.sessions.SaveSession(ctx, result.Token, result.User); err != nil {
		return nil, err
	}

	logging.Info("registered", zap.Int("user_id", result.User.UserID))
	return &result.User, nil
}

// Logout clears the local session. The backend session simply expires.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// HandleUnauthorized is wired into the API client's 401 callback: it clears
// local session state and tells the UI the session expired. Once the token is
// gone further 401s (retries of already-pending requests) stay silent, so one
// expiry yields one notification.
func (s *Service) HandleUnauthorized(ctx context.Context) {
	token, err := s.sessions.Token(ctx)
	if err == nil && token == "" {
		return
	}
	if err := s.sessions.Clear(ctx); err != nil {
		logging.Error("failed to clear session after 401", zap.Error(err))
	}
	s.notifier.Notify(models.Notification{
		Kind:    models.NotifySessionExpired,
		Title:   "Session expired",
		Message: "Please log in again",
	})
}
