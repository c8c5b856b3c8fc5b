package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/careq/queuecore/internal/errors"
	"github.com/careq/queuecore/internal/logging"
	"github.com/careq/queuecore/internal/models"
	"github.com/careq/queuecore/internal/storage"
	"go.uber.org/zap"
)

// Storage keys owned by the session manager.
const (
	tokenKey     = "auth.token"
	profileKey   = "auth.profile"
	biometricKey = "settings.biometric"
)

// Manager persists session state through the storage adapter. It implements
// api.TokenSource.
type Manager struct {
	store  storage.Store
	cipher *Cipher
}

// NewManager creates a session manager.
func NewManager(store storage.Store, cipher *Cipher) *Manager {
	return &Manager{store: store, cipher: cipher}
}

// Token returns the stored bearer token, or "" when logged out.
func (m *Manager) Token(ctx context.Context) (string, error) {
	encrypted, err := m.store.Get(ctx, tokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrStorage, "failed to read token", err)
	}

	token, err := m.cipher.Decrypt(encrypted)
	if err != nil {
		// An undecryptable token is unusable; treat as logged out.
		logging.Warn("stored token could not be decrypted, clearing it", zap.Error(err))
		if rmErr := m.store.Remove(ctx, tokenKey); rmErr != nil {
			logging.Error("failed to clear corrupt token", zap.Error(rmErr))
		}
		return "", nil
	}
	return token, nil
}

// SaveSession persists the bearer token (encrypted) and the user profile.
func (m *Manager) SaveSession(ctx context.Context, token string, profile models.Session) error {
	encrypted, err := m.cipher.Encrypt(token)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCryptoFailed, "failed to encrypt token", err)
	}
	if err := m.store.Set(ctx, tokenKey, encrypted); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to persist token", err)
	}

	profile.LoggedInAt = time.Now()
	data, err := json.Marshal(profile)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "failed to encode profile", err)
	}
	if err := m.store.Set(ctx, profileKey, string(data)); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to persist profile", err)
	}
	return nil
}

// Profile returns the stored user profile, or nil when logged out.
func (m *Manager) Profile(ctx context.Context) (*models.Session, error) {
	data, err := m.store.Get(ctx, profileKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, "failed to read profile", err)
	}

	var profile models.Session
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "corrupt profile record", err)
	}
	return &profile, nil
}

// Clear removes the token and profile, returning the device to logged-out
// state. Biometric preference survives logout.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Remove(ctx, tokenKey); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to clear token", err)
	}
	if err := m.store.Remove(ctx, profileKey); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to clear profile", err)
	}
	return nil
}

// SetBiometric persists the biometric unlock preference.
func (m *Manager) SetBiometric(ctx context.Context, enabled bool) error {
	data, err := json.Marshal(models.BiometricSettings{Enabled: enabled, UpdatedAt: time.Now()})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "failed to encode settings", err)
	}
	if err := m.store.Set(ctx, biometricKey, string(data)); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, "failed to persist settings", err)
	}
	return nil
}

// Biometric returns the stored biometric preference; disabled when unset.
func (m *Manager) Biometric(ctx context.Context) (models.BiometricSettings, error) {
	data, err := m.store.Get(ctx, biometricKey)
	if errors.Is(err, storage.ErrNotFound) {
		return models.BiometricSettings{}, nil
	}
	if err != nil {
		return models.BiometricSettings{}, apperrors.Wrap(apperrors.ErrStorage, "failed to read settings", err)
	}

	var settings models.BiometricSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return models.BiometricSettings{}, apperrors.Wrap(apperrors.ErrInternal, "corrupt settings record", err)
	}
	return settings, nil
}
