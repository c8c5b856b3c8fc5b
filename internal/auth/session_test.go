package auth

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/careq/queuecore/internal/db"
	"github.com/careq/queuecore/internal/models"
	"github.com/careq/queuecore/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupManager(t *testing.T) (*Manager, storage.Store) {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	m := db.NewMigrator(database)
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Up())

	key, err := LoadDeviceKey(t.TempDir())
	require.NoError(t, err)
	cipher, err := NewCipher(key)
	require.NoError(t, err)

	store := storage.NewSQLiteStore(database)
	return NewManager(store, cipher), store
}

func TestSaveSessionRoundTrip(t *testing.T) {
	mgr, store := setupManager(t)
	ctx := context.Background()

	profile := models.Session{UserID: 7, Name: "Amira", Phone: "555-0100"}
	require.NoError(t, mgr.SaveSession(ctx, "bearer-token-1", profile))

	token, err := mgr.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bearer-token-1", token)

	got, err := mgr.Profile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.UserID)
	assert.False(t, got.LoggedInAt.IsZero())

	// The raw stored value must not contain the plaintext token.
	raw, err := store.Get(ctx, "auth.token")
	require.NoError(t, err)
	assert.False(t, strings.Contains(raw, "bearer-token-1"), "token must be encrypted at rest")
}

func TestTokenWhenLoggedOut(t *testing.T) {
	mgr, _ := setupManager(t)

	token, err := mgr.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestClear(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.SaveSession(ctx, "tok", models.Session{UserID: 1}))
	require.NoError(t, mgr.SetBiometric(ctx, true))
	require.NoError(t, mgr.Clear(ctx))

	token, err := mgr.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	profile, err := mgr.Profile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	// Device settings survive logout.
	settings, err := mgr.Biometric(ctx)
	require.NoError(t, err)
	assert.True(t, settings.Enabled)
}

func TestCorruptTokenTreatedAsLoggedOut(t *testing.T) {
	mgr, store := setupManager(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "auth.token", "not-valid-ciphertext"))

	token, err := mgr.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestCipherRoundTrip(t *testing.T) {
	key, err := LoadDeviceKey(t.TempDir())
	require.NoError(t, err)

	c, err := NewCipher(key)
	require.NoError(t, err)

	sealed, err := c.Encrypt("secret value")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "secret value")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret value", plain)

	// Each encryption uses a fresh nonce.
	sealed2, err := c.Encrypt("secret value")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, sealed2)
}

func TestLoadDeviceKeyStable(t *testing.T) {
	dir := t.TempDir()

	k1, err := LoadDeviceKey(dir)
	require.NoError(t, err)
	k2, err := LoadDeviceKey(dir)
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "device key must be stable across loads")
}
