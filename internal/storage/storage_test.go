package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/careq/queuecore/internal/db"
	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	m := db.NewMigrator(database)
	if err := m.Initialize(); err != nil {
		t.Fatalf("migrator Initialize failed: %v", err)
	}
	if err := m.Up(); err != nil {
		t.Fatalf("migrator Up failed: %v", err)
	}

	return NewSQLiteStore(database)
}

// TestSetGet verifies basic write/read round-trip.
func TestSetGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "auth.token", "abc123"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := store.Get(ctx, "auth.token")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "abc123" {
		t.Errorf("expected %q, got %q", "abc123", value)
	}
}

// TestSetOverwrites verifies Set replaces the previous value.
func TestSetOverwrites(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "first"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "k", "second"); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	value, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "second" {
		t.Errorf("expected overwritten value %q, got %q", "second", value)
	}
}

// TestGetMissing verifies the ErrNotFound sentinel.
func TestGetMissing(t *testing.T) {
	store := setupStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestRemove verifies deletion and that removing a missing key is a no-op.
func TestRemove(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Remove, got %v", err)
	}

	if err := store.Remove(ctx, "k"); err != nil {
		t.Errorf("Remove of missing key should be a no-op, got %v", err)
	}
}
