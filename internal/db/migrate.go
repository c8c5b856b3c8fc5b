// Package db provides database schema migration management.
package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	apperrors "github.com/careq/queuecore/internal/errors"
)

// Migration represents a database schema migration.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// AppliedMigration records a migration row from schema_migrations.
type AppliedMigration struct {
	Version     int
	AppliedAt   time.Time
	Description string
	Checksum    string
}

// migrations holds the schema in version order. Statements are embedded in
// the binary so the core never depends on a migrations directory at runtime.
var migrations = []Migration{
	{
		Version:     1,
		Description: "create kv_store",
		SQL: `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY CHECK(length(key) > 0),
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL CHECK(updated_at > 0)
	);`,
	},
}

// Migrator handles database schema migrations.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// GetAppliedMigrations returns all applied migrations.
func (m *Migrator) GetAppliedMigrations() ([]AppliedMigration, error) {
	rows, err := m.db.Query("SELECT version, applied_at, description, checksum FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var a AppliedMigration
		var appliedAt int64
		if err := rows.Scan(&a.Version, &appliedAt, &a.Description, &a.Checksum); err != nil {
			return nil, err
		}
		a.AppliedAt = time.Unix(appliedAt, 0)
		applied = append(applied, a)
	}
	return applied, rows.Err()
}

// Up applies all pending migrations in version order. Each migration runs in
// its own transaction together with its schema_migrations row.
func (m *Migrator) Up() error {
	current, err := m.CurrentVersion()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to read current version", err)
	}

	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}

		tx, err := m.db.Begin()
		if err != nil {
			return apperrors.Wrap(apperrors.ErrMigration, fmt.Sprintf("failed to begin migration %d", mig.Version), err)
		}

		if _, err := tx.Exec(mig.SQL); err != nil {
			tx.Rollback()
			return apperrors.Wrap(apperrors.ErrMigration, fmt.Sprintf("migration %d (%s) failed", mig.Version, mig.Description), err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at, description, checksum) VALUES (?, ?, ?, ?)",
			mig.Version, time.Now().Unix(), mig.Description, checksum(mig.SQL),
		); err != nil {
			tx.Rollback()
			return apperrors.Wrap(apperrors.ErrMigration, fmt.Sprintf("failed to record migration %d", mig.Version), err)
		}

		if err := tx.Commit(); err != nil {
			return apperrors.Wrap(apperrors.ErrMigration, fmt.Sprintf("failed to commit migration %d", mig.Version), err)
		}
	}

	return nil
}

// checksum computes the SHA-256 hex digest of a migration body.
func checksum(sqlText string) string {
	sum := sha256.Sum256([]byte(sqlText))
	return hex.EncodeToString(sum[:])
}
