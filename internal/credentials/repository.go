package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for credential persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Get retrieves the saved credentials.
	// Returns ErrNotFound if nothing has been saved.
	Get(ctx context.Context) (*Credentials, error)

	// Save persists the credentials, replacing any previous set.
	Save(ctx context.Context, creds *Credentials) error

	// Delete removes the saved credentials. Deleting when nothing is
	// saved is not an error.
	Delete(ctx context.Context) error
}

// SQLiteRepository implements Repository using SQLite.
// The credentials table holds at most one row (the current installation).
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the
// credentials table migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves the saved credentials.
func (r *SQLiteRepository) Get(ctx context.Context) (*Credentials, error) {
	query := `
		SELECT installed_app_id, auth_token, refresh_token, location_id, saved_at
		FROM credentials
		WHERE id = 1`

	var creds Credentials
	var savedAt string
	err := r.db.QueryRowContext(ctx, query).Scan(
		&creds.InstalledAppID,
		&creds.AuthToken,
		&creds.RefreshToken,
		&creds.LocationID,
		&savedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying credentials: %w", err)
	}

	creds.SavedAt, err = time.Parse(time.RFC3339, savedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing saved_at: %w", err)
	}

	return &creds, nil
}

// Save persists the credentials, replacing any previous set.
func (r *SQLiteRepository) Save(ctx context.Context, creds *Credentials) error {
	query := `
		INSERT INTO credentials (id, installed_app_id, auth_token, refresh_token, location_id, saved_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			installed_app_id = excluded.installed_app_id,
			auth_token = excluded.auth_token,
			refresh_token = excluded.refresh_token,
			location_id = excluded.location_id,
			saved_at = excluded.saved_at`

	_, err := r.db.ExecContext(ctx, query,
		creds.InstalledAppID,
		creds.AuthToken,
		creds.RefreshToken,
		creds.LocationID,
		creds.SavedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Delete removes the saved credentials.
func (r *SQLiteRepository) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = 1")
	if err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}
