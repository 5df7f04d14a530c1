package crashloop

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the interface for crash-event persistence.
type Repository interface {
	// List returns all stored events, oldest first.
	List(ctx context.Context) ([]Event, error)

	// Append adds an event to the log.
	Append(ctx context.Context, ev Event) error

	// PruneTo keeps only the n most recent events.
	PruneTo(ctx context.Context, n int) error

	// Clear removes all events.
	Clear(ctx context.Context) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the
// crash_events table migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List returns all stored events, oldest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT kind, timestamp FROM crash_events ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying crash events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var kind, ts string
		if err := rows.Scan(&kind, &ts); err != nil {
			return nil, fmt.Errorf("scanning crash event: %w", err)
		}
		ev.Kind = Kind(kind)
		ev.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing crash event timestamp: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating crash events: %w", err)
	}
	return events, nil
}

// Append adds an event to the log.
func (r *SQLiteRepository) Append(ctx context.Context, ev Event) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO crash_events (kind, timestamp) VALUES (?, ?)",
		string(ev.Kind),
		ev.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending crash event: %w", err)
	}
	return nil
}

// PruneTo keeps only the n most recent events.
func (r *SQLiteRepository) PruneTo(ctx context.Context, n int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM crash_events
		WHERE id NOT IN (
			SELECT id FROM crash_events ORDER BY id DESC LIMIT ?
		)`, n)
	if err != nil {
		return fmt.Errorf("pruning crash events: %w", err)
	}
	return nil
}

// Clear removes all events.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM crash_events")
	if err != nil {
		return fmt.Errorf("clearing crash events: %w", err)
	}
	return nil
}
