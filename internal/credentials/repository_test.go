package credentials

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/database"
	_ "github.com/nerrad567/smartthings-bridge/migrations" // register embedded schema
)

// openTestDB opens a migrated SQLite database in a temporary directory.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestSQLiteRepository_GetEmpty(t *testing.T) {
	repo := NewSQLiteRepository(openTestDB(t).DB)

	_, err := repo.Get(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty table error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_SaveAndGet(t *testing.T) {
	repo := NewSQLiteRepository(openTestDB(t).DB)
	ctx := context.Background()

	want := &Credentials{
		InstalledAppID: "app-123",
		AuthToken:      "token-abc",
		RefreshToken:   "refresh-def",
		LocationID:     "loc-456",
		SavedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.InstalledAppID != want.InstalledAppID {
		t.Errorf("InstalledAppID = %q, want %q", got.InstalledAppID, want.InstalledAppID)
	}
	if got.AuthToken != want.AuthToken {
		t.Errorf("AuthToken = %q, want %q", got.AuthToken, want.AuthToken)
	}
	if got.RefreshToken != want.RefreshToken {
		t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, want.RefreshToken)
	}
	if got.LocationID != want.LocationID {
		t.Errorf("LocationID = %q, want %q", got.LocationID, want.LocationID)
	}
	if !got.SavedAt.Equal(want.SavedAt) {
		t.Errorf("SavedAt = %v, want %v", got.SavedAt, want.SavedAt)
	}
}

func TestSQLiteRepository_SaveReplaces(t *testing.T) {
	repo := NewSQLiteRepository(openTestDB(t).DB)
	ctx := context.Background()

	first := &Credentials{
		InstalledAppID: "app-1",
		AuthToken:      "token-1",
		SavedAt:        time.Now().UTC(),
	}
	second := &Credentials{
		InstalledAppID: "app-2",
		AuthToken:      "token-2",
		SavedAt:        time.Now().UTC(),
	}

	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save() first error = %v", err)
	}
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("Save() second error = %v", err)
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.InstalledAppID != "app-2" {
		t.Errorf("InstalledAppID = %q, want %q (second save should replace)", got.InstalledAppID, "app-2")
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := NewSQLiteRepository(openTestDB(t).DB)
	ctx := context.Background()

	// Deleting with nothing saved is not an error
	if err := repo.Delete(ctx); err != nil {
		t.Errorf("Delete() on empty table error = %v", err)
	}

	creds := &Credentials{
		InstalledAppID: "app-123",
		AuthToken:      "token-abc",
		SavedAt:        time.Now().UTC(),
	}
	if err := repo.Save(ctx, creds); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := repo.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := repo.Get(ctx)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_RoundTripThroughSQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := NewStore(NewSQLiteRepository(db.DB))
	if err := first.Set(ctx, Credentials{
		InstalledAppID: "app-123",
		AuthToken:      "token-abc",
		LocationID:     "loc-456",
	}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// A second store over the same database simulates a restart
	second := NewStore(NewSQLiteRepository(db.DB))
	second.Load(ctx)

	if !second.Installed() {
		t.Fatal("credentials should survive a restart")
	}
	if got := second.Get().LocationID; got != "loc-456" {
		t.Errorf("LocationID = %q, want %q", got, "loc-456")
	}
}
