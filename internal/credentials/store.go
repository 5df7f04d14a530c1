package credentials

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Store.
// This matches the signature of internal/infrastructure/logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store holds the current installation credentials in memory and writes
// through to a repository.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Lifecycle messages and
//     events arrive on independent request goroutines.
type Store struct {
	mu      sync.RWMutex
	current Credentials

	repo   Repository
	logger Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewStore creates a credential store backed by the given repository.
//
// Parameters:
//   - repo: Persistence backend (may be nil for a memory-only store)
//
// Returns:
//   - *Store: Empty store; call Load to read persisted state
func NewStore(repo Repository) *Store {
	return &Store{
		repo:   repo,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// Load reads persisted credentials into memory.
//
// A missing row is not an error (fresh installation). A read failure is
// logged and the store stays empty; the bridge keeps running because the
// platform re-delivers credentials with every event.
func (s *Store) Load(ctx context.Context) {
	if s.repo == nil {
		return
	}

	creds, err := s.repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.mu.RLock()
			logger := s.logger
			s.mu.RUnlock()
			logger.Warn("failed to load saved credentials, starting uninstalled", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.current = *creds
	s.mu.Unlock()
}

// Get returns a copy of the current credentials.
func (s *Store) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Installed reports whether a live installation is present.
func (s *Store) Installed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Installed()
}

// Set replaces the current credentials and persists them.
//
// The in-memory copy is always updated; a persistence failure is logged
// and reported to the caller but does not roll the memory state back.
// Concurrent Sets are last-write-wins.
//
// Returns:
//   - error: The persistence failure, if any (safe to ignore)
func (s *Store) Set(ctx context.Context, creds Credentials) error {
	if creds.SavedAt.IsZero() {
		creds.SavedAt = s.now().UTC()
	}

	s.mu.Lock()
	s.current = creds
	logger := s.logger
	s.mu.Unlock()

	if s.repo == nil {
		return nil
	}

	if err := s.repo.Save(ctx, &creds); err != nil {
		logger.Error("failed to persist credentials, continuing with in-memory copy",
			"installed_app_id", creds.InstalledAppID,
			"error", err,
		)
		return err
	}

	logger.Debug("credentials persisted", "installed_app_id", creds.InstalledAppID)
	return nil
}

// Clear erases the credentials from memory and durable storage.
// Used on UNINSTALL.
//
// Returns:
//   - error: The persistence failure, if any (memory is cleared regardless)
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = Credentials{}
	logger := s.logger
	s.mu.Unlock()

	if s.repo == nil {
		return nil
	}

	if err := s.repo.Delete(ctx); err != nil {
		logger.Error("failed to delete persisted credentials", "error", err)
		return err
	}
	return nil
}
