package crashloop

import (
	"context"
	"fmt"
	"time"
)

// Logger defines the logging interface used by the Manager.
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

// Manager records failures and detects crash loops across restarts.
//
// The Manager keeps no in-memory event state. Every operation goes through
// the repository so that events written by previous process instances are
// observed.
type Manager struct {
	repo   Repository
	logger Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewManager creates a crash-loop manager backed by the given repository.
func NewManager(repo Repository) *Manager {
	return &Manager{
		repo:   repo,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Record appends a failure event and prunes the log to the most recent
// entries.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - kind: Failure classification
//
// Returns:
//   - error: If the event could not be persisted
func (m *Manager) Record(ctx context.Context, kind Kind) error {
	ev := Event{
		Timestamp: m.now().UTC(),
		Kind:      kind,
	}

	if err := m.repo.Append(ctx, ev); err != nil {
		return fmt.Errorf("recording crash event: %w", err)
	}

	if err := m.repo.PruneTo(ctx, maxStoredEvents); err != nil {
		return fmt.Errorf("pruning crash events: %w", err)
	}

	m.logger.Warn("crash event recorded", "kind", string(kind))
	return nil
}

// IsLoopDetected reports whether the number of relevant events within the
// trailing window has reached the configured threshold.
//
// Detection is advisory: the caller logs the result for a supervisor to act
// on. The process is never halted here.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - cfg: Detection thresholds
//
// Returns:
//   - bool: true if a crash loop is detected
//   - error: If the event log could not be read
func (m *Manager) IsLoopDetected(ctx context.Context, cfg DetectionConfig) (bool, error) {
	events, err := m.repo.List(ctx)
	if err != nil {
		return false, fmt.Errorf("reading crash events: %w", err)
	}

	cutoff := m.now().UTC().Add(-cfg.TimeWindow)

	relevant := make(map[Kind]bool, len(cfg.RelevantKinds))
	for _, k := range cfg.RelevantKinds {
		relevant[k] = true
	}

	count := 0
	for _, ev := range events {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		if len(relevant) > 0 && !relevant[ev.Kind] {
			continue
		}
		count++
	}

	detected := count >= cfg.MaxCrashes
	if detected {
		m.logger.Error("crash loop detected",
			"count", count,
			"max_crashes", cfg.MaxCrashes,
			"window", cfg.TimeWindow.String(),
		)
	}
	return detected, nil
}

// Reset clears the crash-event log. Called after a deliberate recovery so
// stale failures do not trip detection on the next restart.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.repo.Clear(ctx); err != nil {
		return fmt.Errorf("resetting crash events: %w", err)
	}
	m.logger.Info("crash event log reset")
	return nil
}

// Events returns the stored failure log, oldest first. Used to report the
// failure history when a loop is detected at startup.
func (m *Manager) Events(ctx context.Context) ([]Event, error) {
	return m.repo.List(ctx)
}
