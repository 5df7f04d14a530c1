// Package database provides SQLite connection management and schema
// migrations for the SmartThings bridge.
//
// The bridge persists two small document sets: the SmartApp credentials for
// the current installation and the crash-event log used for crash-loop
// detection. Both live in a single SQLite file under the bridge's private
// data directory, created with restrictive permissions because the
// credentials table holds SmartThings tokens.
//
// # Features
//
//   - WAL mode for concurrent reads during writes
//   - Busy timeout to handle lock contention
//   - Embedded schema migrations (compiled into the binary)
//   - Health checks for monitoring
//
// # Usage
//
//	db, err := database.Open(database.Config{
//	    Path:        "./data/stbridge.db",
//	    WALMode:     true,
//	    BusyTimeout: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
