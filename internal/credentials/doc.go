// Package credentials manages the SmartApp installation credentials.
//
// The SmartThings platform issues an auth token, refresh token, installed
// app ID and location ID during the INSTALL and UPDATE lifecycle phases
// (and redundantly on every EVENT). The bridge needs these to call the
// subscriptions API, and it needs them to survive restarts, so the Store
// keeps an in-memory copy guarded by a mutex and writes through to a
// SQLite-backed repository.
//
// Persistence is deliberately non-fatal: a bridge that cannot write its
// database still works until the next restart, because the platform
// re-delivers credentials with every event. Load failures at startup
// degrade to an empty (uninstalled) state.
//
// Tokens are never logged. Log lines reference token presence only.
package credentials
