// Package smartthings is a client for the slice of the SmartThings REST API
// the bridge needs: the installed-app subscriptions endpoints and the
// webhook confirmation fetch.
//
// Every request carries a bounded timeout. Auth tokens are passed per call,
// never stored on the client and never logged.
//
// The subscriptions API rejects duplicate subscription names with 409.
// The client names each device subscription after the device ID, so a
// duplicate create surfaces as ErrConflict and callers can treat it as
// idempotent success.
package smartthings
