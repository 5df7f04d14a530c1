package credentials

import "errors"

// Sentinel errors for credential persistence.
var (
	// ErrNotFound indicates no credentials have been saved yet.
	ErrNotFound = errors.New("credentials: not found")
)
