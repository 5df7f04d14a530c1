package smartthings

import "errors"

// Sentinel errors for SmartThings API calls.
var (
	// ErrConflict indicates the resource already exists (HTTP 409).
	// For subscription creates this means the subscription is already in
	// place, which callers treat as success.
	ErrConflict = errors.New("smartthings: resource already exists")

	// ErrUnauthorised indicates the auth token was rejected (HTTP 401/403).
	ErrUnauthorised = errors.New("smartthings: unauthorised")

	// ErrRequestFailed indicates a transport failure or an unexpected
	// HTTP status.
	ErrRequestFailed = errors.New("smartthings: request failed")
)
