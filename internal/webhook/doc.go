// Package webhook provides the HTTP ingress for the SmartThings bridge.
//
// It exposes the SmartApp lifecycle endpoint, a legacy event endpoint for
// polling-relay deployments, an OAuth callback hook, a health check, and a
// WebSocket event feed for local consumers (wall panels, debug tooling).
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := webhook.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package webhook
