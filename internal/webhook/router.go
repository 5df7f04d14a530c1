package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartthings-bridge/internal/dispatch"
	"github.com/nerrad567/smartthings-bridge/internal/smartapp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Lifecycle endpoint
	if s.cfg.Path != "/" {
		r.Post(s.cfg.Path, s.handleLifecycle)
	}

	// Root endpoint: lifecycle messages in direct-webhook mode, single
	// relay-forwarded events otherwise.
	if s.cfg.Direct {
		r.Post("/", s.handleLifecycle)
	} else {
		r.Post("/", s.handleLegacyEvent)
	}

	r.Get("/oauth/callback", s.handleOAuthCallback)
	r.Get("/health", s.handleHealth)

	// WebSocket event feed
	if s.wsCfg.Path != "" {
		r.Get(s.wsCfg.Path, s.handleWebSocket)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "not found")
	})

	return r
}

// handleLifecycle decodes a SmartApp lifecycle message and delegates it to
// the lifecycle handler. Malformed JSON is rejected with 400 before any
// state is touched.
func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	var msg smartapp.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeBadRequest(w, "invalid lifecycle message")
		return
	}

	if s.appID != "" && msg.AppID != s.appID {
		s.logger.Warn("lifecycle message rejected, app id mismatch",
			"lifecycle", msg.Lifecycle,
			"app_id", msg.AppID,
		)
		writeForbidden(w, "app id mismatch")
		return
	}

	resp := s.lifecycle.Handle(r.Context(), &msg)
	writeJSON(w, resp.StatusCode, resp)
}

// handleLegacyEvent accepts a single normalized event forwarded by a polling
// relay and hands it to the dispatcher.
func (s *Server) handleLegacyEvent(w http.ResponseWriter, r *http.Request) {
	var evt dispatch.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeBadRequest(w, "invalid event payload")
		return
	}
	if evt.DeviceID == "" {
		writeBadRequest(w, "deviceId is required")
		return
	}

	s.dispatcher.Dispatch(evt)
	w.WriteHeader(http.StatusOK)
}

// handleOAuthCallback delegates to the registered OAuth collaborator. The
// bridge itself holds no OAuth client state; deployments that complete the
// authorisation dance out-of-band leave this unset.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauth != nil {
		s.oauth.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	//nolint:errcheck // Response already committed
	w.Write([]byte("<html><body><h1>OAuth callback not configured</h1></body></html>"))
}

// handleHealth returns the server health status. It never fails.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"directWebhook": s.cfg.Direct,
		"version":       s.version,
	})
}
