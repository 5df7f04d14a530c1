package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/smartthings-bridge/internal/dispatch"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/config"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/smartthings-bridge/internal/smartapp"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// LifecycleHandler processes decoded SmartApp lifecycle messages. It is
// implemented by smartapp.Handler; the indirection keeps the ingress
// testable without a platform client.
type LifecycleHandler interface {
	Handle(ctx context.Context, msg *smartapp.Message) *smartapp.Response
}

// Deps holds the dependencies required by the webhook server.
type Deps struct {
	Config     config.WebhookConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Lifecycle  LifecycleHandler
	Dispatcher *dispatch.Dispatcher

	// AppID, when non-empty, is matched against the appId declared in
	// inbound lifecycle messages. Mismatches are rejected with 403.
	AppID string

	// OAuth, when set, serves GET /oauth/callback. When nil the endpoint
	// returns a 500 page.
	OAuth http.Handler

	Version string
}

// Server is the HTTP ingress for the bridge.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket
// event-feed hub. The server is created with New() and started with Start().
type Server struct {
	cfg        config.WebhookConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	lifecycle  LifecycleHandler
	dispatcher *dispatch.Dispatcher
	appID      string
	oauth      http.Handler
	version    string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new webhook server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, lifecycle handler, dispatcher)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Lifecycle == nil {
		return nil, fmt.Errorf("lifecycle handler is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		lifecycle:  deps.Lifecycle,
		dispatcher: deps.Dispatcher,
		appID:      deps.AppID,
		oauth:      deps.OAuth,
		version:    deps.Version,
	}

	// The hub exists from construction so event sinks can be wired before
	// the listener is up.
	s.hub = NewHub(deps.WS, deps.Logger)

	return s, nil
}

// EventSink returns a dispatcher sink that broadcasts every normalized
// device event to WebSocket clients subscribed to "device.event".
func (s *Server) EventSink() dispatch.Sink {
	return func(evt dispatch.Event) {
		s.hub.Broadcast("device.event", evt)
	}
}

// BroadcastLifecycle forwards a device lifecycle event to WebSocket clients
// subscribed to "device.lifecycle". It satisfies dispatch.LifecycleConsumer.
func (s *Server) BroadcastLifecycle(evt dispatch.LifecycleEvent) error {
	s.hub.Broadcast("device.lifecycle", evt)
	return nil
}

// Start binds the listener and begins serving HTTP connections.
//
// The bind happens synchronously so a port conflict surfaces as an error to
// the caller; request serving runs in a background goroutine until Close().
//
// Parameters:
//   - ctx: Context for background goroutine cancellation
//
// Returns:
//   - error: If the listener could not be bound
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding webhook listener on %s: %w", addr, err)
	}

	s.logger.Info("webhook server listening",
		"address", addr,
		"path", s.cfg.Path,
		"direct", s.cfg.Direct,
	)

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("webhook server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the webhook server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("webhook server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down webhook server: %w", err)
	}
	return nil
}

// HealthCheck verifies the webhook server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("webhook health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("webhook server not started")
	}

	return nil
}
