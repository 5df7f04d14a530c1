package smartapp

import (
	"context"
	"sync/atomic"

	"github.com/nerrad567/smartthings-bridge/internal/credentials"
	"github.com/nerrad567/smartthings-bridge/internal/crashloop"
	"github.com/nerrad567/smartthings-bridge/internal/dispatch"
	"github.com/nerrad567/smartthings-bridge/internal/smartthings"
)

// Logger defines the logging interface used by the Handler.
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

// PlatformClient is the slice of the SmartThings API the handler needs.
// Implemented by smartthings.Client.
type PlatformClient interface {
	ListSubscriptions(ctx context.Context, token, installedAppID string) ([]smartthings.Subscription, error)
	CreateDeviceSubscription(ctx context.Context, token, installedAppID, deviceID string) error
	CreateLifecycleSubscription(ctx context.Context, token, installedAppID, locationID string) error
	DeleteAllSubscriptions(ctx context.Context, token, installedAppID string) error
	ConfirmEndpoint(ctx context.Context, confirmationURL string) error
}

// CrashRecorder records failures for crash-loop detection.
// Implemented by crashloop.Manager.
type CrashRecorder interface {
	Record(ctx context.Context, kind crashloop.Kind) error
}

// Config wires a Handler.
type Config struct {
	// Platform is the SmartThings API client.
	Platform PlatformClient

	// Credentials is the installation credential store.
	Credentials *credentials.Store

	// Dispatcher routes normalized events and owns the registration set.
	Dispatcher *dispatch.Dispatcher

	// Crash records repeated sync failures (optional).
	Crash CrashRecorder

	// AppName and AppDescription appear in the install wizard.
	AppName        string
	AppDescription string
}

// Handler is the lifecycle state machine.
//
// One Handler serves all inbound lifecycle messages concurrently; shared
// state lives in the credential store, the dispatcher, and two atomics.
type Handler struct {
	platform   PlatformClient
	creds      *credentials.Store
	dispatcher *dispatch.Dispatcher
	crash      CrashRecorder
	logger     Logger

	appName        string
	appDescription string

	// firstSync gates the one-shot reconciliation triggered by the first
	// EVENT that delivers credentials. CompareAndSwap ensures exactly one
	// of any concurrent events runs it.
	firstSync atomic.Bool

	// synced flips true after any reconciliation pass completes.
	synced atomic.Bool
}

// NewHandler creates the lifecycle handler and hooks the dispatcher's
// registration callback so late consumer registrations trigger
// subscription creates.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		platform:       cfg.Platform,
		creds:          cfg.Credentials,
		dispatcher:     cfg.Dispatcher,
		crash:          cfg.Crash,
		logger:         noopLogger{},
		appName:        cfg.AppName,
		appDescription: cfg.AppDescription,
	}

	h.dispatcher.SetOnRegister(func(deviceID string) {
		h.DeviceRegistered(context.Background(), deviceID)
	})

	return h
}

// SetLogger sets the logger for the handler.
func (h *Handler) SetLogger(logger Logger) {
	h.logger = logger
}

// Handle processes one lifecycle message and returns the response to write.
// The response's StatusCode doubles as the HTTP status.
func (h *Handler) Handle(ctx context.Context, msg *Message) *Response {
	switch msg.Lifecycle {
	case LifecyclePing:
		return h.handlePing(msg)
	case LifecycleConfirmation:
		return h.handleConfirmation(ctx, msg)
	case LifecycleConfiguration:
		return h.handleConfiguration(msg)
	case LifecycleInstall:
		return h.handleInstall(ctx, msg)
	case LifecycleUpdate:
		return h.handleUpdate(ctx, msg)
	case LifecycleEvent:
		return h.handleEvent(ctx, msg)
	case LifecycleUninstall:
		return h.handleUninstall(ctx, msg)
	default:
		h.logger.Warn("unknown lifecycle", "lifecycle", msg.Lifecycle)
		return badRequest("unknown lifecycle")
	}
}

// handlePing echoes the liveness challenge. No credential dependency: PING
// must work before, during, and after installation.
func (h *Handler) handlePing(msg *Message) *Response {
	if msg.PingData == nil || msg.PingData.Challenge == "" {
		return badRequest("missing ping challenge")
	}

	return &Response{
		StatusCode: 200,
		PingData:   &PingData{Challenge: msg.PingData.Challenge},
	}
}

// handleConfirmation fetches the confirmation URL so the platform marks the
// endpoint verified. Any HTTP response from the URL counts; only a
// transport failure is an error.
func (h *Handler) handleConfirmation(ctx context.Context, msg *Message) *Response {
	if msg.ConfirmationData == nil || msg.ConfirmationData.ConfirmationURL == "" {
		return badRequest("missing confirmation url")
	}

	url := msg.ConfirmationData.ConfirmationURL
	if err := h.platform.ConfirmEndpoint(ctx, url); err != nil {
		h.logger.Error("endpoint confirmation failed", "error", err)
		return internalError("confirmation fetch failed")
	}

	h.logger.Info("endpoint confirmed")
	return &Response{
		StatusCode:       200,
		ConfirmationData: &ConfirmationResponse{TargetURL: url},
	}
}

// handleConfiguration serves the static install wizard. The bridge has no
// per-install settings, so INITIALIZE declares one page and PAGE returns it
// complete.
func (h *Handler) handleConfiguration(msg *Message) *Response {
	if msg.ConfigurationData == nil {
		return badRequest("missing configuration data")
	}

	switch msg.ConfigurationData.Phase {
	case PhaseInitialize:
		return &Response{
			StatusCode: 200,
			ConfigurationData: &ConfigurationResponse{
				Initialize: &InitializeResponse{
					Name:        h.appName,
					Description: h.appDescription,
					ID:          "app",
					Permissions: []string{"r:devices:*", "r:locations:*"},
					FirstPageID: "1",
				},
			},
		}
	case PhasePage:
		return &Response{
			StatusCode: 200,
			ConfigurationData: &ConfigurationResponse{
				Page: &PageResponse{
					PageID:   "1",
					Name:     h.appName,
					Complete: true,
					Sections: []PageSection{
						{
							Settings: []PageSetting{
								{
									ID:   "about",
									Name: "Events are forwarded to your local bridge.",
									Type: "PARAGRAPH",
								},
							},
						},
					},
				},
			},
		}
	default:
		return badRequest("unknown configuration phase")
	}
}

// handleInstall stores the delivered credentials and eagerly reconciles
// subscriptions for everything already registered. Per-device failures are
// aggregated and logged; the response stays 200 because the platform would
// otherwise retry the whole install.
func (h *Handler) handleInstall(ctx context.Context, msg *Message) *Response {
	if msg.InstallData == nil {
		return badRequest("missing install data")
	}

	h.storeCredentials(ctx, msg.InstallData.AuthToken, msg.InstallData.RefreshToken, msg.InstallData.InstalledApp)
	h.logger.Info("app installed",
		"installed_app_id", msg.InstallData.InstalledApp.InstalledAppID,
		"location_id", msg.InstallData.InstalledApp.LocationID,
	)

	if err := h.Reconcile(ctx); err != nil {
		h.logger.Error("install-time subscription sync failed", "error", err)
	}

	return &Response{StatusCode: 200, InstallData: &struct{}{}}
}

// handleUpdate stores the fresh credentials, then rebuilds the remote
// subscription set from scratch: delete everything, recreate device
// subscriptions for the full registration set plus the lifecycle
// subscription. A failed delete is logged and the recreate continues; the
// creates absorb any resulting 409s.
func (h *Handler) handleUpdate(ctx context.Context, msg *Message) *Response {
	if msg.UpdateData == nil {
		return badRequest("missing update data")
	}

	h.storeCredentials(ctx, msg.UpdateData.AuthToken, msg.UpdateData.RefreshToken, msg.UpdateData.InstalledApp)
	h.logger.Info("app updated",
		"installed_app_id", msg.UpdateData.InstalledApp.InstalledAppID,
	)

	h.recreateAll(ctx)

	return &Response{StatusCode: 200, UpdateData: &struct{}{}}
}

// handleEvent processes a batch of subscribed events.
//
// Credentials ride along with every event. If the bridge restarted without
// durable state, the first event re-establishes the installation, and a
// one-shot gate triggers reconciliation so remote subscriptions and local
// registrations realign without operator action.
func (h *Handler) handleEvent(ctx context.Context, msg *Message) *Response {
	if msg.EventData == nil {
		return badRequest("missing event data")
	}

	data := msg.EventData

	// Every delivery carries a fresh token; store it so the saved copy
	// never goes stale between UPDATEs. Writes are last-write-wins.
	if data.AuthToken != "" && data.InstalledApp.InstalledAppID != "" {
		recovered := !h.creds.Installed()
		h.storeCredentials(ctx, data.AuthToken, "", data.InstalledApp)
		if recovered {
			h.logger.Info("credentials recovered from event delivery",
				"installed_app_id", data.InstalledApp.InstalledAppID,
			)
		}
	}

	// Exactly one concurrent event wins the gate and runs the sync.
	if h.creds.Installed() && h.dispatcher.Count() > 0 && h.firstSync.CompareAndSwap(false, true) {
		if err := h.Reconcile(ctx); err != nil {
			h.logger.Error("first-event subscription sync failed", "error", err)
		}
	}

	for _, item := range data.Events {
		h.handleEventItem(ctx, item)
	}

	return &Response{StatusCode: 200, EventData: &struct{}{}}
}

// handleEventItem routes one entry of an EVENT batch.
func (h *Handler) handleEventItem(ctx context.Context, item EventItem) {
	switch item.EventType {
	case EventTypeDevice:
		if item.DeviceEvent == nil {
			h.logger.Warn("device event without payload, skipping")
			return
		}
		h.dispatcher.Dispatch(dispatch.Event{
			DeviceID:    item.DeviceEvent.DeviceID,
			ComponentID: item.DeviceEvent.ComponentID,
			Capability:  item.DeviceEvent.Capability,
			Attribute:   item.DeviceEvent.Attribute,
			Value:       item.DeviceEvent.Value,
		})

	case EventTypeDeviceLifecycle:
		if item.DeviceLifecycleEvent == nil {
			h.logger.Warn("device lifecycle event without payload, skipping")
			return
		}
		h.handleDeviceLifecycle(ctx, *item.DeviceLifecycleEvent)

	default:
		h.logger.Debug("unhandled event type, skipping", "event_type", item.EventType)
	}
}

// handleDeviceLifecycle reacts to device add/remove/update notifications.
//
// CREATE eagerly subscribes to the new device and tracks it so its events
// flow before any consumer registers. DELETE shrinks the registration set;
// this is the only automatic removal. Everything is forwarded to lifecycle
// consumers.
func (h *Handler) handleDeviceLifecycle(ctx context.Context, ev DeviceLifecycleEvent) {
	kind := dispatch.LifecycleKind(ev.Lifecycle)

	switch kind {
	case dispatch.LifecycleCreate:
		if ev.DeviceID != "" {
			h.subscribeDevice(ctx, ev.DeviceID)
			h.dispatcher.Track(ev.DeviceID)
		}
	case dispatch.LifecycleDelete:
		if ev.DeviceID != "" {
			h.dispatcher.Remove(ev.DeviceID)
		}
	case dispatch.LifecycleUpdate, dispatch.LifecycleMoveFrom, dispatch.LifecycleMoveTo:
		// Forward only
	default:
		h.logger.Debug("unhandled device lifecycle, skipping", "lifecycle", ev.Lifecycle)
		return
	}

	h.dispatcher.DispatchLifecycle(dispatch.LifecycleEvent{
		Lifecycle:  kind,
		DeviceID:   ev.DeviceID,
		DeviceName: ev.DeviceName,
		LocationID: ev.LocationID,
	})
}

// handleUninstall clears the installation. Local-only: the platform has
// already deleted the remote subscriptions, so no API calls are made.
func (h *Handler) handleUninstall(ctx context.Context, msg *Message) *Response {
	if err := h.creds.Clear(ctx); err != nil {
		h.recordCrash(ctx, crashloop.KindPersistenceFailure)
	}

	// Re-arm the one-shot gate for a future reinstall
	h.firstSync.Store(false)
	h.synced.Store(false)

	h.logger.Info("app uninstalled")
	return &Response{StatusCode: 200, UninstallData: &struct{}{}}
}

// storeCredentials saves credentials; persistence failure is logged by the
// store and recorded for crash-loop detection, but never fails the
// lifecycle response.
func (h *Handler) storeCredentials(ctx context.Context, authToken, refreshToken string, app InstalledApp) {
	// Event deliveries carry no refresh token and sometimes no location;
	// keep the values from INSTALL/UPDATE rather than wiping them.
	existing := h.creds.Get()
	if refreshToken == "" {
		refreshToken = existing.RefreshToken
	}
	if app.LocationID == "" {
		app.LocationID = existing.LocationID
	}

	err := h.creds.Set(ctx, credentials.Credentials{
		InstalledAppID: app.InstalledAppID,
		AuthToken:      authToken,
		RefreshToken:   refreshToken,
		LocationID:     app.LocationID,
	})
	if err != nil {
		h.recordCrash(ctx, crashloop.KindPersistenceFailure)
	}
}

// recordCrash records a failure if a recorder is wired.
func (h *Handler) recordCrash(ctx context.Context, kind crashloop.Kind) {
	if h.crash == nil {
		return
	}
	if err := h.crash.Record(ctx, kind); err != nil {
		h.logger.Warn("failed to record crash event", "kind", string(kind), "error", err)
	}
}
