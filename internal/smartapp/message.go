package smartapp

// Lifecycle phase discriminants. The set is closed; anything else is
// rejected with 400.
const (
	LifecyclePing          = "PING"
	LifecycleConfirmation  = "CONFIRMATION"
	LifecycleConfiguration = "CONFIGURATION"
	LifecycleInstall       = "INSTALL"
	LifecycleUpdate        = "UPDATE"
	LifecycleEvent         = "EVENT"
	LifecycleUninstall     = "UNINSTALL"
)

// Configuration phases within the CONFIGURATION lifecycle.
const (
	PhaseInitialize = "INITIALIZE"
	PhasePage       = "PAGE"
)

// Event item types within the EVENT lifecycle.
const (
	EventTypeDevice          = "DEVICE_EVENT"
	EventTypeDeviceLifecycle = "DEVICE_LIFECYCLE_EVENT"
)

// Message is one inbound lifecycle message. Exactly one of the *Data
// payloads is populated, matching the Lifecycle discriminant.
type Message struct {
	Lifecycle   string `json:"lifecycle"`
	ExecutionID string `json:"executionId,omitempty"`
	AppID       string `json:"appId,omitempty"`
	Locale      string `json:"locale,omitempty"`

	PingData          *PingData          `json:"pingData,omitempty"`
	ConfirmationData  *ConfirmationData  `json:"confirmationData,omitempty"`
	ConfigurationData *ConfigurationData `json:"configurationData,omitempty"`
	InstallData       *InstallData       `json:"installData,omitempty"`
	UpdateData        *UpdateData        `json:"updateData,omitempty"`
	EventData         *EventData         `json:"eventData,omitempty"`
	UninstallData     *UninstallData     `json:"uninstallData,omitempty"`
}

// PingData carries the liveness challenge.
type PingData struct {
	Challenge string `json:"challenge"`
}

// ConfirmationData carries the endpoint verification URL.
type ConfirmationData struct {
	AppID           string `json:"appId,omitempty"`
	ConfirmationURL string `json:"confirmationUrl"`
}

// ConfigurationData drives the install wizard.
type ConfigurationData struct {
	InstalledAppID string `json:"installedAppId,omitempty"`
	Phase          string `json:"phase"`
	PageID         string `json:"pageId,omitempty"`
	PreviousPageID string `json:"previousPageId,omitempty"`
}

// InstalledApp identifies an installation and its location.
type InstalledApp struct {
	InstalledAppID string `json:"installedAppId"`
	LocationID     string `json:"locationId"`
}

// InstallData is delivered once when the user completes installation.
type InstallData struct {
	AuthToken    string       `json:"authToken"`
	RefreshToken string       `json:"refreshToken"`
	InstalledApp InstalledApp `json:"installedApp"`
}

// UpdateData is delivered when the user edits the installed app settings.
type UpdateData struct {
	AuthToken    string       `json:"authToken"`
	RefreshToken string       `json:"refreshToken"`
	InstalledApp InstalledApp `json:"installedApp"`
}

// EventData carries a batch of subscribed events.
type EventData struct {
	AuthToken    string       `json:"authToken,omitempty"`
	InstalledApp InstalledApp `json:"installedApp"`
	Events       []EventItem  `json:"events"`
}

// EventItem is one entry in an EVENT batch. The EventType discriminant
// selects which payload is populated. Unknown types are skipped.
type EventItem struct {
	EventType            string                `json:"eventType"`
	DeviceEvent          *DeviceEvent          `json:"deviceEvent,omitempty"`
	DeviceLifecycleEvent *DeviceLifecycleEvent `json:"deviceLifecycleEvent,omitempty"`
}

// DeviceEvent is one device attribute change.
type DeviceEvent struct {
	EventID          string `json:"eventId,omitempty"`
	DeviceID         string `json:"deviceId"`
	ComponentID      string `json:"componentId"`
	Capability       string `json:"capability"`
	Attribute        string `json:"attribute"`
	Value            any    `json:"value"`
	StateChange      bool   `json:"stateChange,omitempty"`
	SubscriptionName string `json:"subscriptionName,omitempty"`
}

// DeviceLifecycleEvent is one device add/remove/update notification.
type DeviceLifecycleEvent struct {
	Lifecycle  string `json:"lifecycle"`
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName,omitempty"`
	LocationID string `json:"locationId,omitempty"`
}

// UninstallData is delivered when the user removes the installed app.
type UninstallData struct {
	InstalledApp InstalledApp `json:"installedApp"`
}

// Response is the reply to a lifecycle message. StatusCode doubles as the
// HTTP status; the payload mirrors the request's discriminant. Tokens are
// never echoed.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message,omitempty"`

	PingData          *PingData              `json:"pingData,omitempty"`
	ConfirmationData  *ConfirmationResponse  `json:"confirmationData,omitempty"`
	ConfigurationData *ConfigurationResponse `json:"configurationData,omitempty"`
	InstallData       *struct{}              `json:"installData,omitempty"`
	UpdateData        *struct{}              `json:"updateData,omitempty"`
	EventData         *struct{}              `json:"eventData,omitempty"`
	UninstallData     *struct{}              `json:"uninstallData,omitempty"`
}

// ConfirmationResponse echoes the URL the bridge fetched.
type ConfirmationResponse struct {
	TargetURL string `json:"targetUrl"`
}

// ConfigurationResponse holds one wizard phase reply.
type ConfigurationResponse struct {
	Initialize *InitializeResponse `json:"initialize,omitempty"`
	Page       *PageResponse       `json:"page,omitempty"`
}

// InitializeResponse declares the app to the wizard.
type InitializeResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ID          string   `json:"id"`
	Permissions []string `json:"permissions"`
	FirstPageID string   `json:"firstPageId"`
}

// PageResponse is one static wizard page.
type PageResponse struct {
	PageID   string        `json:"pageId"`
	Name     string        `json:"name"`
	Complete bool          `json:"complete"`
	Sections []PageSection `json:"sections"`
}

// PageSection is one block of wizard page content.
type PageSection struct {
	Name     string        `json:"name,omitempty"`
	Settings []PageSetting `json:"settings"`
}

// PageSetting is one wizard page element.
type PageSetting struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Type         string `json:"type"`
	Required     bool   `json:"required,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// badRequest builds a 400 response with a safe message.
func badRequest(msg string) *Response {
	return &Response{StatusCode: 400, Message: msg}
}

// internalError builds a 500 response with a safe message.
func internalError(msg string) *Response {
	return &Response{StatusCode: 500, Message: msg}
}
