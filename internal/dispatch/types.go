package dispatch

// Event is one normalized device attribute change.
//
// Capability and Attribute are open vocabularies: the bridge forwards
// whatever the platform sends without an enum in the way.
type Event struct {
	DeviceID    string `json:"deviceId"`
	ComponentID string `json:"componentId"`
	Capability  string `json:"capability"`
	Attribute   string `json:"attribute"`
	Value       any    `json:"value"`
}

// LifecycleKind classifies a device lifecycle notification.
type LifecycleKind string

// Device lifecycle kinds delivered by the platform.
const (
	LifecycleCreate   LifecycleKind = "CREATE"
	LifecycleDelete   LifecycleKind = "DELETE"
	LifecycleUpdate   LifecycleKind = "UPDATE"
	LifecycleMoveFrom LifecycleKind = "MOVE_FROM"
	LifecycleMoveTo   LifecycleKind = "MOVE_TO"
)

// LifecycleEvent is one device add/remove/update notification.
type LifecycleEvent struct {
	Lifecycle  LifecycleKind `json:"lifecycle"`
	DeviceID   string        `json:"deviceId"`
	DeviceName string        `json:"deviceName,omitempty"`
	LocationID string        `json:"locationId,omitempty"`
}

// Consumer receives events for one registered device.
type Consumer func(Event) error

// LifecycleConsumer receives device lifecycle notifications.
type LifecycleConsumer func(LifecycleEvent) error

// Sink observes every dispatched event. Sinks feed transports (MQTT,
// InfluxDB, WebSocket) and must not block.
type Sink func(Event)
