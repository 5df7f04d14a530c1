package mqtt

import "fmt"

// Topic prefixes for the bridge's MQTT hierarchy.
//
// All topics use the flat scheme: stbridge/{category}/{kind}/{id}
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "stbridge"

	// TopicPrefixEvent is the base for event topics.
	TopicPrefixEvent = "stbridge/event"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "stbridge/system"
)

// Topics provides builders for bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.DeviceEvent("device-123")
//	// Returns: "stbridge/event/device/device-123"
type Topics struct{}

// DeviceEvent returns the topic for normalized device events.
//
// Example: stbridge/event/device/device-123
func (Topics) DeviceEvent(deviceID string) string {
	return fmt.Sprintf("%s/device/%s", TopicPrefixEvent, deviceID)
}

// DeviceLifecycle returns the topic for device lifecycle events.
//
// Example: stbridge/event/lifecycle/device-123
func (Topics) DeviceLifecycle(deviceID string) string {
	return fmt.Sprintf("%s/lifecycle/%s", TopicPrefixEvent, deviceID)
}

// SystemStatus returns the system status topic.
//
// Example: stbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceEvents returns a pattern matching all device event topics.
//
// Pattern: stbridge/event/device/+
func (Topics) AllDeviceEvents() string {
	return fmt.Sprintf("%s/device/+", TopicPrefixEvent)
}

// AllLifecycleEvents returns a pattern matching all lifecycle event topics.
//
// Pattern: stbridge/event/lifecycle/+
func (Topics) AllLifecycleEvents() string {
	return fmt.Sprintf("%s/lifecycle/+", TopicPrefixEvent)
}
