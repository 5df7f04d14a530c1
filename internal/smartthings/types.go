package smartthings

// Subscription source types used by the bridge.
const (
	// SourceTypeDevice subscribes to attribute events from one device.
	SourceTypeDevice = "DEVICE"

	// SourceTypeDeviceLifecycle subscribes to device add/remove/update
	// notifications for a whole location.
	SourceTypeDeviceLifecycle = "DEVICE_LIFECYCLE"
)

// lifecycleSubscriptionName is the fixed name of the location-scoped
// device-lifecycle subscription. One per installation.
const lifecycleSubscriptionName = "device-lifecycle"

// Subscription is one remote event subscription as returned by the
// installed-app subscriptions endpoint.
type Subscription struct {
	ID         string `json:"id"`
	SourceType string `json:"sourceType"`

	Device          *DeviceSubscriptionDetail          `json:"device,omitempty"`
	DeviceLifecycle *DeviceLifecycleSubscriptionDetail `json:"deviceLifecycle,omitempty"`
}

// DeviceSubscriptionDetail is the DEVICE source payload.
// SubscriptionName doubles as the duplicate key on the platform side; the
// bridge sets it to the device ID so repeated creates collide with 409.
type DeviceSubscriptionDetail struct {
	DeviceID         string `json:"deviceId"`
	ComponentID      string `json:"componentId,omitempty"`
	Capability       string `json:"capability,omitempty"`
	Attribute        string `json:"attribute,omitempty"`
	Value            string `json:"value,omitempty"`
	StateChangeOnly  bool   `json:"stateChangeOnly,omitempty"`
	SubscriptionName string `json:"subscriptionName,omitempty"`
}

// DeviceLifecycleSubscriptionDetail is the DEVICE_LIFECYCLE source payload.
type DeviceLifecycleSubscriptionDetail struct {
	LocationID       string `json:"locationId,omitempty"`
	SubscriptionName string `json:"subscriptionName,omitempty"`
}

// subscriptionList is the wire shape of the list endpoint.
type subscriptionList struct {
	Items []Subscription `json:"items"`
}

// createSubscriptionRequest is the wire shape of a subscription create.
type createSubscriptionRequest struct {
	SourceType      string                             `json:"sourceType"`
	Device          *DeviceSubscriptionDetail          `json:"device,omitempty"`
	DeviceLifecycle *DeviceLifecycleSubscriptionDetail `json:"deviceLifecycle,omitempty"`
}

// DeviceIDs projects the DEVICE subscriptions in the list to their device
// IDs. Used by reconciliation to compute the missing set.
func DeviceIDs(subs []Subscription) map[string]bool {
	ids := make(map[string]bool)
	for _, s := range subs {
		if s.SourceType == SourceTypeDevice && s.Device != nil && s.Device.DeviceID != "" {
			ids[s.Device.DeviceID] = true
		}
	}
	return ids
}

// HasLifecycle reports whether the list contains a DEVICE_LIFECYCLE
// subscription.
func HasLifecycle(subs []Subscription) bool {
	for _, s := range subs {
		if s.SourceType == SourceTypeDeviceLifecycle {
			return true
		}
	}
	return false
}
