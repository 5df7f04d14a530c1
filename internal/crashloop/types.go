package crashloop

import "time"

// Kind classifies a recorded failure.
type Kind string

// Failure kinds recorded by the bridge.
const (
	// KindAPIInitFailure is a failure initializing the SmartThings API client.
	KindAPIInitFailure Kind = "API_INIT_FAILURE"

	// KindWebhookStartFailure is a failure binding or serving the webhook listener.
	KindWebhookStartFailure Kind = "WEBHOOK_START_FAILURE"

	// KindSubscriptionSyncFailure is a repeated subscription reconciliation failure.
	KindSubscriptionSyncFailure Kind = "SUBSCRIPTION_SYNC_FAILURE"

	// KindPersistenceFailure is a failure writing durable state.
	KindPersistenceFailure Kind = "PERSISTENCE_FAILURE"
)

// Event is one recorded failure.
type Event struct {
	// Timestamp is when the failure occurred (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Kind classifies the failure.
	Kind Kind `json:"kind"`
}

// DetectionConfig controls loop detection.
type DetectionConfig struct {
	// MaxCrashes is the event count at which a loop is reported.
	MaxCrashes int

	// TimeWindow is the trailing window events must fall within.
	TimeWindow time.Duration

	// RelevantKinds restricts which kinds count towards detection.
	// Empty means every kind counts.
	RelevantKinds []Kind
}

// maxStoredEvents caps the persisted log; Record prunes to the newest
// entries beyond this.
const maxStoredEvents = 20
