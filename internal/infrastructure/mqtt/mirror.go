package mqtt

import (
	"encoding/json"

	"github.com/nerrad567/smartthings-bridge/internal/dispatch"
)

// publisher is the slice of Client the mirror needs. Narrowed for testing.
type publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Mirror publishes dispatched events to the local broker.
//
// It is wired into the dispatcher as a sink so every normalized event is
// mirrored regardless of local consumer registration. Publish failures are
// logged and dropped; the broker is an observer, never a gate on event
// delivery.
type Mirror struct {
	pub    publisher
	qos    byte
	logger Logger
	topics Topics
}

// NewMirror creates a mirror publishing through the given client at the
// configured QoS.
func NewMirror(client *Client) *Mirror {
	return &Mirror{
		pub:    client,
		qos:    byte(client.cfg.QoS),
		logger: noopLogger{},
	}
}

// SetLogger sets a logger for publish failures.
func (m *Mirror) SetLogger(logger Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// EventSink returns a dispatcher sink that mirrors normalized device events
// to stbridge/event/device/{deviceId}.
func (m *Mirror) EventSink() dispatch.Sink {
	return func(evt dispatch.Event) {
		payload, err := json.Marshal(evt)
		if err != nil {
			m.logger.Error("failed to marshal event for mirror", "device_id", evt.DeviceID, "error", err)
			return
		}
		topic := m.topics.DeviceEvent(evt.DeviceID)
		if err := m.pub.Publish(topic, payload, m.qos, false); err != nil {
			m.logger.Warn("event mirror publish failed", "topic", topic, "error", err)
		}
	}
}

// PublishLifecycle mirrors a device lifecycle event to
// stbridge/event/lifecycle/{deviceId}. It satisfies dispatch.LifecycleConsumer.
func (m *Mirror) PublishLifecycle(evt dispatch.LifecycleEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		m.logger.Error("failed to marshal lifecycle event for mirror", "device_id", evt.DeviceID, "error", err)
		return nil
	}
	topic := m.topics.DeviceLifecycle(evt.DeviceID)
	if err := m.pub.Publish(topic, payload, m.qos, false); err != nil {
		m.logger.Warn("lifecycle mirror publish failed", "topic", topic, "error", err)
	}
	return nil
}
