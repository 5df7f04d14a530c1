// Package dispatch routes normalized SmartThings events to local consumers.
//
// The Dispatcher owns the device registration set: the device IDs the
// bridge cares about. Consumers register a callback per device ID; events
// for unregistered devices are dropped. Sinks observe every event
// regardless of registration and feed the optional transports (MQTT
// mirror, InfluxDB history, WebSocket feed).
//
// A consumer failure is that consumer's problem: errors and panics are
// logged and never propagate to the webhook request or to other consumers.
//
// The Poller provides the fallback delivery path for bridges that cannot
// receive direct webhooks: it long-polls a relay service and pushes each
// returned event through the same Dispatch path.
package dispatch
