// Package mqtt mirrors bridge events to a local MQTT broker.
//
// The client is publisher-only: the bridge is a source of SmartThings
// events, never a command target. It wraps paho.mqtt.golang with
// connection management, Last Will and Testament for offline detection,
// and automatic reconnection with exponential backoff.
//
// Topic hierarchy:
//
//	stbridge/event/device/{deviceId}     normalized device events
//	stbridge/event/lifecycle/{deviceId}  device lifecycle events
//	stbridge/system/status               online/offline status (retained)
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
package mqtt
