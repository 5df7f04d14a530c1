package influxdb

import (
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/smartthings-bridge/internal/dispatch"
)

// WriteEvent records a single normalized device event.
//
// This is the primary method for building the local event history.
// The write is non-blocking; points are batched and sent asynchronously.
//
// Tags carry the low-cardinality identity (device, component, capability,
// attribute); the value lands in a type-appropriate field. Booleans are
// additionally flattened to 0/1 in "value" so numeric queries can span
// on/off style attributes.
//
// Parameters:
//   - evt: The normalized event to record
func (c *Client) WriteEvent(evt dispatch.Event) {
	if !c.IsConnected() {
		return
	}

	fields := eventFields(evt.Value)
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"device_events",
		map[string]string{
			"device_id":    evt.DeviceID,
			"component_id": evt.ComponentID,
			"capability":   evt.Capability,
			"attribute":    evt.Attribute,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// eventFields converts an attribute value into InfluxDB fields.
//
// JSON decoding delivers numbers as float64; integers appear when events
// are constructed in-process.
func eventFields(value any) map[string]interface{} {
	switch v := value.(type) {
	case float64:
		return map[string]interface{}{"value": v}
	case int:
		return map[string]interface{}{"value": float64(v)}
	case int64:
		return map[string]interface{}{"value": float64(v)}
	case bool:
		numeric := 0.0
		if v {
			numeric = 1.0
		}
		return map[string]interface{}{"value": numeric, "value_bool": v}
	case string:
		return map[string]interface{}{"value_str": v}
	case nil:
		return nil
	default:
		return map[string]interface{}{"value_str": fmt.Sprintf("%v", v)}
	}
}

// EventSink returns a dispatcher sink that records every normalized event.
func (c *Client) EventSink() dispatch.Sink {
	return func(evt dispatch.Event) {
		c.WriteEvent(evt)
	}
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the event helper.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
