package influxdb

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/smartthings-bridge/internal/dispatch"
	"github.com/nerrad567/smartthings-bridge/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestEventFields(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  map[string]interface{}
	}{
		{"float", 21.5, map[string]interface{}{"value": 21.5}},
		{"int", 42, map[string]interface{}{"value": 42.0}},
		{"int64", int64(7), map[string]interface{}{"value": 7.0}},
		{"bool true", true, map[string]interface{}{"value": 1.0, "value_bool": true}},
		{"bool false", false, map[string]interface{}{"value": 0.0, "value_bool": false}},
		{"string", "on", map[string]interface{}{"value_str": "on"}},
		{"nil", nil, nil},
		{"fallback", []int{1, 2}, map[string]interface{}{"value_str": "[1 2]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eventFields(tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("eventFields(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestWriteEvent_NotConnected(t *testing.T) {
	c := &Client{}

	// Must be a silent no-op, not a panic
	c.WriteEvent(dispatch.Event{DeviceID: "d", Value: 1.0})
	c.EventSink()(dispatch.Event{DeviceID: "d", Value: "on"})
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v, want nil", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestFlush_SafeWhenClosed(t *testing.T) {
	c := &Client{}
	c.Flush()
}
