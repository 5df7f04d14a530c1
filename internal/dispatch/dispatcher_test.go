package dispatch

import (
	"errors"
	"sort"
	"sync"
	"testing"
)

func testEvent(deviceID string) Event {
	return Event{
		DeviceID:    deviceID,
		ComponentID: "main",
		Capability:  "switch",
		Attribute:   "switch",
		Value:       "on",
	}
}

func TestDispatcher_RegisterAndDispatch(t *testing.T) {
	d := NewDispatcher()

	var got []Event
	d.Register("dev-1", func(ev Event) error {
		got = append(got, ev)
		return nil
	})

	d.Dispatch(testEvent("dev-1"))

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].DeviceID != "dev-1" {
		t.Errorf("DeviceID = %q, want %q", got[0].DeviceID, "dev-1")
	}
	if !d.IsRegistered("dev-1") {
		t.Error("dev-1 should be registered")
	}
}

func TestDispatcher_UnregisteredEventDropped(t *testing.T) {
	d := NewDispatcher()

	called := false
	d.Register("dev-1", func(ev Event) error {
		called = true
		return nil
	})

	// Event for a different device must not reach the consumer
	d.Dispatch(testEvent("dev-2"))

	if called {
		t.Error("consumer for dev-1 should not see dev-2 events")
	}
}

func TestDispatcher_ConsumerErrorIsolated(t *testing.T) {
	d := NewDispatcher()

	d.Register("dev-1", func(ev Event) error {
		return errors.New("consumer broke")
	})

	// Must not panic or propagate
	d.Dispatch(testEvent("dev-1"))
}

func TestDispatcher_ConsumerPanicIsolated(t *testing.T) {
	d := NewDispatcher()

	d.Register("dev-1", func(ev Event) error {
		panic("consumer exploded")
	})

	d.Dispatch(testEvent("dev-1"))

	// Dispatcher still works afterwards
	delivered := false
	d.Register("dev-2", func(ev Event) error {
		delivered = true
		return nil
	})
	d.Dispatch(testEvent("dev-2"))

	if !delivered {
		t.Error("dispatcher should keep delivering after a consumer panic")
	}
}

func TestDispatcher_SinksSeeEverything(t *testing.T) {
	d := NewDispatcher()

	var sinkEvents []Event
	d.AddSink(func(ev Event) {
		sinkEvents = append(sinkEvents, ev)
	})

	d.Register("dev-1", func(ev Event) error { return nil })

	// Registered and unregistered devices both reach the sink
	d.Dispatch(testEvent("dev-1"))
	d.Dispatch(testEvent("dev-unknown"))

	if len(sinkEvents) != 2 {
		t.Errorf("sink saw %d events, want 2", len(sinkEvents))
	}
}

func TestDispatcher_TrackAndRemove(t *testing.T) {
	d := NewDispatcher()

	d.Track("dev-1")
	if !d.IsRegistered("dev-1") {
		t.Error("tracked device should be registered")
	}
	if d.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Count())
	}

	// Tracked devices have no consumer; dispatch is a silent drop
	d.Dispatch(testEvent("dev-1"))

	d.Remove("dev-1")
	if d.IsRegistered("dev-1") {
		t.Error("removed device should not be registered")
	}
	if d.Count() != 0 {
		t.Errorf("Count() = %d, want 0", d.Count())
	}
}

func TestDispatcher_RegisteredIDs(t *testing.T) {
	d := NewDispatcher()
	d.Register("dev-b", func(Event) error { return nil })
	d.Track("dev-a")

	ids := d.RegisteredIDs()
	sort.Strings(ids)

	if len(ids) != 2 || ids[0] != "dev-a" || ids[1] != "dev-b" {
		t.Errorf("RegisteredIDs() = %v, want [dev-a dev-b]", ids)
	}
}

func TestDispatcher_OnRegisterCallback(t *testing.T) {
	d := NewDispatcher()

	var notified []string
	d.SetOnRegister(func(deviceID string) {
		notified = append(notified, deviceID)
	})

	d.Register("dev-1", func(Event) error { return nil })
	d.Track("dev-2") // Track must not trigger the callback

	if len(notified) != 1 || notified[0] != "dev-1" {
		t.Errorf("onRegister notified = %v, want [dev-1]", notified)
	}
}

func TestDispatcher_Lifecycle(t *testing.T) {
	d := NewDispatcher()

	var got []LifecycleEvent
	d.RegisterLifecycle(func(ev LifecycleEvent) error {
		got = append(got, ev)
		return nil
	})
	d.RegisterLifecycle(func(ev LifecycleEvent) error {
		return errors.New("broken lifecycle consumer")
	})

	d.DispatchLifecycle(LifecycleEvent{
		Lifecycle: LifecycleCreate,
		DeviceID:  "dev-9",
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 lifecycle event, got %d", len(got))
	}
	if got[0].Lifecycle != LifecycleCreate {
		t.Errorf("Lifecycle = %q, want CREATE", got[0].Lifecycle)
	}
}

func TestDispatcher_ConcurrentAccess(t *testing.T) {
	d := NewDispatcher()
	d.AddSink(func(Event) {})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			d.Register(id, func(Event) error { return nil })
			d.IsRegistered(id)
			d.RegisteredIDs()
		}(i)
		go func() {
			defer wg.Done()
			d.Dispatch(testEvent("a"))
		}()
	}
	wg.Wait()
}
