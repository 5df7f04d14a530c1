package smartapp

import (
	"context"
	"testing"

	"github.com/nerrad567/smartthings-bridge/internal/dispatch"
	"github.com/nerrad567/smartthings-bridge/internal/smartthings"
)

func deviceSub(deviceID string) smartthings.Subscription {
	return smartthings.Subscription{
		SourceType: smartthings.SourceTypeDevice,
		Device:     &smartthings.DeviceSubscriptionDetail{DeviceID: deviceID},
	}
}

func lifecycleSub() smartthings.Subscription {
	return smartthings.Subscription{
		SourceType:      smartthings.SourceTypeDeviceLifecycle,
		DeviceLifecycle: &smartthings.DeviceLifecycleSubscriptionDetail{LocationID: "loc-1"},
	}
}

func TestReconcile_CreatesOnlyMissing(t *testing.T) {
	platform := &mockPlatform{
		subscriptions: []smartthings.Subscription{
			deviceSub("dev-1"),
			lifecycleSub(),
		},
	}
	h, d, _ := newTestHandler(platform)

	h.Handle(context.Background(), installMessage())
	platform.mu.Lock()
	platform.createdDevices = nil // Reset install-time creates
	platform.lifecycleCalls = 0
	platform.mu.Unlock()

	d.Track("dev-1")
	d.Track("dev-2")
	d.Track("dev-3")

	if err := h.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	created := h.platform.(*mockPlatform).created()
	if len(created) != 2 {
		t.Fatalf("created = %v, want exactly the missing two", created)
	}
	for _, id := range created {
		if id == "dev-1" {
			t.Error("dev-1 already has a subscription, must not be recreated")
		}
	}

	// Lifecycle subscription already present remotely
	if platform.lifecycleCalls != 0 {
		t.Errorf("lifecycleCalls = %d, want 0", platform.lifecycleCalls)
	}
}

func TestReconcile_NeverDeletes(t *testing.T) {
	// Remote has a stale subscription for a device no longer registered
	platform := &mockPlatform{
		subscriptions: []smartthings.Subscription{
			deviceSub("dev-stale"),
			lifecycleSub(),
		},
	}
	h, _, _ := newTestHandler(platform)

	h.Handle(context.Background(), installMessage())
	if err := h.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if platform.deleteCalls != 0 {
		t.Errorf("deleteCalls = %d, want 0 (routine sync never deletes)", platform.deleteCalls)
	}
}

func TestReconcile_ConflictIsSuccess(t *testing.T) {
	platform := &mockPlatform{createErr: smartthings.ErrConflict}
	h, d, _ := newTestHandler(platform)

	h.Handle(context.Background(), installMessage())
	d.Track("dev-1")

	// Conflict must not surface as a failure
	if err := h.Reconcile(context.Background()); err != nil {
		t.Errorf("Reconcile() error = %v, want nil on 409", err)
	}
}

func TestReconcile_NotInstalled(t *testing.T) {
	h, d, _ := newTestHandler(&mockPlatform{})
	d.Track("dev-1")

	if err := h.Reconcile(context.Background()); err == nil {
		t.Error("Reconcile() without credentials should error")
	}
}

func TestReconcile_EnsuresLifecycleSubscription(t *testing.T) {
	// Remote has device subscriptions but no lifecycle subscription
	platform := &mockPlatform{
		subscriptions: []smartthings.Subscription{deviceSub("dev-1")},
	}
	h, d, _ := newTestHandler(platform)

	h.Handle(context.Background(), installMessage())
	platform.mu.Lock()
	platform.lifecycleCalls = 0
	platform.mu.Unlock()

	d.Track("dev-1")
	if err := h.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if platform.lifecycleCalls != 1 {
		t.Errorf("lifecycleCalls = %d, want 1", platform.lifecycleCalls)
	}
}

func TestDeviceRegistered_CreatesSubscription(t *testing.T) {
	platform := &mockPlatform{}
	h, d, _ := newTestHandler(platform)

	h.Handle(context.Background(), installMessage())

	// Registration callback path: Register triggers DeviceRegistered
	d.Register("dev-late", func(dispatch.Event) error { return nil })

	found := false
	for _, id := range platform.created() {
		if id == "dev-late" {
			found = true
		}
	}
	if !found {
		t.Error("late registration should create a subscription immediately")
	}
}

func TestDeviceRegistered_NoopBeforeInstall(t *testing.T) {
	platform := &mockPlatform{}
	h, _, _ := newTestHandler(platform)

	h.DeviceRegistered(context.Background(), "dev-1")

	if len(platform.created()) != 0 {
		t.Error("DeviceRegistered before install must not call the platform")
	}
}
