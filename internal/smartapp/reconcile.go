package smartapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/smartthings-bridge/internal/crashloop"
	"github.com/nerrad567/smartthings-bridge/internal/smartthings"
)

// Reconcile aligns the remote subscription set with the local registration
// set by creating exactly what is missing.
//
// Algorithm: list remote subscriptions, project the DEVICE items to a
// device-ID set, create a subscription for every registered device not in
// that set, and create the location's DEVICE_LIFECYCLE subscription if
// absent. 409 conflicts are success (another path already created it).
// Routine reconciliation never deletes; stale remote subscriptions are only
// swept by the UPDATE phase.
//
// Per-device failures are counted and logged as an aggregate rather than
// failing the pass.
//
// Returns:
//   - error: If the remote list could not be fetched (nothing was synced)
func (h *Handler) Reconcile(ctx context.Context) error {
	creds := h.creds.Get()
	if !creds.Installed() {
		return errors.New("smartapp: not installed, nothing to reconcile")
	}

	subs, err := h.platform.ListSubscriptions(ctx, creds.AuthToken, creds.InstalledAppID)
	if err != nil {
		h.recordCrash(ctx, crashloop.KindSubscriptionSyncFailure)
		return fmt.Errorf("listing remote subscriptions: %w", err)
	}

	remote := smartthings.DeviceIDs(subs)
	registered := h.dispatcher.RegisteredIDs()

	created, failed := 0, 0
	for _, deviceID := range registered {
		if remote[deviceID] {
			continue
		}
		if err := h.createDeviceSubscription(ctx, creds.AuthToken, creds.InstalledAppID, deviceID); err != nil {
			failed++
			h.logger.Error("subscription create failed",
				"device_id", deviceID,
				"error", err,
			)
			continue
		}
		created++
	}

	if !smartthings.HasLifecycle(subs) && creds.LocationID != "" {
		if err := h.createLifecycleSubscription(ctx, creds.AuthToken, creds.InstalledAppID, creds.LocationID); err != nil {
			failed++
			h.logger.Error("lifecycle subscription create failed", "error", err)
		}
	}

	h.synced.Store(true)
	h.logger.Info("subscriptions reconciled",
		"registered", len(registered),
		"remote", len(remote),
		"created", created,
		"failed", failed,
	)
	return nil
}

// recreateAll rebuilds the remote set from scratch for the UPDATE phase:
// delete everything, then create the full registration plus the lifecycle
// subscription. A failed delete is logged and the creates proceed anyway;
// leftover subscriptions surface as absorbed 409s.
func (h *Handler) recreateAll(ctx context.Context) {
	creds := h.creds.Get()
	if !creds.Installed() {
		return
	}

	if err := h.platform.DeleteAllSubscriptions(ctx, creds.AuthToken, creds.InstalledAppID); err != nil {
		h.logger.Error("subscription delete-all failed, recreating over existing", "error", err)
	}

	created, failed := 0, 0
	for _, deviceID := range h.dispatcher.RegisteredIDs() {
		if err := h.createDeviceSubscription(ctx, creds.AuthToken, creds.InstalledAppID, deviceID); err != nil {
			failed++
			h.logger.Error("subscription create failed",
				"device_id", deviceID,
				"error", err,
			)
			continue
		}
		created++
	}

	if creds.LocationID != "" {
		if err := h.createLifecycleSubscription(ctx, creds.AuthToken, creds.InstalledAppID, creds.LocationID); err != nil {
			failed++
			h.logger.Error("lifecycle subscription create failed", "error", err)
		}
	}

	if failed > 0 {
		h.recordCrash(ctx, crashloop.KindSubscriptionSyncFailure)
	}

	h.synced.Store(true)
	h.logger.Info("subscriptions recreated", "created", created, "failed", failed)
}

// DeviceRegistered issues a single subscription create for a newly
// registered device. Invoked through the dispatcher's registration
// callback. Before installation it is a no-op; install-time reconciliation
// will pick the device up.
func (h *Handler) DeviceRegistered(ctx context.Context, deviceID string) {
	creds := h.creds.Get()
	if !creds.Installed() {
		return
	}

	h.subscribeDevice(ctx, deviceID)
}

// subscribeDevice creates one device subscription, absorbing conflicts.
func (h *Handler) subscribeDevice(ctx context.Context, deviceID string) {
	creds := h.creds.Get()
	if !creds.Installed() {
		return
	}

	if err := h.createDeviceSubscription(ctx, creds.AuthToken, creds.InstalledAppID, deviceID); err != nil {
		h.logger.Error("subscription create failed", "device_id", deviceID, "error", err)
	}
}

// createDeviceSubscription wraps the platform call, mapping ErrConflict to
// success.
func (h *Handler) createDeviceSubscription(ctx context.Context, token, installedAppID, deviceID string) error {
	err := h.platform.CreateDeviceSubscription(ctx, token, installedAppID, deviceID)
	if errors.Is(err, smartthings.ErrConflict) {
		h.logger.Debug("subscription already exists", "device_id", deviceID)
		return nil
	}
	return err
}

// createLifecycleSubscription wraps the platform call, mapping ErrConflict
// to success.
func (h *Handler) createLifecycleSubscription(ctx context.Context, token, installedAppID, locationID string) error {
	err := h.platform.CreateLifecycleSubscription(ctx, token, installedAppID, locationID)
	if errors.Is(err, smartthings.ErrConflict) {
		h.logger.Debug("lifecycle subscription already exists")
		return nil
	}
	return err
}
