package dispatch

import "sync"

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Dispatcher fans events out to per-device consumers and global sinks, and
// owns the device registration set.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Registration changes and
//     event dispatch arrive on independent goroutines.
type Dispatcher struct {
	mu sync.RWMutex

	// consumers maps device ID to its callback.
	consumers map[string]Consumer

	// registered is the full registration set. Superset of the consumer
	// map: devices discovered via lifecycle CREATE are tracked here
	// without a callback.
	registered map[string]bool

	lifecycleConsumers []LifecycleConsumer
	sinks              []Sink

	// onRegister is notified with the device ID after each Register.
	// Wired to the subscription layer so a new registration triggers a
	// remote subscription create.
	onRegister func(deviceID string)

	logger Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		consumers:  make(map[string]Consumer),
		registered: make(map[string]bool),
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.mu.Lock()
	d.logger = logger
	d.mu.Unlock()
}

// SetOnRegister sets the callback invoked after each Register.
// Must be set before consumers start registering.
func (d *Dispatcher) SetOnRegister(fn func(deviceID string)) {
	d.mu.Lock()
	d.onRegister = fn
	d.mu.Unlock()
}

// Register adds a consumer for a device and marks the device registered.
// Registering the same device again replaces the consumer.
//
// Parameters:
//   - deviceID: SmartThings device ID
//   - consumer: Callback for that device's events
func (d *Dispatcher) Register(deviceID string, consumer Consumer) {
	d.mu.Lock()
	d.consumers[deviceID] = consumer
	d.registered[deviceID] = true
	onRegister := d.onRegister
	d.mu.Unlock()

	d.logger.Debug("device registered", "device_id", deviceID)

	if onRegister != nil {
		onRegister(deviceID)
	}
}

// Track marks a device registered without attaching a consumer.
// Used for devices discovered through lifecycle CREATE notifications.
func (d *Dispatcher) Track(deviceID string) {
	d.mu.Lock()
	d.registered[deviceID] = true
	d.mu.Unlock()

	d.logger.Debug("device tracked", "device_id", deviceID)
}

// Remove drops a device from the registration set and removes its consumer.
// Only explicit removal (lifecycle DELETE) shrinks the set.
func (d *Dispatcher) Remove(deviceID string) {
	d.mu.Lock()
	delete(d.consumers, deviceID)
	delete(d.registered, deviceID)
	d.mu.Unlock()

	d.logger.Debug("device removed", "device_id", deviceID)
}

// IsRegistered reports whether a device is in the registration set.
func (d *Dispatcher) IsRegistered(deviceID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.registered[deviceID]
}

// RegisteredIDs returns a snapshot of the registration set.
func (d *Dispatcher) RegisteredIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.registered))
	for id := range d.registered {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the size of the registration set.
func (d *Dispatcher) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.registered)
}

// AddSink adds an observer that receives every dispatched event.
// Sinks must be added during wiring, before events flow.
func (d *Dispatcher) AddSink(sink Sink) {
	d.mu.Lock()
	d.sinks = append(d.sinks, sink)
	d.mu.Unlock()
}

// RegisterLifecycle adds a consumer for device lifecycle notifications.
func (d *Dispatcher) RegisterLifecycle(consumer LifecycleConsumer) {
	d.mu.Lock()
	d.lifecycleConsumers = append(d.lifecycleConsumers, consumer)
	d.mu.Unlock()
}

// Dispatch routes an event to its device's consumer and to every sink.
//
// No consumer for the device is a silent drop (debug log). A consumer
// error or panic is logged and never propagated; one broken consumer must
// not take down event delivery.
func (d *Dispatcher) Dispatch(ev Event) {
	d.mu.RLock()
	consumer := d.consumers[ev.DeviceID]
	sinks := d.sinks
	logger := d.logger
	d.mu.RUnlock()

	// Sinks see everything, registered or not
	for _, sink := range sinks {
		sink(ev)
	}

	if consumer == nil {
		logger.Debug("no consumer for event, dropping",
			"device_id", ev.DeviceID,
			"capability", ev.Capability,
			"attribute", ev.Attribute,
		)
		return
	}

	d.invoke(consumer, ev, logger)
}

// invoke runs one consumer with panic isolation.
func (d *Dispatcher) invoke(consumer Consumer, ev Event, logger Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("consumer panicked",
				"device_id", ev.DeviceID,
				"panic", r,
			)
		}
	}()

	if err := consumer(ev); err != nil {
		logger.Error("consumer failed",
			"device_id", ev.DeviceID,
			"capability", ev.Capability,
			"error", err,
		)
	}
}

// DispatchLifecycle forwards a device lifecycle notification to every
// lifecycle consumer. Errors and panics are logged, never propagated.
func (d *Dispatcher) DispatchLifecycle(ev LifecycleEvent) {
	d.mu.RLock()
	consumers := d.lifecycleConsumers
	logger := d.logger
	d.mu.RUnlock()

	for _, consumer := range consumers {
		d.invokeLifecycle(consumer, ev, logger)
	}
}

// invokeLifecycle runs one lifecycle consumer with panic isolation.
func (d *Dispatcher) invokeLifecycle(consumer LifecycleConsumer, ev LifecycleEvent, logger Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("lifecycle consumer panicked",
				"device_id", ev.DeviceID,
				"panic", r,
			)
		}
	}()

	if err := consumer(ev); err != nil {
		logger.Error("lifecycle consumer failed",
			"device_id", ev.DeviceID,
			"lifecycle", string(ev.Lifecycle),
			"error", err,
		)
	}
}
