package bridge

import "sync"

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
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

// Device is the contract the registry and router expect from device objects.
//
// A device exposes a stable identifier, the broker topics it wants
// subscribed, and an update-application method that merges a batch of
// state directives.
type Device interface {
	// ID returns the stable device identifier used in topic names.
	ID() string

	// Topics returns the broker topics to subscribe for this device.
	Topics() []string

	// ApplyUpdates merges a batch of state directives into the device,
	// last write wins per type key.
	ApplyUpdates(updates []Update)
}

// Registry is the shared set of known devices, keyed by identifier.
//
// It is the sole state shared between the inbound message path and
// registration callers, so every access holds a short lock that never
// spans I/O. Devices are never removed; re-registering an identifier
// replaces the device but keeps its original position.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]Device
	order   []string
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]Device),
	}
}

// Register adds a device, replacing any existing device with the same
// identifier.
func (r *Registry) Register(d Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := d.ID()
	if _, exists := r.devices[id]; !exists {
		r.order = append(r.order, id)
	}
	r.devices[id] = d
}

// Lookup retrieves a device by identifier.
func (r *Registry) Lookup(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	return d, ok
}

// Snapshot returns the registered devices in registration order.
// The returned slice is a copy; callers may iterate without holding locks.
func (r *Registry) Snapshot() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.order))
	for _, id := range r.order {
		devices = append(devices, r.devices[id])
	}
	return devices
}

// Topics returns the distinct topics of all registered devices, in
// registration order.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var topics []string
	for _, id := range r.order {
		for _, topic := range r.devices[id].Topics() {
			if _, dup := seen[topic]; dup {
				continue
			}
			seen[topic] = struct{}{}
			topics = append(topics, topic)
		}
	}
	return topics
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
