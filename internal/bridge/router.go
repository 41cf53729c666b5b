package bridge

// Router classifies inbound broker messages and applies status batches to
// registered devices.
//
// Three message classes arrive on the shared channel: per-device status
// reports, echoes of our own published updates, and anything else. Only
// status reports are routed; echoes are deliberately ignored so a command
// is never re-applied as state.
type Router struct {
	registry *Registry
	log      Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		log:      noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(log Logger) {
	r.log = log
}

// Route dispatches a single inbound message.
//
// Malformed payloads are dropped whole: either every entry in a status
// batch applies, or none does. A device that reports before its
// registration completes is logged and dropped, never an error.
func (r *Router) Route(topic string, payload []byte) {
	deviceID, kind, err := ParseTopic(topic)
	if err != nil {
		r.log.Warn("dropping message on unknown topic", "topic", topic)
		return
	}

	switch kind {
	case KindStatus:
		// Routed below.
	case KindUpdate:
		// Echo of our own command, never re-applied.
		r.log.Debug("ignoring update echo", "device_id", deviceID)
		return
	default:
		r.log.Warn("dropping message on unknown topic", "topic", topic)
		return
	}

	device, ok := r.registry.Lookup(deviceID)
	if !ok {
		r.log.Warn("status received for unknown device", "device_id", deviceID)
		return
	}

	updates, err := DecodeUpdates(payload)
	if err != nil {
		r.log.Warn("discarding malformed status batch",
			"device_id", deviceID,
			"error", err,
		)
		return
	}

	device.ApplyUpdates(updates)
	r.log.Debug("status applied", "device_id", deviceID, "updates", len(updates))
}
