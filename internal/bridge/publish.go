package bridge

import (
	"encoding/json"
	"time"
)

// Publisher is the outbound entry point handed to device objects.
// Implementations serialise a batch of directives and send it to the
// device's command topic, best effort.
type Publisher interface {
	Publish(topic string, updates ...Update)
}

// wireUpdate is the on-the-wire form of an outbound directive. Every entry
// in a published batch carries the device identifier and a millisecond
// timestamp alongside the directive itself.
type wireUpdate struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	DN    string `json:"dn"`
	Time  int64  `json:"time"`
}

// Gateway publishes command batches to the live channel.
//
// Outbound commands are fire and forget: a publish-time transport fault
// is logged, never propagated, and there is no delivery confirmation or
// retry at this layer. The source callback returns the channel currently
// owned by the supervisor, or nil when no connection is up.
type Gateway struct {
	source func() Conn
	now    func() time.Time
	log    Logger
}

// NewGateway creates a gateway drawing its channel from source.
func NewGateway(source func() Conn) *Gateway {
	return &Gateway{
		source: source,
		now:    time.Now,
		log:    noopLogger{},
	}
}

// SetLogger sets the logger for the gateway.
func (g *Gateway) SetLogger(log Logger) {
	g.log = log
}

// Publish sends one or more directives to a device's command topic.
//
// The device identifier is taken from the topic's second path segment and
// stamped onto every directive in the batch together with the current
// time in milliseconds.
func (g *Gateway) Publish(topic string, updates ...Update) {
	deviceID, _, err := ParseTopic(topic)
	if err != nil {
		g.log.Warn("dropping command for malformed topic", "topic", topic)
		return
	}

	conn := g.source()
	if conn == nil {
		g.log.Warn("no active connection, dropping command",
			"topic", topic,
			"updates", len(updates),
		)
		return
	}

	stamp := g.now().UnixMilli()
	batch := make([]wireUpdate, 0, len(updates))
	for _, u := range updates {
		batch = append(batch, wireUpdate{
			Type:  u.Type,
			Value: u.Value,
			DN:    deviceID,
			Time:  stamp,
		})
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		g.log.Error("failed to encode command batch", "topic", topic, "error", err)
		return
	}

	if err := conn.Publish(topic, payload); err != nil {
		g.log.Error("failed to publish command", "topic", topic, "error", err)
		return
	}
	g.log.Debug("command published", "topic", topic, "updates", len(batch))
}
