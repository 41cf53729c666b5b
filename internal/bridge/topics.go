package bridge

import (
	"fmt"
	"strings"
)

// TopicPrefix is the base for all per-device topics on the cloud broker.
//
// The broker uses a flat scheme: wifielement/{deviceId}/{kind}
const TopicPrefix = "wifielement"

// Topic kinds carried under the per-device prefix.
const (
	// KindStatus carries inbound device state reports.
	KindStatus = "status"

	// KindUpdate carries outbound commands. The broker echoes published
	// updates back on the shared channel; inbound updates are ignored.
	KindUpdate = "update"
)

// StatusTopic returns the inbound state topic for a device.
//
// Example: wifielement/B0CE18140000/status
func StatusTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, deviceID, KindStatus)
}

// UpdateTopic returns the outbound command topic for a device.
//
// Example: wifielement/B0CE18140000/update
func UpdateTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, deviceID, KindUpdate)
}

// ParseTopic splits a broker topic into its device identifier and kind.
//
// The device identifier is always the second path segment. Topics outside
// the wifielement prefix, or with missing segments, return ErrMalformedTopic.
func ParseTopic(topic string) (deviceID, kind string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}
	if parts[0] != TopicPrefix {
		return "", "", fmt.Errorf("%w: unknown prefix in %q", ErrMalformedTopic, topic)
	}
	if parts[1] == "" {
		return "", "", fmt.Errorf("%w: empty device id in %q", ErrMalformedTopic, topic)
	}
	return parts[1], parts[2], nil
}
