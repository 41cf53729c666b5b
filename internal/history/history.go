// Package history provides a local audit trail of bulb state changes.
//
// Every applied status batch and issued command can be recorded as a
// full attribute snapshot in SQLite, so the recent behaviour of a bulb
// can be inspected even when no time-series database is configured.
package history

import (
	"context"
	"time"
)

// Source values identifying how a state change was recorded.
const (
	// SourceStatus marks snapshots taken when a status message arrived.
	SourceStatus = "status"

	// SourceCommand marks snapshots taken when a command was issued.
	SourceCommand = "command"
)

// Entry represents a single recorded state change.
//
// Each entry stores the full attribute snapshot at the time the change
// was observed, not a delta.
type Entry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the cloud identifier of the bulb.
	DeviceID string `json:"device_id"`

	// State is the attribute snapshot at the time of the change.
	State map[string]string `json:"state"`

	// Source identifies how the change was recorded (status, command).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the change (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves bulb state change history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// Record persists a state change snapshot.
	Record(ctx context.Context, deviceID string, state map[string]string, source string) error

	// Recent returns recent state changes for the device, newest first.
	// The limit is clamped by the implementation.
	Recent(ctx context.Context, deviceID string, limit int) ([]Entry, error)
}
