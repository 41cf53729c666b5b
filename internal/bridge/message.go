package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Update is a single {type, value} state directive.
//
// Devices report state as batches of updates on their status topic, and
// accept commands as batches of updates on their update topic. The cloud
// is inconsistent about value encoding (strings and bare numbers both
// appear), so values are normalised to strings on decode.
type Update struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// UnmarshalJSON decodes an update, accepting both string and numeric values.
// Any other value shape (object, array, boolean, null) is malformed.
func (u *Update) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedUpdate, err)
	}
	if raw.Type == "" {
		return fmt.Errorf("%w: missing type", ErrMalformedUpdate)
	}
	if len(raw.Value) == 0 {
		return fmt.Errorf("%w: missing value for %q", ErrMalformedUpdate, raw.Type)
	}

	var s string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		u.Type = raw.Type
		u.Value = s
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(raw.Value, &n); err != nil {
		return fmt.Errorf("%w: unsupported value %s for %q", ErrMalformedUpdate, raw.Value, raw.Type)
	}
	u.Type = raw.Type
	u.Value = n.String()
	return nil
}

// DecodeUpdates parses a status payload into a batch of updates.
//
// The payload must be a JSON array of {type, value} entries. Null and empty
// entries are skipped; any other malformed entry rejects the whole batch so
// a partial state merge never occurs.
func DecodeUpdates(payload []byte) ([]Update, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("%w: payload is not a list: %w", ErrMalformedUpdate, err)
	}

	updates := make([]Update, 0, len(entries))
	for _, entry := range entries {
		if isEmptyEntry(entry) {
			continue
		}
		var u Update
		if err := json.Unmarshal(entry, &u); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// isEmptyEntry reports whether an array entry carries no content at all.
func isEmptyEntry(entry json.RawMessage) bool {
	trimmed := bytes.TrimSpace(entry)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte("{}"))
}
