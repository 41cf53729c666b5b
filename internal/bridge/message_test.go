package bridge

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeUpdates(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []Update
		wantErr bool
	}{
		{
			name:    "string values",
			payload: `[{"type":"switch","value":"1"},{"type":"brightness","value":"55"}]`,
			want: []Update{
				{Type: "switch", Value: "1"},
				{Type: "brightness", Value: "55"},
			},
		},
		{
			name:    "numeric value normalised to string",
			payload: `[{"type":"brightness","value":55}]`,
			want:    []Update{{Type: "brightness", Value: "55"}},
		},
		{
			name:    "extra fields ignored",
			payload: `[{"type":"switch","value":"0","dn":"abc","time":1700000000000}]`,
			want:    []Update{{Type: "switch", Value: "0"}},
		},
		{
			name:    "null entries skipped",
			payload: `[null,{"type":"online","value":"1"},{}]`,
			want:    []Update{{Type: "online", Value: "1"}},
		},
		{
			name:    "empty list",
			payload: `[]`,
			want:    []Update{},
		},
		{
			name:    "not a list",
			payload: `{"type":"switch","value":"1"}`,
			wantErr: true,
		},
		{
			name:    "missing type rejects whole batch",
			payload: `[{"type":"switch","value":"1"},{"value":"2"}]`,
			wantErr: true,
		},
		{
			name:    "missing value rejects whole batch",
			payload: `[{"type":"switch"}]`,
			wantErr: true,
		},
		{
			name:    "boolean value rejected",
			payload: `[{"type":"switch","value":true}]`,
			wantErr: true,
		},
		{
			name:    "object value rejected",
			payload: `[{"type":"switch","value":{"on":1}}]`,
			wantErr: true,
		},
		{
			name:    "not json at all",
			payload: `hello`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUpdates([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("DecodeUpdates() expected error, got nil")
				}
				if !errors.Is(err, ErrMalformedUpdate) {
					t.Errorf("DecodeUpdates() error = %v, want ErrMalformedUpdate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeUpdates() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("DecodeUpdates() returned %d updates, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("update[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUpdate_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(Update{Type: "colorTemperature", Value: "61"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"type":"colorTemperature","value":"61"}`
	if string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestUpdate_FloatValue(t *testing.T) {
	updates, err := DecodeUpdates([]byte(`[{"type":"consumption","value":1.5}]`))
	if err != nil {
		t.Fatalf("DecodeUpdates() error = %v", err)
	}
	if updates[0].Value != "1.5" {
		t.Errorf("Value = %q, want %q", updates[0].Value, "1.5")
	}
}
