package elements

import "testing"

func TestFlattenDescriptor(t *testing.T) {
	raw := map[string]any{
		"deviceUuid":        "B0CE18140000AA11",
		"name":              "Porch",
		"typeCode":          "W21-N13",
		"version":           "V1.0.0.12",
		"supportAttributes": "brightness,colorTemperature",
		"onCount":           float64(3),
		"roomId":            nil,
		"attributeList": []any{
			map[string]any{"name": "switch", "value": "1"},
			map[string]any{"name": "name", "value": "Porch Light"},
			map[string]any{"name": "brightness", "value": "39"},
			"bogus",
			map[string]any{"name": "online", "value": float64(1)},
		},
	}

	log := &captureLogger{}
	flat := FlattenDescriptor(raw, log)

	want := map[string]string{
		"deviceUuid":        "B0CE18140000AA11",
		"name":              "Porch Light", // attributeList wins over the top-level field
		"typeCode":          "W21-N13",
		"version":           "V1.0.0.12",
		"supportAttributes": "brightness,colorTemperature",
		"switch":            "1",
		"brightness":        "39",
	}
	if len(flat) != len(want) {
		t.Errorf("flattened %d fields, want %d: %v", len(flat), len(want), flat)
	}
	for key, value := range want {
		if flat[key] != value {
			t.Errorf("flat[%q] = %q, want %q", key, flat[key], value)
		}
	}

	// The numeric field, the bogus entry and the non-string attribute
	// value each warn.
	if got := log.warnCount(); got != 3 {
		t.Errorf("warnings = %d, want 3", got)
	}
}

func TestFlattenDescriptor_NilLogger(t *testing.T) {
	flat := FlattenDescriptor(map[string]any{
		"deviceUuid": "aa11",
		"onCount":    float64(7),
	}, nil)

	if flat["deviceUuid"] != "aa11" {
		t.Errorf("flat[deviceUuid] = %q, want aa11", flat["deviceUuid"])
	}
	if _, ok := flat["onCount"]; ok {
		t.Error("non-string field survived flattening")
	}
}

func TestFlattenDescriptor_Empty(t *testing.T) {
	flat := FlattenDescriptor(map[string]any{}, nil)
	if len(flat) != 0 {
		t.Errorf("flattened %d fields from empty descriptor", len(flat))
	}
}
