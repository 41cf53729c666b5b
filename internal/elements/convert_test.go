package elements

import "testing"

func TestDecodeBrightness(t *testing.T) {
	tests := []struct {
		name    string
		pct     string
		want    int
		wantErr bool
	}{
		{name: "zero", pct: "0", want: 0},
		{name: "one percent rounds up", pct: "1", want: 3},
		{name: "typical report", pct: "39", want: 100},
		{name: "half rounds up", pct: "50", want: 128},
		{name: "full", pct: "100", want: 255},
		{name: "garbage", pct: "bright", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeBrightness(tt.pct)
			if tt.wantErr {
				if err == nil {
					t.Fatal("decodeBrightness() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeBrightness() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decodeBrightness(%q) = %d, want %d", tt.pct, got, tt.want)
			}
		})
	}
}

func TestEncodeBrightness(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  string
	}{
		{name: "zero", level: 0, want: "0"},
		{name: "one rounds up", level: 1, want: "1"},
		{name: "half", level: 128, want: "51"},
		{name: "three quarters", level: 192, want: "76"},
		{name: "full", level: 255, want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeBrightness(tt.level); got != tt.want {
				t.Errorf("encodeBrightness(%d) = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestDecodeColorTemp(t *testing.T) {
	tests := []struct {
		name    string
		pct     string
		want    int
		wantErr bool
	}{
		{name: "warmest", pct: "0", want: 400},
		{name: "coolest", pct: "100", want: 154},
		{name: "mid", pct: "50", want: 277},
		{name: "typical report", pct: "61", want: 250},
		{name: "garbage", pct: "warm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeColorTemp(tt.pct, MinMireds, MaxMireds)
			if tt.wantErr {
				if err == nil {
					t.Fatal("decodeColorTemp() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeColorTemp() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decodeColorTemp(%q) = %d, want %d", tt.pct, got, tt.want)
			}
		})
	}
}

func TestEncodeColorTemp(t *testing.T) {
	tests := []struct {
		name   string
		mireds int
		want   string
	}{
		{name: "warmest", mireds: 400, want: "0"},
		{name: "coolest", mireds: 154, want: "100"},
		{name: "mid", mireds: 277, want: "50"},
		{name: "typical request", mireds: 250, want: "61"},
		{name: "daylight", mireds: 300, want: "41"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeColorTemp(tt.mireds, MinMireds, MaxMireds); got != tt.want {
				t.Errorf("encodeColorTemp(%d) = %q, want %q", tt.mireds, got, tt.want)
			}
		})
	}
}

// The wire percentage only has 100 steps over a 246 mired range, so a
// round trip may land up to two mireds cool of the request, never warm.
func TestColorTempRoundTrip(t *testing.T) {
	for mireds := MinMireds; mireds <= MaxMireds; mireds++ {
		encoded := encodeColorTemp(mireds, MinMireds, MaxMireds)
		got, err := decodeColorTemp(encoded, MinMireds, MaxMireds)
		if err != nil {
			t.Fatalf("decodeColorTemp(%q) error = %v", encoded, err)
		}
		if got > mireds || got < mireds-2 {
			t.Errorf("round trip %d -> %q -> %d, want within [%d, %d]",
				mireds, encoded, got, mireds-2, mireds)
		}
	}
}

func TestBrightnessRoundTrip(t *testing.T) {
	for level := 0; level <= 255; level++ {
		encoded := encodeBrightness(level)
		got, err := decodeBrightness(encoded)
		if err != nil {
			t.Fatalf("decodeBrightness(%q) error = %v", encoded, err)
		}
		if got < level || got > level+3 {
			t.Errorf("round trip %d -> %q -> %d, want within [%d, %d]",
				level, encoded, got, level, level+3)
		}
	}
}
