package elements

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/nerrad567/sengled-bridge/internal/bridge"
)

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

// Color mode names reported by ColorMode.
const (
	ColorModeBrightness = "brightness"
	ColorModeColorTemp  = "color_temp"
	ColorModeRGB        = "rgb"
)

// knownModels lists hardware this package has been verified against.
// Unknown models still work through the generic attribute model.
var knownModels = map[string]bool{
	"W21-N13": true,
	"W21-N11": true,
	"W31-N11": true,
}

// effects selectable on color-capable bulbs. "none" stops the running
// effect.
var effects = []string{
	"christmas",
	"colorCycle",
	"festival",
	"halloween",
	"randomColor",
	"rhythm",
	"none",
}

// Capabilities holds the feature flags a bulb advertises.
type Capabilities struct {
	Brightness bool
	Color      bool
	ColorTemp  bool
}

// ParseCapabilities reads the supportAttributes CSV from a flattened
// descriptor.
func ParseCapabilities(csv string) Capabilities {
	var caps Capabilities
	for _, attr := range strings.Split(csv, ",") {
		switch strings.TrimSpace(attr) {
		case "brightness":
			caps.Brightness = true
		case "color":
			caps.Color = true
		case "colorTemperature":
			caps.ColorTemp = true
		}
	}
	return caps
}

// Bulb is a Wi-Fi Elements bulb.
//
// State is the flat attribute map the cloud reports. Commands are
// fire-and-forget update batches published through the bridge; the
// resulting state change arrives back as a status message.
//
// All public methods are thread-safe.
type Bulb struct {
	id        string
	caps      Capabilities
	publisher bridge.Publisher
	log       Logger

	mu       sync.RWMutex
	data     map[string]string
	onChange func()
}

var _ bridge.Device = (*Bulb)(nil)

// NewBulb builds a bulb from a raw discovery descriptor.
//
// The descriptor must carry a deviceUuid and a typeCode; anything else
// is optional and lands in the attribute map as-is.
func NewBulb(descriptor map[string]any, publisher bridge.Publisher, log Logger) (*Bulb, error) {
	if publisher == nil {
		return nil, errors.New("elements: publisher is required")
	}
	if log == nil {
		log = noopLogger{}
	}

	data := FlattenDescriptor(descriptor, log)

	id := data["deviceUuid"]
	if id == "" {
		return nil, fmt.Errorf("%w: deviceUuid", ErrBadDescriptor)
	}
	model := data[attrModel]
	if model == "" {
		return nil, fmt.Errorf("%w: typeCode", ErrBadDescriptor)
	}
	if !knownModels[model] {
		log.Info("untested bulb model, using generic handling",
			"device_id", id,
			"model", model,
		)
	}

	return &Bulb{
		id:        id,
		caps:      ParseCapabilities(data["supportAttributes"]),
		publisher: publisher,
		log:       log,
		data:      data,
	}, nil
}

// SetOnChange registers a hook invoked after every applied status batch.
// The hook runs on the message goroutine; keep it fast.
func (b *Bulb) SetOnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// ID returns the cloud device identifier.
func (b *Bulb) ID() string {
	return b.id
}

// Topics returns the topics to subscribe for this bulb.
func (b *Bulb) Topics() []string {
	return []string{bridge.StatusTopic(b.id)}
}

// ApplyUpdates merges a status batch into the attribute map, last write
// wins, then runs the change hook.
func (b *Bulb) ApplyUpdates(updates []bridge.Update) {
	b.mu.Lock()
	for _, u := range updates {
		b.data[u.Type] = u.Value
	}
	hook := b.onChange
	b.mu.Unlock()

	b.log.Debug("state applied", "device_id", b.id, "updates", len(updates))
	if hook != nil {
		hook()
	}
}

// Snapshot returns a copy of the current attribute map.
func (b *Bulb) Snapshot() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.data))
	for k, v := range b.data {
		out[k] = v
	}
	return out
}

func (b *Bulb) get(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[key]
}

// Capabilities returns the advertised feature flags.
func (b *Bulb) Capabilities() Capabilities {
	return b.caps
}

// Name returns the user-assigned bulb name.
func (b *Bulb) Name() string {
	return b.get("name")
}

// Model returns the hardware type code.
func (b *Bulb) Model() string {
	return b.get(attrModel)
}

// Firmware returns the reported firmware version.
func (b *Bulb) Firmware() string {
	return b.get(attrSWVersion)
}

// Available reports whether the cloud last saw the bulb online.
func (b *Bulb) Available() bool {
	return b.get(attrOnline) == valueOn
}

// IsOn reports whether the bulb is switched on.
func (b *Bulb) IsOn() bool {
	return b.get(attrSwitch) == valueOn
}

// Brightness returns the current level on the 0-255 scale.
func (b *Bulb) Brightness() (int, bool) {
	raw := b.get(attrBrightness)
	if raw == "" {
		return 0, false
	}
	level, err := decodeBrightness(raw)
	if err != nil {
		b.log.Warn("invalid brightness value", "device_id", b.id, "value", raw)
		return 0, false
	}
	return level, true
}

// ColorMode returns the active color mode.
func (b *Bulb) ColorMode() string {
	switch b.get(attrColorMode) {
	case "1":
		return ColorModeRGB
	case "2":
		return ColorModeColorTemp
	default:
		return ColorModeBrightness
	}
}

// ColorTemp returns the color temperature in mireds.
func (b *Bulb) ColorTemp() (int, bool) {
	raw := b.get(attrColorTemp)
	if raw == "" {
		return 0, false
	}
	mireds, err := decodeColorTemp(raw, MinMireds, MaxMireds)
	if err != nil {
		b.log.Warn("invalid color temperature value", "device_id", b.id, "value", raw)
		return 0, false
	}
	return mireds, true
}

// RGB returns the current color as 0-255 components.
func (b *Bulb) RGB() (red, green, blue int, ok bool) {
	raw := b.get(attrRGBColor)
	if raw == "" {
		return 0, 0, 0, false
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		b.log.Warn("invalid color value", "device_id", b.id, "value", raw)
		return 0, 0, 0, false
	}
	var comps [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			b.log.Warn("invalid color value", "device_id", b.id, "value", raw)
			return 0, 0, 0, false
		}
		comps[i] = n
	}
	return comps[0], comps[1], comps[2], true
}

// Effects returns the selectable effect names, or nil when the bulb has
// no color support.
func (b *Bulb) Effects() []string {
	if !b.caps.Color {
		return nil
	}
	out := make([]string, len(effects))
	copy(out, effects)
	return out
}

// SetPower switches the bulb on or off.
func (b *Bulb) SetPower(on bool) {
	value := valueOff
	if on {
		value = valueOn
	}
	b.send(bridge.Update{Type: attrSwitch, Value: value})
}

// SetBrightness commands a new level on the 0-255 scale.
func (b *Bulb) SetBrightness(level int) error {
	if !b.caps.Brightness {
		return fmt.Errorf("%w: brightness", ErrUnsupported)
	}
	if level < 0 || level > 255 {
		return fmt.Errorf("%w: brightness %d", ErrInvalidValue, level)
	}
	b.send(bridge.Update{Type: attrBrightness, Value: encodeBrightness(level)})
	return nil
}

// SetColor commands an RGB color with 0-255 components.
func (b *Bulb) SetColor(red, green, blue int) error {
	if !b.caps.Color {
		return fmt.Errorf("%w: color", ErrUnsupported)
	}
	for _, c := range []int{red, green, blue} {
		if c < 0 || c > 255 {
			return fmt.Errorf("%w: color component %d", ErrInvalidValue, c)
		}
	}
	b.send(bridge.Update{
		Type:  attrRGBColor,
		Value: fmt.Sprintf("%d:%d:%d", red, green, blue),
	})
	return nil
}

// SetColorTemp commands a color temperature in mireds.
func (b *Bulb) SetColorTemp(mireds int) error {
	if !b.caps.ColorTemp {
		return fmt.Errorf("%w: color temperature", ErrUnsupported)
	}
	if mireds < MinMireds || mireds > MaxMireds {
		return fmt.Errorf("%w: %d mireds outside [%d, %d]",
			ErrInvalidValue, mireds, MinMireds, MaxMireds)
	}
	b.send(bridge.Update{
		Type:  attrColorTemp,
		Value: encodeColorTemp(mireds, MinMireds, MaxMireds),
	})
	return nil
}

// SetEffect starts or stops a lighting effect by name.
func (b *Bulb) SetEffect(effect string, enable bool) error {
	if !b.caps.Color {
		return fmt.Errorf("%w: effects", ErrUnsupported)
	}
	if !validEffect(effect) {
		return fmt.Errorf("%w: unknown effect %q", ErrInvalidValue, effect)
	}
	value := valueOff
	if enable {
		value = valueOn
	}
	b.send(bridge.Update{Type: effect, Value: value})
	return nil
}

func validEffect(name string) bool {
	for _, e := range effects {
		if e == name {
			return true
		}
	}
	return false
}

// send publishes command entries on the bulb's update topic. Delivery is
// fire-and-forget; the confirmed state arrives back as a status message.
func (b *Bulb) send(updates ...bridge.Update) {
	b.publisher.Publish(bridge.UpdateTopic(b.id), updates...)
}
