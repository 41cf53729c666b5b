// Package elements models Sengled Wi-Fi Elements bulbs on top of the
// bridge packages.
//
// A Bulb wraps the flat attribute map the cloud reports for a device and
// exposes typed accessors and commands over it. Commands are published
// as fire-and-forget update batches; the confirmed state change arrives
// back as a status message and is merged by ApplyUpdates, so the
// attribute map always reflects what the cloud last said, not what was
// last requested.
//
// # Key Types
//
//   - Bulb: one physical bulb, implements bridge.Device
//   - Capabilities: feature flags parsed from the supportAttributes CSV
//   - FlattenDescriptor: raw discovery descriptor to attribute map
//
// # Usage
//
//	bulb, err := elements.NewBulb(descriptor, supervisor.Publisher(), log)
//	if err != nil {
//	    return err
//	}
//	bulb.SetOnChange(func() {
//	    log.Info("state changed", "device_id", bulb.ID(), "on", bulb.IsOn())
//	})
//	supervisor.Register(bulb)
//
//	if err := bulb.SetBrightness(192); err != nil {
//	    return err
//	}
//
// # Unit Conversions
//
// The wire protocol expresses brightness as a 0-100 percentage and color
// temperature as an inverted 0-100 percentage over the bulb's mired
// range. Accessors and commands convert to the conventional 0-255
// brightness scale and absolute mireds.
//
// # Thread Safety
//
// All Bulb methods are safe for concurrent use. The attribute map is
// guarded by a read-write mutex; the change hook runs outside it.
package elements
