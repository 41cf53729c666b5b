// Package influxdb provides optional InfluxDB telemetry for the bridge.
//
// It wraps the official influxdb-client-go v2 library for recording
// light-state snapshots as time-series data. Telemetry is disabled by
// default; when enabled, the composition root hooks it into each bulb's
// change notification so every applied status update produces a point.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	} else if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteLightState("B0CE1814030F", "W21-N13", map[string]interface{}{
//	    "on": true, "brightness": 72,
//	})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors surface through the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
