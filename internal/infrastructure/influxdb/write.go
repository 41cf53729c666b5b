package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteLightState writes a snapshot of a light's state to InfluxDB.
//
// This is the primary telemetry method; the bridge calls it from each
// bulb's change hook so state history accumulates as status messages
// arrive. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the light
//   - model: Device model code (e.g., "W21-N13"), recorded as a tag
//   - fields: Field values to record (e.g., "on", "brightness", "online")
//
// Example:
//
//	client.WriteLightState("B0CE1814030F", "W21-N13", map[string]interface{}{
//	    "on":         true,
//	    "brightness": 72,
//	    "online":     true,
//	})
func (c *Client) WriteLightState(deviceID string, model string, fields map[string]interface{}) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"light_state",
		map[string]string{
			"device_id": deviceID,
			"model":     model,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteLightState.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
