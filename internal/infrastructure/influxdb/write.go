package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint writes a point stamped with the current time.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with a specific timestamp.
//
// The device stamps its own reports, so shadow telemetry is written at
// the device's time rather than the time the harness received it. The
// write is non-blocking; points are batched and failures are delivered to
// the SetOnError callback. Writes on a closed client are dropped.
//
// Example:
//
//	client.WritePointWithTime("re_shadow",
//	    map[string]string{"device_id": "AA:BB:CC:DD:EE:FF"},
//	    map[string]any{"estimatedTemperature": 215},
//	    time.Unix(1700000000, 0))
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
