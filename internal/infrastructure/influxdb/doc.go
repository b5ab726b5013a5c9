// Package influxdb provides InfluxDB connectivity for shadow telemetry.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking point writes, and health monitoring.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "re",
//	    Bucket:  "shadow",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WritePoint("re_shadow",
//	    map[string]string{"device_id": "AA:BB:CC:DD:EE:FF"},
//	    map[string]any{"estimatedTemperature": 215})
//
// # Error Handling
//
// Writes are batched (batch_size, flush_interval) and errors arrive
// asynchronously via SetOnError. Connection and health check errors are
// returned directly.
package influxdb
