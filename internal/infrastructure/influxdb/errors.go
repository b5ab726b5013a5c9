package influxdb

import "errors"

// Sentinel errors returned by Connect and HealthCheck, or passed to the
// SetOnError callback. Compare with errors.Is.
var (
	ErrDisabled         = errors.New("influxdb: telemetry store disabled")
	ErrConnectionFailed = errors.New("influxdb: cannot reach server")
	ErrNotConnected     = errors.New("influxdb: client closed")

	// ErrWriteFailed wraps batch failures reported by the write API. They
	// arrive asynchronously, never from WritePoint itself.
	ErrWriteFailed = errors.New("influxdb: batch write failed")
)
