// Package telemetry writes reported shadow readings to a time-series store.
//
// Every integer field of a reported-state packet outside the header
// becomes a field of one point, stamped with the device's own timestamp.
// Byte-array fields (identifiers, colours, schedules) are not recorded.
package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/re-shadow-harness/internal/shadow/codec"
	"github.com/nerrad567/re-shadow-harness/internal/shadow/packet"
)

// Measurement is the measurement name shadow readings are written to.
const Measurement = "re_shadow"

// Tag keys.
const (
	TagDeviceID   = "device_id"
	TagPacketType = "packet_type"
)

// ErrNotReported is returned for states that are not reported-state packets.
var ErrNotReported = errors.New("telemetry: not a reported state")

// PointWriter is the write surface of the time-series client.
// *influxdb.Client satisfies it.
type PointWriter interface {
	WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time)
}

// Recorder converts reported states into points.
type Recorder struct {
	writer PointWriter
	now    func() time.Time
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w PointWriter) *Recorder {
	return &Recorder{writer: w, now: time.Now}
}

// RecordState writes one point for a reported state.
//
// Parameters:
//   - deviceID: Value of the device_id tag
//   - state: A decoded reported-v1 or reported-v2 state
//
// Returns:
//   - error: ErrNotReported for other packet types, or the registry error
//     if the state carries no usable type
func (r *Recorder) RecordState(deviceID string, state codec.State) error {
	t, err := packet.TypeOf(state)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if !t.IsReported() {
		return fmt.Errorf("%w: %s", ErrNotReported, t)
	}

	schema, err := packet.SchemaFor(t)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	header := packet.HeaderSchema()
	fields := make(map[string]any, schema.Len())
	for _, f := range schema.Fields() {
		if header.Has(f.Name) || f.Tag.IsBytes() {
			continue
		}
		v, ok := state[f.Name]
		if !ok {
			continue
		}
		if n, ok := v.Int(); ok {
			fields[f.Name] = n
		}
	}

	r.writer.WritePointWithTime(Measurement,
		map[string]string{
			TagDeviceID:   deviceID,
			TagPacketType: t.String(),
		},
		fields,
		r.timestamp(state),
	)

	return nil
}

// timestamp returns the device timestamp, or now when the device has none.
func (r *Recorder) timestamp(state codec.State) time.Time {
	if ts := packet.ParseHeader(state).Timestamp; ts != 0 {
		return time.Unix(int64(ts), 0)
	}
	return r.now()
}
