package packet

import (
	"github.com/nerrad567/re-shadow-harness/internal/shadow/codec"
)

// Header is the typed view of the common packet prefix.
type Header struct {
	ClientToken uint32
	Timestamp   uint32
	Version     uint32
	Length      uint16
	Type        Type
}

// ParseHeader extracts the header fields of a decoded state.
// Missing or non-integer fields read as zero.
func ParseHeader(state codec.State) Header {
	get := func(name string) int64 {
		v, _ := state.Int(name) //nolint:errcheck // zero is the documented fallback
		return v
	}

	return Header{
		ClientToken: uint32(get(FieldClientToken)), //nolint:gosec // fields are u32 on the wire
		Timestamp:   uint32(get(FieldTimestamp)),   //nolint:gosec // fields are u32 on the wire
		Version:     uint32(get(FieldVersion)),     //nolint:gosec // fields are u32 on the wire
		Length:      uint16(get(FieldLength)),      //nolint:gosec // field is u16 on the wire
		Type:        Type(get(FieldType)),          //nolint:gosec // field is u8 on the wire
	}
}

// NewState returns a state of type t with every body field zeroed and the
// header taken from h. h.Type and h.Length are ignored; length is set on
// encode.
//
// Returns:
//   - codec.State: A state ready for EncodeState
//   - error: ErrUnknownType if t is not registered
func NewState(t Type, h Header) (codec.State, error) {
	schema, err := SchemaFor(t)
	if err != nil {
		return nil, err
	}

	state := schema.Zero()
	state[FieldClientToken] = codec.Int(int64(h.ClientToken))
	state[FieldTimestamp] = codec.Int(int64(h.Timestamp))
	state[FieldVersion] = codec.Int(int64(h.Version))
	state[FieldLength] = codec.Int(int64(schema.Size()))
	state[FieldType] = codec.Int(int64(t))

	return state, nil
}

// IsConnection reports whether a decoded state is a connection-status packet.
func IsConnection(state codec.State) bool {
	t, err := TypeOf(state)
	return err == nil && t == TypeConnection
}
