package packet

import (
	"errors"
	"fmt"

	"github.com/nerrad567/re-shadow-harness/internal/shadow/codec"
)

// ErrUnknownType is returned when a packet type value has no registered schema.
var ErrUnknownType = errors.New("packet: unknown packet type")

// Type identifies the wire schema of a packet. Values are fixed by the
// device firmware and must never be renumbered.
type Type uint8

// Registered packet types.
const (
	TypeHeader     Type = 0
	TypeReportedV1 Type = 1
	TypeDesiredV1  Type = 2
	TypeConnection Type = 3
	TypeReportedV2 Type = 4
	TypeDesiredV2  Type = 5
)

// String returns the packet type name.
func (t Type) String() string {
	switch t {
	case TypeHeader:
		return "header"
	case TypeReportedV1:
		return "reported-v1"
	case TypeDesiredV1:
		return "desired-v1"
	case TypeConnection:
		return "connection"
	case TypeReportedV2:
		return "reported-v2"
	case TypeDesiredV2:
		return "desired-v2"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// IsReported reports whether the type carries a full reported state.
func (t Type) IsReported() bool {
	return t == TypeReportedV1 || t == TypeReportedV2
}

// IsDesired reports whether the type carries a desired state.
func (t Type) IsDesired() bool {
	return t == TypeDesiredV1 || t == TypeDesiredV2
}

// Process-wide layout tables, built once at init and never mutated.
var (
	headerSchema = codec.MustSchema(HeaderFields...)

	schemas = map[Type]*codec.Schema{
		TypeHeader:     headerSchema,
		TypeConnection: codec.MustSchema(codec.Merge(HeaderFields, ConnectionFields)...),
		TypeDesiredV1:  codec.MustSchema(codec.Merge(HeaderFields, ReadWriteV1)...),
		TypeReportedV1: codec.MustSchema(codec.Merge(HeaderFields, ReadWriteV1, ReadOnlyV1)...),
		TypeDesiredV2:  codec.MustSchema(codec.Merge(HeaderFields, ReadWriteV1, ReadWriteV2)...),
		TypeReportedV2: codec.MustSchema(codec.Merge(HeaderFields, ReadWriteV1, ReadWriteV2, ReadOnlyV1, ReadOnlyV2)...),
	}
)

// HeaderSize is the encoded size of the packet header.
var HeaderSize = headerSchema.Size()

// Types returns every registered packet type in ascending order.
func Types() []Type {
	return []Type{TypeHeader, TypeReportedV1, TypeDesiredV1, TypeConnection, TypeReportedV2, TypeDesiredV2}
}

// HeaderSchema returns the schema of the packet header alone.
func HeaderSchema() *codec.Schema {
	return headerSchema
}

// SchemaFor returns the full schema (header and body) for a packet type.
//
// Returns:
//   - *codec.Schema: The registered schema
//   - error: ErrUnknownType if t is not registered
func SchemaFor(t Type) (*codec.Schema, error) {
	s, ok := schemas[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
	return s, nil
}

// TypeOf returns the packet type carried in a state's type field.
//
// Returns:
//   - Type: The packet type
//   - error: codec.ErrMissingField or codec.ErrTypeMismatch if the field is
//     absent or not an integer, ErrUnknownType if the value is unregistered
func TypeOf(state codec.State) (Type, error) {
	v, err := state.Int(FieldType)
	if err != nil {
		return 0, err
	}
	t := Type(v) //nolint:gosec // range is checked below
	if v < 0 || v > 0xFF || schemas[t] == nil {
		return 0, fmt.Errorf("%w: %d", ErrUnknownType, v)
	}
	return t, nil
}

// EncodeState encodes a state using the schema selected by its type field.
//
// The caller's length field is ignored: the encoded copy always carries
// the schema size. The caller's state is not modified.
//
// Returns:
//   - []byte: The encoded packet
//   - error: ErrUnknownType, or a codec error if the state does not fit
func EncodeState(state codec.State) ([]byte, error) {
	t, err := TypeOf(state)
	if err != nil {
		return nil, err
	}

	schema, err := SchemaFor(t)
	if err != nil {
		return nil, err
	}

	out := state.Clone()
	out[FieldLength] = codec.Int(int64(schema.Size()))

	data, err := codec.Encode(schema, out)
	if err != nil {
		return nil, fmt.Errorf("encoding %s packet: %w", t, err)
	}
	return data, nil
}

// DecodeState decodes a packet whose schema is selected by its header.
//
// Decoding runs in three steps:
//  1. Decode the header prefix (fixed size) to learn the packet type
//  2. Resolve the full schema for that type
//  3. Decode the entire buffer, header included, against the full schema
//
// The header length field must equal the number of bytes received.
//
// Returns:
//   - codec.State: Every field of the resolved schema
//   - error: codec.ErrLengthMismatch if the buffer is shorter than a header,
//     disagrees with its declared length, or does not match the schema
//     size; ErrUnknownType if the header type is unregistered
func DecodeState(data []byte) (codec.State, error) {
	// Step 1: header
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header",
			codec.ErrLengthMismatch, len(data), HeaderSize)
	}
	header, err := codec.Decode(headerSchema, data[:HeaderSize])
	if err != nil {
		return nil, fmt.Errorf("decoding header: %w", err)
	}

	// Step 2: schema
	t, err := TypeOf(header)
	if err != nil {
		return nil, err
	}
	schema, err := SchemaFor(t)
	if err != nil {
		return nil, err
	}

	declared, _ := header.Int(FieldLength) //nolint:errcheck // header schema always has length
	if int(declared) != len(data) {
		return nil, fmt.Errorf("%w: header declares %d bytes, received %d",
			codec.ErrLengthMismatch, declared, len(data))
	}

	// Step 3: full packet
	state, err := codec.Decode(schema, data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s packet: %w", t, err)
	}
	return state, nil
}
