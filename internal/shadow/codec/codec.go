package codec

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Encode packs state into the schema's wire layout.
//
// Fields are written in declaration order, little-endian. Integer values
// are truncated to the field width.
//
// Returns:
//   - []byte: Buffer of exactly s.Size() bytes
//   - error: ErrMissingField, ErrUnexpectedField, ErrTypeMismatch or
//     ErrLengthMismatch when the state does not fit the schema
func Encode(s *Schema, state State) ([]byte, error) {
	if extra := undeclared(s, state); len(extra) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedField, extra)
	}

	buf := make([]byte, s.size)
	off := 0

	for _, f := range s.fields {
		v, ok := state[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f.Name)
		}

		if f.Tag.IsBytes() {
			b, isBytes := v.Bytes()
			if !isBytes {
				return nil, fmt.Errorf("%w: %s is %s, want %s", ErrTypeMismatch, f.Name, v.Kind(), f.Tag)
			}
			if len(b) != f.Tag.Len {
				return nil, fmt.Errorf("%w: %s has %d bytes, want %d", ErrLengthMismatch, f.Name, len(b), f.Tag.Len)
			}
			copy(buf[off:], b)
		} else {
			i, isInt := v.Int()
			if !isInt {
				return nil, fmt.Errorf("%w: %s is %s, want %s", ErrTypeMismatch, f.Name, v.Kind(), f.Tag)
			}
			putInt(buf[off:], f.Tag.Base, i)
		}

		off += f.Tag.Size()
	}

	return buf, nil
}

// Decode unpacks data according to the schema.
//
// Returns:
//   - State: Exactly the schema's fields; byte arrays are copies of data
//   - error: ErrLengthMismatch if len(data) != s.Size()
func Decode(s *Schema, data []byte) (State, error) {
	if len(data) != s.size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, len(data), s.size)
	}

	state := make(State, len(s.fields))
	off := 0

	for _, f := range s.fields {
		n := f.Tag.Size()
		if f.Tag.IsBytes() {
			state[f.Name] = Bytes(data[off : off+n])
		} else {
			state[f.Name] = Int(getInt(data[off:off+n], f.Tag.Base))
		}
		off += n
	}

	return state, nil
}

// putInt writes v truncated to the base width.
func putInt(dst []byte, base Base, v int64) {
	switch base.Width() {
	case 1:
		dst[0] = byte(v) //nolint:gosec // truncation is the defined behaviour
	case 2: //nolint:mnd // 16-bit width
		binary.LittleEndian.PutUint16(dst, uint16(v)) //nolint:gosec // truncation is the defined behaviour
	case 4: //nolint:mnd // 32-bit width
		binary.LittleEndian.PutUint32(dst, uint32(v)) //nolint:gosec // truncation is the defined behaviour
	}
}

// getInt reads one integer, sign-extending signed bases.
func getInt(src []byte, base Base) int64 {
	switch base {
	case U8:
		return int64(src[0])
	case I8:
		return int64(int8(src[0])) //nolint:gosec // reinterpretation of the wire byte
	case U16:
		return int64(binary.LittleEndian.Uint16(src))
	case I16:
		return int64(int16(binary.LittleEndian.Uint16(src))) //nolint:gosec // reinterpretation
	case U32:
		return int64(binary.LittleEndian.Uint32(src))
	case I32:
		return int64(int32(binary.LittleEndian.Uint32(src))) //nolint:gosec // reinterpretation
	default:
		return 0
	}
}

// undeclared returns the sorted names in state that s does not declare.
func undeclared(s *Schema, state State) []string {
	var extra []string
	for name := range state {
		if !s.Has(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra
}
