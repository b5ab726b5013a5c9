package codec

import (
	"fmt"
	"regexp"
	"strconv"
)

// Base is the scalar family of a type tag.
type Base uint8

// Supported scalar bases.
const (
	U8 Base = iota + 1
	I8
	U16
	I16
	U32
	I32
)

// baseNames maps the textual tag prefix to its Base.
var baseNames = map[string]Base{
	"u8":  U8,
	"i8":  I8,
	"u16": U16,
	"i16": I16,
	"u32": U32,
	"i32": I32,
}

// String returns the textual tag for the base (e.g. "u16").
func (b Base) String() string {
	for name, base := range baseNames {
		if base == b {
			return name
		}
	}
	return fmt.Sprintf("Base(%d)", uint8(b))
}

// Width returns the width of one element in bytes.
func (b Base) Width() int {
	switch b {
	case U8, I8:
		return 1
	case U16, I16:
		return 2 //nolint:mnd // 16-bit width
	case U32, I32:
		return 4 //nolint:mnd // 32-bit width
	default:
		return 0
	}
}

// Signed reports whether values of this base are sign-extended on decode.
func (b Base) Signed() bool {
	return b == I8 || b == I16 || b == I32
}

// tagPattern matches "u16" or "u8[154]".
var tagPattern = regexp.MustCompile(`^([ui](?:8|16|32))(?:\[([0-9]+)\])?$`)

// Tag describes the wire type of one field.
//
// Len is zero for scalar integers and the element count for byte arrays.
// Only U8 supports a non-zero Len.
type Tag struct {
	Base Base
	Len  int
}

// ParseTag parses a textual type tag such as "i16" or "u8[16]".
//
// Returns:
//   - Tag: The parsed tag
//   - error: ErrSchema if the tag is unrecognised, carries a length on a
//     non-u8 base, or declares a zero length
func ParseTag(s string) (Tag, error) {
	m := tagPattern.FindStringSubmatch(s)
	if m == nil {
		return Tag{}, fmt.Errorf("%w: unrecognised type %q", ErrSchema, s)
	}

	base := baseNames[m[1]]
	if m[2] == "" {
		return Tag{Base: base}, nil
	}

	if base != U8 {
		return Tag{}, fmt.Errorf("%w: only u8 arrays are supported, got %q", ErrSchema, s)
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Tag{}, fmt.Errorf("%w: bad array length in %q: %w", ErrSchema, s, err)
	}
	if n == 0 {
		return Tag{}, fmt.Errorf("%w: zero-length array %q", ErrSchema, s)
	}

	return Tag{Base: U8, Len: n}, nil
}

// IsBytes reports whether the tag is a fixed-length byte array.
func (t Tag) IsBytes() bool {
	return t.Len > 0
}

// Size returns the on-wire width of the field in bytes.
func (t Tag) Size() int {
	if t.IsBytes() {
		return t.Len
	}
	return t.Base.Width()
}

// String returns the textual form of the tag.
func (t Tag) String() string {
	if t.IsBytes() {
		return fmt.Sprintf("%s[%d]", t.Base, t.Len)
	}
	return t.Base.String()
}
