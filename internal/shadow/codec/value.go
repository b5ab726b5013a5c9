package codec

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Kind distinguishes the two value families a State can hold.
type Kind uint8

// Value kinds.
const (
	KindInvalid Kind = iota
	KindInt
	KindBytes
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// Value is a tagged field value: either an integer or a byte sequence.
// The zero Value is invalid and never satisfies a schema field.
type Value struct {
	kind Kind
	i    int64
	b    []byte
}

// Int returns an integer Value.
func Int(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// Bytes returns a byte-array Value holding a copy of b.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, b: cp}
}

// Zeros returns a byte-array Value of n zero bytes.
func Zeros(n int) Value {
	return Value{kind: KindBytes, b: make([]byte, n)}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// Int returns the integer and true if the value is an integer.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Bytes returns a copy of the byte sequence and true if the value is a
// byte array.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	cp := make([]byte, len(v.b))
	copy(cp, v.b)
	return cp, true
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindBytes:
		return bytes.Equal(v.b, o.b)
	default:
		return true
	}
}

// String formats the value for logs.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindBytes:
		return fmt.Sprintf("%X", v.b)
	default:
		return "<invalid>"
	}
}

// State maps field names to values. A State produced by Decode holds
// exactly the fields of its schema.
type State map[string]Value

// Clone returns a shallow copy of the state. Values are immutable, so the
// copy is safe to modify independently.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Int returns the integer stored under name.
func (s State) Int(name string) (int64, error) {
	v, ok := s[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	i, ok := v.Int()
	if !ok {
		return 0, fmt.Errorf("%w: %s is %s, want int", ErrTypeMismatch, name, v.Kind())
	}
	return i, nil
}

// Bytes returns the byte array stored under name.
func (s State) Bytes(name string) ([]byte, error) {
	v, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	b, ok := v.Bytes()
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, want bytes", ErrTypeMismatch, name, v.Kind())
	}
	return b, nil
}

// Equal reports whether both states hold the same fields and values.
func (s State) Equal(o State) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String formats the state with sorted keys for stable log output.
func (s State) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s:%s", k, s[k])
	}
	sb.WriteByte('}')
	return sb.String()
}
