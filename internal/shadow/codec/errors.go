package codec

import "errors"

// Domain errors for schema construction and record encoding.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrSchema is returned when a type tag is unrecognised or malformed,
	// or when a schema declares the same field twice. It indicates a
	// programming or configuration defect, not a bad message.
	ErrSchema = errors.New("codec: invalid schema")

	// ErrMissingField is returned when a state lacks a field the schema declares.
	ErrMissingField = errors.New("codec: missing field")

	// ErrUnexpectedField is returned when a state carries a field the schema
	// does not declare.
	ErrUnexpectedField = errors.New("codec: unexpected field")

	// ErrTypeMismatch is returned when a value's kind does not match its
	// field's tag (integer for a byte array or vice versa).
	ErrTypeMismatch = errors.New("codec: type mismatch")

	// ErrLengthMismatch is returned when a byte array value has the wrong
	// length, or when a buffer to decode is not exactly the schema size.
	ErrLengthMismatch = errors.New("codec: length mismatch")
)
