// Package codec encodes and decodes fixed-layout binary records.
//
// A record layout is a Schema: an ordered list of named fields, each with
// a fixed-width type tag. Fields are packed back to back in declaration
// order, little-endian, with no padding and no per-field prefix. The
// layout mirrors the C structs used by the RE firmware, so sender and
// receiver must agree on the schema exactly.
//
// # Type Tags
//
//	u8, i8, u16, i16, u32, i32   fixed-width integers
//	u8[N]                        raw byte array of N bytes (N > 0)
//
// Only the u8 family accepts a length suffix. Byte arrays are not null
// terminated and carry no length prefix.
//
// # Values
//
// A State maps field names to tagged Values (integer or byte array).
// Encode checks that every schema field is present with the right kind and
// that no undeclared field is present. Integer values are truncated to the
// field width on encode; this wrap-around is the defined behaviour.
//
// # Usage
//
//	schema := codec.MustSchema(
//	    codec.FieldDef{Name: "id", Type: "u16"},
//	    codec.FieldDef{Name: "name", Type: "u8[4]"},
//	)
//	data, err := codec.Encode(schema, codec.State{
//	    "id":   codec.Int(7),
//	    "name": codec.Bytes([]byte("abcd")),
//	})
package codec
