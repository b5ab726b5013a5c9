package codec

import "fmt"

// FieldDef is the textual declaration of one schema field.
type FieldDef struct {
	Name string
	Type string
}

// Field is a validated schema field.
type Field struct {
	Name string
	Tag  Tag
}

// Schema is an immutable, ordered record layout.
//
// Thread Safety: a Schema is read-only after construction and safe for
// concurrent use.
type Schema struct {
	fields []Field
	index  map[string]int
	size   int
}

// NewSchema validates the definitions and builds a Schema.
//
// Returns:
//   - *Schema: The validated schema
//   - error: ErrSchema if a tag is malformed, a name is empty, or a name
//     is declared twice
func NewSchema(defs ...FieldDef) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(defs)),
		index:  make(map[string]int, len(defs)),
	}

	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: empty field name", ErrSchema)
		}
		if _, dup := s.index[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrSchema, def.Name)
		}

		tag, err := ParseTag(def.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", def.Name, err)
		}

		s.index[def.Name] = len(s.fields)
		s.fields = append(s.fields, Field{Name: def.Name, Tag: tag})
		s.size += tag.Size()
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on error. Use it for the
// package-level layout tables built at init.
func MustSchema(defs ...FieldDef) *Schema {
	s, err := NewSchema(defs...)
	if err != nil {
		panic(err)
	}
	return s
}

// SizeOf returns the encoded size of the declared fields.
//
// Returns:
//   - int: Sum of every field's fixed width
//   - error: ErrSchema if any definition is invalid
func SizeOf(defs ...FieldDef) (int, error) {
	s, err := NewSchema(defs...)
	if err != nil {
		return 0, err
	}
	return s.Size(), nil
}

// Merge composes field groups into one declaration list.
//
// Groups are concatenated in order. When a name repeats, the later type
// replaces the earlier one and the field keeps its first position.
func Merge(groups ...[]FieldDef) []FieldDef {
	var out []FieldDef
	pos := make(map[string]int)

	for _, group := range groups {
		for _, def := range group {
			if i, ok := pos[def.Name]; ok {
				out[i].Type = def.Type
				continue
			}
			pos[def.Name] = len(out)
			out = append(out, def)
		}
	}

	return out
}

// Size returns the encoded size in bytes.
func (s *Schema) Size() int {
	return s.size
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the named field and whether it exists.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Zero returns a state with every field set to its zero value: integers
// are 0 and byte arrays are zero-filled to their declared length.
func (s *Schema) Zero() State {
	st := make(State, len(s.fields))
	for _, f := range s.fields {
		if f.Tag.IsBytes() {
			st[f.Name] = Zeros(f.Tag.Len)
		} else {
			st[f.Name] = Int(0)
		}
	}
	return st
}
