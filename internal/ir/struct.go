package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBodyAlreadySet is returned when SetBody is called twice on a struct.
var ErrBodyAlreadySet = errors.New("struct body already set")

// StructType is either a named (identified) struct, which starts opaque and
// receives its body later, or a literal struct uniqued by its fields.
type StructType struct {
	ctx    *Context
	name   string
	fields []Type
	packed bool
	opaque bool
}

func (t *StructType) Kind() TypeKind    { return KindStruct }
func (t *StructType) Context() *Context { return t.ctx }

// IsSized reports whether the struct has a body whose fields are all sized.
func (t *StructType) IsSized() bool {
	if t.opaque {
		return false
	}
	for _, f := range t.fields {
		if !f.IsSized() {
			return false
		}
	}
	return true
}

func (t *StructType) String() string {
	if t.name != "" {
		return "%" + t.name
	}
	return t.BodyString()
}

// BodyString renders the field list, e.g. "{ i64, i8* }" or "<{ i8 }>".
func (t *StructType) BodyString() string {
	if t.opaque {
		return "opaque"
	}
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		parts[i] = f.String()
	}
	body := "{ " + strings.Join(parts, ", ") + " }"
	if len(parts) == 0 {
		body = "{}"
	}
	if t.packed {
		return "<" + body + ">"
	}
	return body
}

// Name returns the identifying name; literal structs have none.
func (t *StructType) Name() string { return t.name }

// IsLiteral reports whether the struct is an unnamed literal struct.
func (t *StructType) IsLiteral() bool { return t.name == "" }

// IsOpaque reports whether the struct has no body yet.
func (t *StructType) IsOpaque() bool { return t.opaque }

// IsPacked reports whether the fields are laid out without padding.
func (t *StructType) IsPacked() bool { return t.packed }

// NumFields returns the number of fields (0 for opaque structs).
func (t *StructType) NumFields() int { return len(t.fields) }

// Field returns the i-th field type.
func (t *StructType) Field(i int) (Type, bool) {
	if i < 0 || i >= len(t.fields) {
		return nil, false
	}
	return t.fields[i], true
}

// Fields returns a copy of the field types.
func (t *StructType) Fields() []Type {
	return append([]Type(nil), t.fields...)
}

// SetBody gives an opaque named struct its fields. Every field must belong to
// the struct's context.
func (t *StructType) SetBody(fields []Type, packed bool) error {
	if !t.opaque {
		return fmt.Errorf("%s: %w", t.String(), ErrBodyAlreadySet)
	}
	for i, f := range fields {
		if f == nil {
			return fmt.Errorf("%s: field %d is nil", t.String(), i)
		}
		if f.Context() != t.ctx {
			return fmt.Errorf("%s: field %d (%s) belongs to a different context", t.String(), i, f.String())
		}
	}
	t.fields = append([]Type(nil), fields...)
	t.packed = packed
	t.opaque = false
	return nil
}

// PtrTo returns the generic-address-space pointer to t.
func (t *StructType) PtrTo() *PointerType {
	return t.ctx.PointerTo(t)
}
