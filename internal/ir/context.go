package ir

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Context owns and uniques every type created through it. Types obtained from
// one Context never compare equal to types from another.
type Context struct {
	void     *VoidType
	ints     map[uint32]*IntType
	pointers map[pointerKey]*PointerType
	arrays   map[arrayKey]*ArrayType
	funcs    []*FuncType
	literals []*StructType
	named    map[string]*StructType
	order    []*StructType
}

type pointerKey struct {
	elem      Type
	addrSpace uint32
}

type arrayKey struct {
	elem Type
	len  uint64
}

// NewContext creates an empty type context.
func NewContext() *Context {
	c := &Context{
		ints:     make(map[uint32]*IntType, 8),
		pointers: make(map[pointerKey]*PointerType, 16),
		arrays:   make(map[arrayKey]*ArrayType, 4),
		named:    make(map[string]*StructType, 8),
	}
	c.void = &VoidType{ctx: c}
	return c
}

// VoidType returns the void type.
func (c *Context) VoidType() *VoidType { return c.void }

// IntType returns the integer type of the given width. Width 0 is invalid.
func (c *Context) IntType(bits uint32) *IntType {
	if bits == 0 {
		panic("ir: zero-width integer type")
	}
	if t, ok := c.ints[bits]; ok {
		return t
	}
	t := &IntType{ctx: c, bits: bits}
	c.ints[bits] = t
	return t
}

// PointerTo returns the generic pointer to elem.
func (c *Context) PointerTo(elem Type) *PointerType {
	return c.PointerInSpace(elem, 0)
}

// PointerInSpace returns a pointer to elem in the given address space.
func (c *Context) PointerInSpace(elem Type, addrSpace uint32) *PointerType {
	c.mustOwn(elem)
	key := pointerKey{elem: elem, addrSpace: addrSpace}
	if t, ok := c.pointers[key]; ok {
		return t
	}
	t := &PointerType{ctx: c, elem: elem, addrSpace: addrSpace}
	c.pointers[key] = t
	return t
}

// ArrayOf returns the array type [n x elem].
func (c *Context) ArrayOf(elem Type, n uint64) *ArrayType {
	c.mustOwn(elem)
	key := arrayKey{elem: elem, len: n}
	if t, ok := c.arrays[key]; ok {
		return t
	}
	t := &ArrayType{ctx: c, elem: elem, len: n}
	c.arrays[key] = t
	return t
}

// FuncOf returns the function type with the given signature.
func (c *Context) FuncOf(ret Type, params []Type, variadic bool) *FuncType {
	c.mustOwn(ret)
	for _, p := range params {
		c.mustOwn(p)
	}
	for _, ft := range c.funcs {
		if ft.ret == ret && ft.variadic == variadic && slices.Equal(ft.params, params) {
			return ft
		}
	}
	ft := &FuncType{ctx: c, ret: ret, params: append([]Type(nil), params...), variadic: variadic}
	c.funcs = append(c.funcs, ft)
	return ft
}

// StructOf returns the literal (unnamed) struct with the given fields.
func (c *Context) StructOf(fields []Type, packed bool) *StructType {
	for _, f := range fields {
		c.mustOwn(f)
	}
	for _, st := range c.literals {
		if st.packed == packed && slices.Equal(st.fields, fields) {
			return st
		}
	}
	st := &StructType{ctx: c, fields: append([]Type(nil), fields...), packed: packed}
	c.literals = append(c.literals, st)
	return st
}

// OpaqueStruct creates a new named struct without a body. If the name is
// already taken, a numeric suffix is appended (".1", ".2", ...), so callers
// must keep the returned type rather than look it up by name.
func (c *Context) OpaqueStruct(name string) *StructType {
	name = CanonicalName(name)
	if name == "" {
		return c.StructOf(nil, false)
	}
	unique := name
	for i := 1; ; i++ {
		if _, taken := c.named[unique]; !taken {
			break
		}
		unique = fmt.Sprintf("%s.%d", name, i)
	}
	st := &StructType{ctx: c, name: unique, opaque: true}
	c.named[unique] = st
	c.order = append(c.order, st)
	return st
}

// NamedStruct looks up a named struct.
func (c *Context) NamedStruct(name string) (*StructType, bool) {
	st, ok := c.named[CanonicalName(name)]
	return st, ok
}

// NamedStructs returns named structs in creation order.
func (c *Context) NamedStructs() []*StructType {
	return append([]*StructType(nil), c.order...)
}

// Owns reports whether t was created by this context.
func (c *Context) Owns(t Type) bool {
	return t != nil && t.Context() == c
}

func (c *Context) mustOwn(t Type) {
	if t == nil {
		panic("ir: nil type")
	}
	if t.Context() != c {
		panic(fmt.Sprintf("ir: type %s belongs to a different context", t.String()))
	}
}

// CanonicalName normalises an identifier to NFC and trims surrounding space,
// so visually identical names always map to the same struct tag.
func CanonicalName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
