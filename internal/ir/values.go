package ir

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Value is anything that can be used as an instruction operand.
type Value interface {
	Type() Type
	// Name is the diagnostic name; it has no semantic effect.
	Name() string
	// operand renders the value as it appears in an operand position,
	// without its type (e.g. "%gas", "42", "null").
	operand() string
}

// Operand renders v as "<type> <value>".
func Operand(v Value) string {
	return v.Type().String() + " " + v.operand()
}

// Param is a formal parameter of a Function.
type Param struct {
	fn    *Function
	index int
	typ   Type
	name  string
	ident string
}

func (p *Param) Type() Type      { return p.typ }
func (p *Param) Name() string    { return p.name }
func (p *Param) operand() string { return "%" + p.ident }

// Index returns the parameter position.
func (p *Param) Index() int { return p.index }

// Parent returns the owning function.
func (p *Param) Parent() *Function { return p.fn }

// SetName renames the parameter; the printed identifier stays unique within
// the function.
func (p *Param) SetName(name string) {
	p.name = name
	p.ident = p.fn.uniqueLocal(name)
}

// ConstInt is an integer constant of up to 256 bits.
type ConstInt struct {
	typ *IntType
	val uint256.Int
}

// NewConstInt creates an integer constant, truncating v to the type width.
func NewConstInt(t *IntType, v *uint256.Int) *ConstInt {
	c := &ConstInt{typ: t}
	c.val.Set(v)
	if t.bits < 256 {
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(t.bits))
		mask.SubUint64(mask, 1)
		c.val.And(&c.val, mask)
	}
	return c
}

// NewConstIntSigned creates an integer constant from a signed value using
// two's complement at the type width.
func NewConstIntSigned(t *IntType, v int64) *ConstInt {
	if v >= 0 {
		return NewConstInt(t, uint256.NewInt(uint64(v)))
	}
	neg := new(uint256.Int).Neg(uint256.NewInt(uint64(-v)))
	return NewConstInt(t, neg)
}

func (c *ConstInt) Type() Type   { return c.typ }
func (c *ConstInt) Name() string { return "" }
func (c *ConstInt) operand() string {
	if c.typ.bits <= 64 && c.IsNegative() {
		return fmt.Sprintf("%d", c.Int64())
	}
	return c.val.Dec()
}

// Value returns a copy of the unsigned value.
func (c *ConstInt) Value() *uint256.Int { return c.val.Clone() }

// IsNegative reports whether the sign bit at the type width is set.
func (c *ConstInt) IsNegative() bool {
	if c.typ.bits == 0 {
		return false
	}
	return new(uint256.Int).Rsh(&c.val, uint(c.typ.bits-1)).Uint64()&1 == 1
}

// Int64 returns the sign-extended value for widths up to 64 bits.
func (c *ConstInt) Int64() int64 {
	u := c.val.Uint64()
	bits := c.typ.bits
	if bits >= 64 {
		return int64(u)
	}
	shift := 64 - bits
	return int64(u<<shift) >> shift
}

// ConstNull is the null pointer of a pointer type.
type ConstNull struct {
	typ *PointerType
}

// NewConstNull returns the null value of t.
func NewConstNull(t *PointerType) *ConstNull { return &ConstNull{typ: t} }

func (c *ConstNull) Type() Type      { return c.typ }
func (c *ConstNull) Name() string    { return "" }
func (c *ConstNull) operand() string { return "null" }
