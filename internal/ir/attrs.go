package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Attribute is a calling-convention or aliasing attribute attached to a
// function or one of its parameters.
type Attribute uint8

const (
	AttrNoUnwind Attribute = iota + 1
	AttrReadNone
	AttrReadOnly
	AttrWillReturn
	AttrNoAlias
	AttrNoCapture
	AttrNonNull
	AttrNoReturn
)

func (a Attribute) String() string {
	switch a {
	case AttrNoUnwind:
		return "nounwind"
	case AttrReadNone:
		return "readnone"
	case AttrReadOnly:
		return "readonly"
	case AttrWillReturn:
		return "willreturn"
	case AttrNoAlias:
		return "noalias"
	case AttrNoCapture:
		return "nocapture"
	case AttrNonNull:
		return "nonnull"
	case AttrNoReturn:
		return "noreturn"
	default:
		return fmt.Sprintf("Attribute(%d)", a)
	}
}

// AttrSet is an immutable, sorted, duplicate-free set of attributes.
type AttrSet struct {
	attrs []Attribute
}

// NewAttrSet builds a set from the given attributes.
func NewAttrSet(attrs ...Attribute) AttrSet {
	out := append([]Attribute(nil), attrs...)
	slices.Sort(out)
	return AttrSet{attrs: slices.Compact(out)}
}

// Has reports whether a is in the set.
func (s AttrSet) Has(a Attribute) bool {
	_, found := slices.BinarySearch(s.attrs, a)
	return found
}

// Len returns the number of attributes.
func (s AttrSet) Len() int { return len(s.attrs) }

// List returns the attributes in canonical order.
func (s AttrSet) List() []Attribute { return append([]Attribute(nil), s.attrs...) }

// Union returns the set containing the attributes of both s and o.
func (s AttrSet) Union(o AttrSet) AttrSet {
	return NewAttrSet(append(s.List(), o.attrs...)...)
}

func (s AttrSet) String() string {
	parts := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
