package layout

import (
	"fmt"
	"strings"

	"evmjit/internal/ir"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized indicates a struct that contains itself by value.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	// LayoutErrUnsized indicates a type without storage size (void, function, opaque struct).
	LayoutErrUnsized
	LayoutErrLengthConversion
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  ir.Type
	Cycle []ir.Type // for LayoutErrRecursiveUnsized
	Err   error     // for LayoutErrLengthConversion
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size (%s)", typeName(e.Type))
		}
		parts := make([]string, 0, len(e.Cycle))
		for _, t := range e.Cycle {
			parts = append(parts, typeName(t))
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(parts, " -> "))
	case LayoutErrUnsized:
		return fmt.Sprintf("type %s has no storage size", typeName(e.Type))
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("array length conversion error (%s): %v", typeName(e.Type), e.Err)
		}
		return fmt.Sprintf("array length conversion error (%s)", typeName(e.Type))
	default:
		return fmt.Sprintf("layout error kind=%d %s", e.Kind, typeName(e.Type))
	}
}

func typeName(t ir.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
