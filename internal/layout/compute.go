package layout

import (
	"fortio.org/safecast"

	"evmjit/internal/ir"
)

func (e *LayoutEngine) computeLayout(t ir.Type, state *layoutState) (TypeLayout, *LayoutError) {
	switch tt := t.(type) {
	case *ir.IntType:
		return e.intLayout(tt.Bits()), nil

	case *ir.PointerType:
		return e.ptrLayout(), nil

	case *ir.ArrayType:
		return e.arrayLayout(tt, state)

	case *ir.StructType:
		if tt.IsOpaque() {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: tt}
		}
		return e.structLayout(tt, state)

	default:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: t}
	}
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

// intLayout: store size is the width rounded up to bytes; alignment is the
// next power of two of that, capped at Target.MaxScalarAlign.
func (e *LayoutEngine) intLayout(bits uint32) TypeLayout {
	storeSize, err := safecast.Conv[int]((bits + 7) / 8)
	if err != nil || storeSize <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	align := 1
	for align < storeSize {
		align <<= 1
	}
	maxAlign := e.Target.MaxScalarAlign
	if maxAlign <= 0 {
		maxAlign = 16
	}
	if align > maxAlign {
		align = maxAlign
	}
	return TypeLayout{Size: roundUp(storeSize, align), Align: align}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func (e *LayoutEngine) arrayLayout(at *ir.ArrayType, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, err := e.layoutOf(at.Elem(), state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	elemAlign := max(elemLayout.Align, 1)
	stride := roundUp(elemLayout.Size, elemAlign)
	n, convErr := safecast.Conv[int](at.Len())
	if convErr != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: at, Err: convErr}
	}
	return TypeLayout{
		Size:  stride * n,
		Align: elemAlign,
	}, nil
}

func (e *LayoutEngine) structLayout(st *ir.StructType, state *layoutState) (TypeLayout, *LayoutError) {
	fields := st.Fields()
	if len(fields) == 0 {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))

	if st.IsPacked() {
		size := 0
		for i, f := range fields {
			fl, err := e.layoutOf(f, state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
			offsets[i] = size
			aligns[i] = 1
			size += fl.Size
		}
		return TypeLayout{
			Size:         size,
			Align:        1,
			FieldOffsets: offsets,
			FieldAligns:  aligns,
		}, nil
	}

	size := 0
	align := 1
	for i, f := range fields {
		fl, err := e.layoutOf(f, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := max(fl.Align, 1)
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += fl.Size
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}
