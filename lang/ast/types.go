package ast

import "fmt"

// TypeKind discriminates the value-type variants of spec.md §3: integer,
// boolean, unit, string, fixed-size array, immutable/mutable reference.
type TypeKind uint8

const (
	TInvalid TypeKind = iota
	TInt
	TBool
	TUnit
	TString
	TArray
	TRef
)

// Type is a value type. Array types carry an element type and a
// compile-time length; reference types carry an element type, a
// mutability flag, and (transitively, via nested Elem) a de-reference
// depth used during borrow bookkeeping.
type Type struct {
	Kind    TypeKind
	Elem    *Type // Array, Ref
	Len     int   // Array
	Mutable bool  // Ref
}

var (
	Int    = &Type{Kind: TInt}
	Bool   = &Type{Kind: TBool}
	Unit   = &Type{Kind: TUnit}
	Str    = &Type{Kind: TString}
	Invalid = &Type{Kind: TInvalid}
)

// ArrayOf returns the array-of-elem type with the given compile-time length.
func ArrayOf(elem *Type, n int) *Type { return &Type{Kind: TArray, Elem: elem, Len: n} }

// RefOf returns the (im)mutable-reference-to-elem type.
func RefOf(elem *Type, mutable bool) *Type {
	return &Type{Kind: TRef, Elem: elem, Mutable: mutable}
}

// Depth returns the number of chained reference layers, i.e. how many
// times Deref must be applied to reach a non-reference type.
func (t *Type) Depth() int {
	d := 0
	for t != nil && t.Kind == TRef {
		d++
		t = t.Elem
	}
	return d
}

// Equal reports whether two types denote the same value type.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TArray:
		return t.Len == o.Len && t.Elem.Equal(o.Elem)
	case TRef:
		return t.Mutable == o.Mutable && t.Elem.Equal(o.Elem)
	default:
		return true
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<unknown>"
	}
	switch t.Kind {
	case TInt:
		return "i32"
	case TBool:
		return "bool"
	case TUnit:
		return "()"
	case TString:
		return "String"
	case TArray:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
	case TRef:
		if t.Mutable {
			return "&mut " + t.Elem.String()
		}
		return "&" + t.Elem.String()
	default:
		return "<invalid>"
	}
}
