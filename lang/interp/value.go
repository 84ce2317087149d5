// Package interp implements the tree-walking reference interpreter of
// spec.md §4.4. Grounded on the teacher's lang/machine package for the
// idiomatic Go shape of a Value interface plus a Thread carrying
// execution-budget bookkeeping (lang/machine/value.go, thread.go), and on
// original_source/src/vm (referenced from the borrow-checker tests as
// vm::Eval / vm::VarEnv) and src/intrinsics.rs for the print!/println!/
// format! placeholder-substitution algorithm.
package interp

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the runtime value domain of spec.md §4.4: a literal (integer,
// boolean, unit, string, array) or a reference. All static type
// information is discarded by this point; the type checker having run
// first guarantees every operation performed here is well-typed.
type Value interface {
	String() string
	Type() string
}

// Int is an i32 value.
type Int int32

func (v Int) String() string { return strconv.Itoa(int(v)) }
func (Int) Type() string     { return "i32" }

// Bool is a boolean value.
type Bool bool

func (v Bool) String() string { return strconv.FormatBool(bool(v)) }
func (Bool) Type() string     { return "bool" }

// UnitVal is the sole unit value.
type UnitVal struct{}

func (UnitVal) String() string { return "()" }
func (UnitVal) Type() string   { return "()" }

// Str is a string value.
type Str string

func (v Str) String() string { return string(v) }
func (Str) Type() string     { return "String" }

// Array is a fixed-size array value. It is always held and passed around
// by pointer so that a reference to an element, or to the whole array,
// observes in-place mutation the way the source language's ownership
// rules guarantee is safe.
type Array struct {
	Elems []Value
}

func (v *Array) String() string {
	parts := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (*Array) Type() string { return "array" }

// Ref is a borrow: a live pointer at the slot it targets. Runtime
// borrows are never re-validated (spec.md §4.4: "the borrow-checker
// pass is sound enough to make runtime re-validation unnecessary") so
// this is a plain Go pointer rather than the symbol+scope-index pair the
// original's vm::Value::Ref carries — idiomatic Go has a real pointer
// available where the original language does not.
type Ref struct {
	Target *slot
	Mutable bool
}

func (v *Ref) String() string {
	if v.Mutable {
		return "&mut " + v.Target.v.String()
	}
	return "&" + v.Target.v.String()
}
func (*Ref) Type() string { return "&" }

// debugString renders v the way a "{:?}" placeholder would, which for
// strings means quoted.
func debugString(v Value) string {
	if s, ok := v.(Str); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}
