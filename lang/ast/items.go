package ast

import (
	"fmt"

	"github.com/mna/rnr/lang/token"
)

// Param is one function parameter: name, type, and whether it was declared
// mutable.
type Param struct {
	Name    *IdentExpr
	Type    *Type
	Mutable bool
}

// Func is a function declaration, usable either as a top-level Item or,
// wrapped in FuncStmt, nested inside a block.
type Func struct {
	Start      token.Pos
	Name       string
	Params     []Param
	Ret        *Type // ast.Unit if unannotated
	Body       *Block
	Priority   int  // ordering among top-level items; see File
	IsMain     bool

	// Label is the lexical-path-qualified name the code generator emits
	// this function under, e.g. "f_then_outer" (innermost name-space
	// first) — filled in by codegen.
	Label string
}

func (n *Func) Span() (token.Pos, token.Pos) { return n.Start, n.Body.End }
func (n *Func) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fn "+n.Name, map[string]int{"params": len(n.Params)})
}

// Item is a top-level declaration: a Func or a Static.
type Item interface {
	Node
	item()
}

func (*Func) item()   {}
func (*Static) item() {}

// Static is a top-level mutable or immutable binding, always initialised.
type Static struct {
	Start    token.Pos
	Name     *IdentExpr
	Mutable  bool
	DeclType *Type
	Init     Expr
	Priority int
}

func (n *Static) Span() (token.Pos, token.Pos) {
	_, e := n.Init.Span()
	return n.Start, e
}
func (n *Static) Format(f fmt.State, verb rune) {
	format(f, verb, n, "static "+n.Name.Name, map[string]int{"mut": boolToInt(n.Mutable)})
}

// File is the parsed result of one source file: its items, already
// carrying their Priority (statics before functions, main always last —
// see spec.md's glossary entry).
type File struct {
	Name  string
	Items []Item
}
