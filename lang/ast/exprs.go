package ast

import (
	"fmt"

	"github.com/mna/rnr/lang/token"
)

func (*IdentExpr) expr()   {}
func (*LiteralExpr) expr() {}
func (*BinOpExpr) expr()   {}
func (*UnaryOpExpr) expr() {}
func (*ParenExpr) expr()   {}
func (*IfExpr) expr()      {}
func (*BlockExpr) expr()   {}
func (*ArrayExpr) expr()   {}
func (*IndexExpr) expr()   {}
func (*CallExpr) expr()    {}

// UnaryOp identifies the five unary operators of spec.md §3.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota
	OpNeg
	OpShare
	OpUnique
	OpDeref
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNeg:
		return "-"
	case OpShare:
		return "&"
	case OpUnique:
		return "&mut "
	case OpDeref:
		return "*"
	default:
		return "?"
	}
}

type (
	// IdentExpr is an identifier reference. Binding is filled in by the
	// linearisation pass with the canonical name it was rewritten to;
	// before that pass runs it is empty and Name is authoritative.
	IdentExpr struct {
		Start   token.Pos
		Name    string
		Binding string // canonical name after linearisation, "" before
		Type    *Type  // filled in by the type checker
	}

	// LiteralExpr is an integer, boolean, unit, or string literal.
	LiteralExpr struct {
		Start token.Pos
		Type  *Type
		Int   int32
		Bool  bool
		Str   string
	}

	// BinOpExpr is a binary operation: + - * / < > == && ||.
	BinOpExpr struct {
		Op          token.Token
		Left, Right Expr
		Type        *Type
	}

	// UnaryOpExpr is one of logical-not, arithmetic-negate, shared-borrow,
	// unique-borrow, de-ref.
	UnaryOpExpr struct {
		Start token.Pos
		Op    UnaryOp
		X     Expr
		Type  *Type
	}

	// ParenExpr is a parenthesised expression.
	ParenExpr struct {
		Lparen, Rparen token.Pos
		X              Expr
	}

	// IfExpr is an if/then/else expression; Else is nil if there is no
	// else-block.
	IfExpr struct {
		Start      token.Pos
		Cond       Expr
		Then, Else *Block
		Type       *Type
	}

	// BlockExpr wraps a Block used in expression position.
	BlockExpr struct {
		Block *Block
		Type  *Type
	}

	// ArrayExpr is an array literal: either [e; n] (Repeat) or [e1, e2, ...].
	ArrayExpr struct {
		Start, End token.Pos
		Elems      []Expr
		Repeat     bool
		RepeatN    Expr // only set if Repeat
		Type       *Type
	}

	// IndexExpr is an indexed read a[i], or, when Mutable is set, an
	// indexed write location (mutable-reference producing) — e.g. the
	// target of &mut a[i] or of an assignment a[i] = v.
	IndexExpr struct {
		Array, Index Expr
		Mutable      bool
		Type         *Type
	}

	// CallExpr is a function call: callee symbol + argument list. Bang
	// records that the call was written with the macro-style "!" suffix
	// (e.g. println!) — the "!" is consumed by the parser and preserved
	// here, per spec.md §6.
	CallExpr struct {
		Start  token.Pos
		Callee string
		Bang   bool
		Args   []Expr
		Type   *Type
	}
)

func (n *IdentExpr) Span() (token.Pos, token.Pos) { return n.Start, n.Start }
func (n *IdentExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "ident "+n.Name, nil)
}

func (n *LiteralExpr) Span() (token.Pos, token.Pos) { return n.Start, n.Start }
func (n *LiteralExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "literal", nil)
}

func (n *BinOpExpr) Span() (token.Pos, token.Pos) {
	s, _ := n.Left.Span()
	_, e := n.Right.Span()
	return s, e
}
func (n *BinOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binop "+n.Op.String(), nil)
}

func (n *UnaryOpExpr) Span() (token.Pos, token.Pos) {
	_, e := n.X.Span()
	return n.Start, e
}
func (n *UnaryOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "unop "+n.Op.String(), nil)
}

func (n *ParenExpr) Span() (token.Pos, token.Pos) { return n.Lparen, n.Rparen }
func (n *ParenExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "paren", nil)
}

func (n *IfExpr) Span() (token.Pos, token.Pos) {
	end := n.Then.End
	if n.Else != nil {
		end = n.Else.End
	}
	return n.Start, end
}
func (n *IfExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "if", map[string]int{"else": boolToInt(n.Else != nil)})
}

func (n *BlockExpr) Span() (token.Pos, token.Pos) { return n.Block.Span() }
func (n *BlockExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block-expr", nil)
}

func (n *ArrayExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *ArrayExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "array", map[string]int{"elems": len(n.Elems)})
}

func (n *IndexExpr) Span() (token.Pos, token.Pos) {
	s, _ := n.Array.Span()
	_, e := n.Index.Span()
	return s, e
}
func (n *IndexExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "index", nil)
}

func (n *CallExpr) Span() (token.Pos, token.Pos) {
	end := n.Start
	if len(n.Args) > 0 {
		_, end = n.Args[len(n.Args)-1].Span()
	}
	return n.Start, end
}
func (n *CallExpr) Format(f fmt.State, verb rune) {
	name := n.Callee
	if n.Bang {
		name += "!"
	}
	format(f, verb, n, "call "+name, map[string]int{"args": len(n.Args)})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
