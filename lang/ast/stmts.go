package ast

import (
	"fmt"

	"github.com/mna/rnr/lang/token"
)

type (
	// LetStmt is a let-binding: let [mut] <ident>[: <type>] [= <init>].
	LetStmt struct {
		Start    token.Pos
		Name     *IdentExpr
		Mutable  bool
		DeclType *Type // nil if not annotated
		Init     Expr  // nil if no initializer
	}

	// AssignStmt is x = e, where x is an identifier, an index expression,
	// or a de-ref expression.
	AssignStmt struct {
		Lhs, Rhs Expr
	}

	// WhileStmt is while <cond> <body>.
	WhileStmt struct {
		Start token.Pos
		Cond  Expr
		Body  *Block
	}

	// ExprStmt is an expression used as a statement.
	ExprStmt struct {
		X Expr
	}

	// BlockStmt is a nested block used as a statement.
	BlockStmt struct {
		Block *Block
	}

	// FuncStmt is a function declaration appearing as a statement inside a
	// block (as opposed to a top-level Func item).
	FuncStmt struct {
		Func *Func
	}
)

func (n *LetStmt) Span() (token.Pos, token.Pos) {
	end := n.Start
	if n.Init != nil {
		_, end = n.Init.Span()
	}
	return n.Start, end
}
func (n *LetStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "let "+n.Name.Name, map[string]int{"mut": boolToInt(n.Mutable)})
}

func (n *AssignStmt) Span() (token.Pos, token.Pos) {
	s, _ := n.Lhs.Span()
	_, e := n.Rhs.Span()
	return s, e
}
func (n *AssignStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "assign", nil) }

func (n *WhileStmt) Span() (token.Pos, token.Pos) { return n.Start, n.Body.End }
func (n *WhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }

func (n *ExprStmt) Span() (token.Pos, token.Pos) { return n.X.Span() }
func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "expr-stmt", nil) }

func (n *BlockStmt) Span() (token.Pos, token.Pos) { return n.Block.Span() }
func (n *BlockStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "block-stmt", nil) }

func (n *FuncStmt) Span() (token.Pos, token.Pos) { return n.Func.Span() }
func (n *FuncStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fn-stmt "+n.Func.Name, nil)
}
