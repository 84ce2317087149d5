// Package predecl implements the pre-declaration rewriter (spec.md §4.1):
// it lifts the operand of every unary operation that is not already a
// plain identifier into a fresh let-binding inserted immediately before
// the enclosing statement, so every later pass can assume unary operands
// are always nameable locations. Grounded on
// original_source/src/borrow_checker/pre_decleration.rs for the core
// algorithm (the counter/cursor discipline, the "#<n>_unary_op" naming),
// generalised to recurse into every expression shape per spec.md §4.1's
// "depth-first traversal" wording rather than the narrower UnOp/Block/
// BinOp-only match the original source implements.
package predecl

import (
	"fmt"

	"github.com/mna/rnr/lang/ast"
)

// Run rewrites every function body in file in place. Statics are left
// untouched: a unary operation with a compound operand in a static's
// initialiser is not hoisted, the one case the original source itself
// leaves unimplemented (pre_decleration.rs's Static impl is a bare
// todo!()).
func Run(file *ast.File) {
	counter := 0
	for _, item := range file.Items {
		if fn, ok := item.(*ast.Func); ok {
			block(fn.Body, &counter)
		}
	}
}

// block runs the rewrite over b's own statement list, using its own
// cursor — a nested block never shares its parent's insertion point.
func block(b *ast.Block, counter *int) {
	i := 0
	for i < len(b.Stmts) {
		stmt(b.Stmts[i], counter, &b.Stmts, &i)
		i++
	}
}

// stmt dispatches on the concrete statement kind, pre-declaring whatever
// expression(s) it holds and recursing into any nested block.
func stmt(s ast.Stmt, counter *int, siblings *[]ast.Stmt, index *int) {
	switch s := s.(type) {
	case *ast.LetStmt:
		if s.Init != nil {
			expr(&s.Init, counter, siblings, index)
		}
	case *ast.ExprStmt:
		expr(&s.X, counter, siblings, index)
	case *ast.AssignStmt:
		expr(&s.Rhs, counter, siblings, index)
	case *ast.WhileStmt:
		expr(&s.Cond, counter, siblings, index)
		block(s.Body, counter)
	case *ast.BlockStmt:
		block(s.Block, counter)
	case *ast.FuncStmt:
		block(s.Func.Body, counter)
	}
}

// expr pre-declares e in place, rewriting *slot if a hoist happens.
// siblings/index identify the statement list and cursor a new let-binding
// is inserted into; every recursive call on a sub-expression shares them
// so hoists from nested unary ops land before the same enclosing
// statement, in source order.
func expr(slot *ast.Expr, counter *int, siblings *[]ast.Stmt, index *int) {
	switch e := (*slot).(type) {
	case *ast.UnaryOpExpr:
		if _, ok := e.X.(*ast.IdentExpr); ok {
			return
		}
		expr(&e.X, counter, siblings, index)
		name := fmt.Sprintf("#%d_unary_op", *counter)
		let := &ast.LetStmt{
			Name:    &ast.IdentExpr{Name: name},
			Mutable: e.Op == ast.OpUnique,
			Init:    e.X,
		}
		*siblings = insertAt(*siblings, *index, let)
		e.X = &ast.IdentExpr{Name: name}
		*counter++
		*index++
	case *ast.BinOpExpr:
		expr(&e.Left, counter, siblings, index)
		expr(&e.Right, counter, siblings, index)
	case *ast.ParenExpr:
		expr(&e.X, counter, siblings, index)
	case *ast.BlockExpr:
		block(e.Block, counter)
	case *ast.IfExpr:
		expr(&e.Cond, counter, siblings, index)
		block(e.Then, counter)
		if e.Else != nil {
			block(e.Else, counter)
		}
	case *ast.ArrayExpr:
		for i := range e.Elems {
			expr(&e.Elems[i], counter, siblings, index)
		}
		if e.Repeat {
			expr(&e.RepeatN, counter, siblings, index)
		}
	case *ast.IndexExpr:
		expr(&e.Array, counter, siblings, index)
		expr(&e.Index, counter, siblings, index)
	case *ast.CallExpr:
		for i := range e.Args {
			expr(&e.Args[i], counter, siblings, index)
		}
	}
}

func insertAt(stmts []ast.Stmt, at int, s ast.Stmt) []ast.Stmt {
	stmts = append(stmts, nil)
	copy(stmts[at+1:], stmts[at:])
	stmts[at] = s
	return stmts
}
