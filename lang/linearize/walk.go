package linearize

import (
	"fmt"
	"sort"

	"github.com/mna/rnr/lang/ast"
)

// Run linearises every static and function body in file, in priority
// order (statics first, then functions, main always last — see
// ast.File's Priority invariant), returning the first error
// encountered. Grounded on
// original_source/src/borrow_checker/linearize_and_borrow.rs's
// Prog/Func/Block/Statement/Expr ::linearize chain.
func Run(file *ast.File) error {
	items := append([]ast.Item(nil), file.Items...)
	sort.SliceStable(items, func(i, j int) bool { return priority(items[i]) < priority(items[j]) })

	env := New()
	env.Push()
	for _, it := range items {
		if st, ok := it.(*ast.Static); ok {
			if err := linearizeStatic(st, env); err != nil {
				return err
			}
		}
	}
	for _, it := range items {
		if fn, ok := it.(*ast.Func); ok {
			if err := linearizeFunc(fn, env); err != nil {
				return err
			}
		}
	}
	return env.Pop()
}

func priority(it ast.Item) int {
	switch it := it.(type) {
	case *ast.Static:
		return it.Priority
	case *ast.Func:
		return it.Priority
	default:
		return 0
	}
}

func linearizeStatic(st *ast.Static, env *Env) error {
	if _, _, _, err := linearizeExpr(&st.Init, env); err != nil {
		return err
	}
	_, err := env.Declare(st.Name)
	return err
}

func linearizeFunc(fn *ast.Func, parent *Env) error {
	env := parent.EnterFunction()
	for i := range fn.Params {
		env.DeclareParam(fn.Params[i].Name)
	}
	if err := linearizeBlock(fn.Body, env); err != nil {
		return err
	}
	return env.Pop()
}

func linearizeBlock(b *ast.Block, env *Env) error {
	env.Push()
	for _, s := range b.Stmts {
		if err := linearizeStmt(s, env); err != nil {
			return err
		}
	}
	return env.Pop()
}

func linearizeStmt(s ast.Stmt, env *Env) error {
	switch s := s.(type) {
	case *ast.LetStmt:
		var target string
		var unique, isBorrow bool
		if s.Init != nil {
			var err error
			target, unique, isBorrow, err = linearizeExpr(&s.Init, env)
			if err != nil {
				return err
			}
		}
		m, err := env.Declare(s.Name)
		if err != nil {
			return err
		}
		if isBorrow {
			pos, _ := s.Name.Span()
			if err := env.Borrow(pos, target, m.hash(), unique); err != nil {
				return err
			}
		}
		return nil
	case *ast.AssignStmt:
		target, unique, isBorrow, err := linearizeExpr(&s.Rhs, env)
		if err != nil {
			return err
		}
		borrowerHash := borrowerHashOf(s.Lhs)
		if _, _, _, err := linearizeExpr(&s.Lhs, env); err != nil {
			return err
		}
		if isBorrow {
			if ident, ok := s.Lhs.(*ast.IdentExpr); ok {
				borrowerHash = ident.Binding
			}
			pos, _ := s.Lhs.Span()
			if err := env.Borrow(pos, target, borrowerHash, unique); err != nil {
				return err
			}
		}
		return nil
	case *ast.WhileStmt:
		if _, _, _, err := linearizeExpr(&s.Cond, env); err != nil {
			return err
		}
		return linearizeBlock(s.Body, env)
	case *ast.ExprStmt:
		_, _, _, err := linearizeExpr(&s.X, env)
		return err
	case *ast.BlockStmt:
		return linearizeBlock(s.Block, env)
	case *ast.FuncStmt:
		return linearizeFunc(s.Func, env)
	}
	return nil
}

// borrowerHashOf produces a best-effort borrower identity for a
// non-identifier assignment target (an index or deref expression); the
// rare case of borrowing the result of an assignment into a[i] or *p
// uses the target's source text as its borrow-table key instead of a
// canonical name, since such compound lvalues have no single binding to
// rename.
func borrowerHashOf(lhs ast.Expr) string {
	if ident, ok := lhs.(*ast.IdentExpr); ok {
		return ident.Name
	}
	return fmt.Sprintf("%p", lhs)
}

// linearizeExpr rewrites every identifier use under slot to its
// canonical name and returns, when slot is a share/unique borrow
// expression, the borrow's target canonical name and mutability so the
// caller (a let or assignment statement) can register it in the borrow
// tables once the new binding's own canonical name is known.
func linearizeExpr(slot *ast.Expr, env *Env) (target string, unique bool, isBorrow bool, err error) {
	switch e := (*slot).(type) {
	case *ast.IdentExpr:
		_, err = env.Resolve(e)
		return "", false, false, err

	case *ast.LiteralExpr:
		return "", false, false, nil

	case *ast.BinOpExpr:
		if _, _, _, err := linearizeExpr(&e.Left, env); err != nil {
			return "", false, false, err
		}
		_, _, _, err := linearizeExpr(&e.Right, env)
		return "", false, false, err

	case *ast.UnaryOpExpr:
		// Invariant established by lang/predecl: every unary operand is a
		// plain identifier by the time linearisation runs.
		ident, _ := e.X.(*ast.IdentExpr)
		switch e.Op {
		case ast.OpUnique:
			if _, err := env.Resolve(ident); err != nil {
				return "", false, false, err
			}
			return ident.Binding, true, true, nil
		case ast.OpShare:
			if _, err := env.Resolve(ident); err != nil {
				return "", false, false, err
			}
			return ident.Binding, false, true, nil
		case ast.OpDeref:
			if _, err := env.Resolve(ident); err != nil {
				return "", false, false, err
			}
			pos, _ := e.Span()
			if err := env.Deref(pos, ident.Binding); err != nil {
				return "", false, false, err
			}
			return "", false, false, nil
		default: // OpNot, OpNeg
			_, _, _, err := linearizeExpr(&e.X, env)
			return "", false, false, err
		}

	case *ast.ParenExpr:
		return linearizeExpr(&e.X, env)

	case *ast.IfExpr:
		if _, _, _, err := linearizeExpr(&e.Cond, env); err != nil {
			return "", false, false, err
		}
		if err := linearizeBlock(e.Then, env); err != nil {
			return "", false, false, err
		}
		if e.Else != nil {
			if err := linearizeBlock(e.Else, env); err != nil {
				return "", false, false, err
			}
		}
		return "", false, false, nil

	case *ast.BlockExpr:
		return "", false, false, linearizeBlock(e.Block, env)

	case *ast.ArrayExpr:
		for i := range e.Elems {
			if _, _, _, err := linearizeExpr(&e.Elems[i], env); err != nil {
				return "", false, false, err
			}
		}
		if e.Repeat {
			if _, _, _, err := linearizeExpr(&e.RepeatN, env); err != nil {
				return "", false, false, err
			}
		}
		return "", false, false, nil

	case *ast.IndexExpr:
		if _, _, _, err := linearizeExpr(&e.Array, env); err != nil {
			return "", false, false, err
		}
		_, _, _, err := linearizeExpr(&e.Index, env)
		return "", false, false, err

	case *ast.CallExpr:
		for i := range e.Args {
			if _, _, _, err := linearizeExpr(&e.Args[i], env); err != nil {
				return "", false, false, err
			}
		}
		return "", false, false, nil
	}
	return "", false, false, nil
}
