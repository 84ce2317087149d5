package interp

import (
	"fmt"
	"io"

	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/diag"
	"github.com/mna/rnr/lang/token"
)

var intrinsicNames = map[string]bool{"print": true, "println": true, "format": true}

// Thread carries one evaluation's execution budget and I/O sink,
// grounded on the teacher's lang/machine.Thread (MaxSteps/steps,
// Stdout) but trimmed to this interpreter's much smaller surface: no
// call-stack depth limiting, no module loader, no predeclared globals.
type Thread struct {
	// Stdout receives print!/println! output; os.Stdout is used if nil.
	Stdout io.Writer

	// MaxSteps bounds the number of statements this thread will execute
	// before aborting with KindExecutionLimitExceeded — spec.md §4.4's
	// "max-iter counter", guarding against both infinite loops and
	// unbounded recursion. A value <= 0 means no limit.
	MaxSteps int

	steps int
}

func (th *Thread) tick(pos token.Position) error {
	th.steps++
	if th.MaxSteps > 0 && th.steps > th.MaxSteps {
		return &diag.Error{Pos: pos, Kind: diag.KindExecutionLimitExceeded,
			Msg: fmt.Sprintf("execution limit of %d steps exceeded", th.MaxSteps)}
	}
	return nil
}

// Run evaluates file's statics into the global frame and then calls its
// main function, returning main's result.
func Run(th *Thread, file *ast.File) (Value, error) {
	env := NewEnv()
	var mainFn *ast.Func
	for _, it := range file.Items {
		switch it := it.(type) {
		case *ast.Func:
			env.declareFunc(it)
			if it.IsMain {
				mainFn = it
			}
		}
	}
	for _, it := range file.Items {
		if st, ok := it.(*ast.Static); ok {
			v, err := evalExpr(th, st.Init, env)
			if err != nil {
				return nil, err
			}
			env.declare(st.Name.Name, v)
		}
	}
	if mainFn == nil {
		return nil, fmt.Errorf("no main function defined")
	}
	return callFunc(th, mainFn, nil, env)
}

func posOf(p token.Pos) token.Position {
	line, col := p.LineCol()
	return token.Position{Line: line, Column: col}
}

func callFunc(th *Thread, fn *ast.Func, args []Value, parent *Env) (Value, error) {
	env := parent.EnterFunction()
	for i, p := range fn.Params {
		env.declare(p.Name.Name, args[i])
	}
	v, err := evalBlock(th, fn.Body, env)
	env.Pop()
	return v, err
}

func evalBlock(th *Thread, b *ast.Block, env *Env) (Value, error) {
	env.Push()
	var result Value = UnitVal{}
	for i, s := range b.Stmts {
		v, err := evalStmt(th, s, env)
		if err != nil {
			env.Pop()
			return nil, err
		}
		if i == len(b.Stmts)-1 && !b.Trailing {
			result = v
		}
	}
	env.Pop()
	return result, nil
}

func evalStmt(th *Thread, s ast.Stmt, env *Env) (Value, error) {
	pos, _ := s.Span()
	if err := th.tick(posOf(pos)); err != nil {
		return nil, err
	}
	switch s := s.(type) {
	case *ast.LetStmt:
		var v Value = UnitVal{}
		if s.Init != nil {
			var err error
			v, err = evalExpr(th, s.Init, env)
			if err != nil {
				return nil, err
			}
		}
		env.declare(s.Name.Name, v)
		return UnitVal{}, nil

	case *ast.AssignStmt:
		rhs, err := evalExpr(th, s.Rhs, env)
		if err != nil {
			return nil, err
		}
		if err := assignTo(th, s.Lhs, rhs, env); err != nil {
			return nil, err
		}
		return UnitVal{}, nil

	case *ast.WhileStmt:
		for {
			cond, err := evalExpr(th, s.Cond, env)
			if err != nil {
				return nil, err
			}
			if !bool(cond.(Bool)) {
				return UnitVal{}, nil
			}
			if _, err := evalBlock(th, s.Body, env); err != nil {
				return nil, err
			}
		}

	case *ast.ExprStmt:
		return evalExpr(th, s.X, env)

	case *ast.BlockStmt:
		return evalBlock(th, s.Block, env)

	case *ast.FuncStmt:
		env.declareFunc(s.Func)
		return UnitVal{}, nil
	}
	return UnitVal{}, nil
}

// assignTo writes rhs through an assignment target: a plain identifier,
// an array index, or a de-ref of a mutable reference. Per spec.md
// §4.4's "Assign uses the same scope-walking rule as lookup" and
// "assigning through a de-ref locates the reference's target".
func assignTo(th *Thread, lhs ast.Expr, rhs Value, env *Env) error {
	switch l := lhs.(type) {
	case *ast.IdentExpr:
		s, ok := env.resolve(l.Name)
		if !ok {
			return fmt.Errorf("use of undeclared variable %q", l.Name)
		}
		s.v = rhs
		return nil

	case *ast.IndexExpr:
		arrVal, err := evalExpr(th, l.Array, env)
		if err != nil {
			return err
		}
		idxVal, err := evalExpr(th, l.Index, env)
		if err != nil {
			return err
		}
		arr := arrVal.(*Array)
		arr.Elems[int(idxVal.(Int))] = rhs
		return nil

	case *ast.UnaryOpExpr:
		if l.Op != ast.OpDeref {
			break
		}
		refVal, err := evalExpr(th, l.X, env)
		if err != nil {
			return err
		}
		ref, ok := refVal.(*Ref)
		if !ok || !ref.Mutable {
			pos, _ := l.Span()
			return &diag.Error{Pos: posOf(pos), Kind: diag.KindAssignThroughImmutRef,
				Msg: "cannot assign through an immutable reference"}
		}
		ref.Target.v = rhs
		return nil
	}
	return fmt.Errorf("cannot assign to this expression")
}

func evalExpr(th *Thread, e ast.Expr, env *Env) (Value, error) {
	switch e := e.(type) {
	case *ast.IdentExpr:
		s, ok := env.resolve(e.Name)
		if !ok {
			return nil, fmt.Errorf("use of undeclared variable %q", e.Name)
		}
		return s.v, nil

	case *ast.LiteralExpr:
		return literalValue(e), nil

	case *ast.BinOpExpr:
		return evalBinOp(th, e, env)

	case *ast.UnaryOpExpr:
		return evalUnary(th, e, env)

	case *ast.ParenExpr:
		return evalExpr(th, e.X, env)

	case *ast.IfExpr:
		cond, err := evalExpr(th, e.Cond, env)
		if err != nil {
			return nil, err
		}
		if bool(cond.(Bool)) {
			return evalBlock(th, e.Then, env)
		}
		if e.Else != nil {
			return evalBlock(th, e.Else, env)
		}
		return UnitVal{}, nil

	case *ast.BlockExpr:
		return evalBlock(th, e.Block, env)

	case *ast.ArrayExpr:
		return evalArray(th, e, env)

	case *ast.IndexExpr:
		arrVal, err := evalExpr(th, e.Array, env)
		if err != nil {
			return nil, err
		}
		idxVal, err := evalExpr(th, e.Index, env)
		if err != nil {
			return nil, err
		}
		arr := arrVal.(*Array)
		return arr.Elems[int(idxVal.(Int))], nil

	case *ast.CallExpr:
		return evalCall(th, e, env)
	}
	return nil, fmt.Errorf("cannot evaluate expression node %T", e)
}

func literalValue(e *ast.LiteralExpr) Value {
	switch e.Type.Kind {
	case ast.TInt:
		return Int(e.Int)
	case ast.TBool:
		return Bool(e.Bool)
	case ast.TString:
		return Str(e.Str)
	default:
		return UnitVal{}
	}
}

func evalArray(th *Thread, e *ast.ArrayExpr, env *Env) (Value, error) {
	if e.Repeat {
		v, err := evalExpr(th, e.Elems[0], env)
		if err != nil {
			return nil, err
		}
		n, err := evalExpr(th, e.RepeatN, env)
		if err != nil {
			return nil, err
		}
		elems := make([]Value, int(n.(Int)))
		for i := range elems {
			elems[i] = v
		}
		return &Array{Elems: elems}, nil
	}
	elems := make([]Value, len(e.Elems))
	for i, el := range e.Elems {
		v, err := evalExpr(th, el, env)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return &Array{Elems: elems}, nil
}

func evalUnary(th *Thread, e *ast.UnaryOpExpr, env *Env) (Value, error) {
	switch e.Op {
	case ast.OpNot:
		v, err := evalExpr(th, e.X, env)
		if err != nil {
			return nil, err
		}
		return Bool(!bool(v.(Bool))), nil

	case ast.OpNeg:
		v, err := evalExpr(th, e.X, env)
		if err != nil {
			return nil, err
		}
		return Int(-int32(v.(Int))), nil

	case ast.OpShare, ast.OpUnique:
		// Invariant established by lang/predecl: the operand is always a
		// plain identifier by the time evaluation runs.
		ident := e.X.(*ast.IdentExpr)
		s, ok := env.resolve(ident.Name)
		if !ok {
			return nil, fmt.Errorf("use of undeclared variable %q", ident.Name)
		}
		return &Ref{Target: s, Mutable: e.Op == ast.OpUnique}, nil

	case ast.OpDeref:
		v, err := evalExpr(th, e.X, env)
		if err != nil {
			return nil, err
		}
		ref, ok := v.(*Ref)
		if !ok {
			pos, _ := e.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindDerefOfDeadReference, Msg: "dereference of a non-reference value"}
		}
		return ref.Target.v, nil
	}
	return nil, fmt.Errorf("unknown unary operator")
}

func evalBinOp(th *Thread, e *ast.BinOpExpr, env *Env) (Value, error) {
	// && and || short-circuit, so their right operand must not be
	// evaluated unconditionally.
	if e.Op == token.ANDAND || e.Op == token.OROR {
		l, err := evalExpr(th, e.Left, env)
		if err != nil {
			return nil, err
		}
		lb := bool(l.(Bool))
		if e.Op == token.ANDAND && !lb {
			return Bool(false), nil
		}
		if e.Op == token.OROR && lb {
			return Bool(true), nil
		}
		r, err := evalExpr(th, e.Right, env)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	l, err := evalExpr(th, e.Left, env)
	if err != nil {
		return nil, err
	}
	r, err := evalExpr(th, e.Right, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.PLUS:
		return Int(int32(l.(Int)) + int32(r.(Int))), nil
	case token.MINUS:
		return Int(int32(l.(Int)) - int32(r.(Int))), nil
	case token.STAR:
		return Int(int32(l.(Int)) * int32(r.(Int))), nil
	case token.SLASH:
		return Int(int32(l.(Int)) / int32(r.(Int))), nil
	case token.LT:
		return Bool(int32(l.(Int)) < int32(r.(Int))), nil
	case token.GT:
		return Bool(int32(l.(Int)) > int32(r.(Int))), nil
	case token.EQL:
		return Bool(valuesEqual(l, r)), nil
	}
	return nil, fmt.Errorf("unknown binary operator %s", e.Op)
}

func valuesEqual(l, r Value) bool {
	switch l := l.(type) {
	case Int:
		ri, ok := r.(Int)
		return ok && l == ri
	case Bool:
		rb, ok := r.(Bool)
		return ok && l == rb
	case Str:
		rs, ok := r.(Str)
		return ok && l == rs
	case UnitVal:
		_, ok := r.(UnitVal)
		return ok
	default:
		return l.String() == r.String()
	}
}

func evalCall(th *Thread, e *ast.CallExpr, env *Env) (Value, error) {
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := evalExpr(th, a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if e.Bang && intrinsicNames[e.Callee] {
		return callIntrinsic(th, e.Callee, args)
	}
	fn, ok := env.resolveFunc(e.Callee)
	if !ok {
		return nil, fmt.Errorf("tried to call undefined function %q", e.Callee)
	}
	return callFunc(th, fn, args, env)
}
