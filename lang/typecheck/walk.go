package typecheck

import (
	"fmt"

	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/diag"
	"github.com/mna/rnr/lang/token"
)

var intrinsics = map[string]bool{"print": true, "println": true, "format": true}

// Run type-checks every static and function item in file, sharing one
// global environment: every function is registered first, then the
// statics are checked, then the function bodies, each group in source
// order. Grounded on
// original_source/src/type_check/{block,func}.rs's Prog-level driving of
// Block::check and Func::check.
func Run(file *ast.File) error {
	env := New()
	var statics, funcs []ast.Item
	for _, it := range file.Items {
		switch it.(type) {
		case *ast.Static:
			statics = append(statics, it)
		case *ast.Func:
			funcs = append(funcs, it)
		}
	}
	for _, it := range funcs {
		fn := it.(*ast.Func)
		registerFunc(env, fn)
	}
	for _, it := range statics {
		if err := checkStatic(it.(*ast.Static), env); err != nil {
			return err
		}
	}
	for _, it := range funcs {
		if err := checkFunc(it.(*ast.Func), env); err != nil {
			return err
		}
	}
	return nil
}

func posOf(p token.Pos) token.Position {
	line, col := p.LineCol()
	return token.Position{Line: line, Column: col}
}

func registerFunc(env *Env, fn *ast.Func) {
	params := make([]paramMeta, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = paramMeta{typ: p.Type, mutable: p.Mutable}
	}
	ret := fn.Ret
	if ret == nil {
		ret = ast.Unit
	}
	env.declareFunc(fn.Name, &funcMeta{ret: ret, params: params})
}

func checkStatic(st *ast.Static, env *Env) error {
	initTy, err := checkExpr(st.Init, env)
	if err != nil {
		return err
	}
	ty := st.DeclType
	if ty != nil && !ty.Equal(initTy) {
		pos, _ := st.Init.Span()
		return &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType,
			Msg: fmt.Sprintf("cannot assign expression of type %s to static of type %s", initTy, ty)}
	}
	if ty == nil {
		ty = initTy
	}
	return env.declare(posOf(st.Start), st.Name.Name, &valueMeta{typ: ty, assigned: true, mutable: st.Mutable, shadowable: false})
}

func checkFunc(fn *ast.Func, parent *Env) error {
	env := parent.EnterFunction()
	for _, p := range fn.Params {
		if err := env.declare(posOf(p.Name.Start), p.Name.Name, &valueMeta{typ: p.Type, assigned: true, mutable: p.Mutable, shadowable: true}); err != nil {
			return err
		}
	}
	bodyTy, err := checkBlock(fn.Body, env)
	if err != nil {
		return err
	}
	ret := fn.Ret
	if ret == nil {
		ret = ast.Unit
	}
	if !ret.Equal(bodyTy) {
		return &diag.Error{Pos: posOf(fn.Body.End), Kind: diag.KindReturnTypeMismatch,
			Msg: fmt.Sprintf("function %q declared to return %s but body has type %s", fn.Name, ret, bodyTy)}
	}
	return nil
}

// checkBlock pushes a fresh frame, checks every statement in order, and
// pops it, requiring each binding declared in the frame to have reached
// a known, assigned type. The block's own type is Unit unless its last
// statement is a semicolon-less expression statement (Trailing == false).
func checkBlock(b *ast.Block, env *Env) (*ast.Type, error) {
	env.Push()
	result := ast.Unit
	for i, s := range b.Stmts {
		ty, err := checkStmt(s, env)
		if err != nil {
			return nil, err
		}
		if i == len(b.Stmts)-1 && !b.Trailing {
			if es, ok := s.(*ast.ExprStmt); ok {
				_ = es
				result = ty
			}
		}
	}
	if err := env.Pop(posOf(b.End)); err != nil {
		return nil, err
	}
	return result, nil
}

func checkStmt(s ast.Stmt, env *Env) (*ast.Type, error) {
	switch s := s.(type) {
	case *ast.LetStmt:
		return ast.Unit, checkLet(s, env)
	case *ast.AssignStmt:
		return ast.Unit, checkAssign(s, env)
	case *ast.WhileStmt:
		condTy, err := checkExpr(s.Cond, env)
		if err != nil {
			return nil, err
		}
		if condTy.Kind != ast.TBool {
			pos, _ := s.Cond.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindConditionNotBoolean,
				Msg: fmt.Sprintf("while condition must be bool, got %s", condTy)}
		}
		if _, err := checkBlock(s.Body, env); err != nil {
			return nil, err
		}
		return ast.Unit, nil
	case *ast.ExprStmt:
		return checkExpr(s.X, env)
	case *ast.BlockStmt:
		return checkBlock(s.Block, env)
	case *ast.FuncStmt:
		registerFunc(env, s.Func)
		return ast.Unit, checkFunc(s.Func, env)
	}
	return ast.Unit, nil
}

func checkLet(s *ast.LetStmt, env *Env) error {
	assigned := s.Init != nil
	var ty *ast.Type
	if s.Init != nil {
		initTy, err := checkExpr(s.Init, env)
		if err != nil {
			return err
		}
		if s.DeclType != nil && !s.DeclType.Equal(initTy) {
			pos, _ := s.Init.Span()
			return &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType,
				Msg: fmt.Sprintf("cannot assign expression of type %s to value of type %s", initTy, s.DeclType)}
		}
		ty = initTy
		if s.DeclType != nil {
			ty = s.DeclType
		}
	} else {
		ty = s.DeclType
	}
	return env.declare(posOf(s.Start), s.Name.Name, &valueMeta{typ: ty, assigned: assigned, mutable: s.Mutable, shadowable: true})
}

func checkAssign(s *ast.AssignStmt, env *Env) error {
	tgt, err := checkAssignTarget(s.Lhs, env)
	if err != nil {
		return err
	}
	rhsTy, err := checkExpr(s.Rhs, env)
	if err != nil {
		return err
	}
	if tgt.expected != nil {
		if !tgt.expected.Equal(rhsTy) {
			pos, _ := s.Rhs.Span()
			return &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType,
				Msg: fmt.Sprintf("invalid assignment: expected %s but got %s", tgt.expected, rhsTy)}
		}
	} else if tgt.fix != nil {
		tgt.fix(rhsTy)
	}
	return nil
}

// assignTarget describes a validated assignment target: either an
// already-known expected type (rhs must match it exactly) or, for a
// previously-untyped binding, a fix callback that records the
// newly-discovered type.
type assignTarget struct {
	expected *ast.Type
	fix      func(*ast.Type)
}

func checkAssignTarget(lhs ast.Expr, env *Env) (assignTarget, error) {
	switch l := lhs.(type) {
	case *ast.IdentExpr:
		m, ok := env.resolveVar(l.Name)
		if !ok {
			pos, _ := l.Span()
			return assignTarget{}, &diag.Error{Pos: posOf(pos), Kind: diag.KindUnknownVariable,
				Msg: fmt.Sprintf("use of undeclared variable %q", l.Name)}
		}
		if m.typ != nil && !m.mutable && m.assigned {
			pos, _ := l.Span()
			return assignTarget{}, &diag.Error{Pos: posOf(pos), Kind: diag.KindAssignToImmutable,
				Msg: fmt.Sprintf("cannot assign to immutable value %q", l.Name)}
		}
		m.assigned = true
		l.Type = m.typ
		if m.typ != nil {
			return assignTarget{expected: m.typ}, nil
		}
		return assignTarget{fix: func(t *ast.Type) { m.typ = t }}, nil

	case *ast.IndexExpr:
		arrTy, err := checkExpr(l.Array, env)
		if err != nil {
			return assignTarget{}, err
		}
		if arrTy.Kind != ast.TArray {
			pos, _ := l.Array.Span()
			return assignTarget{}, &diag.Error{Pos: posOf(pos), Kind: diag.KindIndexingNonArray,
				Msg: fmt.Sprintf("%s does not implement index", arrTy)}
		}
		if err := checkIndexBounds(l, arrTy, env); err != nil {
			return assignTarget{}, err
		}
		mutable, err := mutableRootOf(l.Array, env)
		if err != nil {
			return assignTarget{}, err
		}
		if !mutable {
			pos, _ := l.Array.Span()
			return assignTarget{}, &diag.Error{Pos: posOf(pos), Kind: diag.KindAssignToImmutable,
				Msg: "cannot get a mutable element from an immutable value"}
		}
		return assignTarget{expected: arrTy.Elem}, nil

	case *ast.UnaryOpExpr:
		if l.Op != ast.OpDeref {
			break
		}
		identTy, err := checkExpr(l.X, env)
		if err != nil {
			return assignTarget{}, err
		}
		if identTy.Kind != ast.TRef || !identTy.Mutable {
			pos, _ := l.Span()
			return assignTarget{}, &diag.Error{Pos: posOf(pos), Kind: diag.KindAssignThroughRefRef,
				Msg: fmt.Sprintf("cannot treat %s as a mutable borrow", identTy)}
		}
		if identTy.Elem.Kind == ast.TRef {
			pos, _ := l.Span()
			return assignTarget{}, &diag.Error{Pos: posOf(pos), Kind: diag.KindAssignThroughRefRef,
				Msg: "cannot assign through a reference-to-reference"}
		}
		return assignTarget{expected: identTy.Elem}, nil
	}
	pos, _ := lhs.Span()
	return assignTarget{}, &diag.Error{Pos: posOf(pos), Kind: diag.KindInvalidAssignTarget,
		Msg: "cannot use this expression as an assignment target"}
}

// mutableRootOf reports whether the identifier ultimately indexed or
// dereferenced by expr was declared mutable.
func mutableRootOf(expr ast.Expr, env *Env) (bool, error) {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		m, ok := env.resolveVar(e.Name)
		if !ok {
			pos, _ := e.Span()
			return false, &diag.Error{Pos: posOf(pos), Kind: diag.KindUnknownVariable,
				Msg: fmt.Sprintf("use of undeclared variable %q", e.Name)}
		}
		return m.mutable, nil
	case *ast.IndexExpr:
		return mutableRootOf(e.Array, env)
	case *ast.UnaryOpExpr:
		if e.Op == ast.OpDeref {
			ty, err := checkExpr(e.X, env)
			if err != nil {
				return false, err
			}
			return ty.Kind == ast.TRef && ty.Mutable, nil
		}
	}
	return false, nil
}

func checkIndexBounds(e *ast.IndexExpr, arrTy *ast.Type, env *Env) error {
	lit, ok := e.Index.(*ast.LiteralExpr)
	if !ok || lit.Type.Kind != ast.TInt {
		return nil
	}
	if int(lit.Int) >= arrTy.Len || lit.Int < 0 {
		pos, _ := e.Index.Span()
		return &diag.Error{Pos: posOf(pos), Kind: diag.KindIndexOutOfBounds,
			Msg: fmt.Sprintf("cannot access element at index %d since array is of size %d", lit.Int, arrTy.Len)}
	}
	return nil
}

// checkExpr recursively type-checks e, caching the inferred type on the
// node's own Type field, and returns it.
func checkExpr(e ast.Expr, env *Env) (*ast.Type, error) {
	switch e := e.(type) {
	case *ast.IdentExpr:
		m, ok := env.resolveVar(e.Name)
		if !ok {
			return nil, &diag.Error{Pos: posOf(e.Start), Kind: diag.KindUnknownVariable,
				Msg: fmt.Sprintf("variable %q not found", e.Name)}
		}
		if m.typ == nil {
			return nil, &diag.Error{Pos: posOf(e.Start), Kind: diag.KindTypeNotYetKnown,
				Msg: fmt.Sprintf("type of variable %q must be known at this point", e.Name)}
		}
		e.Type = m.typ
		return m.typ, nil

	case *ast.LiteralExpr:
		return e.Type, nil

	case *ast.BinOpExpr:
		lhs, err := checkExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		rhs, err := checkExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		ty, err := binOpType(e.Op, lhs, rhs)
		if err != nil {
			pos, _ := e.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType, Msg: err.Error()}
		}
		e.Type = ty
		return ty, nil

	case *ast.UnaryOpExpr:
		return checkUnary(e, env)

	case *ast.ParenExpr:
		return checkExpr(e.X, env)

	case *ast.IfExpr:
		condTy, err := checkExpr(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if condTy.Kind != ast.TBool {
			pos, _ := e.Cond.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindConditionNotBoolean,
				Msg: fmt.Sprintf("condition expression must be boolean type, got %s", condTy)}
		}
		thenTy, err := checkBlock(e.Then, env)
		if err != nil {
			return nil, err
		}
		if e.Else != nil {
			elseTy, err := checkBlock(e.Else, env)
			if err != nil {
				return nil, err
			}
			if !thenTy.Equal(elseTy) {
				pos, _ := e.Span()
				return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindThenElseMismatch,
					Msg: fmt.Sprintf("else block return type did not match then block, expected %s got %s", thenTy, elseTy)}
			}
		}
		e.Type = thenTy
		return thenTy, nil

	case *ast.BlockExpr:
		ty, err := checkBlock(e.Block, env)
		if err != nil {
			return nil, err
		}
		e.Type = ty
		return ty, nil

	case *ast.ArrayExpr:
		return checkArray(e, env)

	case *ast.IndexExpr:
		arrTy, err := checkExpr(e.Array, env)
		if err != nil {
			return nil, err
		}
		if arrTy.Kind != ast.TArray {
			pos, _ := e.Array.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindIndexingNonArray,
				Msg: fmt.Sprintf("%s does not implement index", arrTy)}
		}
		if _, err := checkExpr(e.Index, env); err != nil {
			return nil, err
		}
		if err := checkIndexBounds(e, arrTy, env); err != nil {
			return nil, err
		}
		if e.Mutable {
			mutable, err := mutableRootOf(e.Array, env)
			if err != nil {
				return nil, err
			}
			if !mutable {
				pos, _ := e.Array.Span()
				return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindAssignToImmutable,
					Msg: "cannot get a mutable element from an immutable value"}
			}
		}
		e.Type = arrTy.Elem
		return arrTy.Elem, nil

	case *ast.CallExpr:
		return checkCall(e, env)
	}
	return ast.Invalid, nil
}

func binOpType(op token.Token, lhs, rhs *ast.Type) (*ast.Type, error) {
	switch op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH:
		if lhs.Kind != ast.TInt || rhs.Kind != ast.TInt {
			return nil, fmt.Errorf("operands invalid for %s, would result in %s %s %s", op, lhs, op, rhs)
		}
		return ast.Int, nil
	case token.LT, token.GT:
		if lhs.Kind != ast.TInt || rhs.Kind != ast.TInt {
			return nil, fmt.Errorf("operands invalid for %s, would result in %s %s %s", op, lhs, op, rhs)
		}
		return ast.Bool, nil
	case token.EQL:
		if !lhs.Equal(rhs) {
			return nil, fmt.Errorf("operands invalid for ==, would result in %s == %s", lhs, rhs)
		}
		return ast.Bool, nil
	case token.ANDAND, token.OROR:
		if lhs.Kind != ast.TBool || rhs.Kind != ast.TBool {
			return nil, fmt.Errorf("operands invalid for %s, would result in %s %s %s", op, lhs, op, rhs)
		}
		return ast.Bool, nil
	}
	return nil, fmt.Errorf("unknown binary operator %s", op)
}

func checkUnary(e *ast.UnaryOpExpr, env *Env) (*ast.Type, error) {
	switch e.Op {
	case ast.OpNot:
		ty, err := checkExpr(e.X, env)
		if err != nil {
			return nil, err
		}
		if ty.Kind != ast.TBool {
			pos, _ := e.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType, Msg: fmt.Sprintf("cannot perform ! on %s", ty)}
		}
		e.Type = ast.Bool
		return ast.Bool, nil

	case ast.OpNeg:
		ty, err := checkExpr(e.X, env)
		if err != nil {
			return nil, err
		}
		if ty.Kind != ast.TInt {
			pos, _ := e.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType, Msg: fmt.Sprintf("cannot perform - on %s", ty)}
		}
		e.Type = ast.Int
		return ast.Int, nil

	case ast.OpShare:
		ty, err := checkExpr(e.X, env)
		if err != nil {
			return nil, err
		}
		ref := ast.RefOf(ty, false)
		e.Type = ref
		return ref, nil

	case ast.OpUnique:
		ty, err := checkExpr(e.X, env)
		if err != nil {
			return nil, err
		}
		if ident, ok := e.X.(*ast.IdentExpr); ok {
			m, _ := env.resolveVar(ident.Name)
			if m != nil && !m.mutable {
				pos, _ := e.Span()
				return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindAssignToImmutable,
					Msg: fmt.Sprintf("cannot uniquely borrow immutable binding %q", ident.Name)}
			}
		}
		ref := ast.RefOf(ty, true)
		e.Type = ref
		return ref, nil

	case ast.OpDeref:
		ty, err := checkExpr(e.X, env)
		if err != nil {
			return nil, err
		}
		if ty.Kind != ast.TRef {
			pos, _ := e.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType, Msg: fmt.Sprintf("cannot dereference non-reference type %s", ty)}
		}
		e.Type = ty.Elem
		return ty.Elem, nil
	}
	return ast.Invalid, nil
}

func checkArray(e *ast.ArrayExpr, env *Env) (*ast.Type, error) {
	if e.Repeat {
		elemTy, err := checkExpr(e.Elems[0], env)
		if err != nil {
			return nil, err
		}
		lit, ok := e.RepeatN.(*ast.LiteralExpr)
		if !ok || lit.Type.Kind != ast.TInt {
			pos, _ := e.RepeatN.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType, Msg: "array repeat count must be a constant integer"}
		}
		ty := ast.ArrayOf(elemTy, int(lit.Int))
		e.Type = ty
		return ty, nil
	}
	if len(e.Elems) == 0 {
		ty := ast.ArrayOf(ast.Unit, 0)
		e.Type = ty
		return ty, nil
	}
	first, err := checkExpr(e.Elems[0], env)
	if err != nil {
		return nil, err
	}
	for _, el := range e.Elems[1:] {
		ty, err := checkExpr(el, env)
		if err != nil {
			return nil, err
		}
		if !ty.Equal(first) {
			pos, _ := el.Span()
			return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindMismatchedType,
				Msg: fmt.Sprintf("array has inconsistent types, expected %s got %s", first, ty)}
		}
	}
	arr := ast.ArrayOf(first, len(e.Elems))
	e.Type = arr
	return arr, nil
}

func checkCall(e *ast.CallExpr, env *Env) (*ast.Type, error) {
	argTys := make([]*ast.Type, len(e.Args))
	for i, a := range e.Args {
		ty, err := checkExpr(a, env)
		if err != nil {
			return nil, err
		}
		argTys[i] = ty
	}
	if e.Bang && intrinsics[e.Callee] {
		if len(argTys) == 0 || argTys[0].Kind != ast.TString {
			return nil, &diag.Error{Pos: posOf(e.Start), Kind: diag.KindWrongArgType,
				Msg: fmt.Sprintf("%s! requires a format string as its first argument", e.Callee)}
		}
		ret := ast.Unit
		if e.Callee == "format" {
			ret = ast.Str
		}
		e.Type = ret
		return ret, nil
	}
	fn, ok := env.resolveFunc(e.Callee)
	if !ok {
		return nil, &diag.Error{Pos: posOf(e.Start), Kind: diag.KindUnknownFunction,
			Msg: fmt.Sprintf("tried to call undefined function %q", e.Callee)}
	}
	if len(fn.params) != len(argTys) {
		return nil, &diag.Error{Pos: posOf(e.Start), Kind: diag.KindWrongArgCount,
			Msg: fmt.Sprintf("expected %d arguments but got %d", len(fn.params), len(argTys))}
	}
	for i, p := range fn.params {
		if !p.typ.Equal(argTys[i]) {
			return nil, &diag.Error{Pos: posOf(e.Start), Kind: diag.KindWrongArgType,
				Msg: fmt.Sprintf("expected argument %d to be of type %s but got %s", i, p.typ, argTys[i])}
		}
	}
	e.Type = fn.ret
	return fn.ret, nil
}
