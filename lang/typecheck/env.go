// Package typecheck implements the type checker of spec.md §4.3: a
// stack-of-frames environment, each frame pairing a value-metadata scope
// table with a function table, walked innermost-first on lookup and
// finalised (every binding must have a known, assigned type) on pop.
// Grounded on original_source/src/type_check.rs and its
// block.rs/expr.rs/statement.rs/func.rs submodules for the algorithm, and
// shaped like lang/linearize's scope-stack Env for the idiomatic Go form.
package typecheck

import (
	"fmt"

	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/diag"
	"github.com/mna/rnr/lang/token"
)

// valueMeta is the per-binding metadata held in a scope table: its
// inferred or declared type (nil until known), whether it has been
// assigned a value yet, whether it was declared mutable, and whether a
// later declaration of the same name is permitted to shadow it (statics
// are not shadowable).
type valueMeta struct {
	typ        *ast.Type
	assigned   bool
	mutable    bool
	shadowable bool
}

// paramMeta is one entry of a funcMeta's parameter list.
type paramMeta struct {
	typ     *ast.Type
	mutable bool
}

// funcMeta is the per-function metadata held in a function table: its
// declared return type and parameter list, in declaration order.
type funcMeta struct {
	ret    *ast.Type
	params []paramMeta
}

// frame is one level of the environment: a value scope and a function
// scope, pushed and popped together (spec.md §4.3's "each frame has two
// tables").
type frame struct {
	vars  map[string]*valueMeta
	funcs map[string]*funcMeta
}

func newFrame() *frame {
	return &frame{vars: make(map[string]*valueMeta), funcs: make(map[string]*funcMeta)}
}

// Env is the type-checking environment: a stack of frames, innermost
// last.
type Env struct {
	frames []*frame
}

// New returns a fresh environment with one (global) frame.
func New() *Env {
	return &Env{frames: []*frame{newFrame()}}
}

// Push opens a new innermost frame.
func (e *Env) Push() { e.frames = append(e.frames, newFrame()) }

// Pop closes the innermost frame, requiring every binding declared in it
// to have both a known type and an assigned value (spec.md §4.3's
// "Blocks" rule).
func (e *Env) Pop(pos token.Position) error {
	top := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	for id, m := range top.vars {
		if m.typ == nil || !m.assigned {
			return &diag.Error{Pos: pos, Kind: diag.KindUnknownTypeAtScopeExit,
				Msg: fmt.Sprintf("type of %q must be known and assigned at the end of the block", id)}
		}
	}
	return nil
}

// EnterFunction forks e for a function body: frame 0 (the global scope)
// is shared by reference so that top-level statics remain mutable from
// within function bodies, every other frame's variable table is hidden
// (emptied) while its function table remains visible, and a fresh frame
// is pushed for the incoming parameters — matching spec.md §4.3's
// "Frames introduced for function bodies expose only the global scope
// ... and the full function table" rule.
func (e *Env) EnterFunction() *Env {
	frames := make([]*frame, len(e.frames))
	for i, f := range e.frames {
		if i == 0 {
			frames[i] = f
		} else {
			frames[i] = &frame{vars: make(map[string]*valueMeta), funcs: f.funcs}
		}
	}
	child := &Env{frames: frames}
	child.Push()
	return child
}

// resolveVar walks the frame stack innermost-first looking for name.
func (e *Env) resolveVar(name string) (*valueMeta, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if m, ok := e.frames[i].vars[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// resolveFunc walks the frame stack innermost-first looking for a
// function named name.
func (e *Env) resolveFunc(name string) (*funcMeta, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if m, ok := e.frames[i].funcs[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// declare binds name in the innermost frame, rejecting the declaration
// if an existing, non-shadowable (static) binding of the same name is
// visible anywhere in the stack.
func (e *Env) declare(pos token.Position, name string, m *valueMeta) error {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if existing, ok := e.frames[i].vars[name]; ok && !existing.shadowable {
			return &diag.Error{Pos: pos, Kind: diag.KindShadowingStatic,
				Msg: fmt.Sprintf("cannot shadow static %q", name)}
		}
	}
	e.frames[len(e.frames)-1].vars[name] = m
	return nil
}

// declareFunc registers a function in the innermost frame's function
// table, so that a recursive call to it within its own body resolves.
func (e *Env) declareFunc(name string, m *funcMeta) {
	e.frames[len(e.frames)-1].funcs[name] = m
}
