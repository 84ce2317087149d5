package interp

import "github.com/mna/rnr/lang/ast"

// slot is one binding's mutable storage cell; a Ref points directly at
// one of these.
type slot struct{ v Value }

// frame is one level of the runtime environment: bindings and the
// function table visible at that level, mirroring lang/typecheck's
// frame shape (spec.md §4.4: "same shape as type-check frames, but
// carrying runtime values and function bodies").
type frame struct {
	vars  map[string]*slot
	funcs map[string]*ast.Func
}

func newFrame() *frame {
	return &frame{vars: make(map[string]*slot), funcs: make(map[string]*ast.Func)}
}

// Env is the runtime environment: a stack of frames, innermost last.
type Env struct {
	frames []*frame
}

// NewEnv returns a fresh environment with one (global) frame.
func NewEnv() *Env {
	return &Env{frames: []*frame{newFrame()}}
}

func (e *Env) Push() { e.frames = append(e.frames, newFrame()) }

func (e *Env) Pop() { e.frames = e.frames[:len(e.frames)-1] }

// EnterFunction forks e for a function call: frame 0 is shared by
// reference (so assignments to top-level statics made from within the
// function body are visible to the caller once it returns, with no
// separate "copy the global scope back" step needed), every other
// frame's variables are hidden, and its function table carries over so
// a function declared in an enclosing block is still callable.
func (e *Env) EnterFunction() *Env {
	frames := make([]*frame, len(e.frames))
	for i, f := range e.frames {
		if i == 0 {
			frames[i] = f
		} else {
			frames[i] = &frame{vars: make(map[string]*slot), funcs: f.funcs}
		}
	}
	child := &Env{frames: frames}
	child.Push()
	return child
}

func (e *Env) declare(name string, v Value) *slot {
	s := &slot{v: v}
	e.frames[len(e.frames)-1].vars[name] = s
	return s
}

func (e *Env) declareFunc(fn *ast.Func) {
	e.frames[len(e.frames)-1].funcs[fn.Name] = fn
}

func (e *Env) resolve(name string) (*slot, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if s, ok := e.frames[i].vars[name]; ok {
			return s, true
		}
	}
	return nil, false
}

func (e *Env) resolveFunc(name string) (*ast.Func, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if fn, ok := e.frames[i].funcs[name]; ok {
			return fn, true
		}
	}
	return nil, false
}
