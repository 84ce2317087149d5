package codegen

import "fmt"

// target is what a name resolves to in the code generator's own scope
// stack: either a stack-frame offset (a variable) or nothing (a
// function — function names resolve through fns, below, by lexical
// path instead).
type target struct {
	offset int32
	isFn   bool

	// global marks a top-level static: its offset is relative to GP (set
	// once in the prelude and never rebound) rather than FP (rebound on
	// every call) — otherwise indistinguishable from a local, since both
	// count down from their own zeroed offset.
	global bool
}

// scope is one level of the lexical stack: its name-space suffix (used
// to build a function's lexical-path label, e.g. "outer_then") and the
// names declared directly in it.
type scope struct {
	nameSpace string
	names     map[string]target
}

// Env is the code generator's naming environment: a lexical scope
// stack (distinct from the type checker's and linearizer's own stacks,
// per spec.md §4.5) used to resolve identifiers to frame offsets and
// function names to their lexical-path-qualified labels. Grounded on
// original_source/src/codegen.rs's `Env` (push_var/get_var/insert_fn/
// get_fn/push_scope/pop_scope).
type Env struct {
	offset int32
	scopes []*scope
}

// New returns an environment with its global scope already pushed.
func New() *Env {
	e := &Env{}
	e.PushScope("GLOBAL_SCOPE")
	return e
}

// PushScope opens a new innermost lexical scope under the given
// name-space label.
func (e *Env) PushScope(nameSpace string) {
	e.scopes = append(e.scopes, &scope{nameSpace: nameSpace, names: make(map[string]target)})
}

// PopScope closes the innermost lexical scope.
func (e *Env) PopScope() { e.scopes = e.scopes[:len(e.scopes)-1] }

// PushVar reserves a fresh frame slot for id in the current scope,
// decrementing the running offset by one word (this simulator's memory
// is word-addressed, per lang/mips's own doc comment, unlike the
// original's byte-addressed 4-per-word offsets), unless id is already
// bound in this same scope (shadowing a let in place, per spec.md
// §4.5's "Let" lowering rule) — in which case the existing slot is
// reused and true is returned.
func (e *Env) PushVar(id string) (alreadyBound bool) {
	top := e.scopes[len(e.scopes)-1]
	if _, ok := top.names[id]; ok {
		return true
	}
	e.offset--
	top.names[id] = target{offset: e.offset}
	return false
}

// Offset returns the running local-variable offset, used by block
// lowering to detect whether a block introduced any locals (and so must
// pop them off the stack on exit) by comparing the offset on entry and
// exit.
func (e *Env) Offset() int32 { return e.offset }

// SetOffset restores the running offset, used by function lowering to
// give each function body a fresh local-slot counter starting at 0
// while preserving the enclosing offset across the call.
func (e *Env) SetOffset(v int32) { e.offset = v }

// SetArgOffset binds id directly to a positive frame offset, used for
// function parameters (spec.md §4.5's frame layout: arguments live at
// positive offsets above the saved FP/return address).
func (e *Env) SetArgOffset(id string, offset int32) {
	top := e.scopes[len(e.scopes)-1]
	top.names[id] = target{offset: offset}
}

// PushGlobal reserves a fresh slot for a top-level static in the global
// scope, the same way PushVar does for a local, except the slot is
// flagged global so callers address it via GP instead of FP — a
// static's storage never moves, unlike a frame-relative local's, so it
// cannot share FP's per-call-rebound base.
func (e *Env) PushGlobal(id string) (alreadyBound bool) {
	top := e.scopes[0]
	if _, ok := top.names[id]; ok {
		return true
	}
	e.offset--
	top.names[id] = target{offset: e.offset, global: true}
	return false
}

// InsertFn registers id as a function name in the current scope.
func (e *Env) InsertFn(id string) {
	top := e.scopes[len(e.scopes)-1]
	top.names[id] = target{isFn: true}
}

// GetVarLocation returns the frame offset id was bound to along with
// whether it names a top-level static (global) rather than a local or
// parameter — the caller uses this to pick GP or FP as the base
// register. It panics if id was never declared, mirroring the
// original's "ICE" (internal compiler error) panic — by this point the
// type checker has already proven every identifier use resolves.
func (e *Env) GetVarLocation(id string) (offset int32, global bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].names[id]; ok && !t.isFn {
			return t.offset, t.global
		}
	}
	panic(fmt.Sprintf("codegen ICE: identifier %q not found", id))
}

// GetFn resolves id to its lexical-path-qualified label: walking
// outward from the innermost scope, the first scope that declares id
// as a function stops the walk, and every scope from there back out to
// (and excluding) the global one contributes its name-space as a
// suffix, e.g. "f" declared inside "outer"'s "then" arm becomes
// "f_then_outer".
func (e *Env) GetFn(id string) (string, bool) {
	found := false
	suffix := ""
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if t, ok := e.scopes[i].names[id]; ok && t.isFn {
			found = true
		}
		if found && i > 0 {
			suffix += "_" + e.scopes[i].nameSpace
		}
	}
	if !found {
		return "", false
	}
	return id + suffix, true
}
