// Package linearize implements the linearisation and stack-of-borrows
// checker (spec.md §4.2): it rewrites every binding to a globally-unique
// canonical name and enforces that a target is never simultaneously
// uniquely and shared-borrowed. Grounded on
// original_source/src/borrow_checker.rs (the BCMeta/hash shape) and
// src/borrow_checker/{env,linearize_and_borrow}.rs (the declare/borrow/
// dereff/scope-pop algorithm), shaped as an idiomatic scope-stack walker
// after the pattern of the teacher's lang/resolver/resolver.go (push/pop
// blocks, lookups walking innermost-first). Symbol and borrow tables are
// github.com/dolthub/swiss maps rather than builtin maps, carrying the
// teacher's own dependency on a faster hash map into the pass that does
// the most map churn (a scope push/pop on every block).
package linearize

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/diag"
	"github.com/mna/rnr/lang/token"
)

// posOf resolves a bare Pos to a Position carrying no filename; callers
// that need the filename in diagnostics attach it via *token.File
// elsewhere in the pipeline (the driver re-resolves positions against
// the FileSet before printing).
func posOf(p token.Pos) token.Position {
	line, col := p.LineCol()
	return token.Position{Line: line, Column: col}
}

// meta is the binding metadata held for one name in one scope: its
// canonical-name components, how many times it has been read, whether it
// is still a valid borrow target, and which other bindings currently
// borrow from it.
type meta struct {
	ident    *ast.IdentExpr // renamed in place on finalisation
	name     string
	count    int // scope-stack depth at declaration time
	depth    int // monotonic scope id at declaration time
	reassign int
	usage    int
	refs     []*meta
	valid    bool
	param    bool // function parameter: never renamed, never requires use
}

func (m *meta) hash() string {
	return fmt.Sprintf(">%d#%d!%d_%s", m.count, m.depth, m.reassign, m.name)
}

// borrowTarget is the borrows side-table's value: whether any borrower
// is unique, and the list of current borrowers.
type borrowTarget struct {
	anyUnique bool
	borrowers []string
}

// Env is the linearisation environment: a stack of scopes plus the two
// borrow side-tables, shared across an entire function body (or the
// top-level static initialisers).
type Env struct {
	vars         []*swiss.Map[string, *meta]
	borrows      *swiss.Map[string, *borrowTarget]
	borrowers    *swiss.Map[string, string] // borrower canonical name -> target canonical name
	registry     map[string]*meta           // canonical hash -> meta, for refs wiring only
	scopeCounter int
}

// New returns a fresh, empty environment.
func New() *Env {
	return &Env{
		borrows:   swiss.NewMap[string, *borrowTarget](8),
		borrowers: swiss.NewMap[string, string](8),
		registry:  make(map[string]*meta),
	}
}

// EnterFunction forks e for a function body: the variable stack resets
// (parameters populate a fresh innermost scope) but the borrow tables
// carry over, matching spec.md §4.2's "Function entry" rule.
func (e *Env) EnterFunction() *Env {
	child := &Env{
		borrows:      cloneBorrows(e.borrows),
		borrowers:    cloneBorrowers(e.borrowers),
		registry:     e.registry,
		scopeCounter: e.scopeCounter,
	}
	child.Push()
	return child
}

func cloneBorrows(m *swiss.Map[string, *borrowTarget]) *swiss.Map[string, *borrowTarget] {
	out := swiss.NewMap[string, *borrowTarget](uint32(m.Count()))
	m.Iter(func(k string, v *borrowTarget) bool {
		cp := &borrowTarget{anyUnique: v.anyUnique, borrowers: append([]string(nil), v.borrowers...)}
		out.Put(k, cp)
		return false
	})
	return out
}

func cloneBorrowers(m *swiss.Map[string, string]) *swiss.Map[string, string] {
	out := swiss.NewMap[string, string](uint32(m.Count()))
	m.Iter(func(k, v string) bool {
		out.Put(k, v)
		return false
	})
	return out
}

// Push opens a new innermost scope.
func (e *Env) Push() {
	e.vars = append(e.vars, swiss.NewMap[string, *meta](8))
	e.scopeCounter++
}

// counter returns (stack depth, monotonic scope id), the pair baked into
// every canonical name minted while this pair of values is current.
func (e *Env) counter() (int, int) { return len(e.vars), e.scopeCounter }

// Pop closes the innermost scope, finalising every binding declared in
// it: rejecting unused bindings, rewriting their identifier node to the
// canonical name, and invalidating whatever still borrows from them.
func (e *Env) Pop() error {
	if len(e.vars) == 0 {
		return nil
	}
	top := e.vars[len(e.vars)-1]
	e.vars = e.vars[:len(e.vars)-1]

	var finalizeErr error
	top.Iter(func(_ string, m *meta) bool {
		e.destroyRef(m.hash())
		if finalizeErr == nil {
			if err := m.finalize(); err != nil {
				finalizeErr = err
			}
		}
		return false
	})
	return finalizeErr
}

func (m *meta) finalize() error {
	if m.param {
		for _, r := range m.refs {
			r.valid = false
		}
		return nil
	}
	if m.usage == 0 {
		pos, _ := m.ident.Span()
		return &diag.Error{Pos: posOf(pos), Kind: diag.KindNeverUsed, Msg: fmt.Sprintf("binding %q is never used", m.name)}
	}
	m.ident.Binding = m.hash()
	for _, r := range m.refs {
		r.valid = false
	}
	return nil
}

// Declare binds ident in the innermost scope, finalising any previous
// binding of the same surface name in that scope (shadowing), and
// returns the freshly minted metadata so the caller can look up its
// canonical hash (needed to register a borrow against the new binding).
// Bindings whose surface name starts with "_" begin with their "used"
// flag already set, matching the convention in spec.md §4.2.
func (e *Env) Declare(ident *ast.IdentExpr) (*meta, error) {
	top := e.vars[len(e.vars)-1]
	reassign := 1
	count, depth := e.counter()
	prev, hadPrev := top.Get(ident.Name)
	if hadPrev {
		count, depth, reassign = prev.count, prev.depth, prev.reassign+1
	}
	usage := 0
	if len(ident.Name) > 0 && ident.Name[0] == '_' {
		usage = 1
	}
	m := &meta{ident: ident, name: ident.Name, count: count, depth: depth, reassign: reassign, usage: usage, valid: true}
	if hadPrev {
		if err := prev.finalize(); err != nil {
			return nil, err
		}
	}
	top.Put(ident.Name, m)
	e.registry[m.hash()] = m
	return m, nil
}

// DeclareParam binds a function parameter: unlike Declare, the binding
// is never renamed and never required to be used, per spec.md §4.2's
// "Function entry" rule.
func (e *Env) DeclareParam(ident *ast.IdentExpr) {
	top := e.vars[len(e.vars)-1]
	m := &meta{ident: ident, name: ident.Name, valid: true, usage: 1, param: true}
	top.Put(ident.Name, m)
}

// refOf looks up the meta currently registered under a canonical hash,
// for wiring a fresh borrower into its target's invalidation list. Not
// every hash has a registered meta (e.g. the best-effort borrower key
// synthesised for a non-identifier assignment target), so a miss is not
// an error.
func (e *Env) refOf(hash string) *meta { return e.registry[hash] }

// Resolve walks the scope stack innermost-first looking for ref's name,
// recording an access, rewriting ref.Binding to the target's canonical
// name, and returning an error if the binding has been invalidated (it
// borrows from a target whose scope has already been popped) or does not
// exist at all.
func (e *Env) Resolve(ref *ast.IdentExpr) (*meta, error) {
	pos, _ := ref.Span()
	for i := len(e.vars) - 1; i >= 0; i-- {
		if m, ok := e.vars[i].Get(ref.Name); ok {
			m.usage++
			if !m.valid {
				return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindBorrowOnInvalidBinding,
					Msg: fmt.Sprintf("%q used after its borrow target went out of scope", ref.Name)}
			}
			ref.Binding = m.hash()
			return m, nil
		}
	}
	return nil, &diag.Error{Pos: posOf(pos), Kind: diag.KindUnknownIdentifier, Msg: fmt.Sprintf("unknown identifier %q", ref.Name)}
}

// Borrow records that borrowerHash borrows target, applying the
// decision table of spec.md §4.2: a target that is already uniquely
// borrowed rejects any further borrow; a unique request against a
// target with existing (shared) borrowers is rejected too.
func (e *Env) Borrow(pos token.Pos, target string, borrowerHash string, unique bool) error {
	bt, ok := e.borrows.Get(target)
	if !ok {
		bt = &borrowTarget{}
	}
	switch {
	case bt.anyUnique:
		return &diag.Error{Pos: posOf(pos), Kind: diag.KindMixedBorrow, Msg: fmt.Sprintf("%q is already uniquely borrowed", target)}
	case unique && len(bt.borrowers) > 0:
		return &diag.Error{Pos: posOf(pos), Kind: diag.KindBorrowMutWhileShared, Msg: fmt.Sprintf("cannot uniquely borrow %q while shared borrows exist", target)}
	}
	bt.anyUnique = bt.anyUnique || unique
	bt.borrowers = append(bt.borrowers, borrowerHash)
	e.borrows.Put(target, bt)
	e.borrowers.Put(borrowerHash, target)
	if targetMeta, borrowerMeta := e.refOf(target), e.refOf(borrowerHash); targetMeta != nil && borrowerMeta != nil {
		targetMeta.refs = append(targetMeta.refs, borrowerMeta)
	}
	return nil
}

// Deref validates that id is currently a live borrower of some target,
// per spec.md §4.2's deref-of-out-of-scope failure class.
func (e *Env) Deref(pos token.Pos, id string) error {
	target, ok := e.borrowers.Get(id)
	if !ok {
		return &diag.Error{Pos: posOf(pos), Kind: diag.KindDerefOfOutOfScope, Msg: fmt.Sprintf("dereference of out-of-scope borrow %q", id)}
	}
	bt, ok := e.borrows.Get(target)
	if !ok {
		return &diag.Error{Pos: posOf(pos), Kind: diag.KindDerefOfOutOfScope, Msg: fmt.Sprintf("dereference of out-of-scope borrow %q", id)}
	}
	for _, b := range bt.borrowers {
		if b == id {
			return nil
		}
	}
	return &diag.Error{Pos: posOf(pos), Kind: diag.KindDerefOfOutOfScope, Msg: fmt.Sprintf("dereference of out-of-scope borrow %q", id)}
}

// destroyRef removes id from the borrow tables when the binding it
// names goes out of scope: if id was itself a borrower, it is dropped
// from its target's borrower list (clearing the target's any-unique
// flag once the list is empty); if id was a borrow target, its whole
// entry is dropped.
func (e *Env) destroyRef(id string) {
	if target, ok := e.borrowers.Get(id); ok {
		e.borrowers.Delete(id)
		if bt, ok := e.borrows.Get(target); ok {
			bt.borrowers = removeString(bt.borrowers, id)
			if len(bt.borrowers) == 0 {
				e.borrows.Delete(target)
			}
		}
		return
	}
	e.borrows.Delete(id)
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
