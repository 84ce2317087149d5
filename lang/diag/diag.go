// Package diag defines the diagnostic taxonomy shared by every compiler
// pass: a single Error type carrying a source position and a Kind, and a
// List that aggregates every diagnostic produced during one pass run.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/mna/rnr/lang/token"
)

// Kind identifies which pass, and which specific failure mode, produced a
// diagnostic. Grouped the way spec.md §7 groups them, by pass.
type Kind string

//nolint:revive
const (
	// Parse errors.
	KindSyntax Kind = "syntax"

	// Borrow-check errors.
	KindNeverUsed              Kind = "never-used"
	KindMultipleUniqueBorrow   Kind = "multiple-refs-while-unique"
	KindMixedBorrow            Kind = "borrow-while-unique-alive"
	KindBorrowMutWhileShared   Kind = "borrow-mut-while-shared"
	KindDerefOfOutOfScope      Kind = "deref-of-out-of-scope"
	KindUnknownIdentifier      Kind = "unknown-identifier"
	KindNonIdentifier          Kind = "non-identifier-in-identifier-position"
	KindUnbalancedScope        Kind = "unbalanced-scope"
	KindBorrowOnInvalidBinding Kind = "borrow-on-invalidated-binding"

	// Type-check errors.
	KindMismatchedType         Kind = "mismatched-type"
	KindUnknownVariable        Kind = "unknown-variable"
	KindUnknownFunction        Kind = "unknown-function"
	KindWrongArgCount          Kind = "wrong-argument-count"
	KindWrongArgType           Kind = "wrong-argument-type"
	KindAssignToImmutable      Kind = "assignment-to-immutable"
	KindAssignUnknownType      Kind = "assignment-to-unknown-type"
	KindIndexingNonArray       Kind = "indexing-non-array"
	KindIndexOutOfBounds       Kind = "index-out-of-bounds"
	KindShadowingStatic        Kind = "shadowing-static"
	KindUnknownTypeAtScopeExit Kind = "unknown-type-at-scope-exit"
	KindConditionNotBoolean    Kind = "condition-not-boolean"
	KindThenElseMismatch       Kind = "then-else-mismatch"
	KindReturnTypeMismatch     Kind = "return-type-mismatch"
	KindAssignThroughRefRef    Kind = "assign-through-reference-to-reference"
	KindInvalidAssignTarget    Kind = "invalid-assignment-target"
	KindTypeNotYetKnown        Kind = "type-not-yet-known"

	// Runtime errors.
	KindExecutionLimitExceeded Kind = "execution-limit-exceeded"
	KindDerefOfDeadReference   Kind = "dereference-of-dead-reference"
	KindAssignThroughImmutRef  Kind = "assign-through-immutable-reference"

	// Codegen errors.
	KindUnknownFunctionCodegen Kind = "unknown-function"
	KindDuplicateFunction      Kind = "duplicate-function-definition"
)

// Error is a single diagnostic: a position, a Kind, and a human-readable
// message.
type Error struct {
	Pos token.Position
	Kind  Kind
	Msg   string
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// List collects every diagnostic produced by a single pass run. A List
// with no entries is considered to have no error (nil Err()).
type List struct {
	errs []*Error
}

// Add appends a new diagnostic to the list.
func (l *List) Add(pos token.Position, kind Kind, format string, args ...interface{}) {
	l.errs = append(l.errs, &Error{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// Sort orders diagnostics by position, for stable, deterministic output.
func (l *List) Sort() {
	sort.SliceStable(l.errs, func(i, j int) bool {
		a, b := l.errs[i].Pos, l.errs[j].Pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Len reports how many diagnostics were collected.
func (l *List) Len() int { return len(l.errs) }

// Errs returns the individual diagnostics in collection order.
func (l *List) Errs() []*Error { return l.errs }

// Err returns the List as an error: nil if empty, the lone *Error if there
// is exactly one, and a *multierror.Error aggregating all of them
// otherwise, matching the propagation policy of spec.md §7 (the driver
// prints one line per violation but the pass still returns one error
// value).
func (l *List) Err() error {
	switch len(l.errs) {
	case 0:
		return nil
	case 1:
		return l.errs[0]
	default:
		me := new(multierror.Error)
		for _, e := range l.errs {
			me = multierror.Append(me, e)
		}
		me.ErrorFormat = func(errs []error) string {
			lines := make([]string, len(errs))
			for i, e := range errs {
				lines[i] = e.Error()
			}
			return strings.Join(lines, "\n")
		}
		return me
	}
}
