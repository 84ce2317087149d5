// Package ast defines the tagged-variant tree every compiler pass operates
// on: expressions, statements, blocks and top-level items. The tree is
// intentionally mutable — pre-declaration, linearisation and code
// generation all rewrite nodes in place, and later passes depend on the
// invariants earlier passes established (spec.md §5: "a failure in any
// pass aborts the compilation", "no pass leaves the tree in a
// half-updated state that a later pass would misinterpret").
package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mna/rnr/lang/token"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements fmt.Formatter so it can print a description of
	// itself; only 'v' and 's' are supported. '#' prints child counts, a
	// width pads/truncates, '-' pads right instead of left, '+' disables
	// padding.
	fmt.Formatter

	// Span reports the start and end position of the node.
	Span() (start, end token.Pos)
}

// Expr represents an expression in the AST — every expression case named
// in spec.md §3: identifier, literal, binary op, unary op, parenthesised,
// if/then/else, block, array literal, indexed read, indexed write, call.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement in the AST: let, assignment, while,
// expression, nested block, function declaration (spec.md §3).
type Stmt interface {
	Node
}

// Block represents a block of statements. Trailing records whether the
// block's value equals the value of its last statement (Trailing==false)
// or unit (Trailing==true) — spec.md §3's "Block terminal form" invariant.
type Block struct {
	Start    token.Pos
	End      token.Pos
	Stmts    []Stmt
	Trailing bool

	// Name is filled in by the linearisation pass: the root block is "_",
	// each child block appends the next letter (a, b, c, ...), mirroring
	// the teacher's NameBlocks resolver mode. Used to build canonical
	// names and the code generator's lexical function-name suffixes.
	Name string
}

func (b *Block) Format(f fmt.State, verb rune) {
	format(f, verb, b, "block", map[string]int{"stmts": len(b.Stmts)})
}
func (b *Block) Span() (start, end token.Pos) { return b.Start, b.End }

// Value returns the expression the block yields when non-trailing and its
// last statement is an expression statement; nil otherwise (the block
// yields unit).
func (b *Block) Value() Expr {
	if b.Trailing || len(b.Stmts) == 0 {
		return nil
	}
	if es, ok := b.Stmts[len(b.Stmts)-1].(*ExprStmt); ok {
		return es.X
	}
	return nil
}

func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		if len(runes) >= w {
			runes = runes[:w]
		} else if minus {
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		} else if !plus {
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
