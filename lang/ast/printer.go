package ast

import (
	"fmt"
	"strings"
)

// Print renders e back to source text. It is used to satisfy spec.md §8's
// round-trip property: parsing Print's output and printing the result
// again yields the same text.
func Print(n Node) string {
	var sb strings.Builder
	printNode(&sb, n)
	return sb.String()
}

func printNode(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *IdentExpr:
		sb.WriteString(n.Name)
	case *LiteralExpr:
		printLiteral(sb, n)
	case *BinOpExpr:
		printNode(sb, n.Left)
		fmt.Fprintf(sb, " %s ", n.Op.String())
		printNode(sb, n.Right)
	case *UnaryOpExpr:
		sb.WriteString(n.Op.String())
		printNode(sb, n.X)
	case *ParenExpr:
		sb.WriteByte('(')
		printNode(sb, n.X)
		sb.WriteByte(')')
	case *IfExpr:
		sb.WriteString("if ")
		printNode(sb, n.Cond)
		sb.WriteByte(' ')
		printBlock(sb, n.Then)
		if n.Else != nil {
			sb.WriteString(" else ")
			printBlock(sb, n.Else)
		}
	case *BlockExpr:
		printBlock(sb, n.Block)
	case *ArrayExpr:
		sb.WriteByte('[')
		if n.Repeat {
			printNode(sb, n.Elems[0])
			sb.WriteString("; ")
			printNode(sb, n.RepeatN)
		} else {
			for i, e := range n.Elems {
				if i > 0 {
					sb.WriteString(", ")
				}
				printNode(sb, e)
			}
		}
		sb.WriteByte(']')
	case *IndexExpr:
		printNode(sb, n.Array)
		sb.WriteByte('[')
		printNode(sb, n.Index)
		sb.WriteByte(']')
	case *CallExpr:
		sb.WriteString(n.Callee)
		if n.Bang {
			sb.WriteByte('!')
		}
		sb.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			printNode(sb, a)
		}
		sb.WriteByte(')')
	case *LetStmt:
		sb.WriteString("let ")
		if n.Mutable {
			sb.WriteString("mut ")
		}
		sb.WriteString(n.Name.Name)
		if n.DeclType != nil {
			fmt.Fprintf(sb, ": %s", n.DeclType)
		}
		if n.Init != nil {
			sb.WriteString(" = ")
			printNode(sb, n.Init)
		}
		sb.WriteByte(';')
	case *AssignStmt:
		printNode(sb, n.Lhs)
		sb.WriteString(" = ")
		printNode(sb, n.Rhs)
		sb.WriteByte(';')
	case *WhileStmt:
		sb.WriteString("while ")
		printNode(sb, n.Cond)
		sb.WriteByte(' ')
		printBlock(sb, n.Body)
	case *ExprStmt:
		printNode(sb, n.X)
	case *BlockStmt:
		printBlock(sb, n.Block)
	case *FuncStmt:
		printNode(sb, n.Func)
	case *Func:
		sb.WriteString("fn ")
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		for i, p := range n.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			if p.Mutable {
				sb.WriteString("mut ")
			}
			fmt.Fprintf(sb, "%s: %s", p.Name.Name, p.Type)
		}
		sb.WriteByte(')')
		if n.Ret != nil && n.Ret.Kind != TUnit {
			fmt.Fprintf(sb, " -> %s", n.Ret)
		}
		sb.WriteByte(' ')
		printBlock(sb, n.Body)
	case *Static:
		sb.WriteString("static ")
		if n.Mutable {
			sb.WriteString("mut ")
		}
		fmt.Fprintf(sb, "%s: %s = ", n.Name.Name, n.DeclType)
		printNode(sb, n.Init)
		sb.WriteByte(';')
	case *Block:
		printBlock(sb, n)
	}
}

func printLiteral(sb *strings.Builder, n *LiteralExpr) {
	switch {
	case n.Type == nil:
		fmt.Fprintf(sb, "%d", n.Int)
	case n.Type.Kind == TBool:
		fmt.Fprintf(sb, "%t", n.Bool)
	case n.Type.Kind == TUnit:
		sb.WriteString("()")
	case n.Type.Kind == TString:
		fmt.Fprintf(sb, "%q", n.Str)
	default:
		fmt.Fprintf(sb, "%d", n.Int)
	}
}

func printBlock(sb *strings.Builder, b *Block) {
	sb.WriteByte('{')
	for i, s := range b.Stmts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		printNode(sb, s)
		if _, ok := s.(*ExprStmt); ok && (i < len(b.Stmts)-1 || b.Trailing) {
			sb.WriteByte(';')
		}
	}
	sb.WriteByte('}')
}
