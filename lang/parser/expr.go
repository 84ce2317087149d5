package parser

import (
	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/token"
)

// precedence table for the binary operators, grounded on
// original_source/src/climb.rs's operator-priority climber, reduced to
// this language's much smaller operator set.
var binPrec = map[token.Token]int{
	token.OROR:  1,
	token.ANDAND: 2,
	token.EQL:   3,
	token.LT:    4,
	token.GT:    4,
	token.PLUS:  5,
	token.MINUS: 5,
	token.STAR:  6,
	token.SLASH: 6,
}

// parseExpr parses a full expression with operator-precedence climbing.
func (p *parser) parseExpr() ast.Expr {
	return p.parseBinary(p.parseUnary(), 0)
}

func (p *parser) parseBinary(lhs ast.Expr, minPrec int) ast.Expr {
	for {
		prec, ok := binPrec[p.tok()]
		if !ok || prec < minPrec {
			return lhs
		}
		op := p.advance().Tok
		rhs := p.parseUnary()
		for {
			nextPrec, ok := binPrec[p.tok()]
			if !ok || nextPrec <= prec {
				break
			}
			rhs = p.parseBinary(rhs, prec+1)
		}
		lhs = &ast.BinOpExpr{Op: op, Left: lhs, Right: rhs}
	}
}

func (p *parser) parseUnary() ast.Expr {
	start := p.cur().Pos
	switch p.tok() {
	case token.BANG:
		p.advance()
		return &ast.UnaryOpExpr{Start: start, Op: ast.OpNot, X: p.parseUnary()}
	case token.MINUS:
		p.advance()
		return &ast.UnaryOpExpr{Start: start, Op: ast.OpNeg, X: p.parseUnary()}
	case token.STAR:
		p.advance()
		return &ast.UnaryOpExpr{Start: start, Op: ast.OpDeref, X: p.parseUnary()}
	case token.AMP:
		p.advance()
		if p.at(token.MUT) {
			p.advance()
			return &ast.UnaryOpExpr{Start: start, Op: ast.OpUnique, X: p.parseUnary()}
		}
		return &ast.UnaryOpExpr{Start: start, Op: ast.OpShare, X: p.parseUnary()}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

func (p *parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch {
		case p.at(token.LBRACK):
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACK)
			x = &ast.IndexExpr{Array: x, Index: idx}
		default:
			return x
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	tv := p.cur()
	switch tv.Tok {
	case token.INT:
		p.advance()
		return &ast.LiteralExpr{Start: tv.Pos, Type: ast.Int, Int: tv.Int}
	case token.TRUE:
		p.advance()
		return &ast.LiteralExpr{Start: tv.Pos, Type: ast.Bool, Bool: true}
	case token.FALSE:
		p.advance()
		return &ast.LiteralExpr{Start: tv.Pos, Type: ast.Bool, Bool: false}
	case token.STRING:
		p.advance()
		return &ast.LiteralExpr{Start: tv.Pos, Type: ast.Str, Str: tv.Str}
	case token.IDENT:
		p.advance()
		if p.at(token.BANG) && p.peekIsCall() {
			p.advance() // consume '!', preserved as CallExpr.Bang per spec.md §6
			return p.parseCallArgs(tv.Pos, tv.Ident, true)
		}
		if p.at(token.LPAREN) {
			return p.parseCallArgs(tv.Pos, tv.Ident, false)
		}
		return &ast.IdentExpr{Start: tv.Pos, Name: tv.Ident}
	case token.LPAREN:
		p.advance()
		// could be a parenthesised expression or unit literal "()"
		if p.at(token.RPAREN) {
			p.advance()
			return &ast.LiteralExpr{Start: tv.Pos, Type: ast.Unit}
		}
		inner := p.parseExpr()
		rp := p.expect(token.RPAREN).Pos
		return &ast.ParenExpr{Lparen: tv.Pos, Rparen: rp, X: inner}
	case token.LBRACE:
		return &ast.BlockExpr{Block: p.parseBlock()}
	case token.IF:
		return p.parseIf()
	case token.LBRACK:
		return p.parseArray()
	default:
		p.errorf(tv.Pos, "expected expression, found %#v", tv.Tok)
		p.advance()
		return &ast.LiteralExpr{Start: tv.Pos, Type: ast.Invalid}
	}
}

func (p *parser) peekIsCall() bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].Tok == token.LPAREN
}

func (p *parser) parseCallArgs(start token.Pos, callee string, bang bool) ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		args = append(args, p.parseExpr())
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	return &ast.CallExpr{Start: start, Callee: callee, Bang: bang, Args: args}
}

func (p *parser) parseIf() ast.Expr {
	start := p.expect(token.IF).Pos
	cond := p.parseExpr()
	then := p.parseBlock()
	var els *ast.Block
	if p.at(token.ELSE) {
		p.advance()
		if p.at(token.IF) {
			// "else if" desugars to an else-block containing one if-expression
			// statement, mirroring the way nested ifs are represented.
			inner := p.parseIf()
			start, end := inner.Span()
			els = &ast.Block{Start: start, End: end, Trailing: false,
				Stmts: []ast.Stmt{&ast.ExprStmt{X: inner}}}
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.IfExpr{Start: start, Cond: cond, Then: then, Else: els}
}

func (p *parser) parseArray() ast.Expr {
	start := p.expect(token.LBRACK).Pos
	first := p.parseExpr()
	if p.at(token.SEMI) {
		p.advance()
		n := p.parseExpr()
		end := p.expect(token.RBRACK).Pos
		return &ast.ArrayExpr{Start: start, End: end, Elems: []ast.Expr{first}, Repeat: true, RepeatN: n}
	}
	elems := []ast.Expr{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACK) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	end := p.expect(token.RBRACK).Pos
	return &ast.ArrayExpr{Start: start, End: end, Elems: elems}
}
