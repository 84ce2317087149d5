// Package parser implements the recursive-descent statement/item parser
// and a precedence-climbing expression parser. It is an external
// collaborator of the core passes (spec.md §1) supplied here so the CLI
// is runnable end to end; grounded on the teacher's lang/parser package
// for overall shape (a parser struct walking a pre-scanned token slice)
// and on original_source/src/climb.rs for the operator-priority table
// this language actually needs.
package parser

import (
	"fmt"
	"go/scanner"
	gotoken "go/token"

	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/lexer"
	"github.com/mna/rnr/lang/token"
)

// ParseFile scans and parses src (registered as name in fset) into an
// *ast.File. On any lexical or syntax error, the returned error is
// guaranteed to be a scanner.ErrorList, collecting as many diagnostics as
// possible rather than stopping at the first.
func ParseFile(fset *token.FileSet, name, src string) (*ast.File, error) {
	f := fset.AddFile(name, src)
	toks, lerr := lexer.Scan(f, src)
	p := &parser{file: f, toks: toks}
	file := p.parseFile(name)
	if lerr != nil {
		if el, ok := lerr.(*scanner.ErrorList); ok {
			p.errs = append(*el, p.errs...)
		}
	}
	if len(p.errs) == 0 {
		return file, nil
	}
	el := scanner.ErrorList(p.errs)
	el.Sort()
	return file, el.Err()
}

type parser struct {
	file *token.File
	toks []lexer.TokenAndValue
	pos  int
	errs []*scanner.Error
}

func (p *parser) cur() lexer.TokenAndValue  { return p.toks[p.pos] }
func (p *parser) tok() token.Token          { return p.toks[p.pos].Tok }
func (p *parser) at(t token.Token) bool     { return p.tok() == t }
func (p *parser) advance() lexer.TokenAndValue {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(pos token.Pos, format string, args ...interface{}) {
	line, col := pos.LineCol()
	p.errs = append(p.errs, &scanner.Error{
		Pos: gotoken.Position{Filename: p.file.Name(), Line: line, Column: col},
		Msg: fmt.Sprintf(format, args...),
	})
}

// expect consumes the current token if it matches t, reporting an error
// and leaving the cursor in place otherwise (so parsing can keep going and
// collect further diagnostics, matching spec.md §7's "batch diagnostics"
// intent for the user-visible surface parser).
func (p *parser) expect(t token.Token) lexer.TokenAndValue {
	if p.tok() != t {
		p.errorf(p.cur().Pos, "expected %#v, found %#v", t, p.tok())
		return p.cur()
	}
	return p.advance()
}

func (p *parser) parseFile(name string) *ast.File {
	var items []ast.Item
	for !p.at(token.EOF) {
		items = append(items, p.parseItem())
	}
	assignPriorities(items)
	return &ast.File{Name: name, Items: items}
}

// assignPriorities orders items so statics precede functions and so a
// designated main function is always moved last, per spec.md's Item
// invariant ("each item carries a priority used to order them so that
// definitions precede their earliest legal use; a designated main
// function is always moved last").
func assignPriorities(items []ast.Item) {
	for i, it := range items {
		switch it := it.(type) {
		case *ast.Static:
			it.Priority = i
		case *ast.Func:
			it.Priority = i + len(items)
			if it.Name == "main" {
				it.IsMain = true
				it.Priority = 2 * len(items)
			}
		}
	}
}

func (p *parser) parseItem() ast.Item {
	switch {
	case p.at(token.FN):
		return p.parseFunc()
	case p.at(token.STATIC):
		return p.parseStatic()
	default:
		p.errorf(p.cur().Pos, "expected item (fn or static), found %#v", p.tok())
		p.advance()
		return &ast.Func{Body: &ast.Block{}}
	}
}

func (p *parser) parseStatic() *ast.Static {
	start := p.advance().Pos // consume "static" pseudo-keyword
	mutable := false
	if p.at(token.MUT) {
		p.advance()
		mutable = true
	}
	name := p.parseIdent()
	p.expect(token.COLON)
	ty := p.parseType()
	p.expect(token.EQ)
	init := p.parseExpr()
	p.expect(token.SEMI)
	return &ast.Static{Start: start, Name: name, Mutable: mutable, DeclType: ty, Init: init}
}

func (p *parser) parseFunc() *ast.Func {
	start := p.expect(token.FN).Pos
	name := p.expect(token.IDENT).Ident
	p.expect(token.LPAREN)
	var params []ast.Param
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		mutable := false
		if p.at(token.MUT) {
			p.advance()
			mutable = true
		}
		pname := p.parseIdent()
		p.expect(token.COLON)
		pty := p.parseType()
		params = append(params, ast.Param{Name: pname, Type: pty, Mutable: mutable})
		if p.at(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	ret := ast.Unit
	if p.at(token.ARROW) {
		p.advance()
		ret = p.parseType()
	}
	body := p.parseBlock()
	return &ast.Func{Start: start, Name: name, Params: params, Ret: ret, Body: body}
}

func (p *parser) parseIdent() *ast.IdentExpr {
	t := p.expect(token.IDENT)
	return &ast.IdentExpr{Start: t.Pos, Name: t.Ident}
}

func (p *parser) parseType() *ast.Type {
	switch {
	case p.tok() == token.IDENT && p.cur().Ident == "i32":
		p.advance()
		return ast.Int
	case p.tok() == token.IDENT && p.cur().Ident == "bool":
		p.advance()
		return ast.Bool
	case p.tok() == token.IDENT && p.cur().Ident == "String":
		p.advance()
		return ast.Str
	case p.at(token.LPAREN):
		p.advance()
		p.expect(token.RPAREN)
		return ast.Unit
	case p.at(token.LBRACK):
		p.advance()
		elem := p.parseType()
		p.expect(token.SEMI)
		n := p.expect(token.INT)
		p.expect(token.RBRACK)
		return ast.ArrayOf(elem, int(n.Int))
	case p.at(token.AMP):
		p.advance()
		mutable := false
		if p.at(token.MUT) {
			p.advance()
			mutable = true
		}
		return ast.RefOf(p.parseType(), mutable)
	default:
		p.errorf(p.cur().Pos, "expected type, found %#v", p.tok())
		p.advance()
		return ast.Invalid
	}
}

// parseBlock parses "{" stmt* "}" and determines Trailing: true unless the
// last statement is an expression statement not immediately followed by a
// semicolon (spec.md's Block terminal form invariant).
func (p *parser) parseBlock() *ast.Block {
	start := p.expect(token.LBRACE).Pos
	b := &ast.Block{Start: start, Trailing: true}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		stmt, trailing := p.parseStmt()
		b.Stmts = append(b.Stmts, stmt)
		b.Trailing = trailing
	}
	end := p.expect(token.RBRACE).Pos
	b.End = end
	return b
}

// parseStmt parses one statement and reports whether the block should be
// considered trailing if this is its last statement (i.e. whether a
// semicolon followed it).
func (p *parser) parseStmt() (ast.Stmt, bool) {
	switch {
	case p.at(token.LET):
		return p.parseLet(), true
	case p.at(token.WHILE):
		return p.parseWhile(), true
	case p.at(token.FN):
		return &ast.FuncStmt{Func: p.parseFunc()}, true
	case p.at(token.LBRACE):
		return &ast.BlockStmt{Block: p.parseBlock()}, true
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *parser) parseLet() *ast.LetStmt {
	start := p.expect(token.LET).Pos
	mutable := false
	if p.at(token.MUT) {
		p.advance()
		mutable = true
	}
	name := p.parseIdent()
	var ty *ast.Type
	if p.at(token.COLON) {
		p.advance()
		ty = p.parseType()
	}
	var init ast.Expr
	if p.at(token.EQ) {
		p.advance()
		init = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.LetStmt{Start: start, Name: name, Mutable: mutable, DeclType: ty, Init: init}
}

func (p *parser) parseWhile() *ast.WhileStmt {
	start := p.expect(token.WHILE).Pos
	cond := p.parseExpr()
	body := p.parseBlock()
	if p.at(token.SEMI) {
		p.advance()
	}
	return &ast.WhileStmt{Start: start, Cond: cond, Body: body}
}

func (p *parser) parseExprOrAssignStmt() (ast.Stmt, bool) {
	x := p.parseExpr()
	if p.at(token.EQ) {
		p.advance()
		rhs := p.parseExpr()
		p.expect(token.SEMI)
		return &ast.AssignStmt{Lhs: x, Rhs: rhs}, true
	}
	if p.at(token.SEMI) {
		p.advance()
		return &ast.ExprStmt{X: x}, true
	}
	// no trailing semicolon: this expression is the block's value
	return &ast.ExprStmt{X: x}, false
}
