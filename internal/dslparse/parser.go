// Package dslparse turns a dsllex token stream into a dslast semantic tree.
// It combines a Pratt expression parser (grounded on
// internal/tunascript/parser.go's nud/led/binding-power design, adapted from
// per-token-class methods to a precedence-climbing recursive descent since
// this grammar's operator set is small and fixed) with a recursive-descent
// statement parser for `def`/`if` blocks, which tunascript's flat expression
// grammar never needed.
package dslparse

import (
	"fmt"

	"github.com/rhassan/pricedsl/internal/dslast"
	"github.com/rhassan/pricedsl/internal/dsllex"
)

// Parse lexes and parses source into a Module. A module with no trailing
// expression — including the empty string — parses successfully into a
// Module with a nil Body; rejecting that is stubber.Compile/CompileParallel's
// job, matching "parse("") succeeds (empty module); compile("") and eval("")
// fail with a syntax error".
func Parse(source string) (*dslast.Module, error) {
	toks, err := dsllex.Lex(source)
	if err != nil {
		return nil, dslast.SyntaxError{Msg: err.Error()}
	}
	p := &parser{toks: toks}
	return p.parseModule()
}

type parser struct {
	toks []dsllex.Token
	pos  int
}

func (p *parser) peek() dsllex.Token  { return p.toks[p.pos] }
func (p *parser) peekKind() dsllex.Kind { return p.toks[p.pos].Kind }

func (p *parser) advance() dsllex.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) check(k dsllex.Kind) bool { return p.peekKind() == k }

func (p *parser) match(k dsllex.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(k dsllex.Kind) (dsllex.Token, error) {
	if !p.check(k) {
		t := p.peek()
		return t, p.syntaxErrorf(t, "expected %s, found %s %q", k, t.Kind, t.Text)
	}
	return p.advance(), nil
}

func (p *parser) syntaxErrorf(t dsllex.Token, format string, args ...interface{}) error {
	return dslast.SyntaxError{Msg: fmt.Sprintf(format, args...), Pos: dslast.Pos{Line: t.Line, Col: t.Col}}
}

// skipBlankLines consumes any run of bare NEWLINE tokens, which the lexer
// emits for source blank lines (those never produce INDENT/DEDENT).
func (p *parser) skipBlankLines() {
	for p.match(dsllex.Newline) {
	}
}

func (p *parser) parseModule() (*dslast.Module, error) {
	p.skipBlankLines()
	var defs []*dslast.FunctionDef
	for p.check(dsllex.KwDef) {
		def, err := p.parseFunctionDef()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
		p.skipBlankLines()
	}

	// A module with no trailing expression (including the wholly empty
	// source) parses successfully with a nil Body; it is stubber.Compile /
	// CompileParallel that reject it, matching "parse("") succeeds (empty
	// module); compile("") and eval("") fail with a syntax error".
	if p.check(dsllex.EOF) {
		return &dslast.Module{Defs: defs}, nil
	}

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipBlankLines()
	if !p.check(dsllex.EOF) {
		return nil, p.syntaxErrorf(p.peek(), "unexpected %s %q after module's trailing expression", p.peekKind(), p.peek().Text)
	}
	return &dslast.Module{Defs: defs, Body: body}, nil
}

func (p *parser) parseFunctionDef() (*dslast.FunctionDef, error) {
	kw, _ := p.expect(dsllex.KwDef)
	nameTok, err := p.expect(dsllex.Name)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(dsllex.LParen); err != nil {
		return nil, err
	}
	var params []string
	for !p.check(dsllex.RParen) {
		pt, err := p.expect(dsllex.Name)
		if err != nil {
			return nil, err
		}
		params = append(params, pt.Text)
		if !p.match(dsllex.Comma) {
			break
		}
	}
	if _, err := p.expect(dsllex.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(dsllex.Colon); err != nil {
		return nil, err
	}

	body, inline, err := p.parseDefBody()
	if err != nil {
		return nil, err
	}
	return &dslast.FunctionDef{Name: nameTok.Text, Params: params, Body: body, Pos: dslast.Pos{Line: kw.Line, Col: kw.Col}, Inline: inline}, nil
}

// parseDefBody parses either an indented block (when the colon is followed
// by a NEWLINE) or a single inline expression on the same source line as
// the `def`, per "with either an indented block or a single expression". The
// returned bool reports which form was written, so FunctionDef.Source() can
// reproduce it.
func (p *parser) parseDefBody() (dslast.Node, bool, error) {
	if p.check(dsllex.Newline) {
		p.advance()
		block, err := p.parseIndentedBlock()
		return block, false, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, false, err
	}
	if !p.check(dsllex.EOF) {
		if _, err := p.expect(dsllex.Newline); err != nil {
			return nil, false, err
		}
	}
	return expr, true, nil
}

// parseIndentedBlock consumes an INDENT, a sequence of statements, and the
// matching DEDENT, returning a *dslast.Block.
func (p *parser) parseIndentedBlock() (dslast.Node, error) {
	if _, err := p.expect(dsllex.Indent); err != nil {
		return nil, err
	}
	var stmts []dslast.Node
	for {
		p.skipBlankLines()
		if p.check(dsllex.Dedent) || p.check(dsllex.EOF) {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(dsllex.Dedent); err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, p.syntaxErrorf(p.peek(), "empty block")
	}
	return &dslast.Block{Stmts: stmts}, nil
}

// parseStatement parses one statement inside an indented block: either an
// `if`/`elif`/`else` chain, or a plain expression statement terminated by a
// NEWLINE.
func (p *parser) parseStatement() (dslast.Node, error) {
	if p.check(dsllex.KwIf) {
		return p.parseIf()
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.check(dsllex.EOF) {
		if _, err := p.expect(dsllex.Newline); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func (p *parser) parseIf() (dslast.Node, error) {
	kw, _ := p.expect(dsllex.KwIf)
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(dsllex.Colon); err != nil {
		return nil, err
	}
	if _, err := p.expect(dsllex.Newline); err != nil {
		return nil, err
	}
	then, err := p.parseIndentedBlock()
	if err != nil {
		return nil, err
	}

	node := &dslast.If{Cond: cond, Then: then, Pos: dslast.Pos{Line: kw.Line, Col: kw.Col}}

	switch {
	case p.check(dsllex.KwElif):
		elif, err := p.parseElif()
		if err != nil {
			return nil, err
		}
		node.Else = elif
	case p.match(dsllex.KwElse):
		if _, err := p.expect(dsllex.Colon); err != nil {
			return nil, err
		}
		if _, err := p.expect(dsllex.Newline); err != nil {
			return nil, err
		}
		els, err := p.parseIndentedBlock()
		if err != nil {
			return nil, err
		}
		node.Else = els
	}
	return node, nil
}

// parseElif parses an `elif` clause the same way as `if`, so it naturally
// nests as If.Else.
func (p *parser) parseElif() (dslast.Node, error) {
	kw, _ := p.expect(dsllex.KwElif)
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(dsllex.Colon); err != nil {
		return nil, err
	}
	if _, err := p.expect(dsllex.Newline); err != nil {
		return nil, err
	}
	then, err := p.parseIndentedBlock()
	if err != nil {
		return nil, err
	}
	node := &dslast.If{Cond: cond, Then: then, Pos: dslast.Pos{Line: kw.Line, Col: kw.Col}}
	switch {
	case p.check(dsllex.KwElif):
		elif, err := p.parseElif()
		if err != nil {
			return nil, err
		}
		node.Else = elif
	case p.match(dsllex.KwElse):
		if _, err := p.expect(dsllex.Colon); err != nil {
			return nil, err
		}
		if _, err := p.expect(dsllex.Newline); err != nil {
			return nil, err
		}
		els, err := p.parseIndentedBlock()
		if err != nil {
			return nil, err
		}
		node.Else = els
	}
	return node, nil
}
