package dslparse

import (
	"github.com/rhassan/pricedsl/internal/dslast"
	"github.com/rhassan/pricedsl/internal/dsllex"
)

// specialForms names the domain primitives that are recognised by callee
// name rather than produced by a generic FunctionCall, matching the closed
// node set in the owning language's semantic tree.
var specialForms = map[string]bool{
	"Date": true, "TimeDelta": true, "Market": true, "Fixing": true,
	"Settlement": true, "Wait": true, "Choice": true, "Max": true, "On": true,
}

// parseExpression parses a full expression: a ternary `then if cond else
// els` wrapping a comparison/arithmetic expression, right-associative so
// `a if b else c if d else e` reads as `a if b else (c if d else e)`.
func (p *parser) parseExpression() (dslast.Node, error) {
	then, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if !p.match(dsllex.KwIf) {
		return then, nil
	}
	cond, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(dsllex.KwElse); err != nil {
		return nil, err
	}
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &dslast.IfExp{Cond: cond, Then: then, Else: els}, nil
}

var compareOps = map[dsllex.Kind]string{
	dsllex.Eq: "==", dsllex.Ne: "!=", dsllex.Lt: "<", dsllex.Le: "<=",
	dsllex.Gt: ">", dsllex.Ge: ">=",
}

// parseComparison parses a chain `a op1 b op2 c ...`, folding it into a
// single Compare node when more than one comparator appears, and returning
// the bare additive expression when none does.
func (p *parser) parseComparison() (dslast.Node, error) {
	first, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := compareOps[p.peekKind()]
	if !ok {
		return first, nil
	}
	pos := dslast.Pos{Line: p.peek().Line, Col: p.peek().Col}
	operands := []dslast.Node{first}
	var ops []string
	var noSpaceBefore, noSpaceAfter []bool
	for {
		op, ok = compareOps[p.peekKind()]
		if !ok {
			break
		}
		prevTok := p.toks[p.pos-1]
		opTok := p.advance()
		nextTok := p.peek()
		next, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		operands = append(operands, next)
		ops = append(ops, op)
		noSpaceBefore = append(noSpaceBefore, adjacent(prevTok, opTok))
		noSpaceAfter = append(noSpaceAfter, adjacent(opTok, nextTok))
	}
	return &dslast.Compare{Operands: operands, Ops: ops, Pos: pos, NoSpaceBefore: noSpaceBefore, NoSpaceAfter: noSpaceAfter}, nil
}

func (p *parser) parseAdditive() (dslast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(dsllex.Plus) || p.check(dsllex.Minus) {
		prevTok := p.toks[p.pos-1]
		opTok := p.advance()
		nextTok := p.peek()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &dslast.BinOp{
			Op: opTok.Text, Left: left, Right: right, Pos: tokPos(opTok),
			NoSpaceBefore: adjacent(prevTok, opTok), NoSpaceAfter: adjacent(opTok, nextTok),
		}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (dslast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(dsllex.Star) || p.check(dsllex.Slash) || p.check(dsllex.DSlash) || p.check(dsllex.Percent) {
		prevTok := p.toks[p.pos-1]
		opTok := p.advance()
		nextTok := p.peek()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &dslast.BinOp{
			Op: opTok.Text, Left: left, Right: right, Pos: tokPos(opTok),
			NoSpaceBefore: adjacent(prevTok, opTok), NoSpaceAfter: adjacent(opTok, nextTok),
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (dslast.Node, error) {
	if p.check(dsllex.Minus) {
		opTok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &dslast.UnarySub{Operand: operand, Pos: tokPos(opTok)}, nil
	}
	return p.parsePower()
}

// parsePower handles right-associative `**`, whose exponent may itself be a
// unary-minus expression (`2**-2`), while a leading unary minus binds looser
// than `**` (`-2**2 == -4`).
func (p *parser) parsePower() (dslast.Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.check(dsllex.DStar) {
		prevTok := p.toks[p.pos-1]
		opTok := p.advance()
		nextTok := p.peek()
		exponent, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &dslast.BinOp{
			Op: "**", Left: base, Right: exponent, Pos: tokPos(opTok),
			NoSpaceBefore: adjacent(prevTok, opTok), NoSpaceAfter: adjacent(opTok, nextTok),
		}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (dslast.Node, error) {
	t := p.peek()
	switch t.Kind {
	case dsllex.Number:
		p.advance()
		n, err := dslast.NewNumber(t.Text)
		if err != nil {
			return nil, p.syntaxErrorf(t, "%s", err)
		}
		return n, nil
	case dsllex.String:
		p.advance()
		return &dslast.StringLit{Val: t.Text}, nil
	case dsllex.LParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(dsllex.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	case dsllex.Name:
		return p.parseNameOrCall()
	default:
		return nil, p.syntaxErrorf(t, "unexpected %s %q", t.Kind, t.Text)
	}
}

func tokPos(t dsllex.Token) dslast.Pos { return dslast.Pos{Line: t.Line, Col: t.Col} }

// adjacent reports whether b immediately follows a in the source with no
// intervening whitespace, i.e. b starts exactly where a's text ends on the
// same line.
func adjacent(a, b dsllex.Token) bool {
	return a.Line == b.Line && b.Col == a.Col+len(a.Text)
}

func (p *parser) parseNameOrCall() (dslast.Node, error) {
	nameTok := p.advance()
	if !p.check(dsllex.LParen) {
		return &dslast.Name{Ident: nameTok.Text, Pos: tokPos(nameTok)}, nil
	}
	p.advance() // consume '('
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(dsllex.RParen); err != nil {
		return nil, err
	}
	pos := tokPos(nameTok)

	if specialForms[nameTok.Text] {
		return p.buildSpecialForm(nameTok.Text, args, pos)
	}
	return &dslast.FunctionCall{Callee: nameTok.Text, Args: args, Pos: pos}, nil
}

func (p *parser) parseArgList() ([]dslast.Node, error) {
	var args []dslast.Node
	for !p.check(dsllex.RParen) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(dsllex.Comma) {
			break
		}
	}
	return args, nil
}

func (p *parser) buildSpecialForm(name string, args []dslast.Node, pos dslast.Pos) (dslast.Node, error) {
	arity := func(n int) error {
		if len(args) != n {
			return dslast.ArityError{Callee: name, Expected: n, Got: len(args), Pos: pos}
		}
		return nil
	}
	switch name {
	case "Date":
		if err := arity(1); err != nil {
			return nil, err
		}
		lit, ok := args[0].(*dslast.StringLit)
		if !ok {
			return nil, dslast.TypeError{Op: "Date", Pos: pos}
		}
		return dslast.NewDateLit(lit.Val)
	case "TimeDelta":
		if err := arity(1); err != nil {
			return nil, err
		}
		lit, ok := args[0].(*dslast.StringLit)
		if !ok {
			return nil, dslast.TypeError{Op: "TimeDelta", Pos: pos}
		}
		return dslast.NewTimeDeltaLit(lit.Val)
	case "Market":
		if err := arity(1); err != nil {
			return nil, err
		}
		lit, ok := args[0].(*dslast.StringLit)
		if !ok {
			return nil, dslast.TypeError{Op: "Market", Pos: pos}
		}
		return &dslast.Market{Name: lit.Val, Pos: pos}, nil
	case "Fixing":
		if err := arity(2); err != nil {
			return nil, err
		}
		return &dslast.Fixing{Date: args[0], Underlying: args[1], Pos: pos}, nil
	case "Settlement":
		if err := arity(2); err != nil {
			return nil, err
		}
		return &dslast.Settlement{Date: args[0], Expr: args[1], Pos: pos}, nil
	case "Wait":
		if err := arity(2); err != nil {
			return nil, err
		}
		return &dslast.Wait{Date: args[0], Expr: args[1], Pos: pos}, nil
	case "On":
		if err := arity(2); err != nil {
			return nil, err
		}
		return &dslast.On{Date: args[0], Expr: args[1], Pos: pos}, nil
	case "Choice":
		if err := arity(2); err != nil {
			return nil, err
		}
		return &dslast.Choice{A: args[0], B: args[1], Pos: pos}, nil
	case "Max":
		if err := arity(2); err != nil {
			return nil, err
		}
		return &dslast.Max{A: args[0], B: args[1], Pos: pos}, nil
	default:
		return nil, p.syntaxErrorf(p.peek(), "unknown special form %q", name)
	}
}
