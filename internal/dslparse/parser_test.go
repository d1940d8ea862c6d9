package dslparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_arithmeticPrecedence(t *testing.T) {
	assert := assert.New(t)
	mod, err := Parse("1 + 2 * 3\n")
	assert.NoError(err)
	assert.Equal("BinOp(+, Number(1), BinOp(*, Number(2), Number(3)))", mod.Body.String())
}

func TestParse_powerIsRightAssociativeAndBindsTighterThanUnaryMinus(t *testing.T) {
	assert := assert.New(t)
	mod, err := Parse("-2 ** 2\n")
	assert.NoError(err)
	assert.Equal("UnarySub(BinOp(**, Number(2), Number(2)))", mod.Body.String())

	mod, err = Parse("2 ** -2\n")
	assert.NoError(err)
	assert.Equal("BinOp(**, Number(2), UnarySub(Number(2)))", mod.Body.String())
}

func TestParse_comparisonChain(t *testing.T) {
	assert := assert.New(t)
	mod, err := Parse("1 < 2 <= 3\n")
	assert.NoError(err)
	assert.Equal("Compare(Number(1), <, Number(2), <=, Number(3))", mod.Body.String())
}

func TestParse_ternaryIsRightAssociative(t *testing.T) {
	assert := assert.New(t)
	mod, err := Parse("a if b else c if d else e\n")
	assert.NoError(err)
	assert.Equal("IfExp(Name(b), Name(a), IfExp(Name(d), Name(c), Name(e)))", mod.Body.String())
}

func TestParse_specialForms(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "date literal", input: "Date('2012-01-01')\n", expect: "Date(2012-01-01)"},
		{name: "timedelta literal", input: "TimeDelta('10d')\n", expect: "TimeDelta(10d)"},
		{name: "market", input: "Market('#1')\n", expect: "Market(#1)"},
		{name: "max", input: "Max(1, 2)\n", expect: "Max(Number(1), Number(2))"},
		{name: "fixing", input: "Fixing(Date('2012-01-01'), Market('#1'))\n", expect: "Fixing(Date(2012-01-01), Market(#1))"},
		{name: "wait", input: "Wait(Date('2012-01-01'), Choice(Market('#1') - 9, 0))\n",
			expect: "Wait(Date(2012-01-01), Choice(BinOp(-, Market(#1), Number(9)), Number(0)))"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			mod, err := Parse(tc.input)
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, mod.Body.String())
		})
	}
}

func TestParse_functionDefInlineBody(t *testing.T) {
	assert := assert.New(t)
	mod, err := Parse("def fib(n): fib(n-1)+fib(n-2) if n>2 else n\nfib(6)\n")
	assert.NoError(err)
	if assert.Len(mod.Defs, 1) {
		assert.Equal("fib", mod.Defs[0].Name)
		assert.Equal([]string{"n"}, mod.Defs[0].Params)
	}
	assert.Equal("FunctionCall(fib, [Number(6)])", mod.Body.String())
}

func TestParse_functionDefIndentedBlockWithIfElse(t *testing.T) {
	assert := assert.New(t)
	src := "def f(n):\n    if n > 0:\n        n\n    else:\n        0\nf(5)\n"
	mod, err := Parse(src)
	if !assert.NoError(err) || !assert.Len(mod.Defs, 1) {
		return
	}
	assert.Equal("Block(If(Compare(Name(n), >, Number(0)), Block(Name(n)), Block(Number(0))))", mod.Defs[0].Body.String())
}

func TestParse_emptyInputSucceedsWithEmptyModule(t *testing.T) {
	assert := assert.New(t)
	mod, err := Parse("")
	if assert.NoError(err) {
		assert.Empty(mod.Defs)
		assert.Nil(mod.Body)
	}
}

func TestParse_roundTripsSource(t *testing.T) {
	assert := assert.New(t)
	mod, err := Parse("Max(1, 2)\n")
	assert.NoError(err)
	assert.Equal("Max(1, 2)", mod.Body.Source())
}

// TestParse_roundTripsFibSource exercises the exact fib source used
// throughout the suite's literal scenarios, which writes its BinOps tight
// ("n-1"), its comparison tight ("n>2"), and its def body inline — the
// combination that a canonical-spacing-only Source() cannot reproduce.
func TestParse_roundTripsFibSource(t *testing.T) {
	assert := assert.New(t)
	const src = "def fib(n): fib(n-1)+fib(n-2) if n>2 else n\nfib(6)\n"
	mod, err := Parse(src)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(strings.TrimSpace(src), strings.TrimSpace(mod.Source()))
}
