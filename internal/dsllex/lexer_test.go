package dsllex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLex_kindSequence(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    []Kind
		expectErr bool
	}{
		{name: "number", input: "42", expect: []Kind{Number, Newline, EOF}},
		{name: "real number", input: "3.14", expect: []Kind{Number, Newline, EOF}},
		{name: "string literal", input: "'#1'", expect: []Kind{String, Newline, EOF}},
		{name: "name", input: "fib", expect: []Kind{Name, Newline, EOF}},
		{name: "keyword def", input: "def", expect: []Kind{KwDef, Newline, EOF}},
		{name: "simple call", input: "fib(6)", expect: []Kind{Name, LParen, Number, RParen, Newline, EOF}},
		{name: "comparison operators", input: "a <= b", expect: []Kind{Name, Le, Name, Newline, EOF}},
		{name: "arithmetic operators", input: "a + b - c * d / e // f % g ** h", expect: []Kind{
			Name, Plus, Name, Minus, Name, Star, Name, Slash, Name, DSlash, Name, Percent, Name, DStar, Name, Newline, EOF,
		}},
		{name: "paren suppresses newline", input: "fib(\n6\n)", expect: []Kind{Name, LParen, Number, RParen, Newline, EOF}},
		{name: "unsupported character", input: "a & b", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			toks, err := Lex(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expect, kinds(toks))
		})
	}
}

func TestLex_indentation(t *testing.T) {
	assert := assert.New(t)
	src := "def f(n):\n    if n > 0:\n        n\n    else:\n        0\n"
	toks, err := Lex(src)
	assert.NoError(err)
	assert.Equal([]Kind{
		KwDef, Name, LParen, Name, RParen, Colon, Newline,
		Indent, KwIf, Name, Gt, Number, Colon, Newline,
		Indent, Name, Newline,
		Dedent, KwElse, Colon, Newline,
		Indent, Number, Newline,
		Dedent, Dedent, EOF,
	}, kinds(toks))
}

func TestLex_blankAndCommentLinesDoNotAffectIndentation(t *testing.T) {
	assert := assert.New(t)
	src := "def f(n):\n\n    # a comment\n    n\n"
	toks, err := Lex(src)
	assert.NoError(err)
	assert.Equal([]Kind{
		KwDef, Name, LParen, Name, RParen, Colon, Newline,
		Indent, Name, Newline,
		Dedent, EOF,
	}, kinds(toks))
}
