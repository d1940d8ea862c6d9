// Package dsllex turns contract-pricing DSL source into a token stream,
// synthesising NEWLINE/INDENT/DEDENT tokens from source layout the way
// Python's tokenizer does, since the grammar uses indentation (not braces)
// to delimit `def`/`if` bodies. The rule-table scanning approach and the
// token shape (class, lexeme, line, col) are grounded on
// internal/tunascript/lexer.go's matchRule/token design, widened with an
// indentation stack that flat tokenizer never needed.
package dsllex

import "fmt"

// Kind classifies a Token.
type Kind int

const (
	EOF Kind = iota
	Newline
	Indent
	Dedent
	Name
	Number
	String
	KwDef
	KwIf
	KwElif
	KwElse
	KwAnd
	KwOr
	KwNot
	LParen
	RParen
	Comma
	Colon
	Plus
	Minus
	Star
	DStar  // **
	Slash
	DSlash // //
	Percent
	Eq  // ==
	Ne  // !=
	Lt
	Le
	Gt
	Ge
)

var kindNames = [...]string{
	"EOF", "NEWLINE", "INDENT", "DEDENT", "NAME", "NUMBER", "STRING",
	"def", "if", "elif", "else", "and", "or", "not",
	"(", ")", ",", ":", "+", "-", "*", "**", "/", "//", "%",
	"==", "!=", "<", "<=", ">", ">=",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"def":  KwDef,
	"if":   KwIf,
	"elif": KwElif,
	"else": KwElse,
	"and":  KwAnd,
	"or":   KwOr,
	"not":  KwNot,
}

// Token is one lexical unit: its class, the literal source text, and its
// 1-indexed source position.
type Token struct {
	Kind Kind
	Text string
	Line int
	Col  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Text, t.Line, t.Col)
}
