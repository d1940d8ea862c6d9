package dslast

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"
)

// Pos is a source location, 1-indexed in both fields, matching the
// convention used throughout the lexer and parser.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.Line == 0 {
		return ""
	}
	return fmt.Sprintf("line %d, col %d", p.Line, p.Col)
}

// SyntaxError is raised by the lexer or parser for unsupported constructs,
// malformed source, or empty input where a non-empty module is required.
type SyntaxError struct {
	Msg        string
	Pos        Pos
	SourceLine string
}

func (e SyntaxError) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("syntax error: %s", e.Msg)
	}
	return fmt.Sprintf("syntax error: around %s: %s", e.Pos, e.Msg)
}

// fullMessageWrapWidth bounds how wide FullMessage wraps the error text
// itself, independent of the offending source line (which is shown
// verbatim so the cursor still lines up under the right column).
const fullMessageWrapWidth = 78

// FullMessage renders the offending source line with a cursor beneath the
// error column, then the (possibly multi-line) error text wrapped to a
// terminal-friendly width, the same console-message wrapping
// engine.go applies before printing.
func (e SyntaxError) FullMessage() string {
	wrapped := rosed.Edit(e.Error()).Wrap(fullMessageWrapWidth).String()
	if e.SourceLine == "" {
		return wrapped
	}
	cursor := strings.Repeat(" ", e.Pos.Col-1) + "^"
	return e.SourceLine + "\n" + cursor + "\n" + wrapped
}

// NameError is raised when a Name cannot be resolved against the current
// Namespace at evaluation time.
type NameError struct {
	Name string
	Pos  Pos
}

func (e NameError) Error() string {
	return fmt.Sprintf("name %q is not defined (%s)", e.Name, e.Pos)
}

// ArityError is raised when a call or primitive receives the wrong number
// of arguments.
type ArityError struct {
	Callee   string
	Expected int
	Got      int
	Pos      Pos
}

func (e ArityError) Error() string {
	return fmt.Sprintf("%s() takes %d argument(s), got %d (%s)", e.Callee, e.Expected, e.Got, e.Pos)
}

// TypeError is raised when an operator or primitive receives operands of
// incompatible Kind.
type TypeError struct {
	Op   string
	Kind []Kind
	Pos  Pos
}

func (e TypeError) Error() string {
	kinds := make([]string, len(e.Kind))
	for i, k := range e.Kind {
		kinds[i] = k.String()
	}
	return fmt.Sprintf("incompatible operand types for %s: %v (%s)", e.Op, kinds, e.Pos)
}

// NumericError is raised for non-finite results or regression failures
// that even the pseudo-inverse fallback could not resolve.
type NumericError struct {
	Msg string
	Pos Pos
}

func (e NumericError) Error() string {
	return fmt.Sprintf("numeric error: %s (%s)", e.Msg, e.Pos)
}
