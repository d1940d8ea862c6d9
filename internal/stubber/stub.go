// Package stubber implements the compiler described in the owning language's
// design: serial mode inlines every FunctionCall against its FunctionDef
// with per-argument memoisation into one non-recursive expression; parallel
// mode performs the same memoised expansion but leaves each distinct call a
// Stub leaf, producing a DependencyGraph internal/runner can evaluate
// node-by-node. Both modes share the tree-rewrite in expand.go, grounded on
// the same recursive-AST-walk shape internal/tunascript/eval.go uses to
// substitute and reduce expressions, generalised here to also memoise on
// canonical argument values rather than walk a flat flag namespace.
package stubber

import (
	"fmt"

	"github.com/rhassan/pricedsl/internal/dslast"
)

// Stub is a placeholder standing for the not-yet-evaluated result of a
// memoised function call in a DependencyGraph. It carries no children of
// its own; internal/runner resolves it to a concrete value before the
// expression containing it is evaluated.
type Stub struct {
	ID string
}

func (s *Stub) Type() dslast.NodeKind { return dslast.KindStub }

func (s *Stub) Evaluate(dslast.Env) (dslast.Value, error) {
	return dslast.Value{}, dslast.NumericError{Msg: fmt.Sprintf("stub %s was evaluated before being resolved to a value", s.ID)}
}

func (s *Stub) SubstituteNames(map[string]dslast.Node) dslast.Node { return s }
func (s *Stub) ListStubs(acc *[]dslast.Node)                       { *acc = append(*acc, s) }
func (s *Stub) Source() string                                     { return fmt.Sprintf("Stub(%s)", s.ID) }
func (s *Stub) String() string                                     { return s.Source() }

// Resolve returns a copy of n with every Stub leaf replaced by a literal
// value node carrying values[stub.ID], for use immediately before
// evaluating a dependency graph node whose dependencies have all already
// been computed. It errors if n references a stub id absent from values.
func Resolve(n dslast.Node, values map[string]dslast.Value) (dslast.Node, error) {
	return resolveStubs(n, values)
}
