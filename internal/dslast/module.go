package dslast

import (
	"fmt"
	"strings"
)

// Module is the top-level parse result: an ordered sequence of function
// definitions followed by a single trailing expression whose value is the
// module's value. Definitions are ordered as written so Source() round-trips
// the original layout; resolution order does not depend on this ordering
// since every FunctionDef is bound into the root Namespace before any of
// them, or the trailing expression, is evaluated.
type Module struct {
	Defs []*FunctionDef
	Body Node
}

// Evaluate binds every definition into a fresh child namespace of env.NS
// (mutually recursive definitions can therefore call one another and
// themselves) and evaluates Body under it. Evaluate must not be called on a
// Module with a nil Body (no trailing expression); stubber.Compile /
// CompileParallel reject those before anything reaches Evaluate.
func (m *Module) Evaluate(env Env) (Value, error) {
	if m.Body == nil {
		return Value{}, fmt.Errorf("dslast: module has no trailing expression")
	}
	bindings := make(map[string]Node, len(m.Defs))
	for _, def := range m.Defs {
		bindings[def.Name] = def
	}
	root := env.NS
	if root == nil {
		root = NewNamespace()
	}
	ns := root.Child(bindings)
	return m.Body.Evaluate(env.WithNamespace(ns))
}

// ListStubs enumerates stub candidates across every definition body and the
// trailing expression, in source order.
func (m *Module) ListStubs(acc *[]Node) {
	for _, def := range m.Defs {
		def.ListStubs(acc)
	}
	if m.Body != nil {
		m.Body.ListStubs(acc)
	}
}

// Source renders the module back to DSL text: each definition, one per
// line, followed by the trailing expression — matching how the grammar
// itself separates a def from what follows it (a single NEWLINE), so a
// module parsed from ordinary one-def-per-line source round-trips exactly.
// A Module with a nil Body (only reachable by parsing the empty string, or
// a would-be module with defs but no trailing expression) renders as the
// empty string.
func (m *Module) Source() string {
	var sb strings.Builder
	for _, def := range m.Defs {
		sb.WriteString(def.Source())
		sb.WriteString("\n")
	}
	if m.Body != nil {
		sb.WriteString(m.Body.Source())
	}
	return sb.String()
}

func (m *Module) String() string {
	parts := make([]string, 0, len(m.Defs)+1)
	for _, def := range m.Defs {
		parts = append(parts, def.String())
	}
	if m.Body != nil {
		parts = append(parts, m.Body.String())
	}
	return "Module(" + strings.Join(parts, "; ") + ")"
}
