package stubber

import "github.com/rhassan/pricedsl/internal/dslast"

// Compile performs serial-mode compilation: every FunctionCall in mod.Body
// is replaced by its memoised, fully expanded body, producing one
// non-recursive expression that Evaluate can compute directly. env supplies
// the evaluation kwargs (present_time, interest_rate, market data) needed to
// reduce call arguments to concrete memoisation keys.
func Compile(mod *dslast.Module, env dslast.Env) (dslast.Node, error) {
	if mod.Body == nil {
		return nil, dslast.SyntaxError{Msg: "empty module: a trailing expression is required"}
	}
	root := env.NS
	if root == nil {
		root = dslast.NewNamespace()
	}
	bindings := make(map[string]dslast.Node, len(mod.Defs))
	for _, def := range mod.Defs {
		bindings[def.Name] = def
	}
	ns := root.Child(bindings)

	e := newExpander(env, false)
	return e.expand(mod.Body, ns)
}

// CompileParallel performs parallel-mode compilation: the same memoised
// expansion as Compile, but every distinct function call becomes a Stub
// leaf and its expanded body is recorded as a separate graph node, along
// with the ids of the stubs it directly references. The module's full
// (stub-leaved) body is itself stored as one more stub, the graph's root,
// so DependencyGraph.RootID is always present even when the body is not a
// single function call.
func CompileParallel(mod *dslast.Module, env dslast.Env) (*DependencyGraph, error) {
	if mod.Body == nil {
		return nil, dslast.SyntaxError{Msg: "empty module: a trailing expression is required"}
	}
	root := env.NS
	if root == nil {
		root = dslast.NewNamespace()
	}
	bindings := make(map[string]dslast.Node, len(mod.Defs))
	for _, def := range mod.Defs {
		bindings[def.Name] = def
	}
	ns := root.Child(bindings)

	e := newExpander(env, true)
	rootID := e.allocID()
	body, err := e.expand(mod.Body, ns)
	if err != nil {
		return nil, err
	}
	e.stubs[rootID] = body
	e.deps[rootID] = directStubIDs(body)

	graph := &DependencyGraph{RootID: rootID, Stubs: make(map[string]StubExpr, len(e.stubs))}
	for id, expr := range e.stubs {
		graph.Stubs[id] = StubExpr{Expr: expr, DependsOn: e.deps[id]}
	}
	return graph, nil
}
