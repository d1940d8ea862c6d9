package stubber

import "github.com/rhassan/pricedsl/internal/dslast"

// DependencyGraph is the parallel-mode compilation output: an acyclic graph
// of stubs, each storing its own (possibly still-stubbed) expression and the
// ids of the stubs it directly depends on. internal/runner evaluates it
// topologically and returns the root stub's value.
type DependencyGraph struct {
	RootID string
	Stubs  map[string]StubExpr
}

// StubExpr is one node of a DependencyGraph.
type StubExpr struct {
	Expr      dslast.Node
	DependsOn []string
}

// LeafIDs returns the ids of every stub with no dependencies, the initial
// ready set for a runner.
func (g *DependencyGraph) LeafIDs() []string {
	var leaves []string
	for id, s := range g.Stubs {
		if len(s.DependsOn) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// Dependents returns, for every stub id, the ids of stubs that directly
// depend on it.
func (g *DependencyGraph) Dependents() map[string][]string {
	out := make(map[string][]string, len(g.Stubs))
	for id, s := range g.Stubs {
		for _, dep := range s.DependsOn {
			out[dep] = append(out[dep], id)
		}
	}
	return out
}
