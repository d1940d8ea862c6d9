// Package runner evaluates a stubber.DependencyGraph, the output of
// parallel-mode compilation. Both variants share one contract (every stub
// evaluated exactly once, in a topological order of the graph, terminating
// when the root stub has a value) and grounded on the same
// coordinator/worker split as internal/buffalo-style channel coordination
// used elsewhere in the teacher pack, generalised to a dependency-counted
// ready queue rather than a fixed pipeline.
package runner

import (
	"fmt"

	"github.com/rhassan/pricedsl/internal/dslast"
	"github.com/rhassan/pricedsl/internal/stubber"
)

// Sequential evaluates graph in one goroutine. Order among stubs with no
// mutual dependency is deterministic: the order their waiting counts hit
// zero, which for a fixed graph is reproducible across runs.
func Sequential(graph *stubber.DependencyGraph, env dslast.Env) (dslast.Value, int, error) {
	waiting := make(map[string]int, len(graph.Stubs))
	for id, s := range graph.Stubs {
		waiting[id] = len(s.DependsOn)
	}
	dependents := graph.Dependents()

	var ready []string
	for id, n := range waiting {
		if n == 0 {
			ready = append(ready, id)
		}
	}

	values := make(map[string]dslast.Value, len(graph.Stubs))
	callCount := 0

	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		stub, ok := graph.Stubs[id]
		if !ok {
			return dslast.Value{}, 0, fmt.Errorf("runner: dependency graph references unknown stub %q", id)
		}
		resolved, err := stubber.Resolve(stub.Expr, values)
		if err != nil {
			return dslast.Value{}, 0, err
		}
		v, err := resolved.Evaluate(env)
		if err != nil {
			return dslast.Value{}, 0, err
		}
		values[id] = v
		callCount++

		for _, dep := range dependents[id] {
			waiting[dep]--
			if waiting[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	root, ok := values[graph.RootID]
	if !ok {
		return dslast.Value{}, 0, fmt.Errorf("runner: graph did not resolve to a root value (cycle or missing dependency involving %q)", graph.RootID)
	}
	return root, callCount, nil
}
