package stubber

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rhassan/pricedsl/internal/dslast"
	"github.com/rhassan/pricedsl/internal/dslparse"
)

const fibSource = "def fib(n): fib(n-1)+fib(n-2) if n > 2 else n\nfib(6)\n"

func TestCompileParallel_fibProducesSevenStubsAndRunsTo13(t *testing.T) {
	assert := assert.New(t)

	mod, err := dslparse.Parse(fibSource)
	if !assert.NoError(err) {
		return
	}
	env := dslast.Env{}

	graph, err := CompileParallel(mod, env)
	if !assert.NoError(err) {
		return
	}
	// fib(6..1) are six distinct memoised calls (fib(2) and fib(1) are base
	// cases, never expanded further); the module body itself is the root's
	// seventh stub.
	assert.Len(graph.Stubs, 7)
	assert.Contains(graph.Stubs, graph.RootID)

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
	values := make(map[string]dslast.Value)
	callCount := 0
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		resolved, err := Resolve(graph.Stubs[id].Expr, values)
		if !assert.NoError(err) {
			return
		}
		v, err := resolved.Evaluate(env)
		if !assert.NoError(err) {
			return
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
	assert.Equal(7, callCount, "every stub should be evaluated exactly once")
	assert.Equal(13.0, values[graph.RootID].Scalar())
}

func TestCompile_fibSerialInlinesToOneExpression(t *testing.T) {
	assert := assert.New(t)

	mod, err := dslparse.Parse(fibSource)
	if !assert.NoError(err) {
		return
	}
	env := dslast.Env{}

	node, err := Compile(mod, env)
	if !assert.NoError(err) {
		return
	}
	v, err := node.Evaluate(env)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(13.0, v.Scalar())
}

func TestCompile_emptyModuleIsSyntaxError(t *testing.T) {
	assert := assert.New(t)

	mod, err := dslparse.Parse("")
	if !assert.NoError(err) {
		return
	}

	_, err = Compile(mod, dslast.Env{})
	assert.Error(err)

	_, err = CompileParallel(mod, dslast.Env{})
	assert.Error(err)
}

func TestCompileParallel_memoisationReusesStubIDAcrossCallers(t *testing.T) {
	assert := assert.New(t)

	mod, err := dslparse.Parse(fibSource)
	if !assert.NoError(err) {
		return
	}
	env := dslast.Env{}

	graph, err := CompileParallel(mod, env)
	if !assert.NoError(err) {
		return
	}

	// fib(4) = fib(3) + fib(2); fib(3) = fib(2) + fib(1). fib(2) is
	// referenced from two different callers; if memoisation worked, there
	// is only one stub whose dependents list includes both fib(3)'s and
	// fib(4)'s stub ids instead of two separate fib(2) expansions.
	dependents := graph.Dependents()
	sharedCount := 0
	for _, deps := range dependents {
		if len(deps) >= 2 {
			sharedCount++
		}
	}
	assert.Greater(sharedCount, 0, "expected at least one stub reused by multiple dependents")
}
