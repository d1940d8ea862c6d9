package runner

import (
	"fmt"
	"sync"

	"github.com/rhassan/pricedsl/internal/dslast"
	"github.com/rhassan/pricedsl/internal/stubber"
)

// job is one unit of dispatch: a stub id plus the already-resolved values
// its expression depends on, enough for a worker to materialise and
// evaluate it without touching shared coordinator state.
type job struct {
	id     string
	expr   dslast.Node
	values map[string]dslast.Value
}

type outcome struct {
	id  string
	val dslast.Value
	err error
}

// Pool evaluates graph across n worker goroutines, communicating over a
// ready queue and a results queue the way the owning design's multi-process
// variant uses two queues between a coordinator and N workers — goroutines
// and channels stand in for OS processes/queues, valid here since value
// vectors are shared by read-only reference rather than requiring a process
// boundary. The coordinator holds all dependency-count and results state;
// workers are stateless and only ever see one job's already-resolved inputs.
func Pool(graph *stubber.DependencyGraph, env dslast.Env, n int) (dslast.Value, int, error) {
	if n < 1 {
		n = 1
	}

	waiting := make(map[string]int, len(graph.Stubs))
	for id, s := range graph.Stubs {
		waiting[id] = len(s.DependsOn)
	}
	dependents := graph.Dependents()

	readyCh := make(chan job, len(graph.Stubs)+1)
	resultsCh := make(chan outcome, len(graph.Stubs)+1)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for j := range readyCh {
			resolved, err := stubber.Resolve(j.expr, j.values)
			if err != nil {
				resultsCh <- outcome{id: j.id, err: err}
				continue
			}
			v, err := resolved.Evaluate(env)
			resultsCh <- outcome{id: j.id, val: v, err: err}
		}
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go worker()
	}

	values := make(map[string]dslast.Value, len(graph.Stubs))
	dispatched := 0
	dispatch := func(id string) {
		stub := graph.Stubs[id]
		snapshot := make(map[string]dslast.Value, len(values))
		for k, v := range values {
			snapshot[k] = v
		}
		dispatched++
		readyCh <- job{id: id, expr: stub.Expr, values: snapshot}
	}

	for id, c := range waiting {
		if c == 0 {
			dispatch(id)
		}
	}

	callCount := 0
	var firstErr error
	for callCount < dispatched {
		res := <-resultsCh
		callCount++
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		values[res.id] = res.val
		for _, dep := range dependents[res.id] {
			waiting[dep]--
			if waiting[dep] == 0 {
				dispatch(dep)
			}
		}
	}
	close(readyCh)
	wg.Wait()

	if firstErr != nil {
		return dslast.Value{}, 0, firstErr
	}
	root, ok := values[graph.RootID]
	if !ok {
		return dslast.Value{}, 0, fmt.Errorf("runner: graph did not resolve to a root value (cycle or missing dependency involving %q)", graph.RootID)
	}
	return root, callCount, nil
}
