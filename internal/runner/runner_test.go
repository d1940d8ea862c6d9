package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rhassan/pricedsl/internal/dslast"
	"github.com/rhassan/pricedsl/internal/dslparse"
	"github.com/rhassan/pricedsl/internal/runner"
	"github.com/rhassan/pricedsl/internal/stubber"
)

const fibSource = "def fib(n): fib(n-1)+fib(n-2) if n > 2 else n\nfib(6)\n"

func TestSequential_fibCallCountMatchesStubCount(t *testing.T) {
	assert := assert.New(t)

	mod, err := dslparse.Parse(fibSource)
	if !assert.NoError(err) {
		return
	}
	env := dslast.Env{}
	graph, err := stubber.CompileParallel(mod, env)
	if !assert.NoError(err) {
		return
	}

	v, callCount, err := runner.Sequential(graph, env)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(len(graph.Stubs), callCount)
	assert.Equal(13.0, v.Scalar())
}

func TestPool_agreesWithSequential(t *testing.T) {
	assert := assert.New(t)

	mod, err := dslparse.Parse(fibSource)
	if !assert.NoError(err) {
		return
	}
	env := dslast.Env{}
	graph, err := stubber.CompileParallel(mod, env)
	if !assert.NoError(err) {
		return
	}

	seqVal, seqCalls, err := runner.Sequential(graph, env)
	if !assert.NoError(err) {
		return
	}

	poolVal, poolCalls, err := runner.Pool(graph, env, 4)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(seqVal.Scalar(), poolVal.Scalar())
	assert.Equal(seqCalls, poolCalls)
	assert.Equal(len(graph.Stubs), poolCalls)
}

func TestPool_singleWorkerStillCompletes(t *testing.T) {
	assert := assert.New(t)

	mod, err := dslparse.Parse(fibSource)
	if !assert.NoError(err) {
		return
	}
	env := dslast.Env{}
	graph, err := stubber.CompileParallel(mod, env)
	if !assert.NoError(err) {
		return
	}

	v, callCount, err := runner.Pool(graph, env, 1)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(13.0, v.Scalar())
	assert.Equal(len(graph.Stubs), callCount)
}
