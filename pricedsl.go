// Package pricedsl is the façade over the contract-pricing DSL: lexing and
// parsing source into a Module, compiling it (serially or in parallel) into
// something internal/runner or direct evaluation can execute, and running
// the whole pipeline end to end. It plays the same top-level-entry-point
// role engine.go played for the teacher repo, generalised to this domain's
// three-entry-point contract (parse/compile/eval).
package pricedsl

import (
	"fmt"
	"time"

	"github.com/rhassan/pricedsl/internal/dslast"
	"github.com/rhassan/pricedsl/internal/dslparse"
	"github.com/rhassan/pricedsl/internal/runner"
	"github.com/rhassan/pricedsl/internal/stubber"
)

// EvalKwds bundles the closed set of evaluation kwargs a DSL program may
// reference: present_time, interest_rate, market_calibration,
// all_market_prices, and the price-process image.
type EvalKwds struct {
	PresentTime     time.Time
	InterestRate    float64
	PathCount       int
	Calibration     map[string]float64
	AllMarketPrices map[string]map[time.Time][]float64
	Image           dslast.PriceProcess

	// Parallel selects CompileParallel + a dependency-graph runner instead
	// of direct serial compilation + evaluation. Workers is only consulted
	// when Parallel is true and greater than 1; otherwise Eval runs
	// runner.Sequential.
	Parallel bool
	Workers  int
}

func (k EvalKwds) env() dslast.Env {
	return dslast.Env{
		NS:              dslast.NewNamespace(),
		PresentTime:     k.PresentTime,
		InterestRate:    k.InterestRate,
		PathCount:       k.PathCount,
		Calibration:     k.Calibration,
		Image:           k.Image,
		AllMarketPrices: k.AllMarketPrices,
	}
}

// Parse lifts DSL source into a Module.
func Parse(source string) (*dslast.Module, error) {
	return dslparse.Parse(source)
}

// Compile parses and compiles source. When kwds.Parallel is false it
// returns a fully inlined dslast.Node; when true, a *stubber.DependencyGraph.
func Compile(source string, kwds EvalKwds) (interface{}, error) {
	if err := validateKwds(kwds); err != nil {
		return nil, err
	}
	mod, err := Parse(source)
	if err != nil {
		return nil, err
	}
	env := kwds.env()
	if kwds.Parallel {
		return stubber.CompileParallel(mod, env)
	}
	return stubber.Compile(mod, env)
}

// Eval parses, compiles (serially), evaluates, and aggregates source,
// returning the mean value across Monte-Carlo paths under the key "mean" —
// the shape the owning design's eval() entry point returns. A scalar result
// (no per-path vector) is its own mean.
func Eval(source string, kwds EvalKwds) (map[string]float64, error) {
	if err := validateKwds(kwds); err != nil {
		return nil, err
	}
	env := kwds.env()

	var value dslast.Value
	if kwds.Parallel {
		mod, err := Parse(source)
		if err != nil {
			return nil, err
		}
		graph, err := stubber.CompileParallel(mod, env)
		if err != nil {
			return nil, err
		}
		workers := kwds.Workers
		var callErr error
		if workers > 1 {
			value, _, callErr = runner.Pool(graph, env, workers)
		} else {
			value, _, callErr = runner.Sequential(graph, env)
		}
		if callErr != nil {
			return nil, callErr
		}
	} else {
		mod, err := Parse(source)
		if err != nil {
			return nil, err
		}
		node, err := stubber.Compile(mod, env)
		if err != nil {
			return nil, err
		}
		value, err = node.Evaluate(env)
		if err != nil {
			return nil, err
		}
	}

	return map[string]float64{"mean": mean(value)}, nil
}

func mean(v dslast.Value) float64 {
	if !v.IsVector() {
		return v.Scalar()
	}
	vec := v.Vector()
	if len(vec) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range vec {
		sum += x
	}
	return sum / float64(len(vec))
}

func validateKwds(kwds EvalKwds) error {
	if kwds.PathCount < 0 {
		return fmt.Errorf("pricedsl: path_count must not be negative, got %d", kwds.PathCount)
	}
	return nil
}
