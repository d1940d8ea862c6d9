/*
Pricecli evaluates contract-pricing DSL source, either as a one-shot batch
expression or interactively in a read-eval-print loop.

Usage:

	pricecli [flags]

The flags are:

	-c, --config FILE
		TOML config file giving the interest rate, path count, market
		calibration, and runner selection. Defaults to "pricing.toml".

	-f, --file FILE
		Evaluate the contract source in FILE and print its mean value, then
		exit, instead of starting the REPL.

	-p, --parallel
		Use the dependency-graph compiler and runner instead of direct serial
		evaluation.

Once a REPL session has started, each line is parsed, compiled, and
evaluated as a complete module; the mean value across Monte-Carlo paths is
printed. Type an empty line or press Ctrl-D to exit.
*/
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/rhassan/pricedsl"
	"github.com/rhassan/pricedsl/internal/pricecfg"
	"github.com/rhassan/pricedsl/internal/priceproc"
)

const (
	ExitSuccess = iota
	ExitConfigError
	ExitEvalError
)

var (
	returnCode int = ExitSuccess

	configFile  = pflag.StringP("config", "c", "pricing.toml", "TOML config file with evaluation defaults and market calibration")
	sourceFile  = pflag.StringP("file", "f", "", "Evaluate the contract in FILE and exit, instead of starting the REPL")
	parallel    = pflag.BoolP("parallel", "p", false, "Use the dependency-graph compiler and runner")
	observedAt  = pflag.StringP("present-time", "t", "", "Valuation date, YYYY-MM-DD; defaults to today (UTC)")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	cfg, err := pricecfg.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitConfigError
		return
	}

	asOf := time.Now().UTC()
	if *observedAt != "" {
		asOf, err = time.Parse("2006-01-02", *observedAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: invalid --present-time: %s\n", err.Error())
			returnCode = ExitConfigError
			return
		}
	}

	kwds := pricedsl.EvalKwds{
		PresentTime:  asOf,
		InterestRate: cfg.Evaluation.InterestRate,
		PathCount:    cfg.Evaluation.PathCount,
		Calibration:  cfg.Calibration,
		Image:        priceproc.NewGBM(asOf, cfg.Evaluation.InterestRate, nil),
		Parallel:     *parallel || cfg.Evaluation.Runner == pricecfg.RunnerPool,
		Workers:      cfg.Evaluation.Workers,
	}

	if *sourceFile != "" {
		src, err := os.ReadFile(*sourceFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitEvalError
			return
		}
		result, err := pricedsl.Eval(string(src), kwds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitEvalError
			return
		}
		fmt.Printf("%v\n", result["mean"])
		return
	}

	if err := repl(kwds); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitEvalError
	}
}

func repl(kwds pricedsl.EvalKwds) error {
	rl, err := readline.NewEx(&readline.Config{Prompt: "pricedsl> "})
	if err != nil {
		return fmt.Errorf("create readline config: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			return nil
		}
		if line == "" {
			continue
		}
		result, err := pricedsl.Eval(line, kwds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			continue
		}
		fmt.Printf("%v\n", result["mean"])
	}
}
