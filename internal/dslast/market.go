package dslast

import (
	"fmt"
	"math"

	"github.com/rhassan/pricedsl/internal/lsm"
)

// Market returns the per-path price vector of the named underlying at the
// current present_time, sourced from env.MarketPrices (pre-simulated
// all_market_prices, or a lazy single-market/single-date simulation through
// the price-process collaborator).
type Market struct {
	Name string
	Pos  Pos
}

func (m *Market) Type() NodeKind { return KindMarket }

func (m *Market) Evaluate(env Env) (Value, error) {
	prices, err := env.MarketPrices(m.Name, env.PresentTime)
	if err != nil {
		return Value{}, err
	}
	return NewVector(prices), nil
}

func (m *Market) SubstituteNames(map[string]Node) Node { return m }
func (m *Market) ListStubs(*[]Node)                    {}
func (m *Market) Source() string                       { return fmt.Sprintf("Market('%s')", m.Name) }
func (m *Market) String() string                       { return fmt.Sprintf("Market(%s)", m.Name) }

// Fixing evaluates Underlying with present_time shifted to Date, and applies
// no discounting: it names an already-observed (or to-be-observed) market
// reading, not a cashflow.
type Fixing struct {
	Date       Node
	Underlying Node
	Pos        Pos
}

func (f *Fixing) Type() NodeKind { return KindFixing }

func (f *Fixing) Evaluate(env Env) (Value, error) {
	at, err := evalDate(f.Date, env, f.Pos)
	if err != nil {
		return Value{}, err
	}
	return f.Underlying.Evaluate(env.WithPresentTime(at))
}

func (f *Fixing) SubstituteNames(b map[string]Node) Node {
	return &Fixing{Date: f.Date.SubstituteNames(b), Underlying: f.Underlying.SubstituteNames(b), Pos: f.Pos}
}
func (f *Fixing) ListStubs(acc *[]Node) { f.Date.ListStubs(acc); f.Underlying.ListStubs(acc) }
func (f *Fixing) Source() string        { return fmt.Sprintf("Fixing(%s, %s)", f.Date.Source(), f.Underlying.Source()) }
func (f *Fixing) String() string        { return fmt.Sprintf("Fixing(%s, %s)", f.Date, f.Underlying) }

// Wait evaluates Expr with present_time shifted to Date, then discounts the
// result by exp(-r * duration_years(original present_time, Date)): it models
// a cashflow whose amount is determined at, and paid at, a future date.
type Wait struct {
	Date Node
	Expr Node
	Pos  Pos
}

func (w *Wait) Type() NodeKind { return KindWait }

func (w *Wait) Evaluate(env Env) (Value, error) {
	at, err := evalDate(w.Date, env, w.Pos)
	if err != nil {
		return Value{}, err
	}
	v, err := w.Expr.Evaluate(env.WithPresentTime(at))
	if err != nil {
		return Value{}, err
	}
	factor, err := discountFactor(env, at, w.Pos)
	if err != nil {
		return Value{}, err
	}
	return scaleValue(v, factor), nil
}

func (w *Wait) SubstituteNames(b map[string]Node) Node {
	return &Wait{Date: w.Date.SubstituteNames(b), Expr: w.Expr.SubstituteNames(b), Pos: w.Pos}
}
func (w *Wait) ListStubs(acc *[]Node) { w.Date.ListStubs(acc); w.Expr.ListStubs(acc) }
func (w *Wait) Source() string        { return fmt.Sprintf("Wait(%s, %s)", w.Date.Source(), w.Expr.Source()) }
func (w *Wait) String() string        { return fmt.Sprintf("Wait(%s, %s)", w.Date, w.Expr) }

// Settlement applies the same discounting as Wait, but evaluates Expr under
// the unchanged present_time: it models a cashflow determined now but paid
// (and hence discounted) at a future settlement date.
type Settlement struct {
	Date Node
	Expr Node
	Pos  Pos
}

func (s *Settlement) Type() NodeKind { return KindSettlement }

func (s *Settlement) Evaluate(env Env) (Value, error) {
	at, err := evalDate(s.Date, env, s.Pos)
	if err != nil {
		return Value{}, err
	}
	v, err := s.Expr.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	factor, err := discountFactor(env, at, s.Pos)
	if err != nil {
		return Value{}, err
	}
	return scaleValue(v, factor), nil
}

func (s *Settlement) SubstituteNames(b map[string]Node) Node {
	return &Settlement{Date: s.Date.SubstituteNames(b), Expr: s.Expr.SubstituteNames(b), Pos: s.Pos}
}
func (s *Settlement) ListStubs(acc *[]Node) { s.Date.ListStubs(acc); s.Expr.ListStubs(acc) }
func (s *Settlement) Source() string {
	return fmt.Sprintf("Settlement(%s, %s)", s.Date.Source(), s.Expr.Source())
}
func (s *Settlement) String() string { return fmt.Sprintf("Settlement(%s, %s)", s.Date, s.Expr) }

// On evaluates Expr with present_time shifted to Date and applies no
// discounting: it models inspecting a contract's state as of a future date
// without that date's cashflows being paid today.
type On struct {
	Date Node
	Expr Node
	Pos  Pos
}

func (o *On) Type() NodeKind { return KindOn }

func (o *On) Evaluate(env Env) (Value, error) {
	at, err := evalDate(o.Date, env, o.Pos)
	if err != nil {
		return Value{}, err
	}
	return o.Expr.Evaluate(env.WithPresentTime(at))
}

func (o *On) SubstituteNames(b map[string]Node) Node {
	return &On{Date: o.Date.SubstituteNames(b), Expr: o.Expr.SubstituteNames(b), Pos: o.Pos}
}
func (o *On) ListStubs(acc *[]Node) { o.Date.ListStubs(acc); o.Expr.ListStubs(acc) }
func (o *On) Source() string        { return fmt.Sprintf("On(%s, %s)", o.Date.Source(), o.Expr.Source()) }
func (o *On) String() string        { return fmt.Sprintf("On(%s, %s)", o.Date, o.Expr) }

// Max is the pointwise maximum of A and B, broadcasting a scalar against a
// vector when one operand is per-path and the other is not.
type Max struct {
	A, B Node
	Pos  Pos
}

func (m *Max) Type() NodeKind { return KindMax }

func (m *Max) Evaluate(env Env) (Value, error) {
	a, err := m.A.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	b, err := m.B.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	if !a.IsVector() && !b.IsVector() {
		return NewScalar(math.Max(a.Scalar(), b.Scalar())), nil
	}
	n := a.Len()
	if b.Len() > n {
		n = b.Len()
	}
	av, err := a.AsVector(n)
	if err != nil {
		return Value{}, TypeError{Op: "Max", Kind: []Kind{a.Kind(), b.Kind()}, Pos: m.Pos}
	}
	bv, err := b.AsVector(n)
	if err != nil {
		return Value{}, TypeError{Op: "Max", Kind: []Kind{a.Kind(), b.Kind()}, Pos: m.Pos}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Max(av[i], bv[i])
	}
	return NewVector(out), nil
}

func (m *Max) SubstituteNames(b map[string]Node) Node {
	return &Max{A: m.A.SubstituteNames(b), B: m.B.SubstituteNames(b), Pos: m.Pos}
}
func (m *Max) ListStubs(acc *[]Node) { m.A.ListStubs(acc); m.B.ListStubs(acc) }
func (m *Max) Source() string        { return fmt.Sprintf("Max(%s, %s)", m.A.Source(), m.B.Source()) }
func (m *Max) String() string        { return fmt.Sprintf("Max(%s, %s)", m.A, m.B) }

// Choice is the Longstaff-Schwartz conditional-expectation operator: A is
// the per-path exercise value, B the continuation. The regression basis is
// the bias term plus the per-path prices (at the current present_time) of
// every Market referenced anywhere in B — a policy choice documented in
// DESIGN.md, since the contract in the owning specification fixes only the
// value-level behaviour, not the regressor set. The realised result on each
// path is B itself where the fitted continuation dominates A, and A
// otherwise: the policy/value separation standard to Longstaff-Schwartz,
// which keeps the Monte-Carlo estimator unbiased.
type Choice struct {
	A, B Node
	Pos  Pos
}

func (c *Choice) Type() NodeKind { return KindChoice }

func (c *Choice) Evaluate(env Env) (Value, error) {
	a, err := c.A.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	b, err := c.B.Evaluate(env)
	if err != nil {
		return Value{}, err
	}

	n := a.Len()
	if b.Len() > n {
		n = b.Len()
	}
	av, err := a.AsVector(n)
	if err != nil {
		return Value{}, TypeError{Op: "Choice", Kind: []Kind{a.Kind(), b.Kind()}, Pos: c.Pos}
	}
	bv, err := b.AsVector(n)
	if err != nil {
		return Value{}, TypeError{Op: "Choice", Kind: []Kind{a.Kind(), b.Kind()}, Pos: c.Pos}
	}

	markets := make(map[string]bool)
	collectMarkets(c.B, markets)

	names := sortedKeys(markets)
	design := make([][]float64, n)
	for p := range design {
		design[p] = make([]float64, len(names)+1)
		design[p][0] = 1 // bias term
	}
	for ni, name := range names {
		prices, err := env.MarketPrices(name, env.PresentTime)
		if err != nil {
			return Value{}, err
		}
		if len(prices) != n {
			return Value{}, NumericError{Msg: fmt.Sprintf("market %s price count %d does not match path count %d", name, len(prices), n), Pos: c.Pos}
		}
		for p := 0; p < n; p++ {
			design[p][ni+1] = prices[p]
		}
	}

	var coeffs []float64
	if len(names) == 0 {
		// No market regressors in scope: the only basis function is the
		// constant, so the conditional expectation is just the path mean.
		mean := 0.0
		for _, y := range bv {
			mean += y
		}
		mean /= float64(n)
		coeffs = []float64{mean}
	} else {
		coeffs, err = lsm.Fit(design, bv)
		if err != nil {
			return Value{}, NumericError{Msg: err.Error(), Pos: c.Pos}
		}
	}

	out := make([]float64, n)
	for p := 0; p < n; p++ {
		fitted := 0.0
		for j, coef := range coeffs {
			fitted += coef * design[p][j]
		}
		if fitted >= av[p] {
			out[p] = bv[p]
		} else {
			out[p] = av[p]
		}
	}
	return NewVector(out), nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// collectMarkets walks n's tree, recording the name of every Market node it
// finds into acc. It is a closed type switch over the node kinds this
// package defines; a node kind added later that carries children must be
// added here too for Choice's regressor discovery to see through it.
func collectMarkets(n Node, acc map[string]bool) {
	switch t := n.(type) {
	case *Market:
		acc[t.Name] = true
	case *UnarySub:
		collectMarkets(t.Operand, acc)
	case *BinOp:
		collectMarkets(t.Left, acc)
		collectMarkets(t.Right, acc)
	case *Compare:
		for _, o := range t.Operands {
			collectMarkets(o, acc)
		}
	case *Block:
		for _, s := range t.Stmts {
			collectMarkets(s, acc)
		}
	case *If:
		collectMarkets(t.Cond, acc)
		collectMarkets(t.Then, acc)
		if t.Else != nil {
			collectMarkets(t.Else, acc)
		}
	case *IfExp:
		collectMarkets(t.Cond, acc)
		collectMarkets(t.Then, acc)
		collectMarkets(t.Else, acc)
	case *FunctionCall:
		for _, a := range t.Args {
			collectMarkets(a, acc)
		}
	case *Fixing:
		collectMarkets(t.Underlying, acc)
	case *Wait:
		collectMarkets(t.Expr, acc)
	case *Settlement:
		collectMarkets(t.Expr, acc)
	case *On:
		collectMarkets(t.Expr, acc)
	case *Max:
		collectMarkets(t.A, acc)
		collectMarkets(t.B, acc)
	case *Choice:
		collectMarkets(t.A, acc)
		collectMarkets(t.B, acc)
	}
}

func evalDate(n Node, env Env, pos Pos) (Value, error) {
	v, err := n.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	if v.Kind() != KindDate {
		return Value{}, TypeError{Op: "date argument", Kind: []Kind{v.Kind()}, Pos: pos}
	}
	return v, nil
}

func discountFactor(env Env, at Value, pos Pos) (float64, error) {
	if env.Image == nil {
		return 0, NumericError{Msg: "no price process available to compute discounting duration", Pos: pos}
	}
	duration := env.Image.DurationYears(env.PresentTime, at.Date())
	return math.Exp(-(env.InterestRate / 100) * duration), nil
}

func scaleValue(v Value, factor float64) Value {
	if v.IsVector() {
		out := make([]float64, len(v.Vector()))
		for i, x := range v.Vector() {
			out[i] = x * factor
		}
		return NewVector(out)
	}
	return NewScalar(v.Scalar() * factor)
}
