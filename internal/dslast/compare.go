package dslast

import "strings"

// Compare implements chained comparisons: a chain `a op1 b op2 c` evaluates
// to `(a op1 b) AND (b op2 c)`, with each interior operand evaluated exactly
// once and the chain short-circuiting (AND semantics) on the first false
// comparison.
type Compare struct {
	Operands []Node   // len(Operands) == len(Ops)+1
	Ops      []string // "==", "!=", "<", "<=", ">", ">="
	Pos      Pos

	// NoSpaceBefore/NoSpaceAfter mirror BinOp's: one entry per Ops[i],
	// recording whether that comparator was written tight against the
	// operand on that side so Source() round-trips the parsed spacing.
	NoSpaceBefore, NoSpaceAfter []bool
}

func (c *Compare) Type() NodeKind { return KindCompare }

func (c *Compare) Evaluate(env Env) (Value, error) {
	vals := make([]Value, len(c.Operands))
	for i, n := range c.Operands {
		v, err := n.Evaluate(env)
		if err != nil {
			return Value{}, err
		}
		vals[i] = v
	}
	for i, op := range c.Ops {
		ok, err := compareValues(op, vals[i], vals[i+1], c.Pos)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return NewBool(false), nil
		}
	}
	return NewBool(true), nil
}

func compareValues(op string, l, r Value, pos Pos) (bool, error) {
	cmp, err := ordering(l, r, pos)
	if err != nil {
		return false, err
	}
	switch op {
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, TypeError{Op: op, Kind: []Kind{l.Kind(), r.Kind()}, Pos: pos}
	}
}

// ordering returns -1/0/1 comparing l and r. Scalars compare numerically,
// dates by instant, timedeltas by day count, bools false<true; mixed kinds
// (other than the TimeDelta/scalar-day-count widening below) are a TypeError.
func ordering(l, r Value, pos Pos) (int, error) {
	switch {
	case l.Kind() == KindScalar && r.Kind() == KindScalar:
		return sign(l.Scalar() - r.Scalar()), nil
	case l.Kind() == KindDate && r.Kind() == KindDate:
		if l.Date().Equal(r.Date()) {
			return 0, nil
		}
		if l.Date().Before(r.Date()) {
			return -1, nil
		}
		return 1, nil
	case l.Kind() == KindTimeDelta && r.Kind() == KindTimeDelta:
		return sign(float64(l.Days() - r.Days())), nil
	case l.Kind() == KindBool && r.Kind() == KindBool:
		lb, rb := 0, 0
		if l.Bool() {
			lb = 1
		}
		if r.Bool() {
			rb = 1
		}
		return lb - rb, nil
	default:
		return 0, TypeError{Op: "compare", Kind: []Kind{l.Kind(), r.Kind()}, Pos: pos}
	}
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	default:
		return 0
	}
}

func (c *Compare) SubstituteNames(bindings map[string]Node) Node {
	out := &Compare{
		Ops: c.Ops, Pos: c.Pos, Operands: make([]Node, len(c.Operands)),
		NoSpaceBefore: c.NoSpaceBefore, NoSpaceAfter: c.NoSpaceAfter,
	}
	for i, n := range c.Operands {
		out.Operands[i] = n.SubstituteNames(bindings)
	}
	return out
}

func (c *Compare) ListStubs(acc *[]Node) {
	for _, n := range c.Operands {
		n.ListStubs(acc)
	}
}

func (c *Compare) Source() string {
	var sb strings.Builder
	sb.WriteString(c.Operands[0].Source())
	for i, op := range c.Ops {
		before, after := " ", " "
		if i < len(c.NoSpaceBefore) && c.NoSpaceBefore[i] {
			before = ""
		}
		if i < len(c.NoSpaceAfter) && c.NoSpaceAfter[i] {
			after = ""
		}
		sb.WriteString(before)
		sb.WriteString(op)
		sb.WriteString(after)
		sb.WriteString(c.Operands[i+1].Source())
	}
	return sb.String()
}

func (c *Compare) String() string {
	var sb strings.Builder
	sb.WriteString("Compare(")
	for i, n := range c.Operands {
		if i > 0 {
			sb.WriteString(", ")
			sb.WriteString(c.Ops[i-1])
			sb.WriteString(", ")
		}
		sb.WriteString(n.String())
	}
	sb.WriteString(")")
	return sb.String()
}
