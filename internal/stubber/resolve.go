package stubber

import (
	"fmt"

	"github.com/rhassan/pricedsl/internal/dslast"
)

// resolveStubs rewrites n, replacing every Stub leaf with a ValueNode
// carrying its resolved value from values. It mirrors expand's structural
// walk but only ever substitutes Stub nodes; everything else is copied
// through unchanged (values are immutable, so non-Stub subtrees need not be
// rebuilt, but a full rebuild keeps this symmetric with expand.go and cheap
// enough at this node count).
func resolveStubs(n dslast.Node, values map[string]dslast.Value) (dslast.Node, error) {
	switch t := n.(type) {
	case *Stub:
		v, ok := values[t.ID]
		if !ok {
			return nil, fmt.Errorf("runner: stub %s referenced before its dependency was resolved", t.ID)
		}
		return &dslast.ValueNode{V: v}, nil
	case *dslast.Number, *dslast.StringLit, *dslast.DateLit, *dslast.TimeDeltaLit, *dslast.Name, *dslast.ValueNode, *dslast.Market:
		return n, nil
	case *dslast.UnarySub:
		operand, err := resolveStubs(t.Operand, values)
		if err != nil {
			return nil, err
		}
		return &dslast.UnarySub{Operand: operand, Pos: t.Pos}, nil
	case *dslast.BinOp:
		l, err := resolveStubs(t.Left, values)
		if err != nil {
			return nil, err
		}
		r, err := resolveStubs(t.Right, values)
		if err != nil {
			return nil, err
		}
		return &dslast.BinOp{Op: t.Op, Left: l, Right: r, Pos: t.Pos}, nil
	case *dslast.Compare:
		operands := make([]dslast.Node, len(t.Operands))
		for i, o := range t.Operands {
			var err error
			operands[i], err = resolveStubs(o, values)
			if err != nil {
				return nil, err
			}
		}
		return &dslast.Compare{Operands: operands, Ops: t.Ops, Pos: t.Pos}, nil
	case *dslast.Block:
		stmts := make([]dslast.Node, len(t.Stmts))
		for i, s := range t.Stmts {
			var err error
			stmts[i], err = resolveStubs(s, values)
			if err != nil {
				return nil, err
			}
		}
		return &dslast.Block{Stmts: stmts}, nil
	case *dslast.If:
		cond, err := resolveStubs(t.Cond, values)
		if err != nil {
			return nil, err
		}
		then, err := resolveStubs(t.Then, values)
		if err != nil {
			return nil, err
		}
		out := &dslast.If{Cond: cond, Then: then, Pos: t.Pos}
		if t.Else != nil {
			out.Else, err = resolveStubs(t.Else, values)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case *dslast.IfExp:
		cond, err := resolveStubs(t.Cond, values)
		if err != nil {
			return nil, err
		}
		then, err := resolveStubs(t.Then, values)
		if err != nil {
			return nil, err
		}
		els, err := resolveStubs(t.Else, values)
		if err != nil {
			return nil, err
		}
		return &dslast.IfExp{Cond: cond, Then: then, Else: els}, nil
	case *dslast.Fixing:
		date, err := resolveStubs(t.Date, values)
		if err != nil {
			return nil, err
		}
		und, err := resolveStubs(t.Underlying, values)
		if err != nil {
			return nil, err
		}
		return &dslast.Fixing{Date: date, Underlying: und, Pos: t.Pos}, nil
	case *dslast.Wait:
		date, err := resolveStubs(t.Date, values)
		if err != nil {
			return nil, err
		}
		expr, err := resolveStubs(t.Expr, values)
		if err != nil {
			return nil, err
		}
		return &dslast.Wait{Date: date, Expr: expr, Pos: t.Pos}, nil
	case *dslast.Settlement:
		date, err := resolveStubs(t.Date, values)
		if err != nil {
			return nil, err
		}
		expr, err := resolveStubs(t.Expr, values)
		if err != nil {
			return nil, err
		}
		return &dslast.Settlement{Date: date, Expr: expr, Pos: t.Pos}, nil
	case *dslast.On:
		date, err := resolveStubs(t.Date, values)
		if err != nil {
			return nil, err
		}
		expr, err := resolveStubs(t.Expr, values)
		if err != nil {
			return nil, err
		}
		return &dslast.On{Date: date, Expr: expr, Pos: t.Pos}, nil
	case *dslast.Max:
		a, err := resolveStubs(t.A, values)
		if err != nil {
			return nil, err
		}
		b, err := resolveStubs(t.B, values)
		if err != nil {
			return nil, err
		}
		return &dslast.Max{A: a, B: b, Pos: t.Pos}, nil
	case *dslast.Choice:
		a, err := resolveStubs(t.A, values)
		if err != nil {
			return nil, err
		}
		b, err := resolveStubs(t.B, values)
		if err != nil {
			return nil, err
		}
		return &dslast.Choice{A: a, B: b, Pos: t.Pos}, nil
	default:
		return nil, fmt.Errorf("runner: unrecognised node type %T", n)
	}
}
