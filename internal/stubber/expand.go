package stubber

import (
	"fmt"

	"github.com/rhassan/pricedsl/internal/dslast"
)

// expander walks a semantic tree rewriting FunctionCall nodes. In serial
// mode it substitutes each call with its memoised, fully expanded body
// (structural sharing: repeated calls with equal canonical arguments return
// the very same *Node). In parallel mode it instead assigns each distinct
// call a stub id and records the call's expanded body, dependencies, and
// discovery order in a DependencyGraph.
type expander struct {
	env      dslast.Env
	parallel bool

	// serial mode memoisation: (def pointer, canonical arg key) -> compiled body
	serialMemo map[string]dslast.Node

	// parallel mode bookkeeping
	ids     map[string]string // memo key -> stub id
	stubs   map[string]dslast.Node
	deps    map[string][]string
	nextID  int
}

func newExpander(env dslast.Env, parallel bool) *expander {
	return &expander{
		env:        env,
		parallel:   parallel,
		serialMemo: make(map[string]dslast.Node),
		ids:        make(map[string]string),
		stubs:      make(map[string]dslast.Node),
		deps:       make(map[string][]string),
	}
}

func (e *expander) allocID() string {
	id := fmt.Sprintf("s%04d", e.nextID)
	e.nextID++
	return id
}

// expand rewrites n under namespace ns, returning the transformed node.
func (e *expander) expand(n dslast.Node, ns *dslast.Namespace) (dslast.Node, error) {
	switch t := n.(type) {
	case *dslast.Number, *dslast.StringLit, *dslast.DateLit, *dslast.TimeDeltaLit:
		return n, nil
	case *dslast.ValueNode:
		return n, nil
	case *dslast.Name:
		if bound, ok := ns.Lookup(t.Ident); ok {
			if _, isDef := bound.(*dslast.FunctionDef); !isDef {
				return bound, nil
			}
		}
		return n, nil
	case *dslast.UnarySub:
		operand, err := e.expand(t.Operand, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.UnarySub{Operand: operand, Pos: t.Pos}, nil
	case *dslast.BinOp:
		l, err := e.expand(t.Left, ns)
		if err != nil {
			return nil, err
		}
		r, err := e.expand(t.Right, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.BinOp{Op: t.Op, Left: l, Right: r, Pos: t.Pos}, nil
	case *dslast.Compare:
		operands := make([]dslast.Node, len(t.Operands))
		for i, o := range t.Operands {
			var err error
			operands[i], err = e.expand(o, ns)
			if err != nil {
				return nil, err
			}
		}
		return &dslast.Compare{Operands: operands, Ops: t.Ops, Pos: t.Pos}, nil
	case *dslast.Block:
		stmts := make([]dslast.Node, len(t.Stmts))
		for i, s := range t.Stmts {
			var err error
			stmts[i], err = e.expand(s, ns)
			if err != nil {
				return nil, err
			}
		}
		return &dslast.Block{Stmts: stmts}, nil
	case *dslast.If:
		cond, err := e.expand(t.Cond, ns)
		if err != nil {
			return nil, err
		}
		then, err := e.expand(t.Then, ns)
		if err != nil {
			return nil, err
		}
		out := &dslast.If{Cond: cond, Then: then, Pos: t.Pos}
		if t.Else != nil {
			out.Else, err = e.expand(t.Else, ns)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case *dslast.IfExp:
		cond, err := e.expand(t.Cond, ns)
		if err != nil {
			return nil, err
		}
		then, err := e.expand(t.Then, ns)
		if err != nil {
			return nil, err
		}
		els, err := e.expand(t.Else, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.IfExp{Cond: cond, Then: then, Else: els}, nil
	case *dslast.Market:
		return n, nil
	case *dslast.Fixing:
		date, err := e.expand(t.Date, ns)
		if err != nil {
			return nil, err
		}
		und, err := e.expand(t.Underlying, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.Fixing{Date: date, Underlying: und, Pos: t.Pos}, nil
	case *dslast.Wait:
		date, err := e.expand(t.Date, ns)
		if err != nil {
			return nil, err
		}
		expr, err := e.expand(t.Expr, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.Wait{Date: date, Expr: expr, Pos: t.Pos}, nil
	case *dslast.Settlement:
		date, err := e.expand(t.Date, ns)
		if err != nil {
			return nil, err
		}
		expr, err := e.expand(t.Expr, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.Settlement{Date: date, Expr: expr, Pos: t.Pos}, nil
	case *dslast.On:
		date, err := e.expand(t.Date, ns)
		if err != nil {
			return nil, err
		}
		expr, err := e.expand(t.Expr, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.On{Date: date, Expr: expr, Pos: t.Pos}, nil
	case *dslast.Max:
		a, err := e.expand(t.A, ns)
		if err != nil {
			return nil, err
		}
		b, err := e.expand(t.B, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.Max{A: a, B: b, Pos: t.Pos}, nil
	case *dslast.Choice:
		a, err := e.expand(t.A, ns)
		if err != nil {
			return nil, err
		}
		b, err := e.expand(t.B, ns)
		if err != nil {
			return nil, err
		}
		return &dslast.Choice{A: a, B: b, Pos: t.Pos}, nil
	case *dslast.FunctionCall:
		return e.expandCall(t, ns)
	default:
		return nil, fmt.Errorf("stubber: unrecognised node type %T", n)
	}
}

// expandCall evaluates t's arguments to concrete values under ns, then
// either returns the cached compiled body for (def, arg values) or compiles
// it fresh: recursively expanding the FunctionDef's body under a namespace
// binding its parameters to the argument values.
func (e *expander) expandCall(t *dslast.FunctionCall, ns *dslast.Namespace) (dslast.Node, error) {
	bound, ok := ns.Lookup(t.Callee)
	if !ok {
		return nil, dslast.NameError{Name: t.Callee, Pos: t.Pos}
	}
	def, ok := bound.(*dslast.FunctionDef)
	if !ok {
		return nil, dslast.TypeError{Op: "call", Pos: t.Pos}
	}

	args := make([]dslast.Value, len(t.Args))
	callEnv := e.env.WithNamespace(ns)
	for i, a := range t.Args {
		v, err := a.Evaluate(callEnv)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if len(args) != len(def.Params) {
		return nil, dslast.ArityError{Callee: def.Name, Expected: len(def.Params), Got: len(args), Pos: t.Pos}
	}

	key := fmt.Sprintf("%p:%s", def, memoKey(args))

	if e.parallel {
		if id, ok := e.ids[key]; ok {
			return &Stub{ID: id}, nil
		}
		id := e.allocID()
		e.ids[key] = id
		bindings := make(map[string]dslast.Node, len(args))
		for i, p := range def.Params {
			bindings[p] = &dslast.ValueNode{V: args[i]}
		}
		childNS := ns.Child(bindings)
		body, err := e.expand(def.Body, childNS)
		if err != nil {
			return nil, err
		}
		e.stubs[id] = body
		e.deps[id] = directStubIDs(body)
		return &Stub{ID: id}, nil
	}

	if cached, ok := e.serialMemo[key]; ok {
		return cached, nil
	}
	bindings := make(map[string]dslast.Node, len(args))
	for i, p := range def.Params {
		bindings[p] = &dslast.ValueNode{V: args[i]}
	}
	childNS := ns.Child(bindings)
	body, err := e.expand(def.Body, childNS)
	if err != nil {
		return nil, err
	}
	e.serialMemo[key] = body
	return body, nil
}

func memoKey(args []dslast.Value) string {
	key := ""
	for i, a := range args {
		if i > 0 {
			key += "|"
		}
		key += a.CanonicalKey()
	}
	return key
}

// directStubIDs returns every Stub id reachable in n without descending
// past an intermediate Stub leaf (Stub has no children, so this is simply
// every Stub encountered during a full structural walk).
func directStubIDs(n dslast.Node) []string {
	seen := make(map[string]bool)
	var order []string
	var walk func(dslast.Node)
	walk = func(n dslast.Node) {
		switch t := n.(type) {
		case *Stub:
			if !seen[t.ID] {
				seen[t.ID] = true
				order = append(order, t.ID)
			}
		case *dslast.UnarySub:
			walk(t.Operand)
		case *dslast.BinOp:
			walk(t.Left)
			walk(t.Right)
		case *dslast.Compare:
			for _, o := range t.Operands {
				walk(o)
			}
		case *dslast.Block:
			for _, s := range t.Stmts {
				walk(s)
			}
		case *dslast.If:
			walk(t.Cond)
			walk(t.Then)
			if t.Else != nil {
				walk(t.Else)
			}
		case *dslast.IfExp:
			walk(t.Cond)
			walk(t.Then)
			walk(t.Else)
		case *dslast.Fixing:
			walk(t.Date)
			walk(t.Underlying)
		case *dslast.Wait:
			walk(t.Date)
			walk(t.Expr)
		case *dslast.Settlement:
			walk(t.Date)
			walk(t.Expr)
		case *dslast.On:
			walk(t.Date)
			walk(t.Expr)
		case *dslast.Max:
			walk(t.A)
			walk(t.B)
		case *dslast.Choice:
			walk(t.A)
			walk(t.B)
		}
	}
	walk(n)
	return order
}
