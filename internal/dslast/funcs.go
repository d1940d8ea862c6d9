package dslast

import (
	"fmt"
	"strings"
)

// ValueNode wraps an already-computed Value so it can be bound into a
// Namespace as a Node: function arguments are evaluated once in the caller's
// env and then rebound as constants in the callee's scope, so the callee
// never re-evaluates an argument expression against the wrong env.
type ValueNode struct {
	V Value
}

func (v *ValueNode) Type() NodeKind                       { return KindName }
func (v *ValueNode) Evaluate(Env) (Value, error)          { return v.V, nil }
func (v *ValueNode) SubstituteNames(map[string]Node) Node { return v }
func (v *ValueNode) ListStubs(*[]Node)                    {}
func (v *ValueNode) Source() string                       { return v.V.String() }
func (v *ValueNode) String() string                       { return fmt.Sprintf("Value(%s)", v.V) }

// FunctionDef is a `def name(params):` declaration. Body is evaluated in a
// namespace layered on top of the definition site's namespace (lexical
// scoping, not dynamic), with the call's arguments bound under Params.
//
// memo caches results of FunctionCall.Evaluate keyed on the canonical
// argument tuple, collapsing what would otherwise be exponential re-evaluation
// of recursive definitions (e.g. naive fib) into one evaluation per distinct
// argument tuple — the same collapse internal/stubber performs structurally
// at compile time, done here for direct (non-stubbed) evaluation.
type FunctionDef struct {
	Name   string
	Params []string
	Body   Node
	Pos    Pos

	// Inline records whether the source wrote the body as a single
	// expression on the `def` line ("def f(n): n") rather than an indented
	// block, so Source() round-trips the form the author actually used.
	Inline bool

	memo map[string]Value
}

func (f *FunctionDef) Type() NodeKind { return KindFunctionDef }

// Evaluate for a bare FunctionDef (not applied) has no value of its own; it
// is only ever reached through a Name lookup inside a FunctionCall.
func (f *FunctionDef) Evaluate(Env) (Value, error) {
	return Value{}, TypeError{Op: "a function definition has no value; call it instead", Pos: f.Pos}
}

// Apply evaluates the function body with args bound to Params, memoising on
// the canonical key of the argument values. defNS is the namespace in effect
// where the function was defined (lexical closure); env supplies the
// present_time/rate/path_count/market context the body's primitives need.
func (f *FunctionDef) Apply(env Env, defNS *Namespace, args []Value) (Value, error) {
	if len(args) != len(f.Params) {
		return Value{}, ArityError{Callee: f.Name, Expected: len(f.Params), Got: len(args), Pos: f.Pos}
	}
	key := memoKey(args)
	if f.memo == nil {
		f.memo = make(map[string]Value)
	}
	if v, ok := f.memo[key]; ok {
		return v, nil
	}
	bindings := make(map[string]Node, len(args))
	for i, p := range f.Params {
		bindings[p] = &ValueNode{V: args[i]}
	}
	callEnv := env.WithNamespace(defNS.Child(bindings))
	v, err := f.Body.Evaluate(callEnv)
	if err != nil {
		return Value{}, err
	}
	f.memo[key] = v
	return v, nil
}

func memoKey(args []Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.CanonicalKey()
	}
	return strings.Join(parts, "|")
}

func (f *FunctionDef) SubstituteNames(bindings map[string]Node) Node {
	inner := make(map[string]Node, len(bindings))
	for k, v := range bindings {
		if !contains(f.Params, k) {
			inner[k] = v
		}
	}
	return &FunctionDef{Name: f.Name, Params: f.Params, Body: f.Body.SubstituteNames(inner), Pos: f.Pos, Inline: f.Inline}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (f *FunctionDef) ListStubs(acc *[]Node) { f.Body.ListStubs(acc) }

func (f *FunctionDef) Source() string {
	if f.Inline {
		return fmt.Sprintf("def %s(%s): %s", f.Name, strings.Join(f.Params, ", "), f.Body.Source())
	}
	return fmt.Sprintf("def %s(%s):\n%s", f.Name, strings.Join(f.Params, ", "), indent(f.Body.Source()))
}

func (f *FunctionDef) String() string {
	return fmt.Sprintf("FunctionDef(%s, [%s], %s)", f.Name, strings.Join(f.Params, ", "), f.Body)
}

// FunctionCall invokes a FunctionDef resolved by name against the calling
// env's namespace. Arguments are evaluated eagerly in the caller's env,
// before the callee's memoisation lookup, matching the "arguments are
// values, not thunks" contract FunctionDef.Apply relies on.
type FunctionCall struct {
	Callee string
	Args   []Node
	Pos    Pos
}

func (c *FunctionCall) Type() NodeKind { return KindFunctionCall }

func (c *FunctionCall) Evaluate(env Env) (Value, error) {
	bound, ok := env.NS.Lookup(c.Callee)
	if !ok {
		return Value{}, NameError{Name: c.Callee, Pos: c.Pos}
	}
	def, ok := bound.(*FunctionDef)
	if !ok {
		return Value{}, TypeError{Op: "call", Kind: nil, Pos: c.Pos}
	}
	args := make([]Value, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Evaluate(env)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return def.Apply(env, env.NS, args)
}

func (c *FunctionCall) SubstituteNames(bindings map[string]Node) Node {
	out := &FunctionCall{Callee: c.Callee, Pos: c.Pos, Args: make([]Node, len(c.Args))}
	for i, a := range c.Args {
		out.Args[i] = a.SubstituteNames(bindings)
	}
	if repl, ok := bindings[c.Callee]; ok {
		if name, ok := repl.(*Name); ok {
			out.Callee = name.Ident
		}
	}
	return out
}

func (c *FunctionCall) ListStubs(acc *[]Node) {
	*acc = append(*acc, c)
	for _, a := range c.Args {
		a.ListStubs(acc)
	}
}

func (c *FunctionCall) Source() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.Source()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(parts, ", "))
}

func (c *FunctionCall) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("FunctionCall(%s, [%s])", c.Callee, strings.Join(parts, ", "))
}
