package dslast

import "strings"

// Block is a sequence of statements whose value is that of whichever
// statement ultimately produces one: an *If is evaluated for its matching
// branch (falling through to the next statement only if none of its
// branches matched and it has no else), anything else is a plain
// expression statement and, if it is the last statement in the block,
// supplies the block's value. Since the DSL has no side effects, only the
// last reachable statement's value is observable — earlier plain-expression
// statements are evaluated (so type/name errors in them still surface) but
// their results are discarded, the same way `tunascript`'s AST.eval walks
// all top-level statement nodes in sequence.
type Block struct {
	Stmts []Node
}

func (b *Block) Type() NodeKind { return KindIf } // blocks are a structural grouping, not a distinct source construct

func (b *Block) Evaluate(env Env) (Value, error) {
	for i, stmt := range b.Stmts {
		if ifNode, ok := stmt.(*If); ok {
			v, matched, err := ifNode.evalBranch(env)
			if err != nil {
				return Value{}, err
			}
			if matched {
				return v, nil
			}
			continue
		}
		if i == len(b.Stmts)-1 {
			return stmt.Evaluate(env)
		}
		if _, err := stmt.Evaluate(env); err != nil {
			return Value{}, err
		}
	}
	return Value{}, NameError{Name: "<block fell through without a value>"}
}

func (b *Block) SubstituteNames(bindings map[string]Node) Node {
	out := &Block{Stmts: make([]Node, len(b.Stmts))}
	for i, s := range b.Stmts {
		out.Stmts[i] = s.SubstituteNames(bindings)
	}
	return out
}

func (b *Block) ListStubs(acc *[]Node) {
	for _, s := range b.Stmts {
		s.ListStubs(acc)
	}
}

func (b *Block) Source() string {
	lines := make([]string, len(b.Stmts))
	for i, s := range b.Stmts {
		lines[i] = s.Source()
	}
	return strings.Join(lines, "\n")
}

func (b *Block) String() string {
	parts := make([]string, len(b.Stmts))
	for i, s := range b.Stmts {
		parts[i] = s.String()
	}
	return "Block(" + strings.Join(parts, "; ") + ")"
}

// If is an if/elif/else statement. Else may be nil (no else clause), another
// *If (an elif), or any other Node standing in for the final else block.
type If struct {
	Cond Node
	Then Node
	Else Node
	Pos  Pos
}

func (f *If) Type() NodeKind { return KindIf }

func (f *If) Evaluate(env Env) (Value, error) {
	v, matched, err := f.evalBranch(env)
	if err != nil {
		return Value{}, err
	}
	if !matched {
		return Value{}, NameError{Name: "<if statement without else did not match in a value position>", Pos: f.Pos}
	}
	return v, nil
}

// evalBranch evaluates the condition and, if true, the Then branch. If
// false, it recurses into Else (if an *If, i.e. an elif) or evaluates Else
// directly (the terminal else block); if Else is nil, matched is false and
// callers should fall through to the next statement in the enclosing Block.
func (f *If) evalBranch(env Env) (Value, bool, error) {
	cond, err := f.Cond.Evaluate(env)
	if err != nil {
		return Value{}, false, err
	}
	if cond.Bool() {
		v, err := f.Then.Evaluate(env)
		return v, true, err
	}
	if f.Else == nil {
		return Value{}, false, nil
	}
	if elif, ok := f.Else.(*If); ok {
		return elif.evalBranch(env)
	}
	v, err := f.Else.Evaluate(env)
	return v, true, err
}

func (f *If) SubstituteNames(bindings map[string]Node) Node {
	out := &If{Cond: f.Cond.SubstituteNames(bindings), Then: f.Then.SubstituteNames(bindings), Pos: f.Pos}
	if f.Else != nil {
		out.Else = f.Else.SubstituteNames(bindings)
	}
	return out
}

func (f *If) ListStubs(acc *[]Node) {
	f.Cond.ListStubs(acc)
	f.Then.ListStubs(acc)
	if f.Else != nil {
		f.Else.ListStubs(acc)
	}
}

func (f *If) Source() string {
	s := "if " + f.Cond.Source() + ":\n" + indent(f.Then.Source())
	switch e := f.Else.(type) {
	case nil:
	case *If:
		s += "\nel" + e.Source()
	default:
		s += "\nelse:\n" + indent(e.Source())
	}
	return s
}

func (f *If) String() string {
	elseStr := "<nil>"
	if f.Else != nil {
		elseStr = f.Else.String()
	}
	return "If(" + f.Cond.String() + ", " + f.Then.String() + ", " + elseStr + ")"
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = "    " + lines[i]
	}
	return strings.Join(lines, "\n")
}

// IfExp is the ternary `then if cond else els` expression form. Both
// branches are present (no fallthrough); evaluation is lazy.
type IfExp struct {
	Cond, Then, Else Node
}

func (i *IfExp) Type() NodeKind { return KindIfExp }

func (i *IfExp) Evaluate(env Env) (Value, error) {
	cond, err := i.Cond.Evaluate(env)
	if err != nil {
		return Value{}, err
	}
	if cond.Bool() {
		return i.Then.Evaluate(env)
	}
	return i.Else.Evaluate(env)
}

func (i *IfExp) SubstituteNames(bindings map[string]Node) Node {
	return &IfExp{
		Cond: i.Cond.SubstituteNames(bindings),
		Then: i.Then.SubstituteNames(bindings),
		Else: i.Else.SubstituteNames(bindings),
	}
}

func (i *IfExp) ListStubs(acc *[]Node) {
	i.Cond.ListStubs(acc)
	i.Then.ListStubs(acc)
	i.Else.ListStubs(acc)
}

func (i *IfExp) Source() string {
	return i.Then.Source() + " if " + i.Cond.Source() + " else " + i.Else.Source()
}

func (i *IfExp) String() string {
	return "IfExp(" + i.Cond.String() + ", " + i.Then.String() + ", " + i.Else.String() + ")"
}
