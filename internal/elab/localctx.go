package elab

import (
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// localVar is one entry of the local context, linked innermost-first so
// that binding a new variable is O(1) and never copies the entries bound
// before it (spec.md §5: "never deep-copy on binder entry").
type localVar struct {
	next   *localVar
	name   string
	ty     value.Value
	lvl    value.Lvl
	origin term.Origin
}

// Cxt is the local context threaded through check/infer: the environment
// of bound values (for the evaluator), the parallel list of names/types/
// origins (for lookup, error messages and named-implicit matching), and
// the current size (for index<->level conversion). It is persistent —
// Bind/Define return a new Cxt sharing all of the old one's structure —
// so a single elaboration can freely branch (e.g. retrying a check under
// an inserted implicit lambda) without needing to restore anything by hand.
type Cxt struct {
	Env  *value.Env
	vars *localVar
	Lvl  value.Lvl
}

// Empty is the local context at the start of every top-level declaration.
func Empty() *Cxt {
	return &Cxt{Env: value.Empty}
}

// Bind extends c with a fresh bound variable named name of type ty,
// represented in the environment by the rigid neutral at the new level.
func (c *Cxt) Bind(name string, ty value.Value) *Cxt {
	return &Cxt{
		Env:  value.Extend(c.Env, value.VVar(c.Lvl)),
		vars: &localVar{next: c.vars, name: name, ty: ty, lvl: c.Lvl, origin: term.Bound},
		Lvl:  c.Lvl + 1,
	}
}

// Define extends c with a let-bound variable whose value is already known,
// origin Defined: InsertedMeta's spine mask skips it, since any solution
// can recover its value by evaluating the surrounding bound entries rather
// than needing it as an explicit argument.
func (c *Cxt) Define(name string, ty, val value.Value) *Cxt {
	return &Cxt{
		Env:  value.Extend(c.Env, val),
		vars: &localVar{next: c.vars, name: name, ty: ty, lvl: c.Lvl, origin: term.Defined},
		Lvl:  c.Lvl + 1,
	}
}

// Lookup finds the nearest (innermost) binding of name, per ordinary
// lexical shadowing.
func (c *Cxt) Lookup(name string) (value.Lvl, value.Value, bool) {
	for v := c.vars; v != nil; v = v.next {
		if v.name == name {
			return v.lvl, v.ty, true
		}
	}

	return 0, nil, false
}

// mask reports, outer-to-inner, whether each entry currently in scope is
// Bound or Defined — exactly the order term.InsertedMeta.Mask expects, so
// that applying a fresh meta to the bound subsequence (in eval.Eval)
// reproduces the local context's bound variables in their original order.
func (c *Cxt) mask() []term.Origin {
	m := make([]term.Origin, c.Lvl)
	for v := c.vars; v != nil; v = v.next {
		m[v.lvl] = v.origin
	}

	return m
}
