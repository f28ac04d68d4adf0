// Package eval implements the glued evaluator: weak-head evaluation of core
// terms into semantic values, forcing (with and without unfolding
// glued tops), application, and quoting values back to core terms at either
// a shallow (glued) or full (unfolded) policy.
//
// This is the single evaluator used throughout the engine — the same
// eval/force pair backs both the fast approximate conversion path and the
// full path; only forceFull and quote's unfold policy differ.
package eval

import (
	"fmt"

	"github.com/sttlang/stt/internal/meta"
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// Eval evaluates a core term to weak-head normal form under env, consulting
// mcx for top-level definitions and metavariable solutions. Evaluation
// never fails: ill-typed terms have already been ruled out by the
// elaborator that produced t.
func Eval(mcx *Ctx, env *value.Env, t term.Tm) value.Value {
	switch t := t.(type) {
	case term.Var:
		return env.Index(t.Idx)

	case term.Top:
		return mcx.LookupTop(t.Id)

	case term.Meta:
		return metaValue(mcx, t.Id)

	case term.InsertedMeta:
		v := metaValue(mcx, t.Id)
		// Apply v to the bound entries of env, outer-to-inner, matching the
		// order they were pushed at insertion time (see term.InsertedMeta).
		bound := boundValues(env, t.Mask)
		for _, arg := range bound {
			v = Apply(v, arg, term.Expl)
		}

		return v

	case term.App:
		fn := Eval(mcx, env, t.Fun)
		arg := Eval(mcx, env, t.Arg)

		return Apply(fn, arg, t.Icit)

	case term.Lam:
		return &value.Lam{
			Name: t.Name,
			Icit: t.Icit,
			Closure: value.Closure{Env: env, Body: t.Body, Eval: func(e *value.Env, b term.Tm) value.Value {
				return Eval(mcx, e, b)
			}},
		}

	case term.Pi:
		return &value.Pi{
			Name: t.Name,
			Icit: t.Icit,
			Dom:  Eval(mcx, env, t.Dom),
			Closure: value.Closure{Env: env, Body: t.Cod, Eval: func(e *value.Env, b term.Tm) value.Value {
				return Eval(mcx, e, b)
			}},
		}

	case term.Let:
		v := Eval(mcx, env, t.Val)

		return Eval(mcx, value.Extend(env, v), t.Body)

	case term.U:
		return value.U{}

	default:
		panic(fmt.Sprintf("eval: unhandled term %T", t))
	}
}

// boundValues extracts, from env (innermost-first), the values whose mask
// entry is term.Bound, restoring outer-to-inner order (position 0 = the
// value bound earliest) so it matches the order the meta's declared
// parameters were recorded in at insertion time.
func boundValues(env *value.Env, mask []term.Origin) []value.Value {
	n := len(mask)
	vals := make([]value.Value, 0, n)
	// mask[0] corresponds to the outermost (earliest-bound) entry, i.e. the
	// one furthest from env's head; index from the end of env accordingly.
	all := make([]value.Value, n)
	cur := env

	for i := n - 1; i >= 0; i-- {
		all[i] = cur.Index(0)
		cur = advance(cur)
	}

	for i := 0; i < n; i++ {
		if mask[i] == term.Bound {
			vals = append(vals, all[i])
		}
	}

	return vals
}

func advance(e *value.Env) *value.Env {
	return e.Tail()
}

// metaValue produces the value of a meta occurrence: its solution if
// solved, otherwise a fresh flexible neutral.
func metaValue(mcx *Ctx, id term.MetaId) value.Value {
	e := mcx.Metas.Lookup(id)
	if e.Solved {
		return e.SolVal
	}

	return value.VMeta(id)
}

// Ctx bundles the metacontext with the running top-level context; the
// evaluator needs both to resolve term.Top and term.Meta heads without
// import-cycling into package elab, which owns their construction.
type Ctx struct {
	Metas *meta.Cxt
	Tops  TopReader
}

// TopReader is the read-only view of the top-level context the evaluator
// needs: given a top-level id, produce the (glued) value of that
// declaration.
type TopReader interface {
	LookupTop(id term.TopId) value.Value
}

func (c *Ctx) LookupTop(id term.TopId) value.Value { return c.Tops.LookupTop(id) }
