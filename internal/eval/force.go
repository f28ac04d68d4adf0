package eval

import (
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// Force re-evaluates a flexible neutral whose head meta has since been
// solved, recursively, until the head is stable (rigid, another flexible
// whose head is genuinely unsolved, a lambda, a Pi, a universe, or a glued
// top — which Force deliberately leaves folded). Force is idempotent once
// the head stabilizes and must be re-applied after any meta solution:
// nothing invalidates a previously forced value in place.
func Force(mcx *Ctx, v value.Value) value.Value {
	f, ok := v.(*value.Flex)
	if !ok {
		return v
	}

	e := mcx.Metas.Lookup(f.Head)
	if !e.Solved {
		return v
	}

	head := e.SolVal
	for _, elim := range f.Sp {
		head = Apply(head, elim.Arg, elim.Icit)
	}

	return Force(mcx, head)
}

// ForceFull behaves like Force but additionally unfolds glued tops,
// recursively (postulates stay folded). It backs the full conversion check
// (Unify), Full-policy quoting, the chasing retry of the unifier's
// renaming, and the elaborator's dispatch on whether a type is a Pi.
func ForceFull(mcx *Ctx, v value.Value) value.Value {
	v = Force(mcx, v)

	if g, ok := v.(*value.Glued); ok && !g.IsPostulate() {
		return ForceFull(mcx, g.Unfold())
	}

	return v
}

// Apply is the shared β/spine-extension rule: β-reduce against a lambda
// closure, otherwise extend whichever neutral kind fn already is.
func Apply(fn value.Value, arg value.Value, ic term.Icit) value.Value {
	switch f := fn.(type) {
	case *value.Lam:
		return f.Closure.Apply(arg)

	case *value.Rigid:
		return &value.Rigid{Head: f.Head, Sp: extend(f.Sp, arg, ic)}

	case *value.Flex:
		return &value.Flex{Head: f.Head, Sp: extend(f.Sp, arg, ic)}

	case *value.Glued:
		return f.Extend(arg, ic)

	default:
		panic("eval: apply of non-function value")
	}
}

func extend(sp value.Spine, arg value.Value, ic term.Icit) value.Spine {
	out := make(value.Spine, len(sp)+1)
	copy(out, sp)
	out[len(sp)] = value.Elim{Arg: arg, Icit: ic}

	return out
}
