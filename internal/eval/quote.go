package eval

import (
	"fmt"

	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// UnfoldPolicy selects how Quote treats glued top-level references.
type UnfoldPolicy int

const (
	// Shallow keeps glued tops folded: they quote back to term.Top,
	// referencing the definition by name/id rather than expanding it. This
	// is what keeps pattern-unification solutions and approximate
	// conversion small.
	Shallow UnfoldPolicy = iota
	// Full unfolds every glued top (and every solved meta, transitively)
	// before quoting, producing the fully normalized term.
	Full
)

// Quote converts v back to a core term at the given unfolding policy. depth
// is the size of the context v was produced under (the number of bound
// variables currently in scope) — quoting a closure invents one fresh level
// beyond it, applies the closure to the corresponding rigid neutral, and
// recursively quotes the result, turning that fresh level into a Var index
// via depth-lvl-1.
func Quote(mcx *Ctx, depth int, v value.Value, policy UnfoldPolicy) term.Tm {
	var forced value.Value
	if policy == Full {
		forced = ForceFull(mcx, v)
	} else {
		forced = Force(mcx, v)
	}

	switch h := forced.(type) {
	case *value.Rigid:
		return quoteSpine(mcx, depth, term.Var{Idx: lvlToIdx(depth, h.Head)}, h.Sp, policy)

	case *value.Flex:
		return quoteSpine(mcx, depth, term.Meta{Id: h.Head}, h.Sp, policy)

	case *value.Glued:
		if policy == Full && !h.IsPostulate() {
			// ForceFull already unfolded this away; unreachable in practice,
			// kept for defensiveness against future policy changes.
			return Quote(mcx, depth, h.Unfold(), policy)
		}

		return quoteSpine(mcx, depth, term.Top{Name: h.Name, Id: h.Head}, h.Sp, policy)

	case *value.Lam:
		fresh := value.VVar(value.Lvl(depth))
		body := Quote(mcx, depth+1, h.Closure.Apply(fresh), policy)

		return term.Lam{Name: h.Name, Icit: h.Icit, Body: body}

	case *value.Pi:
		fresh := value.VVar(value.Lvl(depth))
		dom := Quote(mcx, depth, h.Dom, policy)
		cod := Quote(mcx, depth+1, h.Closure.Apply(fresh), policy)

		return term.Pi{Name: h.Name, Icit: h.Icit, Dom: dom, Cod: cod}

	case value.U:
		return term.U{}

	default:
		panic(fmt.Sprintf("eval: quote of unhandled value %T", forced))
	}
}

func quoteSpine(mcx *Ctx, depth int, head term.Tm, sp value.Spine, policy UnfoldPolicy) term.Tm {
	t := head
	for _, elim := range sp {
		t = term.App{Fun: t, Arg: Quote(mcx, depth, elim.Arg, policy), Icit: elim.Icit}
	}

	return t
}

func lvlToIdx(depth int, l value.Lvl) int { return depth - int(l) - 1 }

// Nf fully normalizes t under env: evaluate, then quote at Full policy. Used
// by [normalize]-annotated declarations and by cmd/stt's --normalize flag.
func Nf(mcx *Ctx, env *value.Env, t term.Tm) term.Tm {
	return Quote(mcx, env.Len(), Eval(mcx, env, t), Full)
}
