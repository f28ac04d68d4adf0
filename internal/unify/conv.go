package unify

import (
	"github.com/sttlang/stt/internal/eval"
	"github.com/sttlang/stt/internal/value"
)

// Convert decides whether v1 and v2 are definitionally equal under a
// context of the given size (number of bound variables currently in
// scope). It tries the approximate, rigid-head check first — which never
// unfolds top-level definitions and never performs any meta-driven
// branching (it only chases already-solved metas, via eval.Force) — and
// only falls back to the full, unification-
// capable check when the approximate check is inconclusive. Per spec.md
// §8 this makes approximate-equal implies full-equal (soundness), never the
// converse.
func Convert(mcx *eval.Ctx, size value.Lvl, v1, v2 value.Value) error {
	if eq, conclusive := convApprox(mcx, size, v1, v2); conclusive {
		if eq {
			return nil
		}

		return notEqual("types are not convertible")
	}

	return Unify(mcx, size, v1, v2)
}

// convApprox implements spec.md §4.2's approximate mode. The second return
// value is false exactly when the comparison is inconclusive at the
// approximate level and the whole call must be retried in full mode — it
// is never true together with eq=false for a case that full mode might
// still resolve differently; soundness requires conclusive-and-equal to
// imply full equality, which is why flexible heads, glued/unfolded
// mismatches and spine-length mismatches under a glued top are always
// inconclusive rather than guessed at.
func convApprox(mcx *eval.Ctx, size value.Lvl, v1, v2 value.Value) (eq bool, conclusive bool) {
	v1 = eval.Force(mcx, v1)
	v2 = eval.Force(mcx, v2)

	// A flexible operand on either side is always inconclusive at this
	// level, regardless of what the other side's head looks like: the
	// meta may yet be solved to match it. Checking this once, up front,
	// means none of the per-head cases below need to special-case "the
	// other side turned out to be a Flex" themselves.
	if _, ok := v1.(*value.Flex); ok {
		return false, false
	}

	if _, ok := v2.(*value.Flex); ok {
		return false, false
	}

	switch h1 := v1.(type) {
	case *value.Rigid:
		h2, ok := v2.(*value.Rigid)
		if !ok {
			return etaOrInconclusive(mcx, size, v1, v2)
		}

		if h1.Head != h2.Head {
			return false, true
		}

		if len(h1.Sp) != len(h2.Sp) {
			return false, true
		}

		return convSpineApprox(mcx, size, h1.Sp, h2.Sp)

	case *value.Glued:
		h2, ok := v2.(*value.Glued)
		if !ok {
			// Could still be equal once h1 is unfolded; inconclusive.
			return false, false
		}

		if h1.Head != h2.Head || len(h1.Sp) != len(h2.Sp) {
			// Different top ids, or same id but mismatched spine length
			// (shouldn't arise for a well-typed term, but unfolding could
			// still settle it) — both inconclusive per spec.md §4.2.
			return false, false
		}

		// Only equality is conclusive here: spine arguments that differ can
		// still agree once the definition is unfolded (it may ignore them).
		if eq, conclusive := convSpineApprox(mcx, size, h1.Sp, h2.Sp); eq && conclusive {
			return true, true
		}

		return false, false

	case *value.Lam:
		if h2, ok := v2.(*value.Lam); ok {
			return convUnderBinder(mcx, size, h1.Closure, h2.Closure)
		}

		return etaOrInconclusive(mcx, size, v1, v2)

	case *value.Pi:
		h2, ok := v2.(*value.Pi)
		if !ok {
			// A top-level definition can itself evaluate to a Pi (e.g. a
			// dependent type alias like Vec A n); its Glued form must stay
			// inconclusive here rather than being guessed unequal.
			if _, ok := v2.(*value.Glued); ok {
				return false, false
			}

			return false, true
		}

		if h1.Icit != h2.Icit {
			return false, true
		}

		if domEq, conclusive := convApprox(mcx, size, h1.Dom, h2.Dom); !conclusive || !domEq {
			return domEq, conclusive
		}

		return convUnderBinder(mcx, size, h1.Closure, h2.Closure)

	case value.U:
		if _, ok := v2.(value.U); ok {
			return true, true
		}

		// Same reasoning as the Pi case: a top-level name can be defined
		// as U itself.
		if _, ok := v2.(*value.Glued); ok {
			return false, false
		}

		return false, true

	default:
		return false, true
	}
}

// etaOrInconclusive handles the case where exactly one side is a Lam: the
// other side is eta-expanded on the fly and compared approximately, unless
// it is itself a glued head (in which case the comparison is inconclusive
// rather than guessed — a flexible other side was already filtered out by
// convApprox before this is ever reached). It is also reached from the
// Rigid case with no Lam on either side: that is inconclusive against a
// glued head and a conclusive mismatch otherwise.
func etaOrInconclusive(mcx *eval.Ctx, size value.Lvl, v1, v2 value.Value) (bool, bool) {
	lam, other := v1, v2

	l, ok := lam.(*value.Lam)
	if !ok {
		l, ok = v2.(*value.Lam)
		other = v1
	}

	if !ok {
		// Neither side is a Lam (v1 is Rigid): a Glued v2 may still unfold
		// to a matching neutral, so only a non-glued v2 is definitely unequal.
		if _, ok := v2.(*value.Glued); ok {
			return false, false
		}

		return false, true
	}

	if _, ok := other.(*value.Glued); ok {
		return false, false
	}

	fresh := value.VVar(value.Lvl(size))
	lbody := l.Closure.Apply(fresh)
	obody := eval.Apply(other, fresh, l.Icit)

	return convApprox(mcx, size+1, lbody, obody)
}

func convUnderBinder(mcx *eval.Ctx, size value.Lvl, c1, c2 value.Closure) (bool, bool) {
	fresh := value.VVar(size)

	return convApprox(mcx, size+1, c1.Apply(fresh), c2.Apply(fresh))
}

func convSpineApprox(mcx *eval.Ctx, size value.Lvl, sp1, sp2 value.Spine) (bool, bool) {
	for i := range sp1 {
		if sp1[i].Icit != sp2[i].Icit {
			return false, true
		}

		eq, conclusive := convApprox(mcx, size, sp1[i].Arg, sp2[i].Arg)
		if !conclusive {
			return false, false
		}

		if !eq {
			return false, true
		}
	}

	return true, true
}
