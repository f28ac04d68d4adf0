package unify

import (
	"github.com/sttlang/stt/internal/eval"
	"github.com/sttlang/stt/internal/value"
)

// Unify is the full conversion check: both sides are forced all the way
// (every solved meta and every glued top is unfolded), then compared
// structurally. Any comparison that bottoms out with a flexible head on
// either side is handed to the pattern solver rather than postponed — per
// spec.md §4.3 there is no constraint queue, so a flexible equation that
// isn't solvable right now simply fails.
func Unify(mcx *eval.Ctx, size value.Lvl, v1, v2 value.Value) error {
	v1 = eval.ForceFull(mcx, v1)
	v2 = eval.ForceFull(mcx, v2)

	// A flexible operand is handed to the pattern solver regardless of
	// which side it's on: the type switch below dispatches on v1's shape,
	// so without this check a Flex v2 paired with a concrete v1 (Pi, U,
	// Rigid, ...) would fall into that concrete case and report a bogus
	// mismatch instead of ever trying to solve the meta.
	if h1, ok := v1.(*value.Flex); ok {
		return unifyFlex(mcx, size, h1, v1, v2)
	}

	if h2, ok := v2.(*value.Flex); ok {
		return unifyFlex(mcx, size, h2, v2, v1)
	}

	switch h1 := v1.(type) {
	case *value.Rigid:
		h2, ok := v2.(*value.Rigid)
		if !ok {
			return unifyEta(mcx, size, v1, v2)
		}

		if h1.Head != h2.Head {
			return notEqual("mismatched rigid heads at levels %d and %d", h1.Head, h2.Head)
		}

		return unifySpine(mcx, size, h1.Sp, h2.Sp)

	case *value.Pi:
		h2, ok := v2.(*value.Pi)
		if !ok {
			return notEqual("expected a function type")
		}

		if h1.Icit != h2.Icit {
			return icitnessMismatch("function types disagree on implicit/explicit marking")
		}

		if err := Unify(mcx, size, h1.Dom, h2.Dom); err != nil {
			return err
		}

		fresh := value.VVar(size)

		return Unify(mcx, size+1, h1.Closure.Apply(fresh), h2.Closure.Apply(fresh))

	case *value.Lam:
		h2, ok := v2.(*value.Lam)
		if !ok {
			return unifyEta(mcx, size, v1, v2)
		}

		fresh := value.VVar(size)

		return Unify(mcx, size+1, h1.Closure.Apply(fresh), h2.Closure.Apply(fresh))

	case *value.Glued:
		// ForceFull never unfolds a postulate (IsPostulate guards Unfold),
		// so a Glued head reaching here is always one: a postulate is a
		// permanent rigid head, unifiable the same way case *value.Rigid
		// is, by head identity plus pointwise spine unification.
		h2, ok := v2.(*value.Glued)
		if !ok {
			return unifyEta(mcx, size, v1, v2)
		}

		if h1.Head != h2.Head {
			return notEqual("mismatched postulate heads %q and %q", h1.Name, h2.Name)
		}

		return unifySpine(mcx, size, h1.Sp, h2.Sp)

	case value.U:
		if _, ok := v2.(value.U); ok {
			return nil
		}

		return notEqual("expected the universe")

	default:
		return notEqual("cannot compare values of unexpected kind")
	}
}

// unifyFlex is reached with v1 forced to *value.Flex (h1 is that same
// value, passed pre-asserted). v2 may itself be flexible, in which case a
// same-head spine comparison is tried first (cheaper and keeps the older
// meta's solution less dependent on the newer), before falling back to
// solving whichever side is a valid pattern.
func unifyFlex(mcx *eval.Ctx, size value.Lvl, h1 *value.Flex, v1, v2 value.Value) error {
	if h2, ok := v2.(*value.Flex); ok {
		if h1.Head == h2.Head && len(h1.Sp) == len(h2.Sp) {
			if err := unifySpine(mcx, size, h1.Sp, h2.Sp); err == nil {
				return nil
			}
		}

		if err := solve(mcx, size, h1.Head, h1.Sp, v2); err == nil {
			return nil
		}

		return solve(mcx, size, h2.Head, h2.Sp, v1)
	}

	return solve(mcx, size, h1.Head, h1.Sp, v2)
}

// unifyEta handles exactly one of v1/v2 being a Lam in full mode: the other
// side is always eta-expanded and compared, since full mode has no
// inconclusive outcome to fall back to.
func unifyEta(mcx *eval.Ctx, size value.Lvl, v1, v2 value.Value) error {
	lam, other := v1, v2

	l, ok := lam.(*value.Lam)
	if !ok {
		l, ok = v2.(*value.Lam)
		other = v1
	}

	if !ok {
		return notEqual("not convertible")
	}

	fresh := value.VVar(size)
	lbody := l.Closure.Apply(fresh)
	obody := eval.Apply(other, fresh, l.Icit)

	return Unify(mcx, size+1, lbody, obody)
}

func unifySpine(mcx *eval.Ctx, size value.Lvl, sp1, sp2 value.Spine) error {
	if len(sp1) != len(sp2) {
		return notEqual("spines of differing length")
	}

	for i := range sp1 {
		if sp1[i].Icit != sp2[i].Icit {
			return icitnessMismatch("spine entry %d disagrees on implicit/explicit marking", i)
		}

		if err := Unify(mcx, size, sp1[i].Arg, sp2[i].Arg); err != nil {
			return err
		}
	}

	return nil
}
