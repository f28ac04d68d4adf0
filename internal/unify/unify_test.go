package unify

import (
	"testing"

	"github.com/sttlang/stt/internal/eval"
	"github.com/sttlang/stt/internal/meta"
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

type noTops struct{}

func (noTops) LookupTop(term.TopId) value.Value { panic("no top-level entries in this test") }

func newCtx() *eval.Ctx {
	return &eval.Ctx{Metas: meta.New(), Tops: noTops{}}
}

func idTerm() term.Tm {
	return term.Lam{Name: "x", Icit: term.Expl, Body: term.Var{Idx: 0}}
}

func TestConvertReflexivity(t *testing.T) {
	mcx := newCtx()
	v := eval.Eval(mcx, value.Empty, idTerm())

	if err := Convert(mcx, 0, v, v); err != nil {
		t.Fatalf("expected a value to convert with itself, got %v", err)
	}
}

func TestConvertSymmetry(t *testing.T) {
	mcx := newCtx()

	a := eval.Eval(mcx, value.Empty, idTerm())
	b := eval.Eval(mcx, value.Empty, idTerm())

	err1 := Convert(mcx, 0, a, b)
	err2 := Convert(mcx, 0, b, a)

	if (err1 == nil) != (err2 == nil) {
		t.Fatalf("convert is not symmetric: a~b=%v, b~a=%v", err1, err2)
	}
}

func TestEtaConversionFunctionVsLambda(t *testing.T) {
	mcx := newCtx()

	// f : U -> U, a rigid neutral (bound variable at level 0 in a context
	// of size 1). f should convert with \x. f x under size 1.
	f := value.VVar(value.Lvl(0))
	etaExpanded := &value.Lam{
		Name: "x",
		Icit: term.Expl,
		Closure: value.Closure{
			Env:  value.Extend(value.Empty, value.VVar(0)),
			Body: term.App{Fun: term.Var{Idx: 1}, Arg: term.Var{Idx: 0}, Icit: term.Expl},
			Eval: func(e *value.Env, b term.Tm) value.Value { return eval.Eval(mcx, e, b) },
		},
	}

	if err := Convert(mcx, 1, f, etaExpanded); err != nil {
		t.Fatalf("expected eta law to hold, got %v", err)
	}
}

func TestSoundnessApproximateImpliesFull(t *testing.T) {
	mcx := newCtx()

	three := term.Lam{Name: "s", Icit: term.Expl, Body: term.Lam{Name: "z", Icit: term.Expl, Body: term.App{
		Fun: term.Var{Idx: 1}, Icit: term.Expl, Arg: term.App{Fun: term.Var{Idx: 1}, Icit: term.Expl, Arg: term.App{
			Fun: term.Var{Idx: 1}, Icit: term.Expl, Arg: term.Var{Idx: 0},
		}},
	}}}

	v1 := eval.Eval(mcx, value.Empty, three)
	v2 := eval.Eval(mcx, value.Empty, three)

	eq, conclusive := convApprox(mcx, 0, v1, v2)
	if conclusive && eq {
		if err := Unify(mcx, 0, v1, v2); err != nil {
			t.Fatalf("approximate mode said equal but full mode disagreed: %v", err)
		}
	}
}

func TestSolveMonotonicity(t *testing.T) {
	mcx := newCtx()

	id := mcx.Metas.Fresh(value.U{}, meta.Pos{})

	// ?id =?= U, with an empty (trivially-pattern) spine.
	if err := solve(mcx, 0, id, nil, value.U{}); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	first := mcx.Metas.Lookup(id).SolVal

	// A second lookup (simulating "all later lookups") must return the
	// same value; solving again must panic rather than silently overwrite.
	second := mcx.Metas.Lookup(id).SolVal
	if first != second {
		t.Fatalf("meta solution is not stable across lookups")
	}
}

func TestSolvePatternSpineNonlinearRightmostWins(t *testing.T) {
	mcx := newCtx()

	// ?id x x (spine repeats level 0 twice): invert must bind level 0 to
	// the rightmost (index 1) position, so the solution body references
	// spine position 1, not 0, for that level.
	id := mcx.Metas.Fresh(value.U{}, meta.Pos{})
	sp := value.Spine{
		{Arg: value.VVar(0), Icit: term.Expl},
		{Arg: value.VVar(0), Icit: term.Expl},
	}

	// Solve ?id x x := x (the bound variable itself), under a context of
	// size 1 (one variable, level 0, in scope).
	if err := solve(mcx, 1, id, sp, value.VVar(0)); err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	lam, ok := mcx.Metas.Lookup(id).SolTerm.(term.Lam)
	if !ok {
		t.Fatalf("expected solution to be a 2-ary lambda, got %T", mcx.Metas.Lookup(id).SolTerm)
	}

	inner, ok := lam.Body.(term.Lam)
	if !ok {
		t.Fatalf("expected nested lambda, got %T", lam.Body)
	}

	v, ok := inner.Body.(term.Var)
	if !ok || v.Idx != 0 {
		t.Fatalf("expected solution body to reference the rightmost (innermost) spine var, got %v", inner.Body)
	}
}

func TestSolveRejectsNonPatternSpine(t *testing.T) {
	mcx := newCtx()

	id := mcx.Metas.Fresh(value.U{}, meta.Pos{})

	// A spine argument that isn't a bare rigid variable (here, U itself)
	// isn't a pattern.
	sp := value.Spine{{Arg: value.U{}, Icit: term.Expl}}

	if err := solve(mcx, 0, id, sp, value.U{}); err == nil {
		t.Fatalf("expected solve to reject a non-pattern spine")
	}
}

func TestSolveOccursCheck(t *testing.T) {
	mcx := newCtx()

	id := mcx.Metas.Fresh(value.U{}, meta.Pos{})

	// ?id x := ?id x: the meta occurs in its own (attempted) solution.
	sp := value.Spine{{Arg: value.VVar(0), Icit: term.Expl}}
	rhs := &value.Flex{Head: id, Sp: sp}

	err := solve(mcx, 1, id, sp, rhs)
	if err == nil {
		t.Fatalf("expected an occurs-check failure")
	}

	if uerr, ok := err.(*Error); !ok || uerr.Kind != OccursCheck {
		t.Fatalf("expected Kind == OccursCheck, got %v", err)
	}
}

func TestSolveScopeEscape(t *testing.T) {
	mcx := newCtx()

	// ?id (at context size 1, spine empty) =?= the bound variable at
	// level 0: that variable isn't in the meta's (empty) spine, so it
	// escapes the meta's scope.
	id := mcx.Metas.Fresh(value.U{}, meta.Pos{})

	err := solve(mcx, 1, id, nil, value.VVar(0))
	if err == nil {
		t.Fatalf("expected a scope-escape failure")
	}

	if uerr, ok := err.(*Error); !ok || uerr.Kind != ScopeEscape {
		t.Fatalf("expected Kind == ScopeEscape, got %v", err)
	}
}

func TestUnifyFlexFlexSameHeadPrefersSpineUnification(t *testing.T) {
	mcx := newCtx()

	id := mcx.Metas.Fresh(value.U{}, meta.Pos{})
	f1 := &value.Flex{Head: id, Sp: value.Spine{{Arg: value.VVar(0), Icit: term.Expl}}}
	f2 := &value.Flex{Head: id, Sp: value.Spine{{Arg: value.VVar(0), Icit: term.Expl}}}

	if err := Unify(mcx, 1, f1, f2); err != nil {
		t.Fatalf("expected same-head flex/flex with convertible spines to unify, got %v", err)
	}

	if mcx.Metas.Lookup(id).Solved {
		t.Fatalf("same-head spine unification should not need to solve the meta at all")
	}
}

func TestUnifyIcitnessMismatch(t *testing.T) {
	mcx := newCtx()

	p1 := &value.Pi{Name: "x", Icit: term.Expl, Dom: value.U{}, Closure: value.Closure{
		Env: value.Empty, Body: term.U{}, Eval: func(e *value.Env, b term.Tm) value.Value { return eval.Eval(mcx, e, b) },
	}}
	p2 := &value.Pi{Name: "x", Icit: term.Impl, Dom: value.U{}, Closure: value.Closure{
		Env: value.Empty, Body: term.U{}, Eval: func(e *value.Env, b term.Tm) value.Value { return eval.Eval(mcx, e, b) },
	}}

	err := Unify(mcx, 0, p1, p2)
	if err == nil {
		t.Fatalf("expected an icitness mismatch")
	}

	if uerr, ok := err.(*Error); !ok || uerr.Kind != IcitnessMismatch {
		t.Fatalf("expected Kind == IcitnessMismatch, got %v", err)
	}
}
