package eval

import (
	"testing"

	"github.com/sttlang/stt/internal/meta"
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// noTops is an eval.TopReader with no entries; every test in this file
// builds closed terms that never reference term.Top.
type noTops struct{}

func (noTops) LookupTop(term.TopId) value.Value { panic("no top-level entries in this test") }

func newCtx() *Ctx {
	return &Ctx{Metas: meta.New(), Tops: noTops{}}
}

// church builds the core-syntax Church numeral λs z. s (s (... (s z))) with
// n applications of s.
func church(n int) term.Tm {
	body := term.Tm(term.Var{Idx: 0})
	for i := 0; i < n; i++ {
		body = term.App{Fun: term.Var{Idx: 1}, Arg: body, Icit: term.Expl}
	}

	return term.Lam{Name: "s", Icit: term.Expl, Body: term.Lam{Name: "z", Icit: term.Expl, Body: body}}
}

func TestEvalQuoteRoundtripChurchNumeral(t *testing.T) {
	mcx := newCtx()
	three := church(3)

	v := Eval(mcx, value.Empty, three)
	back := Quote(mcx, 0, v, Full)

	if back.String() != three.String() {
		t.Fatalf("roundtrip mismatch: got %s, want %s", back.String(), three.String())
	}
}

func TestEvalQuoteRoundtripIsIdempotent(t *testing.T) {
	mcx := newCtx()
	five := church(5)

	v1 := Eval(mcx, value.Empty, five)
	n1 := Quote(mcx, 0, v1, Full)

	v2 := Eval(mcx, value.Empty, n1)
	n2 := Quote(mcx, 0, v2, Full)

	if n1.String() != n2.String() {
		t.Fatalf("normal form not stable under re-normalization: %s vs %s", n1.String(), n2.String())
	}
}

func TestApplyBetaReducesLambda(t *testing.T) {
	mcx := newCtx()

	// (\x. x) applied to U reduces to U.
	idTm := term.Lam{Name: "x", Icit: term.Expl, Body: term.Var{Idx: 0}}
	idVal := Eval(mcx, value.Empty, idTm)

	result := Apply(idVal, value.U{}, term.Expl)
	if _, ok := result.(value.U); !ok {
		t.Fatalf("expected beta reduction to U, got %T", result)
	}
}

func TestForceChasesSolvedMeta(t *testing.T) {
	mcx := newCtx()

	id := mcx.Metas.Fresh(value.U{}, meta.Pos{})
	flex := value.VMeta(id)

	if _, ok := Force(mcx, flex).(*value.Flex); !ok {
		t.Fatalf("expected an unsolved meta to force to itself")
	}

	mcx.Metas.Solve(id, value.U{}, term.U{})

	if _, ok := Force(mcx, flex).(value.U); !ok {
		t.Fatalf("expected a solved meta to force through to its solution")
	}
}

func TestForceFullUnfoldsGluedButNotPostulate(t *testing.T) {
	mcx := newCtx()

	def := value.NewGlued(0, "def", func() value.Value { return value.U{} })
	if _, ok := ForceFull(mcx, def).(value.U); !ok {
		t.Fatalf("expected forceFull to unfold a definition to U")
	}

	postulate := value.NewGlued(1, "postulate", nil)

	got := ForceFull(mcx, postulate)
	if g, ok := got.(*value.Glued); !ok || g != postulate {
		t.Fatalf("expected forceFull to leave a postulate folded, got %T", got)
	}
}

func TestQuoteUnderBinderProducesFreshVar(t *testing.T) {
	mcx := newCtx()

	// \x. x, evaluated then re-quoted under depth 0, should reference its
	// own binder via index 0.
	idTm := term.Lam{Name: "x", Icit: term.Expl, Body: term.Var{Idx: 0}}
	v := Eval(mcx, value.Empty, idTm)

	q := Quote(mcx, 0, v, Shallow).(term.Lam)

	vr, ok := q.Body.(term.Var)
	if !ok || vr.Idx != 0 {
		t.Fatalf("expected body to quote back to @0, got %s", q.Body)
	}
}
