package unify

import (
	"github.com/sttlang/stt/internal/eval"
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// isPattern classifies a meta's spine: it is a pattern iff every argument
// forces to a distinct-or-repeated bound variable at a level (an empty-
// spine Rigid) — nothing else (no further application, no non-variable
// value) is admitted. Repeated levels are allowed here; the nonlinearity
// policy is resolved later, in invert, by letting the rightmost occurrence
// win.
func isPattern(mcx *eval.Ctx, sp value.Spine) ([]value.Lvl, bool) {
	lvls := make([]value.Lvl, len(sp))

	for i, el := range sp {
		r, ok := eval.Force(mcx, el.Arg).(*value.Rigid)
		if !ok || len(r.Sp) != 0 {
			return nil, false
		}

		lvls[i] = r.Head
	}

	return lvls, true
}

// pren is a partial renaming from the original context (Cod levels) to the
// meta's solution context (Dom levels), built by invert. It deliberately
// mirrors the classic "PartialRenaming" used by pattern unifiers: Dom is
// the size of the solution's own (fresh) context, Cod is the size of the
// context the equation was raised in, and Ren maps the subset of Cod-levels
// that are in the meta's spine back to their Dom-level position.
type pren struct {
	ren      map[value.Lvl]value.Lvl
	occ      term.MetaId
	dom, cod value.Lvl
}

func invert(size value.Lvl, lvls []value.Lvl, occ term.MetaId) pren {
	ren := make(map[value.Lvl]value.Lvl, len(lvls))

	// Nonlinearity policy: iterate left to right and simply overwrite on a
	// repeated level, so the rightmost (innermost, i.e. applied last)
	// occurrence is the one the solution's body actually references — a
	// deliberately incomplete-but-fast choice, not a bug.
	for i, l := range lvls {
		ren[l] = value.Lvl(i)
	}

	return pren{occ: occ, dom: value.Lvl(len(lvls)), cod: size, ren: ren}
}

func (p pren) lift() pren {
	np := pren{occ: p.occ, dom: p.dom + 1, cod: p.cod + 1, ren: make(map[value.Lvl]value.Lvl, len(p.ren)+1)}
	for k, v := range p.ren {
		np.ren[k] = v
	}

	np.ren[p.cod] = p.dom

	return np
}

// rename quotes v into a term valid in the meta's own (fresh) solution
// context, per the partial renaming p. Solved metas are always followed
// (both modes force at least with eval.Force). chase controls whether a
// glued top-level definition encountered along the way is unfolded before
// continuing (chase = true, eval.ForceFull), or left folded as a Top
// reference (chase = false) — the default is false (spec.md §9, open
// question (ii): approximate by default). A scope-escape hit under
// chase=false is retried once with chase=true, in case the escaping
// variable only appeared in a glued top's argument that its unfolding
// discards.
func rename(mcx *eval.Ctx, p pren, v value.Value, chase bool) (term.Tm, error) {
	var force func(value.Value) value.Value
	if chase {
		force = func(v value.Value) value.Value { return eval.ForceFull(mcx, v) }
	} else {
		force = func(v value.Value) value.Value { return eval.Force(mcx, v) }
	}

	v = force(v)

	switch h := v.(type) {
	case *value.Flex:
		if h.Head == p.occ {
			return nil, occursCheck("metavariable ?%d occurs in its own solution", h.Head)
		}

		return renameSpine(mcx, p, term.Meta{Id: h.Head}, h.Sp, chase)

	case *value.Rigid:
		dl, ok := p.ren[h.Head]
		if !ok {
			return nil, scopeEscape("variable at level %d escapes the metavariable's scope", h.Head)
		}

		return renameSpine(mcx, p, term.Var{Idx: int(p.dom - dl - 1)}, h.Sp, chase)

	case *value.Glued:
		if chase && !h.IsPostulate() {
			return rename(mcx, p, h.Unfold(), chase)
		}

		return renameSpine(mcx, p, term.Top{Name: h.Name, Id: h.Head}, h.Sp, chase)

	case *value.Lam:
		np := p.lift()
		body, err := rename(mcx, np, h.Closure.Apply(value.VVar(p.cod)), chase)

		if err != nil {
			return nil, err
		}

		return term.Lam{Name: h.Name, Icit: h.Icit, Body: body}, nil

	case *value.Pi:
		dom, err := rename(mcx, p, h.Dom, chase)
		if err != nil {
			return nil, err
		}

		np := p.lift()

		cod, err := rename(mcx, np, h.Closure.Apply(value.VVar(p.cod)), chase)
		if err != nil {
			return nil, err
		}

		return term.Pi{Name: h.Name, Icit: h.Icit, Dom: dom, Cod: cod}, nil

	case value.U:
		return term.U{}, nil

	default:
		return nil, notEqual("cannot quote value of unexpected kind during solving")
	}
}

func renameSpine(mcx *eval.Ctx, p pren, head term.Tm, sp value.Spine, chase bool) (term.Tm, error) {
	t := head

	for _, el := range sp {
		arg, err := rename(mcx, p, el.Arg, chase)
		if err != nil {
			return nil, err
		}

		t = term.App{Fun: t, Arg: arg, Icit: el.Icit}
	}

	return t, nil
}

// solve assigns metavariable id the solution determined by unifying
// `?id sp` with rhs: ?id := λx₁…xₙ. rhs[renamed], where renaming maps each
// spine variable back to its position. On success the metacontext gains
// exactly one new solved entry; on failure it is unchanged.
func solve(mcx *eval.Ctx, size value.Lvl, id term.MetaId, sp value.Spine, rhs value.Value) error {
	lvls, ok := isPattern(mcx, sp)
	if !ok {
		return notEqual("metavariable spine is not a pattern")
	}

	p := invert(size, lvls, id)

	body, err := rename(mcx, p, rhs, false)
	if err != nil {
		if e, ok := err.(*Error); ok && e.Kind == ScopeEscape {
			body, err = rename(mcx, p, rhs, true)
		}

		if err != nil {
			return err
		}
	}

	solTerm := term.Tm(body)
	for i := len(lvls) - 1; i >= 0; i-- {
		solTerm = term.Lam{Name: "x", Icit: term.Expl, Body: solTerm}
	}

	solVal := eval.Eval(mcx, value.Empty, solTerm)
	mcx.Metas.Solve(id, solVal, solTerm)

	return nil
}
