// Package elab implements the bidirectional elaborator (spec.md §4.4): it
// turns a surface.Raw tree into a core term plus an inferred or checked
// type-as-value, inserting implicit application and fresh metavariables
// as it goes, and drives whole-file elaboration one declaration at a time
// into a shared top-level context.
package elab

import (
	"fmt"

	"github.com/sttlang/stt/internal/diag"
	"github.com/sttlang/stt/internal/eval"
	"github.com/sttlang/stt/internal/meta"
	"github.com/sttlang/stt/internal/surface"
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/unify"
	"github.com/sttlang/stt/internal/value"
)

// Elab bundles the two process-wide single-writer structures spec.md §5
// describes (the metacontext and the top-level context) with the evaluator
// context that wraps them, plus wherever this run reports diagnostics.
type Elab struct {
	Mcx  *eval.Ctx
	Tops *TopCtx
	Rep  diag.Reporter
}

// New builds an elaborator over a fresh metacontext and top-level context.
func New(rep diag.Reporter) *Elab {
	tops := NewTopCtx()
	mcx := &eval.Ctx{Metas: meta.New(), Tops: tops}

	return &Elab{Mcx: mcx, Tops: tops, Rep: rep}
}

func toDiagPos(p surface.Pos) diag.Pos { return diag.Pos{File: p.File, Line: p.Line, Col: p.Col} }
func toMetaPos(p surface.Pos) meta.Pos { return meta.Pos{File: p.File, Line: p.Line, Col: p.Col} }

// describe renders a value for error messages: quoted at shallow policy
// (so the message shows what the user wrote, not a fully unfolded giant
// term) under the context size it was produced in.
func (e *Elab) describe(cxt *Cxt, v value.Value) string {
	return eval.Quote(e.Mcx, int(cxt.Lvl), v, eval.Shallow).String()
}

// typeMismatch turns a Convert/Unify failure into the most specific
// diag.Diagnostic its Kind admits (spec.md §7: occurs check and scope
// escape are specializations of type mismatch).
func (e *Elab) typeMismatch(cxt *Cxt, pos surface.Pos, expected, got value.Value, cause error) error {
	dpos := toDiagPos(pos)

	if uerr, ok := cause.(*unify.Error); ok {
		switch uerr.Kind {
		case unify.OccursCheck:
			return diag.OccursCheckFailure(dpos, uerr.Msg)
		case unify.ScopeEscape:
			return diag.ScopeEscapeFailure(dpos, uerr.Msg)
		case unify.IcitnessMismatch:
			return diag.IcitnessMismatch(dpos, uerr.Msg)
		}
	}

	return diag.TypeMismatch(dpos, e.describe(cxt, expected), e.describe(cxt, got))
}

// freshMeta allocates a metavariable of type ty, scoped to cxt's bound
// entries, and returns both its core-syntax occurrence (applied to the
// bound subsequence of cxt, via InsertedMeta's mask) and that occurrence's
// value.
func (e *Elab) freshMeta(cxt *Cxt, pos surface.Pos, ty value.Value) (term.Tm, value.Value) {
	id := e.Mcx.Metas.Fresh(ty, toMetaPos(pos))
	tm := term.InsertedMeta{Mask: cxt.mask(), Id: id}

	return tm, eval.Eval(e.Mcx, cxt.Env, tm)
}

// freshMetaU allocates a meta standing for a not-yet-known type: its own
// type is simply U (type-in-type), which is the bootstrapping case spec.md
// §4.4 describes as "the created meta's type is a fresh metavariable
// itself" — here the unannotated lambda-parameter-type meta plays that
// role directly, since nothing downstream ever inspects a meta's stored
// Type field beyond diagnostics.
func (e *Elab) freshMetaU(cxt *Cxt, pos surface.Pos) (term.Tm, value.Value) {
	return e.freshMeta(cxt, pos, value.U{})
}

// insertMetas repeatedly applies tm (of type ty) to fresh metavariables as
// long as ty's head is an implicit Pi, per spec.md §4.4's automatic
// implicit-insertion rule. ty is forced fully (glued tops unfolded, not
// just solved metas): a type computed by applying a top-level, U-valued
// function (e.g. `Vec A n`) is exactly as transparent to this dispatch as
// one written as a literal Pi — glueing exists for conversion-checking
// performance, not to hide structure from the elaborator itself.
func (e *Elab) insertMetas(cxt *Cxt, tm term.Tm, ty value.Value, pos surface.Pos) (term.Tm, value.Value) {
	for {
		forced := eval.ForceFull(e.Mcx, ty)

		pi, ok := forced.(*value.Pi)
		if !ok || pi.Icit != term.Impl {
			return tm, forced
		}

		metaTm, metaVal := e.freshMeta(cxt, pos, pi.Dom)
		tm = term.App{Fun: tm, Arg: metaTm, Icit: term.Impl}
		ty = pi.Closure.Apply(metaVal)
	}
}

// inferAndInsert infers raw's type and then inserts trailing implicit
// application, unless raw is wrapped in a `!` suppression marker.
func (e *Elab) inferAndInsert(cxt *Cxt, raw surface.Raw) (term.Tm, value.Value, error) {
	if b, ok := raw.(surface.RBang); ok {
		return e.infer(cxt, b.Inner)
	}

	tm, ty, err := e.infer(cxt, raw)
	if err != nil {
		return nil, nil, err
	}

	tm, ty = e.insertMetas(cxt, tm, ty, raw.At())

	return tm, ty, nil
}

// check elaborates raw against expectedType (spec.md §4.4).
func (e *Elab) check(cxt *Cxt, raw surface.Raw, expected value.Value) (term.Tm, error) {
	if h, ok := raw.(surface.RHole); ok {
		tm, _ := e.freshMeta(cxt, h.Pos, expected)

		return tm, nil
	}

	// Full-forced for the same reason as insertMetas: an expected type
	// that's a top-level function application (`Vec A n`, `Eq A x y`) must
	// be as visible here as a literal Pi/U would be.
	expectedForced := eval.ForceFull(e.Mcx, expected)

	if lam, ok := raw.(surface.RLam); ok {
		if pi, ok := expectedForced.(*value.Pi); ok && pi.Icit == lam.Icit {
			return e.checkLam(cxt, lam, pi)
		}
	}

	if pi, ok := expectedForced.(*value.Pi); ok && pi.Icit == term.Impl {
		if lam, ok := raw.(surface.RLam); !ok || lam.Icit != term.Impl {
			return e.insertImplicitLam(cxt, raw, pi)
		}
	}

	if let, ok := raw.(surface.RLet); ok {
		return e.checkLet(cxt, let, expected)
	}

	tm, ty, err := e.inferAndInsert(cxt, raw)
	if err != nil {
		return nil, err
	}

	if err := unify.Convert(e.Mcx, cxt.Lvl, ty, expected); err != nil {
		return nil, e.typeMismatch(cxt, raw.At(), expected, ty, err)
	}

	return tm, nil
}

// checkLam handles `\x. body` (optionally annotated) against a Pi of
// matching icitness.
func (e *Elab) checkLam(cxt *Cxt, lam surface.RLam, pi *value.Pi) (term.Tm, error) {
	domVal := pi.Dom

	if lam.Type != nil {
		domTm, err := e.check(cxt, lam.Type, value.U{})
		if err != nil {
			return nil, err
		}

		domVal = eval.Eval(e.Mcx, cxt.Env, domTm)

		if err := unify.Convert(e.Mcx, cxt.Lvl, domVal, pi.Dom); err != nil {
			return nil, e.typeMismatch(cxt, lam.Pos, pi.Dom, domVal, err)
		}
	}

	newCxt := cxt.Bind(lam.Name, domVal)
	bodyTy := pi.Closure.Apply(value.VVar(cxt.Lvl))

	bodyTm, err := e.check(newCxt, lam.Body, bodyTy)
	if err != nil {
		return nil, err
	}

	return term.Lam{Name: lam.Name, Icit: lam.Icit, Body: bodyTm}, nil
}

// insertImplicitLam handles checking a raw term that isn't itself an
// implicit lambda against a Pi whose head is implicit: an implicit binder
// is inserted and raw is retried (unconsumed) under it.
func (e *Elab) insertImplicitLam(cxt *Cxt, raw surface.Raw, pi *value.Pi) (term.Tm, error) {
	newCxt := cxt.Bind(pi.Name, pi.Dom)
	bodyTy := pi.Closure.Apply(value.VVar(cxt.Lvl))

	bodyTm, err := e.check(newCxt, raw, bodyTy)
	if err != nil {
		return nil, err
	}

	return term.Lam{Name: pi.Name, Icit: term.Impl, Body: bodyTm}, nil
}

func (e *Elab) checkLet(cxt *Cxt, let surface.RLet, expected value.Value) (term.Tm, error) {
	tyTm, tyVal, err := e.letType(cxt, let)
	if err != nil {
		return nil, err
	}

	valTm, err := e.check(cxt, let.Val, tyVal)
	if err != nil {
		return nil, err
	}

	valVal := eval.Eval(e.Mcx, cxt.Env, valTm)
	newCxt := cxt.Define(let.Name, tyVal, valVal)

	bodyTm, err := e.check(newCxt, let.Body, expected)
	if err != nil {
		return nil, err
	}

	return term.Let{Name: let.Name, Type: tyTm, Val: valTm, Body: bodyTm}, nil
}

func (e *Elab) letType(cxt *Cxt, let surface.RLet) (term.Tm, value.Value, error) {
	if let.Type == nil {
		tm, val := e.freshMetaU(cxt, let.Pos)

		return tm, val, nil
	}

	tm, err := e.check(cxt, let.Type, value.U{})
	if err != nil {
		return nil, nil, err
	}

	return tm, eval.Eval(e.Mcx, cxt.Env, tm), nil
}

// infer elaborates raw without an expected type (spec.md §4.4).
func (e *Elab) infer(cxt *Cxt, raw surface.Raw) (term.Tm, value.Value, error) {
	switch r := raw.(type) {
	case surface.RBang:
		return e.infer(cxt, r.Inner)

	case surface.RVar:
		return e.inferVar(cxt, r)

	case surface.RU:
		return term.U{}, value.U{}, nil

	case surface.RHole:
		_, tyVal := e.freshMetaU(cxt, r.Pos)
		tm, _ := e.freshMeta(cxt, r.Pos, tyVal)

		return tm, tyVal, nil

	case surface.RPi:
		return e.inferPi(cxt, r)

	case surface.RLam:
		return e.inferLam(cxt, r)

	case surface.RLet:
		return e.inferLet(cxt, r)

	case surface.RApp:
		return e.inferApp(cxt, r)

	case surface.RAppNamed:
		return e.inferAppNamed(cxt, r)

	default:
		panic(fmt.Sprintf("elab: unhandled raw node %T", raw))
	}
}

func (e *Elab) inferVar(cxt *Cxt, r surface.RVar) (term.Tm, value.Value, error) {
	if lvl, ty, ok := cxt.Lookup(r.Name); ok {
		return term.Var{Idx: int(cxt.Lvl - lvl - 1)}, ty, nil
	}

	if id, ty, ok := e.Tops.LookupByName(r.Name); ok {
		return term.Top{Name: r.Name, Id: id}, ty, nil
	}

	return nil, nil, diag.ScopeError(toDiagPos(r.Pos), r.Name)
}

func (e *Elab) inferPi(cxt *Cxt, r surface.RPi) (term.Tm, value.Value, error) {
	domTm, err := e.check(cxt, r.Dom, value.U{})
	if err != nil {
		return nil, nil, err
	}

	domVal := eval.Eval(e.Mcx, cxt.Env, domTm)
	newCxt := cxt.Bind(r.Name, domVal)

	codTm, err := e.check(newCxt, r.Cod, value.U{})
	if err != nil {
		return nil, nil, err
	}

	return term.Pi{Name: r.Name, Icit: r.Icit, Dom: domTm, Cod: codTm}, value.U{}, nil
}

func (e *Elab) inferLam(cxt *Cxt, r surface.RLam) (term.Tm, value.Value, error) {
	var domVal value.Value

	if r.Type != nil {
		domTm, err := e.check(cxt, r.Type, value.U{})
		if err != nil {
			return nil, nil, err
		}

		domVal = eval.Eval(e.Mcx, cxt.Env, domTm)
	} else {
		_, domVal = e.freshMetaU(cxt, r.Pos)
	}

	newCxt := cxt.Bind(r.Name, domVal)

	bodyTm, bodyTy, err := e.infer(newCxt, r.Body)
	if err != nil {
		return nil, nil, err
	}

	codTm := eval.Quote(e.Mcx, int(newCxt.Lvl), bodyTy, eval.Shallow)
	piTy := &value.Pi{
		Dom:  domVal,
		Name: r.Name,
		Icit: r.Icit,
		Closure: value.Closure{Env: cxt.Env, Body: codTm, Eval: func(env *value.Env, t term.Tm) value.Value {
			return eval.Eval(e.Mcx, env, t)
		}},
	}

	return term.Lam{Name: r.Name, Icit: r.Icit, Body: bodyTm}, piTy, nil
}

func (e *Elab) inferLet(cxt *Cxt, r surface.RLet) (term.Tm, value.Value, error) {
	tyTm, tyVal, err := e.letType(cxt, r)
	if err != nil {
		return nil, nil, err
	}

	valTm, err := e.check(cxt, r.Val, tyVal)
	if err != nil {
		return nil, nil, err
	}

	valVal := eval.Eval(e.Mcx, cxt.Env, valTm)
	newCxt := cxt.Define(r.Name, tyVal, valVal)

	bodyTm, bodyTy, err := e.infer(newCxt, r.Body)
	if err != nil {
		return nil, nil, err
	}

	return term.Let{Name: r.Name, Type: tyTm, Val: valTm, Body: bodyTm}, bodyTy, nil
}

func (e *Elab) inferApp(cxt *Cxt, r surface.RApp) (term.Tm, value.Value, error) {
	fnRaw := r.Fun
	suppress := false

	if b, ok := fnRaw.(surface.RBang); ok {
		fnRaw = b.Inner
		suppress = true
	}

	fnTm, fnTy, err := e.infer(cxt, fnRaw)
	if err != nil {
		return nil, nil, err
	}

	if r.Icit == term.Expl && !suppress {
		fnTm, fnTy = e.insertMetas(cxt, fnTm, fnTy, r.Pos)
	}

	forced := eval.ForceFull(e.Mcx, fnTy)

	pi, ok := forced.(*value.Pi)
	if !ok {
		return nil, nil, diag.TypeMismatch(toDiagPos(r.Pos), "function type", e.describe(cxt, forced))
	}

	if pi.Icit != r.Icit {
		return nil, nil, diag.IcitnessMismatch(toDiagPos(r.Pos),
			fmt.Sprintf("expected %s argument, got %s", pi.Icit, r.Icit))
	}

	argTm, err := e.check(cxt, r.Arg, pi.Dom)
	if err != nil {
		return nil, nil, err
	}

	argVal := eval.Eval(e.Mcx, cxt.Env, argTm)

	return term.App{Fun: fnTm, Arg: argTm, Icit: r.Icit}, pi.Closure.Apply(argVal), nil
}

func (e *Elab) inferAppNamed(cxt *Cxt, r surface.RAppNamed) (term.Tm, value.Value, error) {
	fnTm, fnTy, err := e.infer(cxt, r.Fun)
	if err != nil {
		return nil, nil, err
	}

	for {
		forced := eval.ForceFull(e.Mcx, fnTy)

		pi, ok := forced.(*value.Pi)
		if !ok || pi.Icit != term.Impl {
			return nil, nil, diag.NamedImplicitError(toDiagPos(r.Pos), r.Name)
		}

		if pi.Name == r.Name {
			argTm, err := e.check(cxt, r.Arg, pi.Dom)
			if err != nil {
				return nil, nil, err
			}

			argVal := eval.Eval(e.Mcx, cxt.Env, argTm)

			return term.App{Fun: fnTm, Arg: argTm, Icit: term.Impl}, pi.Closure.Apply(argVal), nil
		}

		metaTm, metaVal := e.freshMeta(cxt, r.Pos, pi.Dom)
		fnTm = term.App{Fun: fnTm, Arg: metaTm, Icit: term.Impl}
		fnTy = pi.Closure.Apply(metaVal)
	}
}
