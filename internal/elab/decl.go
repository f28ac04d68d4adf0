package elab

import (
	"time"

	"github.com/sttlang/stt/internal/diag"
	"github.com/sttlang/stt/internal/eval"
	"github.com/sttlang/stt/internal/surface"
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// DeclResult is what ElaborateFile reports for one processed declaration.
// For an [elaborate]-annotated declaration Elapsed holds the wall-clock time
// its elaboration took; for a [normalize]-annotated one Normal holds its
// full normal form (spec.md §6). cmd/stt prints both; neither changes how
// the declaration is elaborated.
type DeclResult struct {
	Term    term.Tm
	Type    value.Value
	Normal  term.Tm
	Name    string
	Elapsed time.Duration
	Ok      bool
}

// ElaborateFile processes every declaration in f in order, in one shared
// top-level context. A declaration's failure is reported through e.Rep and
// does not stop the run — later declarations are still attempted, and any
// of them that reference the failed name fail with a scope error, exactly
// as spec.md §7's propagation rule describes.
func (e *Elab) ElaborateFile(f *surface.File) []DeclResult {
	results := make([]DeclResult, 0, len(f.Decls))

	for _, d := range f.Decls {
		var start time.Time
		if d.Annot.Elaborate {
			start = time.Now()
		}

		res := e.elaborateDecl(d)

		if d.Annot.Elaborate {
			res.Elapsed = time.Since(start)
		}

		results = append(results, res)
	}

	return results
}

func (e *Elab) elaborateDecl(d surface.Decl) DeclResult {
	cxt := Empty()
	metaBefore := e.Mcx.Metas.Len()

	if d.Assume {
		return e.elaborateAssume(cxt, d, metaBefore)
	}

	var tm term.Tm

	var ty value.Value

	var err error

	if d.Type != nil {
		tyTm, terr := e.check(cxt, d.Type, value.U{})
		if terr != nil {
			e.Rep.Report(terr.(*diag.Diagnostic))

			return DeclResult{Name: d.Name}
		}

		ty = eval.Eval(e.Mcx, cxt.Env, tyTm)
		tm, err = e.check(cxt, d.Body, ty)
	} else {
		tm, ty, err = e.inferAndInsert(cxt, d.Body)
	}

	if err != nil {
		e.Rep.Report(err.(*diag.Diagnostic))

		return DeclResult{Name: d.Name}
	}

	if !e.checkAllMetasSolved(d, metaBefore) {
		return DeclResult{Name: d.Name}
	}

	val := eval.Eval(e.Mcx, value.Empty, tm)
	e.Tops.AddDef(d.Name, ty, tm, val)

	res := DeclResult{Name: d.Name, Ok: true, Term: tm, Type: ty}
	if d.Annot.Normalize {
		res.Normal = eval.Nf(e.Mcx, value.Empty, tm)
	}

	return res
}

func (e *Elab) elaborateAssume(cxt *Cxt, d surface.Decl, metaBefore int) DeclResult {
	tyTm, err := e.check(cxt, d.Type, value.U{})
	if err != nil {
		e.Rep.Report(err.(*diag.Diagnostic))

		return DeclResult{Name: d.Name}
	}

	ty := eval.Eval(e.Mcx, cxt.Env, tyTm)

	if !e.checkAllMetasSolved(d, metaBefore) {
		return DeclResult{Name: d.Name}
	}

	e.Tops.AddAssume(d.Name, ty)

	return DeclResult{Name: d.Name, Ok: true, Type: ty}
}

// checkAllMetasSolved reports an UnsolvedMeta diagnostic for every meta
// created while elaborating d (id >= metaBefore) that is still unsolved
// once the declaration closes (spec.md §7.6). Metas below metaBefore are
// skipped: any of them still unsolved belong to an earlier declaration that
// was already reported and abandoned.
func (e *Elab) checkAllMetasSolved(d surface.Decl, metaBefore int) bool {
	ok := true

	for _, id := range e.Mcx.Metas.Unsolved() {
		if int(id) < metaBefore {
			continue
		}

		e.Rep.Report(diag.UnsolvedMeta(toDiagPos(d.Pos), int(id)))

		ok = false
	}

	return ok
}
