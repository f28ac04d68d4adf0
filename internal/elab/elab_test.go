package elab_test

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/sttlang/stt/internal/diag"
	"github.com/sttlang/stt/internal/elab"
	"github.com/sttlang/stt/internal/parser"
)

func elaborate(t *testing.T, src string) (*diag.Collector, []elab.DeclResult) {
	t.Helper()

	f, err := parser.Parse("test.stt", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	rep := &diag.Collector{}
	e := elab.New(rep)

	return rep, e.ElaborateFile(f)
}

func TestElaborateIdentity(t *testing.T) {
	rep, results := elaborate(t, `id : (A : U) -> A -> A = \A x. x`)

	if rep.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", rep.Diagnostics)
	}

	if !results[0].Ok {
		t.Fatalf("expected id to elaborate successfully")
	}
}

func TestElaborateInfersNonDependentFunctionType(t *testing.T) {
	// f's binder type comes straight from the annotated Pi's Dom, so
	// checkLam never allocates an unconstrained meta for it; inferLet then
	// infers the let body's (non-dependent) type from f's application.
	rep, results := elaborate(t, "k = let f : U -> U = \\x. x in f U")

	if rep.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", rep.Diagnostics)
	}

	if !results[0].Ok {
		t.Fatalf("expected k to elaborate successfully")
	}
}

func TestElaborateUnannotatedUnusedLambdaParamsLeaveMetaUnsolved(t *testing.T) {
	// None of A, B, x, y carry an annotation, and none of their types are
	// ever forced by anything else in the declaration, so this must close
	// with unsolved-metavariable diagnostics rather than succeed.
	rep, results := elaborate(t, `k = \A B x y. x`)

	if !rep.HasErrors() {
		t.Fatalf("expected unsolved-metavariable diagnostics")
	}

	if results[0].Ok {
		t.Fatalf("expected the declaration to fail to close")
	}

	foundUnsolved := false

	for _, d := range rep.Diagnostics {
		if d.Category == diag.CategoryUnsolvedMeta {
			foundUnsolved = true
		}
	}

	if !foundUnsolved {
		t.Fatalf("expected at least one UnsolvedMeta diagnostic, got %v", rep.Diagnostics)
	}
}

func TestElaborateUnboundNameIsScopeError(t *testing.T) {
	rep, results := elaborate(t, `bad = doesNotExist`)

	if !rep.HasErrors() {
		t.Fatalf("expected a scope error")
	}

	if results[0].Ok {
		t.Fatalf("expected the declaration to fail")
	}

	if rep.Diagnostics[0].Category != diag.CategoryScope {
		t.Fatalf("expected a scope diagnostic, got %s", rep.Diagnostics[0].Category)
	}
}

func TestElaborateFailureDoesNotAbortLaterDeclarations(t *testing.T) {
	rep, results := elaborate(t, "bad = doesNotExist\n\nok : U = U")

	if len(results) != 2 {
		t.Fatalf("expected both declarations to be attempted, got %d results", len(results))
	}

	if results[0].Ok {
		t.Fatalf("expected the first declaration to fail")
	}

	if !results[1].Ok {
		t.Fatalf("expected the second, independent declaration to still succeed")
	}

	if len(rep.Diagnostics) != 1 {
		t.Fatalf("expected exactly one reported diagnostic, got %d", len(rep.Diagnostics))
	}
}

func TestElaborateDownstreamScopeErrorFromFailedDecl(t *testing.T) {
	rep, results := elaborate(t, "bad = doesNotExist\n\nuser = bad")

	if results[0].Ok || results[1].Ok {
		t.Fatalf("expected both declarations to fail: %+v", results)
	}

	if len(rep.Diagnostics) != 2 {
		t.Fatalf("expected two scope errors (one per declaration), got %d", len(rep.Diagnostics))
	}
}

func TestElaborateAssumePostulateNeverUnfolds(t *testing.T) {
	rep, results := elaborate(t, "assume Void : U\n\nv : U = Void")

	if rep.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", rep.Diagnostics)
	}

	if !results[0].Ok || !results[1].Ok {
		t.Fatalf("expected both declarations to succeed")
	}
}

func TestElaborateUnsolvedMetaIsReported(t *testing.T) {
	// The hole's type is never pinned down by anything in this
	// declaration, so it should close with an unsolved metavariable.
	rep, results := elaborate(t, `orphan = \A. _`)

	if !rep.HasErrors() {
		t.Fatalf("expected an unsolved-metavariable diagnostic")
	}

	if results[0].Ok {
		t.Fatalf("expected the declaration to fail to close")
	}

	foundUnsolved := false

	for _, d := range rep.Diagnostics {
		if d.Category == diag.CategoryUnsolvedMeta {
			foundUnsolved = true
		}
	}

	if !foundUnsolved {
		t.Fatalf("expected at least one UnsolvedMeta diagnostic, got %v", rep.Diagnostics)
	}
}

func TestElaborateMetaInsertionAndUnification(t *testing.T) {
	// `app id` where `id`'s implicit type argument is never given: the
	// elaborator must insert a fresh meta and solve it against U from the
	// explicit argument's checked type.
	rep, results := elaborate(t,
		"id : {A : U} -> A -> A = \\x. x\n\nuses : U -> U = \\a. id a")

	if rep.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", rep.Diagnostics)
	}

	if !results[0].Ok || !results[1].Ok {
		t.Fatalf("expected both declarations to succeed")
	}
}

func TestElaborateNormalizeAnnotationProducesNormalForm(t *testing.T) {
	_, results := elaborate(t, "n [normalize] : (A : U) -> A -> A = \\A x. x")

	if results[0].Normal == nil {
		t.Fatalf("expected [normalize] to populate the declaration's normal form")
	}
}

func TestMockReporterRecordsReportCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockReporter(ctrl)
	mock.EXPECT().Report(gomock.Any())

	f, err := parser.Parse("test.stt", `bad = doesNotExist`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	e := elab.New(mock)
	e.ElaborateFile(f)
}
