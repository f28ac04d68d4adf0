package parser

import (
	"testing"

	"github.com/sttlang/stt/internal/surface"
	"github.com/sttlang/stt/internal/term"
)

func TestParseIdentityDecl(t *testing.T) {
	f, err := Parse("test.stt", `id : (A : U) -> A -> A = \A x. x`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(f.Decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(f.Decls))
	}

	d := f.Decls[0]
	if d.Name != "id" {
		t.Fatalf("expected name %q, got %q", "id", d.Name)
	}

	pi, ok := d.Type.(surface.RPi)
	if !ok {
		t.Fatalf("expected declared type to be RPi, got %T", d.Type)
	}

	if pi.Name != "A" || pi.Icit != term.Expl {
		t.Fatalf("unexpected binder on outer Pi: %+v", pi)
	}

	if _, ok := pi.Dom.(surface.RU); !ok {
		t.Fatalf("expected domain U, got %T", pi.Dom)
	}
}

func TestParseNonDependentArrowDesugars(t *testing.T) {
	f, err := Parse("test.stt", `k : U -> U -> U = \A B. A`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	pi, ok := f.Decls[0].Type.(surface.RPi)
	if !ok {
		t.Fatalf("expected RPi, got %T", f.Decls[0].Type)
	}

	if pi.Name != "_" {
		t.Fatalf("expected a non-dependent binder name %q, got %q", "_", pi.Name)
	}
}

func TestParseLeadingImplicitBinder(t *testing.T) {
	f, err := Parse("test.stt", `const : {A : U} -> {B : U} -> A -> B -> A = \x y. x`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	pi, ok := f.Decls[0].Type.(surface.RPi)
	if !ok || pi.Icit != term.Impl {
		t.Fatalf("expected leading implicit Pi, got %+v", f.Decls[0].Type)
	}
}

func TestParseNamedImplicitApplication(t *testing.T) {
	f, err := Parse("test.stt", `r = f {A = U} x`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	app, ok := f.Decls[0].Body.(surface.RApp)
	if !ok {
		t.Fatalf("expected outer RApp, got %T", f.Decls[0].Body)
	}

	if app.Icit != term.Expl {
		t.Fatalf("expected the outer application to be explicit (applied to x)")
	}

	if _, ok := app.Fun.(surface.RAppNamed); !ok {
		t.Fatalf("expected inner application to be RAppNamed, got %T", app.Fun)
	}
}

func TestParseBangSuppressesInsertion(t *testing.T) {
	f, err := Parse("test.stt", `r = f!`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if _, ok := f.Decls[0].Body.(surface.RBang); !ok {
		t.Fatalf("expected RBang, got %T", f.Decls[0].Body)
	}
}

func TestParseLetAndAssume(t *testing.T) {
	f, err := Parse("test.stt", "assume Void : U\n\nabsurd : (A : U) -> Void -> A = \\A v. let x : Void = v in x")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if !f.Decls[0].Assume || f.Decls[0].Name != "Void" {
		t.Fatalf("expected an assume declaration named Void, got %+v", f.Decls[0])
	}

	if f.Decls[1].Name != "absurd" {
		t.Fatalf("expected second declaration named absurd, got %+v", f.Decls[1])
	}
}

func TestParseAnnotations(t *testing.T) {
	f, err := Parse("test.stt", `n [elaborate] [normalize] : U = U`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if !f.Decls[0].Annot.Elaborate || !f.Decls[0].Annot.Normalize {
		t.Fatalf("expected both annotations set, got %+v", f.Decls[0].Annot)
	}
}

func TestParseUnexpectedTokenIsError(t *testing.T) {
	if _, err := Parse("test.stt", `n : U = )`); err == nil {
		t.Fatalf("expected a parse error for a stray ')'")
	}
}
