// Package surface defines the raw syntax tree the parser produces and the
// elaborator consumes, per spec.md §6: variable by name, application
// (positional and named-implicit), lambda, function type, let, the
// universe, holes, the `!` suppress-insertion marker, and top-level
// declaration/assume forms.
package surface

import "github.com/sttlang/stt/internal/term"

// Pos is reused verbatim from package diag's shape but kept import-free
// here so surface has no dependency on diagnostics; Raw.At() callers
// convert as needed.
type Pos struct {
	File string
	Line int
	Col  int
}

// Raw is a raw syntax node. Every concrete kind below carries its own Pos
// for diagnostics.
type Raw interface {
	isRaw()
	At() Pos
}

// RVar is a name occurrence — either a local binder or a top-level
// declaration. Both resolve through the same node kind: the elaborator
// looks the name up first in the local context (innermost first) and then
// in the top-level context, rather than the parser having to commit ahead
// of time to which one it is.
type RVar struct {
	Pos  Pos
	Name string
}

// RU is the universe literal `U`.
type RU struct {
	Pos Pos
}

// RHole is the placeholder `_`: infer produces a fresh metavariable of a
// fresh metavariable type, exactly as for an omitted implicit.
type RHole struct {
	Pos Pos
}

// RApp is application of Fun to Arg, explicit or implicit.
type RApp struct {
	Pos      Pos
	Fun, Arg Raw
	Icit     term.Icit
}

// RBang wraps an occurrence immediately followed by `!` in the source,
// suppressing the elaborator's automatic insertion of implicit application
// at that occurrence (spec.md §4.4).
type RBang struct {
	Pos   Pos
	Inner Raw
}

// RAppNamed is `f {name = t}`: apply f to t as the implicit argument whose
// binder is named name, skipping over (and meta-filling) any leading
// implicits of f's type that don't match name first.
type RAppNamed struct {
	Pos  Pos
	Fun  Raw
	Name string
	Arg  Raw
}

// RLam is `\x. body`, `\{x}. body`, or with a type ascription on the
// binder (`\(x : A). body` is represented via Type != nil).
type RLam struct {
	Pos  Pos
	Name string
	Type Raw // nil if unannotated
	Body Raw
	Icit term.Icit
}

// RPi is `(x : A) -> B` or `{x : A} -> B`.
type RPi struct {
	Pos      Pos
	Name     string
	Dom, Cod Raw
	Icit     term.Icit
}

// RLet is `let x : A = t in u` (Type may be nil for an unannotated let).
type RLet struct {
	Pos       Pos
	Name      string
	Type      Raw // nil if unannotated
	Val, Body Raw
}

func (RVar) isRaw()      {}
func (RU) isRaw()        {}
func (RHole) isRaw()     {}
func (RApp) isRaw()      {}
func (RAppNamed) isRaw() {}
func (RLam) isRaw()      {}
func (RPi) isRaw()       {}
func (RLet) isRaw()      {}
func (RBang) isRaw()     {}

func (r RVar) At() Pos      { return r.Pos }
func (r RU) At() Pos        { return r.Pos }
func (r RHole) At() Pos     { return r.Pos }
func (r RApp) At() Pos      { return r.Pos }
func (r RAppNamed) At() Pos { return r.Pos }
func (r RLam) At() Pos      { return r.Pos }
func (r RPi) At() Pos       { return r.Pos }
func (r RLet) At() Pos      { return r.Pos }
func (r RBang) At() Pos     { return r.Pos }

// Annotation is one of the pass-through declaration tags spec.md §6 names:
// [elaborate] asks the surrounding tool to report elaboration wall-clock
// time, [normalize] asks it to print the declaration's normal form. Neither
// changes core elaboration semantics.
type Annotation struct {
	Elaborate bool
	Normalize bool
}

// Decl is one top-level declaration: either a typed or inferred definition
// (Assume == false, Body != nil) or a postulate (Assume == true, Body ==
// nil, Type required).
type Decl struct {
	Pos    Pos
	Name   string
	Type   Raw // nil for an unannotated definition; required for assume
	Body   Raw // nil for assume
	Assume bool
	Annot  Annotation
}

// File is a sequence of declarations in source order, processed in that
// order by the top-level elaboration driver.
type File struct {
	Decls []Decl
}
