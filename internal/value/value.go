// Package value implements the semantic domain the evaluator works over:
// weak-head values with glued top-level unfolding, rigid/flexible neutrals,
// and closures over a structurally-shared environment.
package value

import (
	"fmt"

	"github.com/sttlang/stt/internal/term"
)

// Lvl is a De Bruijn level: a variable's distance from the root of the
// context, fixed regardless of how many more variables are bound later.
// Converting a Lvl to the Var index a core term should use at a context of
// size n is Idx = n - lvl - 1.
type Lvl int

// Env is a structurally-shared, persistent list of values, one per bound
// variable in scope, innermost (most recently bound) first. Extending an
// Env never copies its tail, satisfying the sharing requirement of a
// closure captured under a deep binder.
type Env struct {
	val  Value
	next *Env
}

// Empty is the environment of the empty context.
var Empty *Env

// Extend conses v onto e without mutating or copying e.
func Extend(e *Env, v Value) *Env {
	return &Env{val: v, next: e}
}

// Index looks up the value bound at De Bruijn index i (0 = innermost).
func (e *Env) Index(i int) Value {
	cur := e
	for ; i > 0; i-- {
		cur = cur.next
	}

	return cur.val
}

// Tail returns the environment with the innermost binding dropped (nil if
// e is empty).
func (e *Env) Tail() *Env { return e.next }

// Len returns the number of values bound in e (equivalently, the size of
// the context e was built under).
func (e *Env) Len() int {
	n := 0
	for cur := e; cur != nil; cur = cur.next {
		n++
	}

	return n
}

// Elim is one eliminator stacked onto a neutral's spine: application to Arg
// with the recorded icitness of that argument.
type Elim struct {
	Arg  Value
	Icit term.Icit
}

// Spine is an ordered sequence of eliminators applied to a neutral head.
type Spine []Elim

// Value is a semantic value. Concrete cases are Rigid, Flex, Glued, Lam, Pi
// and U.
type Value interface {
	isValue()
}

// Rigid is a neutral whose head is a bound variable (by level) — it cannot
// reduce further no matter what metavariables get solved.
type Rigid struct {
	Sp   Spine
	Head Lvl
}

// Flex is a neutral whose head is an unsolved metavariable. It may become
// reducible once that meta is solved; Force re-checks this.
type Flex struct {
	Sp   Spine
	Head term.MetaId
}

// Glued is a value headed by a top-level reference. It carries both the
// small representation (Head/Name + Sp, displayed and compared by approximate
// conversion) and a lazily memoized thunk producing the fully unfolded value,
// used only by forceFull / full conversion.
type Glued struct {
	unfolded *Value // memoized once Force'd; nil until then
	thunk    func() Value
	Name     string
	Sp       Spine
	Head     term.TopId
}

// Unfold forces and memoizes the glued thunk, returning the top-level
// definition's value applied to this Glued's spine. Must not be called on
// a postulate (IsPostulate true) — a postulate has no thunk to force and
// stays folded forever; callers check IsPostulate first.
func (g *Glued) Unfold() Value {
	if g.unfolded == nil {
		v := g.thunk()
		for _, e := range g.Sp {
			v = apply(v, e.Arg, e.Icit)
		}

		g.unfolded = &v
	}

	return *g.unfolded
}

// IsPostulate reports whether g stands for an `assume`d name: one with a
// type but no definition, whose unfolding thunk is absent by construction
// (spec.md §6). A postulate behaves as a permanently rigid head — forceFull
// and full-mode quoting/renaming must leave it folded rather than call
// Unfold.
func (g *Glued) IsPostulate() bool { return g.thunk == nil }

// apply is the same β/spine-extension rule eval.Apply implements; value
// cannot import eval (eval imports value), so Glued.Unfold keeps a tiny
// private copy covering the same four function-position shapes (Lam,
// Rigid, Flex, Glued).
func apply(fn Value, arg Value, ic term.Icit) Value {
	switch f := fn.(type) {
	case *Lam:
		return f.Closure.Apply(arg)
	case *Rigid:
		sp := make(Spine, len(f.Sp)+1)
		copy(sp, f.Sp)
		sp[len(f.Sp)] = Elim{Arg: arg, Icit: ic}

		return &Rigid{Head: f.Head, Sp: sp}
	case *Flex:
		sp := make(Spine, len(f.Sp)+1)
		copy(sp, f.Sp)
		sp[len(f.Sp)] = Elim{Arg: arg, Icit: ic}

		return &Flex{Head: f.Head, Sp: sp}
	case *Glued:
		sp := make(Spine, len(f.Sp)+1)
		copy(sp, f.Sp)
		sp[len(f.Sp)] = Elim{Arg: arg, Icit: ic}

		return &Glued{Head: f.Head, Name: f.Name, Sp: sp, thunk: f.thunk}
	default:
		panic(fmt.Sprintf("value: apply of non-function value %T", fn))
	}
}

// NewGlued builds a Glued value for a fresh top-level reference; Unfold
// memoizes its result per Glued value, so thunk runs at most once for each
// (values made from this one by Extend share thunk but memoize
// separately). Pass a nil thunk for a postulate (see IsPostulate).
func NewGlued(id term.TopId, name string, thunk func() Value) *Glued {
	return &Glued{Head: id, Name: name, thunk: thunk}
}

// Extend returns the Glued value for this one applied to one more argument,
// sharing the same underlying (unforced) definition thunk — package eval
// uses this so extending a glued top's spine doesn't need access to its
// unexported fields.
func (g *Glued) Extend(arg Value, ic term.Icit) *Glued {
	sp := make(Spine, len(g.Sp)+1)
	copy(sp, g.Sp)
	sp[len(g.Sp)] = Elim{Arg: arg, Icit: ic}

	return &Glued{Head: g.Head, Name: g.Name, Sp: sp, thunk: g.thunk}
}

// Closure captures an environment and an unevaluated core-syntax body; Apply
// extends the environment by one value and evaluates the body under it.
// Eval lives in package eval (which imports value), so Closure stores a
// function pointer, set wherever a Closure is built (eval.Eval, the
// elaborator's inferLam), to avoid an import cycle.
type Closure struct {
	Env  *Env
	Body term.Tm
	Eval func(*Env, term.Tm) Value
}

func (c Closure) Apply(arg Value) Value {
	return c.Eval(Extend(c.Env, arg), c.Body)
}

// Lam is a lambda value: a closure plus the name hint and icitness carried
// from the core Lam it was evaluated from.
type Lam struct {
	Closure Closure
	Name    string
	Icit    term.Icit
}

// Pi is a dependent function type value: an evaluated domain plus a closure
// for the codomain.
type Pi struct {
	Dom     Value
	Closure Closure
	Name    string
	Icit    term.Icit
}

// U is the universe value.
type U struct{}

func (*Rigid) isValue() {}
func (*Flex) isValue()  {}
func (*Glued) isValue() {}
func (*Lam) isValue()   {}
func (*Pi) isValue()    {}
func (U) isValue()      {}

// VVar builds the rigid neutral a fresh bound variable at level l evaluates
// to — used by eval/quote when descending under a binder.
func VVar(l Lvl) Value { return &Rigid{Head: l} }

// VMeta builds the flexible neutral an unsolved meta occurrence evaluates
// to — with an empty spine, extended by further application.
func VMeta(id term.MetaId) Value { return &Flex{Head: id} }
