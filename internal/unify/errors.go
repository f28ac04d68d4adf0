// Package unify implements definitional equality (the conversion checker, in
// both its approximate and full forms) and pattern unification of
// metavariables, as one cooperating pair of operations: Convert tries the
// cheap rigid-head check first and falls back to Unify, which forces fully,
// recurses structurally, and solves flexible equations.
package unify

import "fmt"

// Kind classifies why a Convert/Unify call failed, for mapping onto
// spec.md §7's error kinds at the elaboration call site.
type Kind int

const (
	// NotEqual is a plain definitional-inequality failure.
	NotEqual Kind = iota
	// OccursCheck is the specialization of type mismatch where a meta's own
	// solution would mention itself.
	OccursCheck
	// ScopeEscape is the specialization where a candidate solution
	// mentions a variable outside the meta's declared spine.
	ScopeEscape
	// IcitnessMismatch is a structural mismatch in explicit/implicit
	// marking between two otherwise-comparable function types or spines.
	IcitnessMismatch
)

// Error is the error type every failure in this package returns.
type Error struct {
	Msg  string
	Kind Kind
}

func (e *Error) Error() string { return e.Msg }

func notEqual(format string, args ...interface{}) error {
	return &Error{Kind: NotEqual, Msg: fmt.Sprintf(format, args...)}
}

func occursCheck(format string, args ...interface{}) error {
	return &Error{Kind: OccursCheck, Msg: fmt.Sprintf(format, args...)}
}

func scopeEscape(format string, args ...interface{}) error {
	return &Error{Kind: ScopeEscape, Msg: fmt.Sprintf(format, args...)}
}

func icitnessMismatch(format string, args ...interface{}) error {
	return &Error{Kind: IcitnessMismatch, Msg: fmt.Sprintf(format, args...)}
}
