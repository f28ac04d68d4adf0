package elab

import (
	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// TopEntry is one slot of the top-level context (spec.md §3.5): a dense id,
// the declared type, and either a definition (Glued wraps a real unfolding
// thunk, DefTerm holds its quoted core form) or a postulate (Glued wraps a
// nil thunk, DefTerm is nil — see value.Glued.IsPostulate).
type TopEntry struct {
	Glued   *value.Glued
	Type    value.Value
	DefTerm term.Tm
	Name    string
	Id      term.TopId
}

// TopCtx is the append-only top-level context, shared for the lifetime of
// one elaboration run (spec.md §5: appended only at declaration
// boundaries). It implements eval.TopReader so the evaluator can resolve
// term.Top references without importing package elab.
type TopCtx struct {
	entries []TopEntry
	byName  map[string]term.TopId
}

func NewTopCtx() *TopCtx {
	return &TopCtx{byName: make(map[string]term.TopId)}
}

// LookupTop implements eval.TopReader.
func (t *TopCtx) LookupTop(id term.TopId) value.Value {
	return t.entries[id].Glued
}

// LookupByName resolves a surface-level name to its top-level id and
// declared type, for RVar occurrences the local context didn't bind.
func (t *TopCtx) LookupByName(name string) (term.TopId, value.Value, bool) {
	id, ok := t.byName[name]
	if !ok {
		return 0, nil, false
	}

	return id, t.entries[id].Type, true
}

// AddDef appends a typed definition, returning its fresh id.
func (t *TopCtx) AddDef(name string, ty value.Value, quoted term.Tm, val value.Value) term.TopId {
	id := term.TopId(len(t.entries))
	g := value.NewGlued(id, name, func() value.Value { return val })

	t.entries = append(t.entries, TopEntry{Id: id, Name: name, Type: ty, Glued: g, DefTerm: quoted})
	t.byName[name] = id

	return id
}

// AddAssume appends a postulate: a type with no definition, whose value
// never unfolds (value.Glued with a nil thunk).
func (t *TopCtx) AddAssume(name string, ty value.Value) term.TopId {
	id := term.TopId(len(t.entries))
	g := value.NewGlued(id, name, nil)

	t.entries = append(t.entries, TopEntry{Id: id, Name: name, Type: ty, Glued: g})
	t.byName[name] = id

	return id
}

func (t *TopCtx) Entry(id term.TopId) TopEntry { return t.entries[id] }

func (t *TopCtx) Len() int { return len(t.entries) }
