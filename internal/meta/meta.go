// Package meta implements the metacontext: a growable, dense, append-only
// table of metavariable entries, each either unsolved (carrying its closed
// type) or solved (carrying its closed solution, monotonically, once).
package meta

import (
	"fmt"

	"github.com/sttlang/stt/internal/term"
	"github.com/sttlang/stt/internal/value"
)

// Pos is a source location, used only to report where an unsolved meta was
// created when a declaration closes without solving it.
type Pos struct {
	File       string
	Line, Col int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col) }

// Entry is one slot of the metacontext.
type Entry struct {
	Type     value.Value
	SolVal   value.Value // nil until solved
	SolTerm  term.Tm     // nil until solved
	Created  Pos
	Solved   bool
}

// Cxt is the metacontext for a single elaboration run. It is a
// single-writer, process-wide structure per spec.md §5: the elaborator
// appends entries (Fresh), only the unifier sets a Solved flag, and
// solutions are never retracted once set.
type Cxt struct {
	entries []Entry
}

// New creates an empty metacontext.
func New() *Cxt { return &Cxt{} }

// Fresh allocates a new unsolved meta of the given type, created at pos,
// and returns its id. Ids are assigned in creation order and never reused.
func (c *Cxt) Fresh(ty value.Value, pos Pos) term.MetaId {
	id := term.MetaId(len(c.entries))
	c.entries = append(c.entries, Entry{Type: ty, Created: pos})

	return id
}

// Lookup returns the entry for id. Panics on an out-of-range id: that is a
// fatal invariant violation per spec.md §4.1 ("forcing a dangling meta id
// is a fatal invariant violation"), never a user-facing condition.
func (c *Cxt) Lookup(id term.MetaId) Entry {
	if int(id) < 0 || int(id) >= len(c.entries) {
		panic(fmt.Sprintf("meta: dangling metavariable ?%d", id))
	}

	return c.entries[id]
}

// Solve records val/quoted as the solution for id. Solving an
// already-solved meta is a programmer error (solutions are monotone, set
// exactly once by the unifier's solve step) and panics rather than silently
// overwriting.
func (c *Cxt) Solve(id term.MetaId, val value.Value, quoted term.Tm) {
	e := &c.entries[id]
	if e.Solved {
		panic(fmt.Sprintf("meta: ?%d solved twice", id))
	}

	e.Solved = true
	e.SolVal = val
	e.SolTerm = quoted
}

// Unsolved reports every metavariable with no solution yet, in creation
// order — used to build the "unsolved metavariable" diagnostic (spec.md §7)
// when a declaration closes.
func (c *Cxt) Unsolved() []term.MetaId {
	var ids []term.MetaId

	for i, e := range c.entries {
		if !e.Solved {
			ids = append(ids, term.MetaId(i))
		}
	}

	return ids
}

// Len reports how many metavariables have been created so far.
func (c *Cxt) Len() int { return len(c.entries) }
