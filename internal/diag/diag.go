// Package diag provides the position-aware diagnostic type the lexer,
// parser and elaborator all report through, and a Reporter interface so a
// failing declaration can be surfaced without aborting the rest of a file.
package diag

import (
	"fmt"
	"runtime"
)

// Pos is a single point in a .stt source file.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}

	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Category classifies a Diagnostic's kind, one per spec.md §7 failure mode.
type Category string

const (
	CategoryParse            Category = "PARSE"
	CategoryScope            Category = "SCOPE"
	CategoryNamedImplicit    Category = "NAMED_IMPLICIT"
	CategoryIcitnessMismatch Category = "ICITNESS_MISMATCH"
	CategoryTypeMismatch     Category = "TYPE_MISMATCH"
	CategoryUnsolvedMeta     Category = "UNSOLVED_META"
	CategoryOccursCheck      Category = "OCCURS_CHECK"
	CategoryScopeEscape      Category = "SCOPE_ESCAPE"
)

// Diagnostic is the one error shape every stage of the pipeline reports
// through, mirroring the teacher's StandardError: a category, a stable
// code, a human message, free-form context for tooling, and the Go
// function that raised it.
type Diagnostic struct {
	Category Category
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
	Pos      Pos
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: [%s:%s] %s", d.Pos, d.Category, d.Code, d.Message)
}

// New constructs a Diagnostic, recording the immediate caller the same way
// errors.NewStandardError does.
func New(cat Category, code string, pos Pos, context map[string]interface{}, format string, args ...interface{}) *Diagnostic {
	pc, _, _, ok := runtime.Caller(1)
	caller := "unknown"

	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &Diagnostic{
		Category: cat,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Context:  context,
		Caller:   caller,
		Pos:      pos,
	}
}

func ParseError(pos Pos, format string, args ...interface{}) *Diagnostic {
	return New(CategoryParse, "PARSE_ERROR", pos, nil, format, args...)
}

func ScopeError(pos Pos, name string) *Diagnostic {
	return New(CategoryScope, "UNBOUND_NAME", pos, map[string]interface{}{"name": name},
		"unbound name %q", name)
}

func NamedImplicitError(pos Pos, name string) *Diagnostic {
	return New(CategoryNamedImplicit, "NO_SUCH_IMPLICIT", pos, map[string]interface{}{"name": name},
		"function type has no implicit argument named %q at this point", name)
}

func IcitnessMismatch(pos Pos, detail string) *Diagnostic {
	return New(CategoryIcitnessMismatch, "ICITNESS_MISMATCH", pos, nil, "%s", detail)
}

func TypeMismatch(pos Pos, expected, got string) *Diagnostic {
	return New(CategoryTypeMismatch, "TYPE_MISMATCH", pos,
		map[string]interface{}{"expected": expected, "got": got},
		"type mismatch: expected %s, got %s", expected, got)
}

func UnsolvedMeta(pos Pos, id int) *Diagnostic {
	return New(CategoryUnsolvedMeta, "UNSOLVED_META", pos, map[string]interface{}{"meta": id},
		"unsolved metavariable ?%d", id)
}

func OccursCheckFailure(pos Pos, detail string) *Diagnostic {
	return New(CategoryOccursCheck, "OCCURS_CHECK", pos, nil, "%s", detail)
}

func ScopeEscapeFailure(pos Pos, detail string) *Diagnostic {
	return New(CategoryScopeEscape, "SCOPE_ESCAPE", pos, nil, "%s", detail)
}

// Reporter is the one-method interface the elaborator calls to surface a
// declaration's failure without aborting the rest of the file (spec.md §7:
// one declaration's failure never prevents later declarations in the same
// file from being attempted). A mock of this interface backs the top-level
// driver's tests; cmd/stt's implementation prints and counts.
type Reporter interface {
	Report(d *Diagnostic)
}

// Collector is the cmd/stt-facing Reporter: it keeps every diagnostic
// reported during a run, in order, for printing once elaboration of the
// whole file finishes.
type Collector struct {
	Diagnostics []*Diagnostic
}

func (c *Collector) Report(d *Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

func (c *Collector) HasErrors() bool { return len(c.Diagnostics) > 0 }
