// Package parser turns a lexed token slice into the internal/surface raw
// syntax tree: a recursive-descent parser with explicit save/restore marks,
// in the same hand-written style as the rest of the toolchain's parsers.
package parser

import (
	"fmt"

	"github.com/sttlang/stt/internal/lexer"
	"github.com/sttlang/stt/internal/surface"
	"github.com/sttlang/stt/internal/term"
)

// Error is a parse failure with the source position it occurred at.
type Error struct {
	Pos     surface.Pos
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos.File, e.Message)
}

// Parser walks a fixed token slice with an explicit cursor, so that a
// failed speculative parse (deciding whether `(...)` opens a Pi binder or a
// parenthesized expression) can rewind the cursor and retry rather than
// needing the lexer itself to support lookahead.
type Parser struct {
	toks     []lexer.Token
	filename string
	pos      int
}

func New(filename string, toks []lexer.Token) *Parser {
	return &Parser{toks: toks, filename: filename}
}

// Parse consumes the whole token slice as a sequence of declarations.
func Parse(filename, src string) (*surface.File, error) {
	toks := lexer.New(filename, src).Tokenize()
	p := New(filename, toks)

	return p.parseFile()
}

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }
func (p *Parser) mark() int        { return p.pos }
func (p *Parser) restore(mark int) { p.pos = mark }
func (p *Parser) atEOF() bool      { return p.cur().Kind == lexer.TEOF }

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}

	return t
}

func (p *Parser) curPos() surface.Pos {
	t := p.cur()
	return surface.Pos{File: p.filename, Line: t.Line, Col: t.Col}
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &Error{Pos: p.curPos(), Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(k lexer.TokenKind) (lexer.Token, error) {
	if p.cur().Kind != k {
		return lexer.Token{}, p.errorf("expected %s, got %s", k, p.cur().Kind)
	}

	return p.advance(), nil
}

func (p *Parser) accept(k lexer.TokenKind) (lexer.Token, bool) {
	if p.cur().Kind == k {
		return p.advance(), true
	}

	return lexer.Token{}, false
}

// parseFile reads declarations until EOF. Each declaration is either
// `assume name : Type` or `name [annot]... [: Type] = body`.
func (p *Parser) parseFile() (*surface.File, error) {
	var f surface.File

	for !p.atEOF() {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}

		f.Decls = append(f.Decls, d)
	}

	return &f, nil
}

func (p *Parser) parseDecl() (surface.Decl, error) {
	pos := p.curPos()

	if _, ok := p.accept(lexer.TAssume); ok {
		name, err := p.expect(lexer.TIdent)
		if err != nil {
			return surface.Decl{}, err
		}

		if _, err := p.expect(lexer.TColon); err != nil {
			return surface.Decl{}, err
		}

		ty, err := p.parseExpr()
		if err != nil {
			return surface.Decl{}, err
		}

		return surface.Decl{Pos: pos, Name: name.Text, Type: ty, Assume: true}, nil
	}

	name, err := p.expect(lexer.TIdent)
	if err != nil {
		return surface.Decl{}, err
	}

	annot, err := p.parseAnnotations()
	if err != nil {
		return surface.Decl{}, err
	}

	var declTy surface.Raw

	if _, ok := p.accept(lexer.TColon); ok {
		declTy, err = p.parseExpr()
		if err != nil {
			return surface.Decl{}, err
		}
	}

	if _, err := p.expect(lexer.TEquals); err != nil {
		return surface.Decl{}, err
	}

	body, err := p.parseExpr()
	if err != nil {
		return surface.Decl{}, err
	}

	return surface.Decl{Pos: pos, Name: name.Text, Type: declTy, Body: body, Annot: annot}, nil
}

// parseAnnotations reads zero or more `[elaborate]`/`[normalize]` tags
// between a declaration's name and its `:`/`=`.
func (p *Parser) parseAnnotations() (surface.Annotation, error) {
	var a surface.Annotation

	for {
		if _, ok := p.accept(lexer.TLBracket); !ok {
			return a, nil
		}

		tag, err := p.expect(lexer.TIdent)
		if err != nil {
			return a, err
		}

		switch tag.Text {
		case "elaborate":
			a.Elaborate = true
		case "normalize":
			a.Normalize = true
		default:
			return a, p.errorf("unknown annotation %q", tag.Text)
		}

		if _, err := p.expect(lexer.TRBracket); err != nil {
			return a, err
		}
	}
}

// parseExpr parses a full term: let, lambda, or an arrow-level expression.
func (p *Parser) parseExpr() (surface.Raw, error) {
	switch p.cur().Kind {
	case lexer.TLet:
		return p.parseLet()
	case lexer.TLambda:
		return p.parseLam()
	default:
		return p.parseArrow()
	}
}

func (p *Parser) parseLet() (surface.Raw, error) {
	pos := p.curPos()

	p.advance()

	name, err := p.expect(lexer.TIdent)
	if err != nil {
		return nil, err
	}

	var ty surface.Raw

	if _, ok := p.accept(lexer.TColon); ok {
		ty, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.TEquals); err != nil {
		return nil, err
	}

	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.TIn); err != nil {
		return nil, err
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return surface.RLet{Pos: pos, Name: name.Text, Type: ty, Val: val, Body: body}, nil
}

// parseLam reads `\x. e`, `\{x}. e`, `\(x : A). e`, or `\{x : A}. e`, and
// accepts a run of binders before one `.` (`\x y. e` desugars to nested
// lambdas as they are parsed).
func (p *Parser) parseLam() (surface.Raw, error) {
	pos := p.curPos()

	p.advance()

	type binder struct {
		name string
		ty   surface.Raw
		icit term.Icit
	}

	var binders []binder

	for p.cur().Kind != lexer.TDot {
		if _, ok := p.accept(lexer.TLBrace); ok {
			name, err := p.expect(lexer.TIdent)
			if err != nil {
				return nil, err
			}

			var ty surface.Raw

			if _, ok := p.accept(lexer.TColon); ok {
				ty, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}

			if _, err := p.expect(lexer.TRBrace); err != nil {
				return nil, err
			}

			binders = append(binders, binder{name: name.Text, ty: ty, icit: term.Impl})

			continue
		}

		if _, ok := p.accept(lexer.TLParen); ok {
			name, err := p.expect(lexer.TIdent)
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(lexer.TColon); err != nil {
				return nil, err
			}

			ty, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(lexer.TRParen); err != nil {
				return nil, err
			}

			binders = append(binders, binder{name: name.Text, ty: ty, icit: term.Expl})

			continue
		}

		name, err := p.expect(lexer.TIdent)
		if err != nil {
			return nil, err
		}

		binders = append(binders, binder{name: name.Text, icit: term.Expl})
	}

	if _, err := p.expect(lexer.TDot); err != nil {
		return nil, err
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	for i := len(binders) - 1; i >= 0; i-- {
		b := binders[i]
		body = surface.RLam{Pos: pos, Name: b.name, Type: b.ty, Body: body, Icit: b.icit}
	}

	return body, nil
}

// parseArrow parses application-level expressions joined by `->`/`→`,
// right-associatively. Distinguishing a dependent Pi binder `(x : A) -> B`
// from a parenthesized application that merely happens to be followed by
// `->` requires speculative parsing: parseAtom commits to one reading of a
// leading `(`, and parseArrow here retries as a non-dependent arrow if
// what follows isn't `->` after all.
func (p *Parser) parseArrow() (surface.Raw, error) {
	pos := p.curPos()

	if pi, ok, err := p.tryParsePiBinder(); err != nil {
		return nil, err
	} else if ok {
		if _, err := p.expect(lexer.TArrow); err != nil {
			return nil, err
		}

		cod, err := p.parseArrow()
		if err != nil {
			return nil, err
		}

		pi.Cod = cod

		return pi, nil
	}

	dom, err := p.parseApp()
	if err != nil {
		return nil, err
	}

	if _, ok := p.accept(lexer.TArrow); ok {
		cod, err := p.parseArrow()
		if err != nil {
			return nil, err
		}

		return surface.RPi{Pos: pos, Name: "_", Dom: dom, Cod: cod, Icit: term.Expl}, nil
	}

	return dom, nil
}

// tryParsePiBinder speculatively parses a `(x : A)` or `{x : A}` binder
// prefix. On any failure to match that shape it rewinds and reports no
// match, leaving the caller to parse the same tokens as an ordinary
// application instead.
func (p *Parser) tryParsePiBinder() (surface.RPi, bool, error) {
	mark := p.mark()
	pos := p.curPos()

	icit := term.Expl

	closeKind := lexer.TRParen

	if p.cur().Kind == lexer.TLBrace {
		icit = term.Impl
		closeKind = lexer.TRBrace
	} else if p.cur().Kind != lexer.TLParen {
		return surface.RPi{}, false, nil
	}

	p.advance()

	name, ok := p.accept(lexer.TIdent)
	if !ok {
		p.restore(mark)
		return surface.RPi{}, false, nil
	}

	if _, ok := p.accept(lexer.TColon); !ok {
		p.restore(mark)
		return surface.RPi{}, false, nil
	}

	dom, err := p.parseExpr()
	if err != nil {
		p.restore(mark)
		return surface.RPi{}, false, nil
	}

	if _, err := p.expect(closeKind); err != nil {
		p.restore(mark)
		return surface.RPi{}, false, nil
	}

	if p.cur().Kind != lexer.TArrow {
		p.restore(mark)
		return surface.RPi{}, false, nil
	}

	return surface.RPi{Pos: pos, Name: name.Text, Dom: dom, Icit: icit}, true, nil
}

// parseApp parses a spine of juxtaposed applications: explicit atoms,
// `{t}` implicit-by-position arguments, and `{name = t}` named implicits.
func (p *Parser) parseApp() (surface.Raw, error) {
	fun, err := p.parseBangAtom()
	if err != nil {
		return nil, err
	}

	for {
		pos := p.curPos()

		if p.cur().Kind == lexer.TLBrace {
			mark := p.mark()

			p.advance()

			if name, ok := p.accept(lexer.TIdent); ok {
				if _, ok := p.accept(lexer.TEquals); ok {
					arg, err := p.parseExpr()
					if err != nil {
						return nil, err
					}

					if _, err := p.expect(lexer.TRBrace); err != nil {
						return nil, err
					}

					fun = surface.RAppNamed{Pos: pos, Fun: fun, Name: name.Text, Arg: arg}

					continue
				}
			}

			p.restore(mark)
			p.advance()

			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(lexer.TRBrace); err != nil {
				return nil, err
			}

			fun = surface.RApp{Pos: pos, Fun: fun, Arg: arg, Icit: term.Impl}

			continue
		}

		if !p.startsAtom() {
			return fun, nil
		}

		// An identifier directly followed by `:`, `=` or `[` opens the next
		// top-level declaration; it is never another argument.
		if p.cur().Kind == lexer.TIdent && p.pos+1 < len(p.toks) {
			switch p.toks[p.pos+1].Kind {
			case lexer.TColon, lexer.TEquals, lexer.TLBracket:
				return fun, nil
			}
		}

		arg, err := p.parseBangAtom()
		if err != nil {
			return nil, err
		}

		fun = surface.RApp{Pos: pos, Fun: fun, Arg: arg, Icit: term.Expl}
	}
}

func (p *Parser) startsAtom() bool {
	switch p.cur().Kind {
	case lexer.TIdent, lexer.TU, lexer.TUnderscore, lexer.TLParen:
		return true
	default:
		return false
	}
}

// parseBangAtom parses one atom, then a trailing `!` if present.
func (p *Parser) parseBangAtom() (surface.Raw, error) {
	pos := p.curPos()

	a, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	if _, ok := p.accept(lexer.TBang); ok {
		return surface.RBang{Pos: pos, Inner: a}, nil
	}

	return a, nil
}

func (p *Parser) parseAtom() (surface.Raw, error) {
	pos := p.curPos()

	switch p.cur().Kind {
	case lexer.TIdent:
		t := p.advance()
		return surface.RVar{Pos: pos, Name: t.Text}, nil

	case lexer.TU:
		p.advance()
		return surface.RU{Pos: pos}, nil

	case lexer.TUnderscore:
		p.advance()
		return surface.RHole{Pos: pos}, nil

	case lexer.TLParen:
		p.advance()

		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.TRParen); err != nil {
			return nil, err
		}

		return inner, nil

	default:
		return nil, p.errorf("unexpected token %s", p.cur().Kind)
	}
}
