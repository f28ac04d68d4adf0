package lexer

import "testing"

func TestBasicTokens(t *testing.T) {
	input := `id : (A : U) -> A -> A = \x. x`

	tests := []struct {
		expectedKind TokenKind
		expectedText string
	}{
		{TIdent, "id"},
		{TColon, ""},
		{TLParen, ""},
		{TIdent, "A"},
		{TColon, ""},
		{TU, "U"},
		{TRParen, ""},
		{TArrow, ""},
		{TIdent, "A"},
		{TArrow, ""},
		{TIdent, "A"},
		{TEquals, ""},
		{TLambda, ""},
		{TIdent, "x"},
		{TDot, ""},
		{TIdent, "x"},
		{TEOF, ""},
	}

	l := New("test.stt", input)

	for i, tt := range tests {
		tok := l.next()

		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s", i, tt.expectedKind, tok.Kind)
		}

		if tt.expectedText != "" && tok.Text != tt.expectedText {
			t.Fatalf("tests[%d] - text wrong. expected=%q, got=%q", i, tt.expectedText, tok.Text)
		}
	}
}

func TestKeywords(t *testing.T) {
	input := `U let in assume`

	tests := []TokenKind{TU, TLet, TIn, TAssume}

	l := New("test.stt", input)

	for i, want := range tests {
		tok := l.next()
		if tok.Kind != want {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s", i, want, tok.Kind)
		}
	}
}

func TestUnicodeArrowAndLambdaMatchASCII(t *testing.T) {
	unicode := Tokenize(t, "A → A")
	ascii := Tokenize(t, "A -> A")

	if len(unicode) != len(ascii) {
		t.Fatalf("token count differs: %d vs %d", len(unicode), len(ascii))
	}

	for i := range unicode {
		if unicode[i].Kind != ascii[i].Kind {
			t.Fatalf("token %d kind differs: %s vs %s", i, unicode[i].Kind, ascii[i].Kind)
		}
	}

	lambdaUnicode := Tokenize(t, "λx. x")
	lambdaASCII := Tokenize(t, `\x. x`)

	for i := range lambdaUnicode {
		if lambdaUnicode[i].Kind != lambdaASCII[i].Kind {
			t.Fatalf("lambda token %d kind differs: %s vs %s", i, lambdaUnicode[i].Kind, lambdaASCII[i].Kind)
		}
	}
}

func TestLineComment(t *testing.T) {
	toks := Tokenize(t, "U // this is a comment\nU")

	if len(toks) != 3 {
		t.Fatalf("expected 2 U tokens + EOF, got %d tokens", len(toks))
	}

	if toks[0].Kind != TU || toks[1].Kind != TU {
		t.Fatalf("comment not skipped: %v", toks)
	}
}

func TestUnexpectedCharacterProducesError(t *testing.T) {
	toks := Tokenize(t, "U # U")

	var sawError bool

	for _, tok := range toks {
		if tok.Kind == TError {
			sawError = true
		}
	}

	if !sawError {
		t.Fatalf("expected a TError token for '#', got %v", toks)
	}
}

// Tokenize is a test helper producing a token slice without the trailing
// EOF-loop boilerplate every test case would otherwise repeat.
func Tokenize(t *testing.T, src string) []Token {
	t.Helper()

	return New("test.stt", src).Tokenize()
}
