package lexer_test

import (
	"testing"

	"vellum/internal/lexer"
	"vellum/internal/token"
)

func TestNextToken_BasicProgram(t *testing.T) {
	input := `namespace main {
  object ball {
    int speed;
    event create {
      speed = 1;
    }
    event step {
      speed += 1;
    }
  }
}
`

	tests := []struct {
		kind token.Kind
		lit  string
	}{
		{token.Namespace, "namespace"},
		{token.Ident, "main"},
		{token.LBrace, "{"},

		{token.Object, "object"},
		{token.Ident, "ball"},
		{token.LBrace, "{"},

		{token.IntType, "int"},
		{token.Ident, "speed"},
		{token.Semicolon, ";"},

		{token.Event, "event"},
		{token.Create, "create"},
		{token.LBrace, "{"},
		{token.Ident, "speed"},
		{token.Assign, "="},
		{token.Int, "1"},
		{token.Semicolon, ";"},
		{token.RBrace, "}"},

		{token.Event, "event"},
		{token.Step, "step"},
		{token.LBrace, "{"},
		{token.Ident, "speed"},
		{token.PlusAssign, "+="},
		{token.Int, "1"},
		{token.Semicolon, ";"},
		{token.RBrace, "}"},

		{token.RBrace, "}"},
		{token.RBrace, "}"},
		{token.EOF, ""},
	}

	l := lexer.New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.kind {
			t.Fatalf("tests[%d] - kind wrong. expected=%s, got=%s (lexeme=%q, pos=%+v)",
				i, tt.kind, tok.Kind, tok.Lexeme, tok.Pos)
		}
		if tok.Lexeme != tt.lit {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.lit, tok.Lexeme)
		}
	}
}

func TestNextToken_ChainAndOperators(t *testing.T) {
	input := `a::b::c ++ -- += -= *= /= == != <= >= && || !x`

	tests := []struct {
		kind token.Kind
		lit  string
	}{
		{token.Ident, "a"},
		{token.ColonColon, "::"},
		{token.Ident, "b"},
		{token.ColonColon, "::"},
		{token.Ident, "c"},
		{token.PlusPlus, "++"},
		{token.MinusMinus, "--"},
		{token.PlusAssign, "+="},
		{token.MinusAssign, "-="},
		{token.StarAssign, "*="},
		{token.SlashAssign, "/="},
		{token.Eq, "=="},
		{token.NotEq, "!="},
		{token.LtEq, "<="},
		{token.GtEq, ">="},
		{token.AndAnd, "&&"},
		{token.OrOr, "||"},
		{token.Bang, "!"},
		{token.Ident, "x"},
		{token.EOF, ""},
	}

	l := lexer.New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.kind || tok.Lexeme != tt.lit {
			t.Fatalf("tests[%d]: expected {%s %q}, got {%s %q}", i, tt.kind, tt.lit, tok.Kind, tok.Lexeme)
		}
	}
}

func TestNextToken_DeleteIsDestroyAlias(t *testing.T) {
	l := lexer.New("delete e;")
	tok := l.NextToken()
	if tok.Kind != token.Destroy {
		t.Fatalf("expected `delete` to lex as token.Destroy, got %s", tok.Kind)
	}
	if tok.Lexeme != "delete" {
		t.Fatalf("expected lexeme to preserve the surface spelling %q, got %q", "delete", tok.Lexeme)
	}
}

func TestNextToken_FloatLiterals(t *testing.T) {
	input := "1.5 2e10 3.14e-2 10"
	tests := []struct {
		kind token.Kind
		lit  string
	}{
		{token.Float, "1.5"},
		{token.Float, "2e10"},
		{token.Float, "3.14e-2"},
		{token.Int, "10"},
		{token.EOF, ""},
	}
	l := lexer.New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.kind || tok.Lexeme != tt.lit {
			t.Fatalf("tests[%d]: expected {%s %q}, got {%s %q}", i, tt.kind, tt.lit, tok.Kind, tok.Lexeme)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := lexer.New(`"Line1\nLine2\tTabbed\""`)
	tok := l.NextToken()
	if tok.Kind != token.String {
		t.Fatalf("expected a string token, got %s", tok.Kind)
	}
	want := "Line1\nLine2\tTabbed\""
	if tok.Lexeme != want {
		t.Fatalf("expected decoded string %q, got %q", want, tok.Lexeme)
	}
	if len(l.Errors()) > 0 {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
}

func TestInvalidEscape(t *testing.T) {
	l := lexer.New(`"bad\q"`)
	for tok := l.NextToken(); tok.Kind != token.EOF; tok = l.NextToken() {
	}
	if len(l.Errors()) == 0 {
		t.Fatalf("expected a lexer error for an invalid escape sequence, got none")
	}
}

func TestUnterminatedString(t *testing.T) {
	l := lexer.New("\"no closing quote\n")
	tok := l.NextToken()
	if tok.Kind != token.Illegal {
		t.Fatalf("expected token.Illegal for an unterminated string, got %s", tok.Kind)
	}
	if len(l.Errors()) == 0 {
		t.Fatalf("expected a lexer error for an unterminated string, got none")
	}
}

func TestSkipsLineAndBlockComments(t *testing.T) {
	input := `// a leading comment
int /* inline */ x;`
	tests := []struct {
		kind token.Kind
		lit  string
	}{
		{token.IntType, "int"},
		{token.Ident, "x"},
		{token.Semicolon, ";"},
		{token.EOF, ""},
	}
	l := lexer.New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.kind || tok.Lexeme != tt.lit {
			t.Fatalf("tests[%d]: expected {%s %q}, got {%s %q}", i, tt.kind, tt.lit, tok.Kind, tok.Lexeme)
		}
	}
}
