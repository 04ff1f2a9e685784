// Package token defines the lexical tokens of the language surface syntax
// described in spec.md §6.
package token

import "fmt"

type Kind int

const (
	Illegal Kind = iota
	EOF

	Ident
	Int
	Float
	String

	// Keywords
	Namespace
	Using
	Open
	Object
	Event
	Extern
	Public
	Private
	Create
	Step
	Draw
	Destroy
	Var
	Return
	Break
	If
	Else
	While
	For
	Foreach
	In
	True
	False
	NoneLit
	Void

	// Type keywords
	IntType
	BoolType
	FloatType
	StringType
	SpriteType
	SoundType

	// Operators
	Assign // =
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	PlusPlus
	MinusMinus

	Plus
	Minus
	Star
	Slash
	Percent

	Bang
	AndAnd
	OrOr

	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq

	// Symbols
	ColonColon // ::
	Comma
	Semicolon
	Dot
	Colon

	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
)

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position
}

var names = map[Kind]string{
	Illegal: "Illegal", EOF: "EOF", Ident: "Ident", Int: "Int", Float: "Float", String: "String",
	Namespace: "namespace", Using: "using", Open: "open", Object: "object", Event: "event",
	Extern: "extern", Public: "public", Private: "private",
	Create: "create", Step: "step", Draw: "draw", Destroy: "destroy",
	Var: "var", Return: "return", Break: "break", If: "if", Else: "else",
	While: "while", For: "for", Foreach: "foreach", In: "in",
	True: "true", False: "false", NoneLit: "none", Void: "void",
	IntType: "int", BoolType: "bool", FloatType: "float", StringType: "string",
	SpriteType: "sprite", SoundType: "sound",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=", SlashAssign: "/=",
	PlusPlus: "++", MinusMinus: "--",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Bang: "!", AndAnd: "&&", OrOr: "||",
	Eq: "==", NotEq: "!=", Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=",
	ColonColon: "::", Comma: ",", Semicolon: ";", Dot: ".", Colon: ":",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// keywords maps source spellings to keyword kinds.
var keywords = map[string]Kind{
	"namespace": Namespace,
	"using":     Using,
	"open":      Open,
	"object":    Object,
	"event":     Event,
	"extern":    Extern,
	"public":    Public,
	"private":   Private,
	"create":    Create,
	"step":      Step,
	"draw":      Draw,
	"destroy":   Destroy,
	"delete":    Destroy, // spec.md §6 accepts `delete e` as a synonym for `destroy e`
	"var":       Var,
	"return":    Return,
	"break":     Break,
	"if":        If,
	"else":      Else,
	"while":     While,
	"for":       For,
	"foreach":   Foreach,
	"in":        In,
	"true":      True,
	"false":     False,
	"none":      NoneLit,
	"void":      Void,
	"int":       IntType,
	"bool":      BoolType,
	"float":     FloatType,
	"string":    StringType,
	"sprite":    SpriteType,
	"sound":     SoundType,
}

// LookupIdent reports the keyword Kind for lit, or Ident if it is not one.
func LookupIdent(lit string) Kind {
	if kind, ok := keywords[lit]; ok {
		return kind
	}
	return Ident
}
