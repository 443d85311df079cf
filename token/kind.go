// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package token defines the lexical vocabulary shared by the lexer and the
// parser: token kinds, trivia, and the Token value itself.
package token

// Kind is the closed set of token kinds the lexer can produce. It is the
// tag of the Token tagged union: every Token carries exactly one Kind plus
// whatever payload that Kind implies (see Token.Value).
type Kind int

const (
	EndOfInput Kind = iota

	Identifier

	// Keywords.
	KeywordFunc
	KeywordModule
	KeywordImport
	KeywordVar
	KeywordVal
	KeywordReturn
	KeywordGoto
	KeywordIf
	KeywordWhile
	KeywordElse
	KeywordInternal
	KeywordPublic
	KeywordOr
	KeywordAnd
	KeywordNot
	KeywordMod
	KeywordRem
	KeywordNew

	// Literals.
	IntLiteral
	FloatLiteral
	CharLiteral

	// String fragments. A string literal, plain or interpolated, is a run
	// of these rather than a single token (see lexer modes).
	StringStart            // opening quote(s): `"`, `#"`, `##"`..., or the `"""` multi-line opener
	StringContent          // a run of literal text inside a string
	StringNewline          // one per physical line break inside a multi-line string
	StringInterpolationStart // `\{` or `\#{`...
	StringInterpolationEnd   // the `}` that closes an interpolation
	StringEnd               // closing quote(s)

	// Punctuation.
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Semicolon
	Colon
	Dot
	Plus
	Minus
	Star
	Slash
	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	Less
	LessEqual
	Greater
	GreaterEqual
	EqualEqual
	BangEqual
	Bang
	Ellipsis

	// Unexpected is a catch-all for bytes the lexer could not classify;
	// it never causes the lexer to stop.
	Unexpected
)

var kindNames = map[Kind]string{
	EndOfInput:               "end-of-input",
	Identifier:               "identifier",
	KeywordFunc:              "'func'",
	KeywordModule:            "'module'",
	KeywordImport:            "'import'",
	KeywordVar:               "'var'",
	KeywordVal:               "'val'",
	KeywordReturn:            "'return'",
	KeywordGoto:              "'goto'",
	KeywordIf:                "'if'",
	KeywordWhile:             "'while'",
	KeywordElse:              "'else'",
	KeywordInternal:          "'internal'",
	KeywordPublic:            "'public'",
	KeywordOr:                "'or'",
	KeywordAnd:               "'and'",
	KeywordNot:               "'not'",
	KeywordMod:               "'mod'",
	KeywordRem:               "'rem'",
	KeywordNew:               "'new'",
	IntLiteral:               "integer literal",
	FloatLiteral:             "float literal",
	CharLiteral:              "character literal",
	StringStart:              "string start",
	StringContent:            "string content",
	StringNewline:            "string newline",
	StringInterpolationStart: "'\\{'",
	StringInterpolationEnd:   "'}'",
	StringEnd:                "string end",
	LParen:                   "'('",
	RParen:                   "')'",
	LBrace:                   "'{'",
	RBrace:                   "'}'",
	LBracket:                 "'['",
	RBracket:                 "']'",
	Comma:                    "','",
	Semicolon:                "';'",
	Colon:                    "':'",
	Dot:                      "'.'",
	Plus:                     "'+'",
	Minus:                    "'-'",
	Star:                     "'*'",
	Slash:                    "'/'",
	Assign:                   "'='",
	PlusAssign:               "'+='",
	MinusAssign:              "'-='",
	StarAssign:               "'*='",
	SlashAssign:              "'/='",
	Less:                     "'<'",
	LessEqual:                "'<='",
	Greater:                  "'>'",
	GreaterEqual:             "'>='",
	EqualEqual:               "'=='",
	BangEqual:                "'!='",
	Bang:                     "'!'",
	Ellipsis:                 "'...'",
	Unexpected:               "unexpected character",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return "kind(?)"
}

// Keywords maps identifier text to its keyword Kind. Anything not present
// here lexes as a plain Identifier.
var Keywords = map[string]Kind{
	"func":     KeywordFunc,
	"module":   KeywordModule,
	"import":   KeywordImport,
	"var":      KeywordVar,
	"val":      KeywordVal,
	"return":   KeywordReturn,
	"goto":     KeywordGoto,
	"if":       KeywordIf,
	"while":    KeywordWhile,
	"else":     KeywordElse,
	"internal": KeywordInternal,
	"public":   KeywordPublic,
	"or":       KeywordOr,
	"and":      KeywordAnd,
	"not":      KeywordNot,
	"mod":      KeywordMod,
	"rem":      KeywordRem,
	"new":      KeywordNew,
}

// IsExpressionStarter reports whether a token of this Kind can begin an
// expression. Used by the `<` disambiguation scan and by panic-mode
// synchronization.
func (k Kind) IsExpressionStarter() bool {
	switch k {
	case Identifier, IntLiteral, FloatLiteral, CharLiteral, StringStart,
		LParen, LBrace, KeywordIf, KeywordWhile, KeywordNot, KeywordNew,
		Plus, Minus, Bang, KeywordReturn, KeywordGoto:
		return true
	default:
		return false
	}
}

// IsDeclarationStarter reports whether a token of this Kind can begin a
// top-level or local declaration. Used for panic-mode synchronization.
func (k Kind) IsDeclarationStarter() bool {
	switch k {
	case KeywordImport, KeywordFunc, KeywordModule, KeywordVar, KeywordVal,
		KeywordInternal, KeywordPublic:
		return true
	default:
		return false
	}
}
