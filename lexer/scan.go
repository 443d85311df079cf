// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/token"
)

// Next returns the next token in the stream. Once it returns a token of
// kind token.EndOfInput, every subsequent call returns the same sentinel.
func (l *Lexer) Next() token.Token {
	if l.top().kind == modeLineString || l.top().kind == modeMultiLineString {
		return l.scanStringToken()
	}

	leading := l.consumeLeading()

	var tok token.Token

	for {
		if l.eof() {
			return token.EOF(leading)
		}

		tok = l.scanOrdinary()
		if tok.Kind != token.Unexpected {
			break
		}

		// Invalid input folds into the next token's leading trivia as a
		// Skipped trivium; the diagnostic was already recorded.
		leading = append(leading, token.Trivium{Kind: token.Skipped, Text: tok.Text})
		leading = append(leading, l.consumeLeading()...)
	}

	tok.Leading = leading

	// A token that just opened string mode (StringStart) or just closed
	// an interpolation (StringInterpolationEnd) is immediately followed
	// by string content, not ordinary trivia: consuming trailing trivia
	// here would eat the start of that content.
	if tok.Kind != token.StringStart && tok.Kind != token.StringInterpolationEnd {
		tok.Trailing = l.consumeTrailing()
	}

	return tok
}

// scanOrdinary scans a single token outside of string content, i.e. in
// Normal mode or inside an Interpolation frame (which lexes the same way
// as Normal mode except for brace-depth tracking).
func (l *Lexer) scanOrdinary() token.Token {
	r, _ := l.peekRune()

	switch {
	case isIdentStart(r):
		return l.scanIdentifier()
	case unicode.IsDigit(r):
		return l.scanNumber()
	case r == '\'':
		return l.scanChar()
	case r == '"' || (r == '#' && l.startsStringAhead()):
		return l.scanStringStart()
	default:
		return l.scanPunctuation()
	}
}

// startsStringAhead reports whether the run of '#' characters starting at
// the current position is immediately followed by a '"', i.e. whether
// this really is a string-opening delimiter and not, say, an operator
// sequence that happens to start with '#'. Draco has no other use for
// '#', but the check keeps scanStringStart's caller honest.
func (l *Lexer) startsStringAhead() bool {
	p := l.pos
	for p < len(l.src) && l.src[p] == '#' {
		p++
	}

	return p < len(l.src) && l.src[p] == '"'
}

func (l *Lexer) scanIdentifier() token.Token {
	begin := l.pos
	for {
		r, size := l.peekRune()
		if size == 0 || !isIdentPart(r) {
			break
		}

		l.advance()
	}

	text := l.src[begin:l.pos]

	if kind, ok := token.Keywords[text]; ok {
		return token.Token{Kind: kind, Text: text}
	}

	return token.Token{Kind: token.Identifier, Text: text, Value: text}
}

func (l *Lexer) scanNumber() token.Token {
	begin := l.pos

	for {
		r, size := l.peekRune()
		if size == 0 || !unicode.IsDigit(r) {
			break
		}

		l.advance()
	}

	isFloat := false
	if r, _ := l.peekRune(); r == '.' && unicode.IsDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()

		for {
			r, size := l.peekRune()
			if size == 0 || !unicode.IsDigit(r) {
				break
			}

			l.advance()
		}
	}

	if r, _ := l.peekRune(); r == 'e' || r == 'E' {
		save := l.pos
		l.advance()

		if r, _ := l.peekRune(); r == '+' || r == '-' {
			l.advance()
		}

		if r, _ := l.peekRune(); unicode.IsDigit(r) {
			isFloat = true
			for {
				r, size := l.peekRune()
				if size == 0 || !unicode.IsDigit(r) {
					break
				}

				l.advance()
			}
		} else {
			l.pos = save
		}
	}

	text := l.src[begin:l.pos]

	if isFloat {
		v, _ := strconv.ParseFloat(text, 64)
		return token.Token{Kind: token.FloatLiteral, Text: text, Value: v}
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		l.diags.Add(diagnostics.New(diagnostics.Error, diagnostics.UnexpectedInput,
			source.Span{Begin: l.pos1(), End: l.pos1()}, nil, "integer literal %q out of range", text))
	}

	return token.Token{Kind: token.IntLiteral, Text: text, Value: v}
}

func (l *Lexer) scanChar() token.Token {
	begin := l.pos
	l.advance() // opening '\''

	var value rune

	r, _ := l.peekRune()
	if r == '\\' {
		l.advance()
		value = l.scanEscape()
	} else {
		value = l.advance()
	}

	if r, _ := l.peekRune(); r == '\'' {
		l.advance()
	} else {
		l.diags.Add(diagnostics.New(diagnostics.Error, diagnostics.UnexpectedInput,
			source.Span{Begin: l.pos1(), End: l.pos1()}, nil, "unterminated character literal"))
	}

	return token.Token{Kind: token.CharLiteral, Text: l.src[begin:l.pos], Value: value}
}

func (l *Lexer) scanEscape() rune {
	r := l.advance()

	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\', '\'', '"':
		return r
	default:
		l.diags.Add(diagnostics.New(diagnostics.Warning, diagnostics.UnexpectedInput,
			source.Span{Begin: l.pos1(), End: l.pos1()}, nil, "unknown escape sequence '\\%c'", r))

		return r
	}
}

// punct is one entry of the longest-match punctuation table.
type punct struct {
	text string
	kind token.Kind
}

var puncts = []punct{
	{"...", token.Ellipsis},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"<=", token.LessEqual},
	{">=", token.GreaterEqual},
	{"==", token.EqualEqual},
	{"!=", token.BangEqual},
	{"(", token.LParen},
	{")", token.RParen},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{",", token.Comma},
	{";", token.Semicolon},
	{":", token.Colon},
	{".", token.Dot},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"=", token.Assign},
	{"<", token.Less},
	{">", token.Greater},
	{"!", token.Bang},
}

func (l *Lexer) scanPunctuation() token.Token {
	begin := l.pos

	for _, p := range puncts {
		if strings.HasPrefix(l.src[l.pos:], p.text) {
			l.advanceN(len(p.text))

			return l.finishBraceTracking(p.kind, l.src[begin:l.pos])
		}
	}

	// Unrecognized byte: record it as Skipped trivia glued to the next
	// real token's leading trivia, then keep scanning. The lexer never
	// stops on invalid input.
	r := l.advance()
	l.diags.Add(diagnostics.New(diagnostics.Error, diagnostics.UnexpectedInput,
		source.Span{Begin: l.pos1(), End: l.pos1()}, nil, "unexpected character %q", r))

	return token.Token{Kind: token.Unexpected, Text: l.src[begin:l.pos]}
}

// finishBraceTracking maintains the brace-depth counter of an enclosing
// Interpolation frame so that the '}' which closes the interpolation
// itself (as opposed to a nested block expression's '}') is reported as
// token.StringInterpolationEnd instead of token.RBrace.
func (l *Lexer) finishBraceTracking(kind token.Kind, text string) token.Token {
	top := l.top()
	if top.kind != modeInterpolation {
		return token.Token{Kind: kind, Text: text}
	}

	switch kind {
	case token.LBrace:
		top.braceDepth++
	case token.RBrace:
		if top.braceDepth > 0 {
			top.braceDepth--
		} else {
			l.pop()
			return token.Token{Kind: token.StringInterpolationEnd, Text: text}
		}
	}

	return token.Token{Kind: kind, Text: text}
}
