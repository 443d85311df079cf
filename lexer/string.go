// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/lucyelle/DracoCompiler/token"
)

// peekWhitespaceRun returns the run of horizontal whitespace starting at
// the current position, without consuming it.
func (l *Lexer) peekWhitespaceRun() string {
	p := l.pos
	for p < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[p:])
		if !isHorizontalSpace(r) {
			break
		}

		p += size
	}

	return l.src[l.pos:p]
}

// advanceN consumes exactly n bytes of ASCII content (whitespace, quotes,
// hashes, backslashes, braces): the delimiters and indentation runs this
// file deals with are always single-byte runes, so one advance() per byte
// is exact.
func (l *Lexer) advanceN(n int) {
	consumed := 0
	for consumed < n {
		_, size := l.peekRune()
		if size == 0 {
			return
		}

		l.advance()
		consumed += size
	}
}

// scanStringStart recognizes the `#`n`"` (or `#`n`"""`) opening delimiter
// from Normal mode and pushes the corresponding string frame. The caller
// has already confirmed the current rune starts a string.
func (l *Lexer) scanStringStart() token.Token {
	begin := l.pos

	hashes := 0
	for {
		r, _ := l.peekRune()
		if r != '#' {
			break
		}

		l.advance()
		hashes++
	}

	multiline := strings.HasPrefix(l.src[l.pos:], `"""`)
	quotes := 1
	if multiline {
		quotes = 3
	}

	l.advanceN(quotes)

	kind := modeLineString
	if multiline {
		kind = modeMultiLineString
	}

	l.push(frame{kind: kind, hashes: hashes})

	tok := token.Token{Kind: token.StringStart, Text: l.src[begin:l.pos]}

	if multiline {
		// The opening delimiter must be the last thing on its line. Next()
		// attaches no trailing trivia to a StringStart, so anything after
		// the delimiter on that line is scanned as string content, which
		// the parser reports as ExtraTokensInlineWithOpenQuotesOfMultiString.
	}

	return tok
}

// scanStringToken is the string-mode scanning entry point: it recognizes
// the closing delimiter, an interpolation start, a StringNewline (multi-
// line strings only), or otherwise accumulates a run of StringContent.
func (l *Lexer) scanStringToken() token.Token {
	f := *l.top()
	multiline := f.kind == modeMultiLineString

	quoteCount := 1
	if multiline {
		quoteCount = 3
	}

	delim := strings.Repeat(`"`, quoteCount) + strings.Repeat("#", f.hashes)
	interp := "\\" + strings.Repeat("#", f.hashes) + "{"

	if multiline {
		ws := l.peekWhitespaceRun()
		if strings.HasPrefix(l.src[l.pos+len(ws):], delim) {
			var lead []token.Trivium

			if ws != "" {
				wsBegin := l.pos
				l.advanceN(len(ws))
				lead = []token.Trivium{{Kind: token.Whitespace, Text: l.src[wsBegin:l.pos]}}
			}

			begin := l.pos
			l.advanceN(len(delim))
			l.pop()

			return token.Token{Kind: token.StringEnd, Text: l.src[begin:l.pos], Leading: lead}
		}
	} else if strings.HasPrefix(l.src[l.pos:], delim) {
		begin := l.pos
		l.advanceN(len(delim))
		l.pop()

		return token.Token{Kind: token.StringEnd, Text: l.src[begin:l.pos]}
	}

	if strings.HasPrefix(l.src[l.pos:], interp) {
		begin := l.pos
		l.advanceN(len(interp))
		l.push(frame{kind: modeInterpolation})

		return token.Token{Kind: token.StringInterpolationStart, Text: l.src[begin:l.pos]}
	}

	if multiline && l.startsNewline() {
		begin := l.pos
		l.advance()

		return token.Token{Kind: token.StringNewline, Text: l.src[begin:l.pos]}
	}

	if l.eof() {
		return token.EOF(nil)
	}

	begin := l.pos

	for !l.eof() {
		if multiline && l.startsNewline() {
			break
		}

		if strings.HasPrefix(l.src[l.pos:], interp) {
			break
		}

		ws := ""
		if multiline {
			ws = l.peekWhitespaceRun()
		}

		if strings.HasPrefix(l.src[l.pos+len(ws):], delim) {
			break
		}

		l.advance()
	}

	text := l.src[begin:l.pos]

	return token.Token{Kind: token.StringContent, Text: text, Value: text}
}
