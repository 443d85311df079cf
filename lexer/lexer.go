// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package lexer turns a source byte stream into a finite stream of tokens,
// the last of kind token.EndOfInput, with leading and trailing trivia
// attached. The lexer never fails on invalid input:
// unrecognized bytes become a Skipped trivium plus a diagnostic.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/source"
)

// Lexer produces tokens on demand from a complete source text. It holds
// the whole text in memory (unlike a streaming reader) because the parser
// needs unbounded peek-ahead for `<` disambiguation and the green tree's
// round-trip invariant is easiest to guarantee from a single fixed buffer.
type Lexer struct {
	file string
	src  string
	pos  int // byte offset of the next unread rune
	line int
	col  int

	frames []frame

	diags *diagnostics.Bag
}

// New creates a Lexer ready to tokenize src. Diagnostics for invalid bytes
// are appended to bag.
func New(file, src string, bag *diagnostics.Bag) *Lexer {
	return &Lexer{
		file:   file,
		src:    src,
		line:   1,
		col:    1,
		frames: []frame{{kind: modeNormal}},
		diags:  bag,
	}
}

func (l *Lexer) top() *frame {
	return &l.frames[len(l.frames)-1]
}

func (l *Lexer) push(f frame) {
	l.frames = append(l.frames, f)
}

func (l *Lexer) pop() {
	l.frames = l.frames[:len(l.frames)-1]
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.src)
}

// peekRune returns the rune at the current position without consuming it,
// and its width in bytes. At end of input it returns utf8.RuneError, 0.
func (l *Lexer) peekRune() (rune, int) {
	if l.eof() {
		return utf8.RuneError, 0
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])

	return r, size
}

// peekAt peeks n runes ahead of the current position (0 == current).
func (l *Lexer) peekAt(n int) rune {
	p := l.pos
	var r rune
	var size int

	for i := 0; i <= n; i++ {
		if p >= len(l.src) {
			return utf8.RuneError
		}

		r, size = utf8.DecodeRuneInString(l.src[p:])
		p += size
	}

	return r
}

func (l *Lexer) pos1() source.Pos {
	return source.Pos{File: l.file, Offset: l.pos, Line: l.line, Col: l.col}
}

// advance consumes and returns the next rune, updating line/col. Newlines
// of all three flavors (\n, \r\n, \r) count as exactly one.
func (l *Lexer) advance() rune {
	r, size := l.peekRune()
	if size == 0 {
		return utf8.RuneError
	}

	if r == utf8.RuneError && size == 1 {
		l.diags.Add(diagnostics.New(diagnostics.Warning, diagnostics.UnexpectedInput,
			source.Span{Begin: l.pos1(), End: l.pos1()}, nil, "invalid UTF-8 byte"))
	}

	l.pos += size

	if r == '\r' {
		if p, s := l.peekRune(); p == '\n' {
			l.pos += s
		}

		l.line++
		l.col = 1

		return '\n'
	}

	if r == '\n' {
		l.line++
		l.col = 1

		return r
	}

	l.col++

	return r
}

// startsNewline reports whether the rune at the current position begins a
// newline sequence (\n, \r\n, or \r).
func (l *Lexer) startsNewline() bool {
	r, _ := l.peekRune()
	return r == '\n' || r == '\r'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isHorizontalSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
