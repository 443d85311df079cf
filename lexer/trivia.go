// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package lexer

import "github.com/lucyelle/DracoCompiler/token"

// consumeTrailing scans the trailing trivia of a just-produced token: a run
// of horizontal whitespace optionally followed by exactly one newline. A
// comment, or a second newline, is left unconsumed to become leading
// trivia of the next token instead.
func (l *Lexer) consumeTrailing() []token.Trivium {
	var out []token.Trivium

	for {
		r, size := l.peekRune()
		if size == 0 {
			return out
		}

		if isHorizontalSpace(r) {
			out = append(out, l.consumeWhitespaceRun())
			continue
		}

		if l.startsNewline() {
			begin := l.pos
			l.advance()
			out = append(out, token.Trivium{Kind: token.Newline, Text: l.src[begin:l.pos]})
		}

		return out
	}
}

// consumeLeading scans the leading trivia of the next token: any mixture
// of horizontal whitespace, newlines, and line comments.
func (l *Lexer) consumeLeading() []token.Trivium {
	var out []token.Trivium

	for {
		r, size := l.peekRune()
		if size == 0 {
			return out
		}

		switch {
		case isHorizontalSpace(r):
			out = append(out, l.consumeWhitespaceRun())
		case l.startsNewline():
			begin := l.pos
			l.advance()
			out = append(out, token.Trivium{Kind: token.Newline, Text: l.src[begin:l.pos]})
		case r == '/' && l.peekAt(1) == '/':
			out = append(out, l.consumeLineComment())
		default:
			return out
		}
	}
}

func (l *Lexer) consumeWhitespaceRun() token.Trivium {
	begin := l.pos
	for {
		r, size := l.peekRune()
		if size == 0 || !isHorizontalSpace(r) {
			break
		}

		l.advance()
	}

	return token.Trivium{Kind: token.Whitespace, Text: l.src[begin:l.pos]}
}

func (l *Lexer) consumeLineComment() token.Trivium {
	begin := l.pos

	l.advance() // first '/'
	l.advance() // second '/'

	doc := false
	if r, _ := l.peekRune(); r == '/' {
		doc = true
		l.advance()
	}

	for {
		r, size := l.peekRune()
		if size == 0 || l.startsNewline() {
			break
		}

		_ = r
		l.advance()
	}

	kind := token.LineComment
	if doc {
		kind = token.DocumentationComment
	}

	return token.Trivium{Kind: kind, Text: l.src[begin:l.pos]}
}
