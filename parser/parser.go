// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package parser implements the recursive-descent, precedence-climbing
// parser: it turns a lexer.Lexer's token stream into a green syntax tree,
// recovering from ill-formed input with panic-mode synchronization rather
// than ever failing outright.
package parser

import (
	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/lexer"
	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/token"
)

// Parser holds one-token lookahead plus a small on-demand peek buffer,
// used only by the `<` disambiguation scan and label detection.
type Parser struct {
	file  string
	src   string
	lex   *lexer.Lexer
	diags *diagnostics.Bag

	// buf is a FIFO of tokens already pulled from the lexer but not yet
	// consumed by the parser. buf[0], when present, is the current token.
	buf []token.Token

	// offset is the total full width of every token consumed so far, i.e.
	// the byte offset of the current token's leading trivia. Diagnostics
	// resolve their spans from it.
	offset int
}

// New creates a Parser over src, reporting lexical and syntactic
// diagnostics into bag.
func New(file, src string, bag *diagnostics.Bag) *Parser {
	return &Parser{
		file:  file,
		src:   src,
		lex:   lexer.New(file, src, bag),
		diags: bag,
	}
}

// Parse runs the parser to completion and returns the green root
// (CompilationUnit). It never fails: ill-formed input produces
// Unexpected* nodes and diagnostics in the returned tree instead.
func Parse(file, src string, bag *diagnostics.Bag) *green.Node {
	p := New(file, src, bag)
	return p.parseCompilationUnit()
}

func (p *Parser) fill(n int) {
	for len(p.buf) <= n {
		p.buf = append(p.buf, p.lex.Next())
	}
}

// current returns the lookahead token without consuming it.
func (p *Parser) current() token.Token {
	p.fill(0)
	return p.buf[0]
}

// peekAt returns the token n positions ahead of current (0 == current)
// without consuming anything. It never advances the main stream beyond
// what answering the query requires, so it is the "throwaway offset" the
// `<` disambiguation scan relies on.
func (p *Parser) peekAt(n int) token.Token {
	p.fill(n)
	return p.buf[n]
}

// advance consumes and returns the current token.
func (p *Parser) advance() token.Token {
	p.fill(0)
	t := p.buf[0]
	p.buf = p.buf[1:]
	p.offset += t.FullWidth()

	return t
}

func (p *Parser) at(k token.Kind) bool {
	return p.current().Kind == k
}

// accept consumes and returns the current token if it has kind k,
// otherwise leaves the stream untouched.
func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}

	return token.Token{}, false
}

// expect consumes the current token if it has kind k; otherwise it
// synthesizes a zero-width token.MissingToken(k) and reports an
// ExpectedToken diagnostic, preserving the caller's tree shape.
func (p *Parser) expect(k token.Kind) token.Token {
	if tok, ok := p.accept(k); ok {
		return tok
	}

	p.errorf(diagnostics.ExpectedToken, "expected %s, found %s", k, p.current().Kind)

	return token.MissingToken(k)
}

func (p *Parser) errorf(code diagnostics.Code, format string, args ...any) {
	p.diags.Add(diagnostics.New(diagnostics.Error, code, p.currentSpan(), nil, format, args...))
}

// currentSpan resolves the current token's visible span (past its leading
// trivia) back to line/column positions; only diagnostic paths pay for
// the scan.
func (p *Parser) currentSpan() source.Span {
	tok := p.current()

	begin := p.offset
	for _, tr := range tok.Leading {
		begin += tr.Width()
	}

	return source.Span{Begin: p.posAt(begin), End: p.posAt(begin + len(tok.Text))}
}

func (p *Parser) posAt(offset int) source.Pos {
	if offset > len(p.src) {
		offset = len(p.src)
	}

	pos := source.Pos{File: p.file, Line: 1, Col: 1}

	for i := 0; i < offset; i++ {
		b := p.src[i]

		switch {
		case b == '\n':
			if i > 0 && p.src[i-1] == '\r' {
				continue // the \r already advanced the line
			}

			pos.Line++
			pos.Col = 1
		case b == '\r':
			pos.Line++
			pos.Col = 1
		case b&0xC0 != 0x80:
			// Columns count runes; continuation bytes don't advance.
			pos.Col++
		}
	}

	pos.Offset = offset

	return pos
}

func tokElem(t token.Token) green.Element {
	return green.Token(t)
}

func childElem(n *green.Node) green.Element {
	return green.Child(n)
}
