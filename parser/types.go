// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/token"
)

// parseType parses a Name, Member, or Generic type reference:
//
//	Type       := Identifier ('.' Identifier)* TypeArguments?
//	TypeArguments := '<' Type (',' Type)* '>'
func (p *Parser) parseType() *green.Node {
	var node *green.Node

	name := p.expect(token.Identifier)
	node = green.New(green.NameType, tokElem(name))

	for p.at(token.Dot) {
		dot := p.advance()
		member := p.expect(token.Identifier)
		node = green.New(green.MemberType, childElem(node), tokElem(dot), tokElem(member))
	}

	if p.at(token.Less) && p.looksLikeTypeArgumentList() {
		node = green.New(green.GenericType, childElem(node), childElem(p.parseTypeArgumentList()))
	}

	return node
}

func (p *Parser) parseTypeArgumentList() *green.Node {
	children := []green.Element{tokElem(p.expect(token.Less))}

	for !p.at(token.Greater) && !p.at(token.EndOfInput) {
		children = append(children, childElem(p.parseType()))

		if p.at(token.Comma) {
			children = append(children, tokElem(p.advance()))
		} else {
			break
		}
	}

	children = append(children, tokElem(p.expect(token.Greater)))

	return green.New(green.ArgumentList, children...)
}

// looksLikeTypeArgumentList performs the throwaway peek-ahead that
// disambiguates `Name<` as the start of generic type/call arguments from
// `<` as a standalone less-than operator: scan ahead over
// identifier, ',', '.', and nested '<…>' pairs without consuming from the
// main stream. Any other token inside the skipped region means this was
// never generics: it's the operator. Once the matching '>' is reached,
// the following token decides: '(' always means generics; an
// expression-starter means the operator reading; anything else defaults
// to generics.
func (p *Parser) looksLikeTypeArgumentList() bool {
	depth := 0
	i := 0

	for {
		tok := p.peekAt(i)

		switch tok.Kind {
		case token.Less:
			depth++
		case token.Greater:
			depth--
			if depth == 0 {
				next := p.peekAt(i + 1).Kind
				if next == token.LParen {
					return true
				}

				return !next.IsExpressionStarter()
			}
		case token.Identifier, token.Comma, token.Dot:
			// keep scanning
		case token.EndOfInput:
			return false
		default:
			return false
		}

		i++

		if i > 64 {
			// Runaway scan: bail rather than loop forever on malformed input.
			return false
		}
	}
}
