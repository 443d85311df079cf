// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/token"
)

// parseExpression enters the 10-level precedence table at its lowest
// level, `return`/`goto`.
func (p *Parser) parseExpression() *green.Node {
	return p.parseReturnOrGoto()
}

// Level 0: return expr?, goto label.
func (p *Parser) parseReturnOrGoto() *green.Node {
	switch p.current().Kind {
	case token.KeywordReturn:
		kw := p.advance()

		if p.at(token.Semicolon) || p.at(token.RBrace) || p.at(token.EndOfInput) {
			return green.New(green.ReturnExpr, tokElem(kw))
		}

		return green.New(green.ReturnExpr, tokElem(kw), childElem(p.parseAssignment()))
	case token.KeywordGoto:
		kw := p.advance()
		label := p.expect(token.Identifier)

		return green.New(green.GotoExpr, tokElem(kw), tokElem(label))
	default:
		return p.parseAssignment()
	}
}

// Level 1: assignment and compound assignment, right-associative.
func (p *Parser) parseAssignment() *green.Node {
	left := p.parseOr()

	switch p.current().Kind {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign:
		op := p.advance()
		right := p.parseAssignment() // right-assoc: recurse at the same level

		return green.New(green.AssignmentExpr, childElem(left), tokElem(op), childElem(right))
	default:
		return left
	}
}

// Level 2: `or`, left-associative.
func (p *Parser) parseOr() *green.Node {
	left := p.parseAnd()

	for p.at(token.KeywordOr) {
		op := p.advance()
		right := p.parseAnd()
		left = green.New(green.BinaryExpr, childElem(left), tokElem(op), childElem(right))
	}

	return left
}

// Level 3: `and`, left-associative.
func (p *Parser) parseAnd() *green.Node {
	left := p.parseNot()

	for p.at(token.KeywordAnd) {
		op := p.advance()
		right := p.parseNot()
		left = green.New(green.BinaryExpr, childElem(left), tokElem(op), childElem(right))
	}

	return left
}

// Level 4: prefix `not`.
func (p *Parser) parseNot() *green.Node {
	if p.at(token.KeywordNot) {
		op := p.advance()
		operand := p.parseNot()

		return green.New(green.UnaryExpr, tokElem(op), childElem(operand))
	}

	return p.parseRelational()
}

// Level 5: relational operators, chained into a single Relational(first,
// [(op, next)...]) rather than a left-recursive tree, so that `1 < 2 > 3`
// parses as one chain instead of `(1 < 2) > 3` and never gets mistaken for
// a generic argument list.
func (p *Parser) parseRelational() *green.Node {
	first := p.parseAdditive()

	if !isRelationalOp(p.current().Kind) {
		return first
	}

	children := []green.Element{childElem(first)}

	for isRelationalOp(p.current().Kind) {
		op := p.advance()
		next := p.parseAdditive()
		children = append(children, childElem(green.New(green.RelationalClause, tokElem(op), childElem(next))))
	}

	return green.New(green.RelationalExpr, children...)
}

func isRelationalOp(k token.Kind) bool {
	switch k {
	case token.Less, token.LessEqual, token.Greater, token.GreaterEqual, token.EqualEqual, token.BangEqual:
		return true
	default:
		return false
	}
}

// Level 6: `+ -`, left-associative.
func (p *Parser) parseAdditive() *green.Node {
	left := p.parseMultiplicative()

	for p.at(token.Plus) || p.at(token.Minus) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = green.New(green.BinaryExpr, childElem(left), tokElem(op), childElem(right))
	}

	return left
}

// Level 7: `* / mod rem`, left-associative.
func (p *Parser) parseMultiplicative() *green.Node {
	left := p.parsePrefix()

	for p.at(token.Star) || p.at(token.Slash) || p.at(token.KeywordMod) || p.at(token.KeywordRem) {
		op := p.advance()
		right := p.parsePrefix()
		left = green.New(green.BinaryExpr, childElem(left), tokElem(op), childElem(right))
	}

	return left
}

// Level 8: prefix `+ -`.
func (p *Parser) parsePrefix() *green.Node {
	if p.at(token.Plus) || p.at(token.Minus) {
		op := p.advance()
		operand := p.parsePrefix()

		return green.New(green.UnaryExpr, tokElem(op), childElem(operand))
	}

	return p.parsePostfix()
}

// Level 9: postfix call, index, generic instantiation, and member access.
// Generic instantiation is only attempted directly after a name or member
// expression, and only when looksLikeTypeArgumentList confirms the `<`
// isn't the less-than operator.
func (p *Parser) parsePostfix() *green.Node {
	expr := p.parseAtom()

	for {
		switch {
		case p.at(token.LParen):
			expr = p.parseCall(expr)
		case p.at(token.LBracket):
			expr = p.parseIndex(expr)
		case p.at(token.Dot):
			dot := p.advance()
			name := p.expect(token.Identifier)
			expr = green.New(green.MemberExpr, childElem(expr), tokElem(dot), tokElem(name))
		case isNameLike(expr.Kind) && p.at(token.Less) && p.looksLikeTypeArgumentList():
			expr = green.New(green.GenericExpr, childElem(expr), childElem(p.parseTypeArgumentList()))
		default:
			return expr
		}
	}
}

func isNameLike(k green.Kind) bool {
	switch k {
	case green.NameExpr, green.MemberExpr:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCall(callee *green.Node) *green.Node {
	children := []green.Element{childElem(callee), tokElem(p.expect(token.LParen))}
	children = append(children, childElem(p.parseArgumentList()))
	children = append(children, tokElem(p.expect(token.RParen)))

	return green.New(green.CallExpr, children...)
}

func (p *Parser) parseArgumentList() *green.Node {
	var children []green.Element

	for !p.at(token.RParen) && !p.at(token.EndOfInput) {
		children = append(children, childElem(p.parseAssignment()))

		if p.at(token.Comma) {
			children = append(children, tokElem(p.advance()))
		} else {
			break
		}
	}

	return green.New(green.ArgumentList, children...)
}

func (p *Parser) parseIndex(receiver *green.Node) *green.Node {
	children := []green.Element{
		childElem(receiver),
		tokElem(p.expect(token.LBracket)),
		childElem(p.parseAssignment()),
		tokElem(p.expect(token.RBracket)),
	}

	return green.New(green.IndexExpr, children...)
}

// Level 10: atoms.
func (p *Parser) parseAtom() *green.Node {
	switch p.current().Kind {
	case token.IntLiteral, token.FloatLiteral, token.CharLiteral:
		return green.New(green.LiteralExpr, tokElem(p.advance()))
	case token.StringStart:
		return p.parseStringExpr()
	case token.Identifier:
		return green.New(green.NameExpr, tokElem(p.advance()))
	case token.KeywordNew:
		kw := p.advance()
		typ := p.parseType()
		children := []green.Element{tokElem(kw), childElem(typ)}

		if p.at(token.LParen) {
			lparen := p.advance()
			args := p.parseArgumentList()
			rparen := p.expect(token.RParen)
			children = append(children, tokElem(lparen), childElem(args), tokElem(rparen))
		}

		return green.New(green.CallExpr, children...)
	case token.LParen:
		lparen := p.advance()
		inner := p.parseExpression()
		rparen := p.expect(token.RParen)

		return green.New(green.GroupingExpr, tokElem(lparen), childElem(inner), tokElem(rparen))
	case token.LBrace:
		return p.parseBlockExpr()
	case token.KeywordIf:
		return p.parseIfExpr()
	case token.KeywordWhile:
		return p.parseWhileExpr()
	default:
		return p.recover(green.UnexpectedExpr, "expected an expression")
	}
}

func (p *Parser) parseIfExpr() *green.Node {
	children := []green.Element{
		tokElem(p.advance()), // 'if'
		tokElem(p.expect(token.LParen)),
		childElem(p.parseExpression()),
		tokElem(p.expect(token.RParen)),
		childElem(p.parseBlockExpr()),
	}

	if p.at(token.KeywordElse) {
		children = append(children, tokElem(p.advance()))

		if p.at(token.KeywordIf) {
			children = append(children, childElem(p.parseIfExpr()))
		} else {
			children = append(children, childElem(p.parseBlockExpr()))
		}
	}

	return green.New(green.IfExpr, children...)
}

func (p *Parser) parseWhileExpr() *green.Node {
	children := []green.Element{
		tokElem(p.advance()), // 'while'
		tokElem(p.expect(token.LParen)),
		childElem(p.parseExpression()),
		tokElem(p.expect(token.RParen)),
		childElem(p.parseBlockExpr()),
	}

	return green.New(green.WhileExpr, children...)
}
