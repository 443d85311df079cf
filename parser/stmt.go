// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/token"
)

// parseBlockExpr parses a `{ ... }` block: a sequence of statements whose
// value, if any, comes from its last expression statement. Blocks double as
// both an expression (function body, if/while arms) and the statement-list
// container used everywhere a scope is opened.
func (p *Parser) parseBlockExpr() *green.Node {
	children := []green.Element{tokElem(p.expect(token.LBrace))}

	for !p.at(token.RBrace) && !p.at(token.EndOfInput) {
		children = append(children, childElem(p.parseStatement()))
	}

	children = append(children, tokElem(p.expect(token.RBrace)))

	return green.New(green.BlockExpr, children...)
}

func (p *Parser) parseStatement() *green.Node {
	switch p.current().Kind {
	case token.Semicolon:
		return green.New(green.NoOpStatement, tokElem(p.advance()))
	case token.KeywordImport, token.KeywordFunc, token.KeywordModule,
		token.KeywordVar, token.KeywordVal, token.KeywordInternal, token.KeywordPublic:
		return green.New(green.DeclarationStatement, childElem(p.parseDeclaration(declContextLocal)))
	case token.Identifier:
		if p.peekAt(1).Kind == token.Colon {
			return green.New(green.DeclarationStatement, childElem(p.parseDeclaration(declContextLocal)))
		}
	}

	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() *green.Node {
	expr := p.parseExpression()

	// A block-valued expression (if/while/block) may stand alone without a
	// trailing semicolon; only non-brace expressions need one.
	if p.at(token.Semicolon) {
		return green.New(green.ExpressionStatement, childElem(expr), tokElem(p.advance()))
	}

	if exprEndsInBrace(expr) {
		return green.New(green.ExpressionStatement, childElem(expr))
	}

	return green.New(green.ExpressionStatement, childElem(expr), tokElem(p.expect(token.Semicolon)))
}

func exprEndsInBrace(n *green.Node) bool {
	switch n.Kind {
	case green.BlockExpr, green.IfExpr, green.WhileExpr:
		return true
	default:
		return false
	}
}
