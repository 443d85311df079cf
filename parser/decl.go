// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/token"
)

// declContext tells parseDeclaration which declaration forms are legal
// here: module declarations are only legal at declContextGlobal, and
// label declarations only at declContextLocal (inside a function body).
type declContext int

const (
	declContextGlobal declContext = iota
	declContextLocal
)

func (p *Parser) parseCompilationUnit() *green.Node {
	var children []green.Element

	for !p.at(token.EndOfInput) {
		children = append(children, childElem(p.parseDeclaration(declContextGlobal)))
	}

	children = append(children, tokElem(p.advance())) // the EndOfInput sentinel

	return green.New(green.CompilationUnit, children...)
}

// parseDeclaration parses an optional visibility
// modifier, then dispatch on the next token.
func (p *Parser) parseDeclaration(ctx declContext) *green.Node {
	var prefix []green.Element

	if p.at(token.KeywordInternal) || p.at(token.KeywordPublic) {
		prefix = append(prefix, tokElem(p.advance()))
	}

	switch p.current().Kind {
	case token.KeywordImport:
		return p.parseImport(prefix)
	case token.KeywordFunc:
		return p.parseFunction(prefix)
	case token.KeywordModule:
		return p.parseModule(prefix, ctx)
	case token.KeywordVar, token.KeywordVal:
		return p.parseVariable(prefix)
	case token.Identifier:
		if p.peekAt(1).Kind == token.Colon {
			return p.parseLabel(prefix, ctx)
		}
	}

	return p.recoverWithPrefix(green.UnexpectedDecl, "expected a declaration", prefix...)
}

func (p *Parser) parseImport(prefix []green.Element) *green.Node {
	children := append(prefix, tokElem(p.advance())) // 'import'
	children = append(children, childElem(p.parseQualifiedName()))
	children = append(children, tokElem(p.expect(token.Semicolon)))

	return green.New(green.ImportDecl, children...)
}

func (p *Parser) parseQualifiedName() *green.Node {
	children := []green.Element{tokElem(p.expect(token.Identifier))}

	for p.at(token.Dot) {
		children = append(children, tokElem(p.advance()))
		children = append(children, tokElem(p.expect(token.Identifier)))
	}

	return green.New(green.QualifiedName, children...)
}

func (p *Parser) parseFunction(prefix []green.Element) *green.Node {
	children := append(prefix, tokElem(p.advance())) // 'func'
	children = append(children, tokElem(p.expect(token.Identifier)))

	if p.at(token.Less) {
		children = append(children, childElem(p.parseTypeParameterList()))
	}

	children = append(children, tokElem(p.expect(token.LParen)))
	children = append(children, childElem(p.parseParameterList()))
	children = append(children, tokElem(p.expect(token.RParen)))

	if p.at(token.Colon) {
		children = append(children, tokElem(p.advance()))
		children = append(children, childElem(p.parseType()))
	}

	switch {
	case p.at(token.Assign):
		children = append(children, tokElem(p.advance()))
		children = append(children, childElem(p.parseExpression()))
		children = append(children, tokElem(p.expect(token.Semicolon)))
	case p.at(token.LBrace):
		children = append(children, childElem(p.parseBlockExpr()))
	default:
		p.errorf(diagnostics.ExpectedToken, "expected '=' or '{' to begin function body, found %s", p.current().Kind)
	}

	return green.New(green.FunctionDecl, children...)
}

func (p *Parser) parseParameterList() *green.Node {
	var children []green.Element

	for !p.at(token.RParen) && !p.at(token.EndOfInput) {
		children = append(children, childElem(p.parseParameter()))

		if p.at(token.Comma) {
			children = append(children, tokElem(p.advance()))
		} else {
			break
		}
	}

	return green.New(green.ParameterList, children...)
}

func (p *Parser) parseParameter() *green.Node {
	children := []green.Element{
		tokElem(p.expect(token.Identifier)),
		tokElem(p.expect(token.Colon)),
		childElem(p.parseType()),
	}

	if p.at(token.Ellipsis) {
		children = append(children, tokElem(p.advance()))
	}

	return green.New(green.Parameter, children...)
}

func (p *Parser) parseTypeParameterList() *green.Node {
	children := []green.Element{tokElem(p.expect(token.Less))}

	for !p.at(token.Greater) && !p.at(token.EndOfInput) {
		children = append(children, tokElem(p.expect(token.Identifier)))

		if p.at(token.Comma) {
			children = append(children, tokElem(p.advance()))
		} else {
			break
		}
	}

	children = append(children, tokElem(p.expect(token.Greater)))

	return green.New(green.TypeParameterList, children...)
}

func (p *Parser) parseModule(prefix []green.Element, ctx declContext) *green.Node {
	children := append(prefix, tokElem(p.advance())) // 'module'
	children = append(children, tokElem(p.expect(token.Identifier)))
	children = append(children, tokElem(p.expect(token.LBrace)))

	for !p.at(token.RBrace) && !p.at(token.EndOfInput) {
		children = append(children, childElem(p.parseDeclaration(declContextGlobal)))
	}

	children = append(children, tokElem(p.expect(token.RBrace)))

	node := green.New(green.ModuleDecl, children...)

	if ctx != declContextGlobal {
		p.errorf(diagnostics.ModuleInLocalContext, "a module declaration is not allowed here")
		return green.NewWithDiagnostics(green.UnexpectedDecl, []green.NodeDiagnostic{{
			Code:    string(diagnostics.ModuleInLocalContext),
			Message: "a module declaration is not allowed here",
		}}, childElem(node))
	}

	return node
}

func (p *Parser) parseVariable(prefix []green.Element) *green.Node {
	children := append(prefix, tokElem(p.advance())) // 'var' or 'val'
	children = append(children, tokElem(p.expect(token.Identifier)))

	if p.at(token.Colon) {
		children = append(children, tokElem(p.advance()))
		children = append(children, childElem(p.parseType()))
	}

	if p.at(token.Assign) {
		children = append(children, tokElem(p.advance()))
		children = append(children, childElem(p.parseExpression()))
	}

	children = append(children, tokElem(p.expect(token.Semicolon)))

	return green.New(green.VariableDecl, children...)
}

func (p *Parser) parseLabel(prefix []green.Element, ctx declContext) *green.Node {
	children := append(prefix, tokElem(p.advance())) // identifier
	children = append(children, tokElem(p.advance())) // ':'

	node := green.New(green.LabelDecl, children...)

	if ctx != declContextLocal {
		p.errorf(diagnostics.LabelOutsideLocalContext, "a label is only allowed inside a function body")
		return green.NewWithDiagnostics(green.UnexpectedDecl, []green.NodeDiagnostic{{
			Code:    string(diagnostics.LabelOutsideLocalContext),
			Message: "a label is only allowed inside a function body",
		}}, childElem(node))
	}

	return node
}
