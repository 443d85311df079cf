// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/token"
)

// isHardStop reports the synchronization points that always halt panic
// mode regardless of the caller's predicate: a declaration or expression
// starter (so the parser can resume its normal grammar there), a closing
// bracket (so an enclosing construct can still close cleanly), and end of
// input.
func isHardStop(k token.Kind) bool {
	switch k {
	case token.EndOfInput, token.RParen, token.RBrace, token.RBracket:
		return true
	default:
		return k.IsDeclarationStarter() || k.IsExpressionStarter()
	}
}

// synchronize consumes tokens while keepGoing holds for the current kind
// and no hard stop has been reached, returning everything consumed.
func (p *Parser) synchronize(keepGoing func(token.Kind) bool) []token.Token {
	var consumed []token.Token

	for {
		k := p.current().Kind
		if isHardStop(k) || !keepGoing(k) {
			break
		}

		consumed = append(consumed, p.advance())
	}

	return consumed
}

// recover runs panic-mode synchronization and wraps whatever was
// consumed (plus, if nothing was, a single forced token so the parser
// always makes progress) into an Unexpected* green node of kind, with a
// diagnostic attached.
func (p *Parser) recover(kind green.Kind, message string) *green.Node {
	return p.recoverWithPrefix(kind, message)
}

// recoverWithPrefix is recover, except the given elements (already
// consumed by the caller before it gave up, e.g. a visibility modifier
// that turned out not to precede any known declaration form) are kept as
// the leading children of the resulting Unexpected* node instead of
// being dropped from the tree.
func (p *Parser) recoverWithPrefix(kind green.Kind, message string, prefix ...green.Element) *green.Node {
	toks := p.synchronize(func(token.Kind) bool { return true })

	if len(prefix) == 0 && len(toks) == 0 && p.current().Kind != token.EndOfInput {
		toks = append(toks, p.advance())
	}

	children := make([]green.Element, 0, len(prefix)+len(toks))
	children = append(children, prefix...)

	for _, t := range toks {
		children = append(children, tokElem(t))
	}

	p.errorf(diagnostics.UnexpectedInput, "%s", message)

	return green.NewWithDiagnostics(kind, []green.NodeDiagnostic{{
		Code:    string(diagnostics.UnexpectedInput),
		Message: message,
	}}, children...)
}
