// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"strings"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/token"
)

// parseStringExpr consumes a full string literal: the StringStart token, a
// run of content/newline/interpolation parts, and the StringEnd token. A
// maximal run of StringContent/StringNewline tokens between interpolations
// (or between StringStart/StringEnd and the nearest interpolation) is
// wrapped as one StringTextPart. For multi-line strings this also runs the
// indentation check against the flat token stream, since the check
// needs to see line boundaries regardless of how they're grouped in the
// tree.
func (p *Parser) parseStringExpr() *green.Node {
	start := p.expect(token.StringStart)
	children := []green.Element{tokElem(start)}

	var flat []token.Token
	flat = append(flat, start)

	var textRun []green.Element

	flushText := func() {
		if len(textRun) > 0 {
			children = append(children, childElem(green.New(green.StringTextPart, textRun...)))
			textRun = nil
		}
	}

loop:
	for {
		switch p.current().Kind {
		case token.StringContent, token.StringNewline:
			tok := p.advance()
			textRun = append(textRun, tokElem(tok))
			flat = append(flat, tok)
		case token.StringInterpolationStart:
			flushText()
			part, interpToks := p.parseInterpolationPart()
			children = append(children, childElem(part))
			flat = append(flat, interpToks...)
		case token.StringEnd, token.EndOfInput:
			break loop
		default:
			// Shouldn't happen: the lexer only ever emits the kinds above
			// while in string mode. Recover defensively rather than loop.
			break loop
		}
	}

	flushText()

	end := p.expect(token.StringEnd)
	children = append(children, tokElem(end))
	flat = append(flat, end)

	node := green.New(green.StringExpr, children...)

	if isMultilineDelimiter(start.Text) {
		node.Diagnostics = append(node.Diagnostics, checkMultilineString(flat, end)...)
	}

	return node
}

// parseInterpolationPart parses one `\{ expr }` part and also returns its
// delimiter tokens so the caller can fold them into the flat token stream
// used by the indentation check (an interpolation occupies space on its
// line but its contents are not checked for indentation).
func (p *Parser) parseInterpolationPart() (*green.Node, []token.Token) {
	start := p.advance() // StringInterpolationStart
	expr := p.parseExpression()
	end := p.expect(token.StringInterpolationEnd)

	return green.New(green.StringInterpolationPart, tokElem(start), childElem(expr), tokElem(end)),
		[]token.Token{start, end}
}

func isMultilineDelimiter(text string) bool {
	return strings.Contains(text, `"""`)
}

// checkMultilineString runs the multi-line indentation check
// over the flat StringStart/StringContent/StringNewline/.../StringEnd
// token sequence: the whitespace run immediately preceding the closing
// delimiter (captured by the lexer as StringEnd's Leading trivia) defines
// a required prefix that every textual line of the string must start
// with; interpolation parts are ignored and empty lines are exempt. It
// also flags a closing delimiter that shares its line with content, and
// content immediately following the opening delimiter on the same line.
func checkMultilineString(flat []token.Token, end token.Token) []green.NodeDiagnostic {
	var diags []green.NodeDiagnostic

	prefix := leadingWhitespaceText(end)

	offset := 0
	lineOffset := 0
	var firstContentOnLine string
	haveContentOnLine := false
	onlyWhitespaceSinceLineStart := true

	flushLine := func() {
		if haveContentOnLine && !strings.HasPrefix(firstContentOnLine, prefix) {
			diags = append(diags, green.NodeDiagnostic{
				Code:     string(diagnostics.InsufficientIndentationInMultiLineString),
				Message:  "this line does not match the closing delimiter's indentation",
				Offset:   lineOffset,
				Severity: int(diagnostics.Error),
			})
		}
	}

	firstLineHasContent := false
	sawFirstNewline := false

	for _, t := range flat {
		switch t.Kind {
		case token.StringStart:
			// part of the previous token's own width; nothing to do.
		case token.StringNewline:
			flushLine()
			offset += t.FullWidth()
			lineOffset = offset
			firstContentOnLine = ""
			haveContentOnLine = false
			onlyWhitespaceSinceLineStart = true
			sawFirstNewline = true
			continue
		case token.StringContent:
			if !sawFirstNewline && strings.TrimSpace(t.Text) != "" {
				firstLineHasContent = true
			}

			if !haveContentOnLine {
				firstContentOnLine = t.Text
				haveContentOnLine = true
			}

			if strings.TrimSpace(t.Text) != "" {
				onlyWhitespaceSinceLineStart = false
			}
		case token.StringEnd:
			flushLine()

			if !onlyWhitespaceSinceLineStart {
				diags = append(diags, green.NodeDiagnostic{
					Code:     string(diagnostics.ClosingQuotesOfMultiLineStringNotOnNewLine),
					Message:  "the closing delimiter of a multi-line string must be on its own line",
					Offset:   lineOffset,
					Severity: int(diagnostics.Error),
				})
			}
		default:
			// Interpolation delimiters: ignored by the indentation check,
			// but they do count as "content" for the on-its-own-line check.
			onlyWhitespaceSinceLineStart = false
		}

		offset += t.FullWidth()
	}

	if firstLineHasContent {
		diags = append(diags, green.NodeDiagnostic{
			Code:     string(diagnostics.ExtraTokensInlineWithOpenQuotesOfMultiString),
			Message:  "no content is allowed on the same line as the opening delimiter",
			Offset:   0,
			Severity: int(diagnostics.Error),
		})
	}

	return diags
}

func leadingWhitespaceText(t token.Token) string {
	var sb strings.Builder
	for _, tr := range t.Leading {
		sb.WriteString(tr.Text)
	}

	return sb.String()
}
