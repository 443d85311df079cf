// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package token

// Token is the atomic unit of the green tree. Position is deliberately
// absent here: a Token is a green-tree leaf and therefore position-free;
// absolute position is reconstructed by the red tree (see package red).
type Token struct {
	Kind Kind
	// Text is the token's exact source text, excluding trivia. For
	// EndOfInput it is empty.
	Text string
	// Value is the decoded literal payload, or nil for tokens that don't
	// carry one. Concretely one of: int64 (IntLiteral), float64
	// (FloatLiteral), rune (CharLiteral), string (StringContent).
	Value any

	Leading  []Trivium
	Trailing []Trivium
}

// TextWidth returns the width of Text alone, in bytes.
func (t Token) TextWidth() int {
	return len(t.Text)
}

// FullWidth is the sum of the leading trivia, the token text, and the
// trailing trivia, in bytes.
func (t Token) FullWidth() int {
	w := len(t.Text)
	for _, tr := range t.Leading {
		w += tr.Width()
	}

	for _, tr := range t.Trailing {
		w += tr.Width()
	}

	return w
}

// FullText reconstructs the token's exact source text, trivia included.
func (t Token) FullText() string {
	buf := make([]byte, 0, t.FullWidth())
	for _, tr := range t.Leading {
		buf = append(buf, tr.Text...)
	}

	buf = append(buf, t.Text...)

	for _, tr := range t.Trailing {
		buf = append(buf, tr.Text...)
	}

	return string(buf)
}

// IsMissing reports whether this is a zero-width token synthesized by the
// parser to stand in for an expected-but-absent token (panic-mode error
// recovery). Such tokens carry no text and no trivia of their own; trivia
// stays attached to the real neighboring tokens.
func (t Token) IsMissing() bool {
	return t.Kind != EndOfInput && t.Text == "" && len(t.Leading) == 0 && len(t.Trailing) == 0
}

// EOF builds the sentinel end-of-input token that always terminates a
// token stream.
func EOF(leading []Trivium) Token {
	return Token{Kind: EndOfInput, Leading: leading}
}

// MissingToken builds a zero-width token of the given kind, standing in
// for an expected token that never appeared in the input.
func MissingToken(kind Kind) Token {
	return Token{Kind: kind}
}
