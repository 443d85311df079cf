// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package green

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyelle/DracoCompiler/token"
)

func ident(text string, leading, trailing string) token.Token {
	t := token.Token{Kind: token.Identifier, Text: text, Value: text}

	if leading != "" {
		t.Leading = []token.Trivium{{Kind: token.Whitespace, Text: leading}}
	}

	if trailing != "" {
		t.Trailing = []token.Trivium{{Kind: token.Whitespace, Text: trailing}}
	}

	return t
}

func TestFullWidthIsSumOfChildren(t *testing.T) {
	inner := New(NameExpr, Token(ident("x", "", " ")))
	outer := New(GroupingExpr,
		Token(token.Token{Kind: token.LParen, Text: "("}),
		Child(inner),
		Token(token.Token{Kind: token.RParen, Text: ")"}),
	)

	assert.Equal(t, 2, inner.FullWidth)
	assert.Equal(t, 4, outer.FullWidth)
}

func TestTextRoundTrip(t *testing.T) {
	n := New(BinaryExpr,
		Token(ident("a", "", " ")),
		Token(token.Token{Kind: token.Plus, Text: "+", Trailing: []token.Trivium{{Kind: token.Whitespace, Text: " "}}}),
		Token(ident("b", "", "")),
	)

	assert.Equal(t, "a + b", n.Text())
}

func TestMissingTokenIsZeroWidth(t *testing.T) {
	m := token.MissingToken(token.Identifier)

	require.True(t, m.IsMissing())
	assert.Zero(t, m.FullWidth())
	assert.Equal(t, "", m.FullText())
}

func TestWalkVisitsPreOrder(t *testing.T) {
	inner := New(NameExpr, Token(ident("x", "", "")))
	outer := New(GroupingExpr, Child(inner))

	var visited []Kind
	Walk(outer, func(n *Node) { visited = append(visited, n.Kind) })

	assert.Equal(t, []Kind{GroupingExpr, NameExpr}, visited)
}

func TestDump(t *testing.T) {
	n := New(NameExpr, Token(ident("x", "", "")))
	out := Dump(n)

	assert.Contains(t, out, "NameExpr")
	assert.Contains(t, out, `identifier "x"`)
}
