// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package red implements the lazy, position-aware façade over a green
// tree: red.Node adds an absolute FullPosition and a parent back-link,
// materializing children on first access. Red nodes are not shared across
// parents even when the underlying green node is (two positions under two
// parents are always distinct red.Node values), which is what makes
// structural sharing of the green tree safe.
package red

import (
	"sync/atomic"
	"unicode/utf8"

	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/token"
)

// Node wraps a green.Node with position and parentage. The zero value is
// not usable; build one with NewRoot.
type Node struct {
	greenNode     *green.Node
	parent        *Node
	indexInParent int
	// fullPos is the position of the start of this node's full span,
	// i.e. including its own leading trivia.
	fullPos source.Pos

	children atomic.Pointer[[]Element]
}

// Element is one materialized child: either a child red.Node or a
// position-carrying Token.
type Element struct {
	Node  *Node
	Token *Token
}

// Token is a green token plus the absolute position of its full span.
type Token struct {
	Token   token.Token
	fullPos source.Pos
}

// FullPosition is the token's position including leading trivia.
func (t Token) FullPosition() source.Pos {
	return t.fullPos
}

// Position is the token's visible position, i.e. past its leading trivia.
func (t Token) Position() source.Pos {
	p := t.fullPos
	for _, tr := range t.Token.Leading {
		p = advanceText(p, tr.Text)
	}

	return p
}

// Span returns the token's visible [Position, Position+width) span,
// excluding trivia.
func (t Token) Span() source.Span {
	begin := t.Position()
	return source.Span{Begin: begin, End: advanceText(begin, t.Token.Text)}
}

// NewRoot creates the red root of a green tree parsed from the named file.
func NewRoot(file string, g *green.Node) *Node {
	return &Node{
		greenNode: g,
		fullPos:   source.Pos{File: file, Offset: 0, Line: 1, Col: 1},
	}
}

// Green returns the wrapped green node. red.green is stable for the
// lifetime of the red.Node.
func (n *Node) Green() *green.Node {
	return n.greenNode
}

// IndexInParent is this node's slot index within Parent().Green().Children,
// or -1 at the root.
func (n *Node) IndexInParent() int {
	if n.parent == nil {
		return -1
	}

	return n.indexInParent
}

// Parent returns the parent red node, or nil at the root. Walking
// Parent* always terminates at the root since the red tree, unlike the
// green tree, is never cyclic: each red.Node has exactly one parent,
// discovered by construction rather than a raw back-pointer into shared
// structure.
func (n *Node) Parent() *Node {
	return n.parent
}

// FullPosition is this node's position including its own leading trivia.
func (n *Node) FullPosition() source.Pos {
	return n.fullPos
}

// Position is this node's visible position, past any leading trivia held
// by its first token.
func (n *Node) Position() source.Pos {
	p := n.fullPos

	for _, c := range n.Children() {
		switch {
		case c.Token != nil:
			return c.Token.Position()
		case c.Node != nil:
			return c.Node.Position()
		}
	}

	return p
}

// Span is this node's visible [Position, Position+width) span.
func (n *Node) Span() source.Span {
	begin := n.Position()
	end := advanceText(n.fullPos, n.greenNode.Text())

	return source.Span{Begin: begin, End: end}
}

// Kind is a shorthand for Green().Kind.
func (n *Node) Kind() green.Kind {
	return n.greenNode.Kind
}

// Children materializes (on first call) and returns this node's children
// as red Elements. Materialization is at-most-once: concurrent callers
// race to publish via a single compare-and-swap, and a losing racer's
// freshly built slice is simply discarded in favor of whichever slice won,
// so every caller observes identical Element references thereafter.
func (n *Node) Children() []Element {
	if p := n.children.Load(); p != nil {
		return *p
	}

	built := n.materialize()

	for {
		if n.children.CompareAndSwap(nil, &built) {
			return built
		}

		if p := n.children.Load(); p != nil {
			return *p
		}
	}
}

func (n *Node) materialize() []Element {
	out := make([]Element, len(n.greenNode.Children))
	pos := n.fullPos

	for i, c := range n.greenNode.Children {
		switch {
		case c.Node != nil:
			out[i] = Element{Node: &Node{
				greenNode:     c.Node,
				parent:        n,
				indexInParent: i,
				fullPos:       pos,
			}}
		case c.Token != nil:
			out[i] = Element{Token: &Token{Token: *c.Token, fullPos: pos}}
		}

		pos = advanceText(pos, c.FullText())
	}

	return out
}

// advanceText advances pos past the literal text s, updating Line/Col for
// any newlines found (the same \n / \r\n / \r folding rule the lexer
// uses). Columns count runes, offsets count bytes.
func advanceText(pos source.Pos, s string) source.Pos {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])

		switch r {
		case '\n':
			pos.Line++
			pos.Col = 1
		case '\r':
			pos.Line++
			pos.Col = 1

			if i+size < len(s) && s[i+size] == '\n' {
				size++
			}
		default:
			pos.Col++
		}

		pos.Offset += size
		i += size
	}

	return pos
}
