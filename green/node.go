// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package green

import "github.com/lucyelle/DracoCompiler/token"

// Element is one child slot of a Node: either a terminal Token or another
// Node, never both. The zero Element is an absent/omitted child (used
// sparingly, e.g. an if-expression with no else).
type Element struct {
	Node  *Node
	Token *token.Token
}

// IsAbsent reports whether this Element slot is empty.
func (e Element) IsAbsent() bool {
	return e.Node == nil && e.Token == nil
}

// FullText returns the element's exact source text including trivia.
func (e Element) FullText() string {
	switch {
	case e.Node != nil:
		return e.Node.Text()
	case e.Token != nil:
		return e.Token.FullText()
	default:
		return ""
	}
}

// FullWidth returns the element's width including its trivia.
func (e Element) FullWidth() int {
	switch {
	case e.Node != nil:
		return e.Node.FullWidth
	case e.Token != nil:
		return e.Token.FullWidth()
	default:
		return 0
	}
}

func fromNode(n *Node) Element {
	if n == nil {
		return Element{}
	}

	return Element{Node: n}
}

func fromToken(t token.Token) Element {
	return Element{Token: &t}
}

// Node is an immutable green-tree node: a Kind tag, its ordered Children,
// and the diagnostics raised specifically against this node (not its
// descendants). FullWidth is computed once, bottom-up, at construction
// time, since green nodes never mutate after they are built.
type Node struct {
	Kind      Kind
	Children  []Element
	FullWidth int

	// Diagnostics attached directly to this node (e.g. an ExpectedToken
	// diagnostic on a missing token, or an UnexpectedInput diagnostic on
	// an Unexpected* wrapper). Descendant diagnostics are not duplicated
	// here; a full-tree diagnostic walk recurses into Children.
	Diagnostics []NodeDiagnostic
}

// NodeDiagnostic pairs a diagnostic code/message with an offset (relative
// to this node's own start) so it can be resolved to an absolute source
// span once a red node gives this green node a position.
type NodeDiagnostic struct {
	Code      string
	Message   string
	Offset    int
	Width     int
	Severity  int
}

// New builds a Node from its ordered children, computing FullWidth as the
// sum of the children's widths.
func New(kind Kind, children ...Element) *Node {
	n := &Node{Kind: kind, Children: children}

	for _, c := range children {
		n.FullWidth += c.FullWidth()
	}

	return n
}

// NewWithDiagnostics is New plus node-local diagnostics (used by the
// parser when synthesizing Unexpected* nodes or missing tokens).
func NewWithDiagnostics(kind Kind, diags []NodeDiagnostic, children ...Element) *Node {
	n := New(kind, children...)
	n.Diagnostics = diags

	return n
}

// Token wraps a single token as a one-child-less leaf Element; convenience
// for parser call sites that only need to pass a bare token.
func Token(t token.Token) Element {
	return fromToken(t)
}

// Child wraps a child Node as an Element.
func Child(n *Node) Element {
	return fromNode(n)
}

// ChildTokens returns every token directly held by this node's Children
// (not recursing into child Nodes); used for panic-mode Unexpected* nodes
// whose entire content is a token run.
func (n *Node) ChildTokens() []token.Token {
	var out []token.Token

	for _, c := range n.Children {
		if c.Token != nil {
			out = append(out, *c.Token)
		}
	}

	return out
}

// Text reconstructs this node's exact source text (trivia included),
// recursively. Parse(s).Text() == s is the round-trip invariant every
// parse result must satisfy.
func (n *Node) Text() string {
	buf := make([]byte, 0, n.FullWidth)

	for _, c := range n.Children {
		switch {
		case c.Node != nil:
			buf = append(buf, c.Node.Text()...)
		case c.Token != nil:
			buf = append(buf, c.Token.FullText()...)
		}
	}

	return string(buf)
}

// Walk visits n and every descendant, depth-first, pre-order.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}

	visit(n)

	for _, c := range n.Children {
		if c.Node != nil {
			Walk(c.Node, visit)
		}
	}
}
