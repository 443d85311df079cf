// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package red

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/parser"
)

func parseRoot(t *testing.T, src string) *Node {
	t.Helper()

	bag := diagnostics.NewBag()
	g := parser.Parse("test.draco", src, bag)
	require.Equal(t, src, g.Text())

	return NewRoot("test.draco", g)
}

func TestRootPosition(t *testing.T) {
	root := parseRoot(t, "func main() {}")

	assert.Equal(t, 0, root.FullPosition().Offset)
	assert.Equal(t, 1, root.FullPosition().Line)
	assert.Equal(t, 1, root.FullPosition().Col)
	assert.Nil(t, root.Parent())
	assert.Equal(t, -1, root.IndexInParent())
}

// Child full positions must equal the parent's full position plus the
// widths of all preceding siblings.
func TestChildPositionsAreConsistent(t *testing.T) {
	root := parseRoot(t, "func main() { var x = 1; }\nfunc other() {}\n")

	var check func(n *Node)
	check = func(n *Node) {
		offset := n.FullPosition().Offset

		for _, c := range n.Children() {
			switch {
			case c.Node != nil:
				require.Equal(t, offset, c.Node.FullPosition().Offset)
				require.Same(t, n, c.Node.Parent())
				check(c.Node)
				offset += c.Node.Green().FullWidth
			case c.Token != nil:
				require.Equal(t, offset, c.Token.FullPosition().Offset)
				offset += c.Token.Token.FullWidth()
			}
		}
	}

	check(root)
}

func TestGreenIsStable(t *testing.T) {
	root := parseRoot(t, "func main() {}")

	g1 := root.Green()
	_ = root.Children()
	g2 := root.Green()

	assert.Same(t, g1, g2)
}

// Children must materialize at most once: every caller, however
// concurrent, observes the identical Element slice.
func TestChildrenMaterializeOnce(t *testing.T) {
	root := parseRoot(t, "func main() { var x = 1; }")

	const n = 16

	var wg sync.WaitGroup
	results := make([][]Element, n)

	for i := 0; i < n; i++ {
		i := i

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = root.Children()
		}()
	}

	wg.Wait()

	first := results[0]
	require.NotEmpty(t, first)

	for _, r := range results[1:] {
		require.Len(t, r, len(first))

		for j := range r {
			assert.Same(t, first[j].Node, r[j].Node)
			assert.Same(t, first[j].Token, r[j].Token)
		}
	}
}

// Equal green sub-trees under different parents produce distinct red
// nodes with their own positions.
func TestSharedGreenDistinctRed(t *testing.T) {
	src := "func a() {}\nfunc b() {}\n"
	root := parseRoot(t, src)

	var fns []*Node

	for _, c := range root.Children() {
		if c.Node != nil && c.Node.Kind() == green.FunctionDecl {
			fns = append(fns, c.Node)
		}
	}

	require.Len(t, fns, 2)
	assert.NotSame(t, fns[0], fns[1])
	assert.NotEqual(t, fns[0].FullPosition().Offset, fns[1].FullPosition().Offset)
}

func TestSpanExcludesTrivia(t *testing.T) {
	root := parseRoot(t, "  func main() {}")

	fn := root.Children()[0].Node
	require.NotNil(t, fn)

	assert.Equal(t, 0, fn.FullPosition().Offset)
	assert.Equal(t, 2, fn.Position().Offset)
	assert.Equal(t, 3, fn.Position().Col)
}
