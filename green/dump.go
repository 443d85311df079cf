// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package green

import (
	"fmt"
	"strings"
)

// Dump renders the tree structure for debugging: one line per node or
// token, indented by depth, tokens with their literal text. Trivia is not
// shown; use Text for the byte-exact reconstruction.
func Dump(n *Node) string {
	sb := &strings.Builder{}
	dump(sb, n, 0)

	return sb.String()
}

func dump(sb *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s%s\n", indent, n.Kind)

	for _, c := range n.Children {
		switch {
		case c.Node != nil:
			dump(sb, c.Node, depth+1)
		case c.Token != nil:
			t := c.Token

			if t.Text == "" {
				fmt.Fprintf(sb, "%s  %s (missing)\n", indent, t.Kind)
			} else {
				fmt.Fprintf(sb, "%s  %s %q\n", indent, t.Kind, t.Text)
			}
		}
	}
}
