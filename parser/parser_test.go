// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/green"
)

func parse(t *testing.T, src string) (*green.Node, *diagnostics.Bag) {
	t.Helper()

	bag := diagnostics.NewBag()
	root := Parse("test.draco", src, bag)

	require.Equal(t, src, root.Text(), "parse must round-trip the source")

	return root, bag
}

func countKind(root *green.Node, kind green.Kind) int {
	n := 0

	green.Walk(root, func(node *green.Node) {
		if node.Kind == kind {
			n++
		}
	})

	return n
}

func collectDiagnostics(root *green.Node) []green.NodeDiagnostic {
	var out []green.NodeDiagnostic

	green.Walk(root, func(node *green.Node) {
		out = append(out, node.Diagnostics...)
	})

	return out
}

func TestCleanParse(t *testing.T) {
	root, bag := parse(t, "func main() { var x: int32 = 1 + 2 * 3; }")

	assert.Zero(t, bag.Len())
	assert.Equal(t, 1, countKind(root, green.FunctionDecl))
	assert.Equal(t, 1, countKind(root, green.VariableDecl))
	assert.Equal(t, 2, countKind(root, green.BinaryExpr))
}

func TestRoundTripTable(t *testing.T) {
	sources := []string{
		"",
		"import std.io;\n",
		"public func add(a: int32, b: int32): int32 = a + b;",
		"module m { var g: int32; }",
		"func main() {\n    if (x < 1) { y(); } else { z(); }\n}",
		"func main() { while (true()) { step(); } }",
		"func f(xs: int32...) {}",
		"func main() { a.b.c(1, 2)[3] = 4; }",
		"func main() { x += 1; y -= 2; }",
		"func main() { goto done; done: }",
		"func broken() { var = 1; }",
		"func main() { not (a or b); }",
	}

	for _, src := range sources {
		bag := diagnostics.NewBag()
		root := Parse("test.draco", src, bag)
		require.Equal(t, src, root.Text(), "round trip of %q", src)
	}
}

// `f<int32>(5)`: after the `>` the next token is `(`, so the `<` is a
// generic argument list, not the less-than operator.
func TestGenericCallDisambiguation(t *testing.T) {
	root, bag := parse(t, "func main() { f<int32>(5); }")

	assert.Zero(t, bag.Len())
	assert.Equal(t, 1, countKind(root, green.GenericExpr))
	assert.Zero(t, countKind(root, green.RelationalExpr))
}

// `1 < 2 > 3` must parse as one chained relational expression, never as
// a generic instantiation.
func TestRelationalChain(t *testing.T) {
	root, bag := parse(t, "func main() { 1 < 2 > 3; }")

	assert.Zero(t, bag.Len())
	assert.Equal(t, 1, countKind(root, green.RelationalExpr))
	assert.Equal(t, 2, countKind(root, green.RelationalClause))
	assert.Zero(t, countKind(root, green.GenericExpr))
}

// `a < b` where `b` is followed by `;` : the scan hits `;` inside the
// region, so this is the operator.
func TestLoneLessThanIsOperator(t *testing.T) {
	root, bag := parse(t, "func main() { a < b; }")

	assert.Zero(t, bag.Len())
	assert.Equal(t, 1, countKind(root, green.RelationalExpr))
	assert.Zero(t, countKind(root, green.GenericExpr))
}

// `a<b>-c`: generic intent stays primary after a name only when the
// token following `>` is not an expression starter. `-` is one, so this
// reads relationally.
func TestAngleBracketsBeforeExpressionStarter(t *testing.T) {
	root, _ := parse(t, "func main() { a<b>-c; }")

	assert.Zero(t, countKind(root, green.GenericExpr))
	assert.Equal(t, 1, countKind(root, green.RelationalExpr))
}

func TestGenericWithoutCallDefaultsToGenerics(t *testing.T) {
	root, bag := parse(t, "func main() { f<int32>; }")

	assert.Zero(t, bag.Len())
	assert.Equal(t, 1, countKind(root, green.GenericExpr))
}

func TestMissingIdentifierRecovery(t *testing.T) {
	root, bag := parse(t, "func main() { var = 1; }")

	// The variable declaration survives with a zero-width name token.
	assert.Equal(t, 1, countKind(root, green.VariableDecl))
	assert.Equal(t, 1, countKind(root, green.FunctionDecl))

	found := false
	for _, d := range bag.All() {
		if d.Code == diagnostics.ExpectedToken {
			found = true

			// The diagnostic anchors at the token that stood where the
			// identifier should have been.
			assert.Equal(t, 1, d.Span.Begin.Line)
			assert.Equal(t, 19, d.Span.Begin.Col)
		}
	}

	assert.True(t, found, "expected an ExpectedToken diagnostic")
}

func TestModuleInLocalContext(t *testing.T) {
	root, bag := parse(t, "func main() { module m {} }")

	assert.Equal(t, 1, countKind(root, green.UnexpectedDecl))

	found := false
	for _, d := range bag.All() {
		if d.Code == diagnostics.ModuleInLocalContext {
			found = true
		}
	}

	assert.True(t, found)
}

func TestLabelAtGlobalContext(t *testing.T) {
	root, bag := parse(t, "here:\n")

	assert.Equal(t, 1, countKind(root, green.UnexpectedDecl))

	found := false
	for _, d := range bag.All() {
		if d.Code == diagnostics.LabelOutsideLocalContext {
			found = true
		}
	}

	assert.True(t, found)
}

func TestMultiLineStringIndentation(t *testing.T) {
	// Closing prefix is two spaces; "foo" and the deeper-indented "bar"
	// both start with it.
	clean := "val s = \"\"\"\n  foo\n    bar\n  \"\"\";"
	root, _ := parse(t, clean)

	for _, d := range collectDiagnostics(root) {
		assert.NotEqual(t, string(diagnostics.InsufficientIndentationInMultiLineString), d.Code)
	}

	// A line starting with a single space does not start with the prefix.
	bad := "val s = \"\"\"\n  foo\n bar\n  \"\"\";"
	root, _ = parse(t, bad)

	count := 0
	for _, d := range collectDiagnostics(root) {
		if d.Code == string(diagnostics.InsufficientIndentationInMultiLineString) {
			count++
		}
	}

	assert.Equal(t, 1, count)
}

func TestMultiLineStringClosingQuotesOnOwnLine(t *testing.T) {
	src := "val s = \"\"\"\n  foo\"\"\";"
	root, _ := parse(t, src)

	found := false
	for _, d := range collectDiagnostics(root) {
		if d.Code == string(diagnostics.ClosingQuotesOfMultiLineStringNotOnNewLine) {
			found = true
		}
	}

	assert.True(t, found)
}

func TestMultiLineStringContentAfterOpenQuotes(t *testing.T) {
	src := "val s = \"\"\"oops\n  \"\"\";"
	root, _ := parse(t, src)

	found := false
	for _, d := range collectDiagnostics(root) {
		if d.Code == string(diagnostics.ExtraTokensInlineWithOpenQuotesOfMultiString) {
			found = true
		}
	}

	assert.True(t, found)
}

func TestStringInterpolationParses(t *testing.T) {
	root, bag := parse(t, `func main() { val s = "a\{1 + 2}b"; }`)

	assert.Zero(t, bag.Len())
	assert.Equal(t, 1, countKind(root, green.StringExpr))
	assert.Equal(t, 1, countKind(root, green.StringInterpolationPart))
	assert.Equal(t, 2, countKind(root, green.StringTextPart))
}

func TestReturnForms(t *testing.T) {
	root, bag := parse(t, "func f(): int32 { return 1; }\nfunc g() { return; }")

	assert.Zero(t, bag.Len())
	assert.Equal(t, 2, countKind(root, green.ReturnExpr))
}
