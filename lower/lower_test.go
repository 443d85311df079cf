// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyelle/DracoCompiler/binder"
	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/ir"
	"github.com/lucyelle/DracoCompiler/metadata"
	"github.com/lucyelle/DracoCompiler/parser"
	"github.com/lucyelle/DracoCompiler/red"
)

func lowerSource(t *testing.T, src string) (*ir.Module, *diagnostics.Bag) {
	t.Helper()

	bag := diagnostics.NewBag()
	g := parser.Parse("test.draco", src, bag)
	require.Equal(t, src, g.Text())

	b := binder.New(bag, nil)
	unit := b.Bind(red.NewRoot("test.draco", g))
	b.Solve()

	return Lower(unit, bag), bag
}

func procNamed(t *testing.T, m *ir.Module, name string) *ir.Procedure {
	t.Helper()

	for _, p := range m.Procedures {
		if p.Name == name {
			return p
		}
	}

	t.Fatalf("no procedure named %q", name)

	return nil
}

func opIndices(p *ir.Procedure, op ir.Op) []int {
	var out []int
	i := 0

	for _, b := range p.Blocks {
		for _, instr := range b.Instructions {
			if instr.Op == op {
				out = append(out, i)
			}

			i++
		}
	}

	return out
}

// Every block must end in exactly one branch, with no branch anywhere
// before the end.
func assertWellFormed(t *testing.T, p *ir.Procedure) {
	t.Helper()

	for _, b := range p.Blocks {
		require.NotEmpty(t, b.Instructions, "bb%d is empty", b.Index)

		for i, instr := range b.Instructions {
			if i == len(b.Instructions)-1 {
				require.True(t, instr.Op.IsBranch(), "bb%d does not end in a branch", b.Index)
			} else {
				require.False(t, instr.Op.IsBranch(), "bb%d has a branch mid-block", b.Index)
			}
		}
	}
}

func TestArithmeticOrdering(t *testing.T) {
	m, bag := lowerSource(t, "func main() { var x: int32 = 1 + 2 * 3; }")

	assert.Zero(t, bag.Len())

	main := procNamed(t, m, "main")
	assertWellFormed(t, main)
	require.Len(t, main.Blocks, 1)

	muls := opIndices(main, ir.Mul)
	adds := opIndices(main, ir.Add)
	require.Len(t, muls, 1)
	require.Len(t, adds, 1)
	assert.Less(t, muls[0], adds[0], "the multiplication must be emitted before the addition")

	stores := opIndices(main, ir.Store)
	require.Len(t, stores, 1)
	require.Len(t, main.Locals, 1)
	assert.Equal(t, "x", main.Locals[0].Name)
}

func TestModLowersToEuclideanForm(t *testing.T) {
	m, _ := lowerSource(t, "func main() { var a: int32 = 7 mod 3; }")

	main := procNamed(t, m, "main")

	rems := opIndices(main, ir.Rem)
	adds := opIndices(main, ir.Add)
	require.Len(t, rems, 2, "mod lowers to (a rem b + b) rem b")
	require.Len(t, adds, 1)
	assert.Less(t, rems[0], adds[0])
	assert.Less(t, adds[0], rems[1])
}

func TestRemStaysSingleInstruction(t *testing.T) {
	m, _ := lowerSource(t, "func main() { var a: int32 = 7 rem 3; }")

	main := procNamed(t, m, "main")

	assert.Len(t, opIndices(main, ir.Rem), 1)
	assert.Empty(t, opIndices(main, ir.Add))
}

func TestGotoAndLabel(t *testing.T) {
	src := "func main() {\n    goto end;\n    var x: int32 = 1;\n    end:\n}"

	m, bag := lowerSource(t, src)

	main := procNamed(t, m, "main")
	assertWellFormed(t, main)
	require.Len(t, main.Blocks, 2)

	entry := main.Entry()
	term := entry.Terminator()
	require.NotNil(t, term)
	assert.Equal(t, ir.Jump, term.Op)
	assert.Same(t, main.Blocks[1], term.Then)

	// The statement between the goto and the label never executes.
	warnings := 0
	for _, d := range bag.All() {
		if d.Code == diagnostics.UnreachableCode {
			warnings++
		}
	}

	assert.Equal(t, 1, warnings)
}

func TestReturnDetaches(t *testing.T) {
	m, _ := lowerSource(t, "func f(): int32 { return 42; }")

	f := procNamed(t, m, "f")
	assertWellFormed(t, f)
	require.Len(t, f.Blocks, 1)

	term := f.Entry().Terminator()
	require.Equal(t, ir.Ret, term.Op)
	require.Len(t, term.Operands, 1)
}

func TestNotAllPathsReturn(t *testing.T) {
	_, bag := lowerSource(t, "func f(): int32 { var x: int32 = 1; }")

	found := false
	for _, d := range bag.All() {
		if d.Code == diagnostics.NotAllPathsReturn {
			found = true
		}
	}

	assert.True(t, found)
}

func TestIfElseAsValue(t *testing.T) {
	src := "func choose(c: bool, a: int32, b: int32): int32 {\n" +
		"    return if (c) { a; } else { b; };\n}"

	m, bag := lowerSource(t, src)

	assert.Zero(t, bag.Len())

	p := procNamed(t, m, "choose")
	assertWellFormed(t, p)

	branches := opIndices(p, ir.Branch)
	require.Len(t, branches, 1)

	// Both arms store into the join temporary.
	assert.Len(t, opIndices(p, ir.Store), 2)
	require.GreaterOrEqual(t, len(p.Blocks), 4)
}

func TestWhileLoop(t *testing.T) {
	src := "func count(n: int32) {\n" +
		"    var i: int32 = 0;\n" +
		"    while (i < n) { i += 1; }\n}"

	m, bag := lowerSource(t, src)

	assert.Zero(t, bag.Len())

	p := procNamed(t, m, "count")
	assertWellFormed(t, p)

	require.Len(t, opIndices(p, ir.Branch), 1)
	require.Len(t, opIndices(p, ir.Less), 1)
	assert.NotEmpty(t, opIndices(p, ir.Add))
}

func TestShortCircuitAndLowersToBranches(t *testing.T) {
	src := "func g() {}\nfunc f(a: bool, b: bool) { if (a and b) { g(); } }"

	m, _ := lowerSource(t, src)

	p := procNamed(t, m, "f")
	assertWellFormed(t, p)

	// Two branches: one per operand of `and`; no boolean arithmetic.
	assert.Len(t, opIndices(p, ir.Branch), 2)
}

func TestGreaterEqualRewrites(t *testing.T) {
	m, _ := lowerSource(t, "func f(a: int32, b: int32) { var r: bool = a >= b; }")

	p := procNamed(t, m, "f")

	// a >= b becomes equal(less(a, b), false).
	require.Len(t, opIndices(p, ir.Less), 1)
	require.Len(t, opIndices(p, ir.Equal), 1)
	assert.Less(t, opIndices(p, ir.Less)[0], opIndices(p, ir.Equal)[0])
}

func TestCompoundAssignmentLoadsOnce(t *testing.T) {
	m, _ := lowerSource(t, "func f() { var x: int32 = 1; x += 2; }")

	p := procNamed(t, m, "f")

	// One store for the initializer, one load + add + store for `+=`.
	assert.Len(t, opIndices(p, ir.Load), 1)
	assert.Len(t, opIndices(p, ir.Store), 2)
	assert.Len(t, opIndices(p, ir.Add), 1)
}

func TestCallsCompileCalleeOnce(t *testing.T) {
	src := "func helper(): int32 = 1;\nfunc main() { helper(); helper(); }"

	m, bag := lowerSource(t, src)

	assert.Zero(t, bag.Len())
	require.Len(t, m.Procedures, 2)

	main := procNamed(t, m, "main")
	assert.Len(t, opIndices(main, ir.Call), 2)
}

func TestGlobalsAndModuleInit(t *testing.T) {
	src := "var g: int32 = 41;\nfunc main() { g; }"

	m, bag := lowerSource(t, src)

	assert.Zero(t, bag.Len())
	require.Len(t, m.Globals, 1)
	assert.Equal(t, "g", m.Globals[0].Name)

	initProc := procNamed(t, m, ".init")
	assert.NotEmpty(t, opIndices(initProc, ir.Store))
}

func TestBlockEmitsScopesAndSequencePoints(t *testing.T) {
	m, _ := lowerSource(t, "func main() { var x: int32 = 1; }")

	main := procNamed(t, m, "main")

	require.Len(t, opIndices(main, ir.StartScope), 1)
	require.Len(t, opIndices(main, ir.EndScope), 1)
	require.Len(t, opIndices(main, ir.SequencePoint), 1)

	starts := opIndices(main, ir.StartScope)
	seqs := opIndices(main, ir.SequencePoint)
	ends := opIndices(main, ir.EndScope)
	assert.Less(t, starts[0], seqs[0])
	assert.Less(t, seqs[0], ends[0])
}

func TestObjectAndArrayLowering(t *testing.T) {
	manifest := `assembly "corelib" { type Vector { field X: Float64 } }`

	provider, err := metadata.ParseManifest(manifest)
	require.NoError(t, err)

	src := "func make(): Vector = new Vector();\n" +
		"func get(v: Vector): float64 = v.X;\n" +
		"func total(xs: int32...): int32 = xs.Length;"

	bag := diagnostics.NewBag()
	g := parser.Parse("test.draco", src, bag)
	require.Equal(t, src, g.Text())

	b := binder.New(bag, provider)
	b.AddReference("corelib")
	unit := b.Bind(red.NewRoot("test.draco", g))
	b.Solve()

	m := Lower(unit, bag)

	assert.Zero(t, bag.Len())
	assert.NotEmpty(t, opIndices(procNamed(t, m, "make"), ir.NewObject))
	assert.NotEmpty(t, opIndices(procNamed(t, m, "get"), ir.LoadField))
	assert.NotEmpty(t, opIndices(procNamed(t, m, "total"), ir.ArrayLength))
}

func TestStringInterpolationConcatenates(t *testing.T) {
	src := "func f(x: string): string {\n    return \"a\\{x}b\";\n}"

	m, bag := lowerSource(t, src)

	assert.Zero(t, bag.Len())

	p := procNamed(t, m, "f")

	// Three pieces fold through two concat calls.
	assert.Len(t, opIndices(p, ir.Call), 2)
}
