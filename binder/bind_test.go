// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/metadata"
	"github.com/lucyelle/DracoCompiler/parser"
	"github.com/lucyelle/DracoCompiler/red"
)

func bindSource(t *testing.T, src string) (*CompilationUnit, *diagnostics.Bag) {
	t.Helper()

	bag := diagnostics.NewBag()
	g := parser.Parse("test.draco", src, bag)
	require.Equal(t, src, g.Text())

	b := New(bag, nil)
	unit := b.Bind(red.NewRoot("test.draco", g))
	b.Solve()

	return unit, bag
}

func bindWithManifest(t *testing.T, manifest, src string) (*CompilationUnit, *diagnostics.Bag) {
	t.Helper()

	provider, err := metadata.ParseManifest(manifest)
	require.NoError(t, err)

	bag := diagnostics.NewBag()
	g := parser.Parse("test.draco", src, bag)
	require.Equal(t, src, g.Text())

	b := New(bag, provider)
	for _, name := range provider.AssemblyNames() {
		b.AddReference(name)
	}

	unit := b.Bind(red.NewRoot("test.draco", g))
	b.Solve()

	return unit, bag
}

func errorCount(bag *diagnostics.Bag) int {
	n := 0

	for _, d := range bag.All() {
		if d.Severity == diagnostics.Error {
			n++
		}
	}

	return n
}

func firstFunction(t *testing.T, unit *CompilationUnit) *FunctionDecl {
	t.Helper()

	for _, d := range unit.Declarations {
		if fn, ok := d.(*FunctionDecl); ok {
			return fn
		}
	}

	t.Fatal("no function declaration bound")

	return nil
}

func TestBindVariableWithArithmetic(t *testing.T) {
	unit, bag := bindSource(t, "func main() { var x: int32 = 1 + 2 * 3; }")

	assert.Zero(t, errorCount(bag))

	fn := firstFunction(t, unit)
	block, ok := fn.Body.(*BlockExpr)
	require.True(t, ok)
	require.Len(t, block.Statements, 1)

	ds, ok := block.Statements[0].(*DeclStatement)
	require.True(t, ok)

	vd, ok := ds.Decl.(*VariableDecl)
	require.True(t, ok)
	require.NotNil(t, vd.Type.Resolve())
	assert.Equal(t, "Int32", vd.Type.Resolve().Name)

	// The initializer's operator resolved to the integer overload.
	bin, ok := vd.Init.(*BinaryExpr)
	require.True(t, ok)
	require.NotNil(t, bin.Resolved)
	assert.Equal(t, "operator +", bin.Resolved.Name)
	require.NotNil(t, bin.Type().Resolve())
	assert.Equal(t, "Int32", bin.Type().Resolve().Name)
}

// Mixing int32 and string leaves `+` without a matching overload: one
// diagnostic, the expression poisoned, and no cascade into the enclosing
// function's declared return type.
func TestNoMatchingOperatorOverloadDoesNotCascade(t *testing.T) {
	unit, bag := bindSource(t, `func main() { return 1 + "x"; }`)

	require.Equal(t, 1, errorCount(bag))
	assert.Equal(t, diagnostics.NoMatchingOverload, bag.All()[0].Code)

	fn := firstFunction(t, unit)
	block := fn.Body.(*BlockExpr)
	es := block.Statements[0].(*ExprStatement)
	ret := es.Expr.(*ReturnExpr)

	bin := ret.Value.(*BinaryExpr)
	require.NotNil(t, bin.Type().Resolve())
	assert.Equal(t, "Error", bin.Type().Resolve().Name)
}

func TestGenericCallResolvesWithoutDiagnostics(t *testing.T) {
	_, bag := bindSource(t, "func f<T>(x: T): T = x;\nfunc main() { f<int32>(5); }")

	assert.Zero(t, errorCount(bag))
}

// The concrete argument type flows into a type-parameter return
// position, so the call's result is usable where an int32 is required.
func TestGenericReturnTypeIsInferredFromArgument(t *testing.T) {
	src := "func f<T>(x: T): T = x;\nfunc main() { var y: int32 = f<int32>(5); }"

	unit, bag := bindSource(t, src)

	assert.Zero(t, errorCount(bag))

	var fn *FunctionDecl

	for _, d := range unit.Declarations {
		if f, ok := d.(*FunctionDecl); ok && f.Symbol.Name == "main" {
			fn = f
		}
	}

	require.NotNil(t, fn)
	block := fn.Body.(*BlockExpr)
	vd := block.Statements[0].(*DeclStatement).Decl.(*VariableDecl)

	call := vd.Init.(*CallExpr)
	require.NotNil(t, call.Type().Resolve())
	assert.Equal(t, "Int32", call.Type().Resolve().Name)
}

func TestGenericArityMismatch(t *testing.T) {
	_, bag := bindSource(t, "func f<T>(x: T): T = x;\nfunc main() { f<int32, int32>(5); }")

	found := false
	for _, d := range bag.All() {
		if d.Code == diagnostics.GenericArityMismatch {
			found = true
		}
	}

	assert.True(t, found)
}

func TestUndefinedReference(t *testing.T) {
	_, bag := bindSource(t, "func main() { nowhere; }")

	require.Equal(t, 1, errorCount(bag))
	assert.Equal(t, diagnostics.UndefinedReference, bag.All()[0].Code)
}

func TestOverloadPicksExactArity(t *testing.T) {
	src := `
func pick(a: int32): int32 = a;
func pick(a: int32, b: int32): int32 = a + b;
func main() { pick(1, 2); }
`

	unit, bag := bindSource(t, src)

	assert.Zero(t, errorCount(bag))

	var call *CallExpr

	for _, d := range unit.Declarations {
		fn, ok := d.(*FunctionDecl)
		if !ok || fn.Symbol.Name != "main" {
			continue
		}

		block := fn.Body.(*BlockExpr)
		es := block.Statements[0].(*ExprStatement)
		call = es.Expr.(*CallExpr)
	}

	require.NotNil(t, call)
	require.NotNil(t, call.Resolved)
	assert.Len(t, call.Resolved.FunctionParams, 2)
}

func TestAmbiguousOverloadIsReported(t *testing.T) {
	src := `
func g(a: int32) {}
func g(a: int32) {}
func main() { g(1); }
`

	_, bag := bindSource(t, src)

	found := false
	for _, d := range bag.All() {
		if d.Code == diagnostics.AmbiguousOverload {
			found = true
		}
	}

	assert.True(t, found)
}

func TestForwardGotoResolvesLabel(t *testing.T) {
	src := "func main() { goto done; done: }"

	unit, bag := bindSource(t, src)

	assert.Zero(t, errorCount(bag))

	fn := firstFunction(t, unit)
	block := fn.Body.(*BlockExpr)

	var gotoExpr *GotoExpr

	for _, s := range block.Statements {
		if es, ok := s.(*ExprStatement); ok {
			if g, ok := es.Expr.(*GotoExpr); ok {
				gotoExpr = g
			}
		}
	}

	require.NotNil(t, gotoExpr)
	require.NotNil(t, gotoExpr.Label)
	assert.Equal(t, "done", gotoExpr.Label.Name)
}

func TestUndefinedLabel(t *testing.T) {
	_, bag := bindSource(t, "func main() { goto nowhere; }")

	require.Equal(t, 1, errorCount(bag))
	assert.Equal(t, diagnostics.UndefinedReference, bag.All()[0].Code)
}

func TestInnerScopeShadowsOuter(t *testing.T) {
	src := `
var x: int32 = 1;
func main() {
    var x: int32 = 2;
    x;
}
`

	unit, bag := bindSource(t, src)

	assert.Zero(t, errorCount(bag))

	var fn *FunctionDecl

	for _, d := range unit.Declarations {
		if f, ok := d.(*FunctionDecl); ok {
			fn = f
		}
	}

	require.NotNil(t, fn)
	block := fn.Body.(*BlockExpr)

	inner := block.Statements[0].(*DeclStatement).Decl.(*VariableDecl)
	use := block.Statements[1].(*ExprStatement).Expr.(*NameExpr)

	assert.Same(t, inner.Symbol, use.Symbol)
}

func TestModuleQualifiedCall(t *testing.T) {
	src := "module m { public func f(): int32 = 1; }\nfunc main() { m.f(); }"

	unit, bag := bindSource(t, src)

	assert.Zero(t, errorCount(bag))

	var call *CallExpr

	for _, d := range unit.Declarations {
		fn, ok := d.(*FunctionDecl)
		if !ok {
			continue
		}

		block := fn.Body.(*BlockExpr)
		es := block.Statements[0].(*ExprStatement)
		call = es.Expr.(*CallExpr)
	}

	require.NotNil(t, call)
	require.NotNil(t, call.Resolved)
	assert.Equal(t, "m.f", call.Resolved.QualifiedName())
}

// Every overload of a module function is visible through the module
// receiver, not just the last declaration.
func TestModuleMemberOverloads(t *testing.T) {
	src := `
module m {
    public func f(a: int32): int32 = a;
    public func f(a: int32, b: int32): int32 = a + b;
}
func main() { m.f(1, 2); }
`

	unit, bag := bindSource(t, src)

	assert.Zero(t, errorCount(bag))

	var call *CallExpr

	for _, d := range unit.Declarations {
		fn, ok := d.(*FunctionDecl)
		if !ok {
			continue
		}

		block := fn.Body.(*BlockExpr)
		es := block.Statements[0].(*ExprStatement)
		call = es.Expr.(*CallExpr)
	}

	require.NotNil(t, call)
	require.NotNil(t, call.Resolved)
	assert.Len(t, call.Resolved.FunctionParams, 2)
}

func TestModuleMemberFunctionValueCollision(t *testing.T) {
	src := "module m { public func f(): int32 = 1; var f: int32 = 2; }\nfunc main() { m.f; }"

	_, bag := bindSource(t, src)

	found := false
	for _, d := range bag.All() {
		if d.Code == diagnostics.AmbiguousReference {
			found = true
		}
	}

	assert.True(t, found)
}

func TestModuleMemberMissing(t *testing.T) {
	_, bag := bindSource(t, "module m {}\nfunc main() { m.nope(); }")

	require.NotZero(t, errorCount(bag))
	assert.Equal(t, diagnostics.UndefinedReference, bag.All()[0].Code)
}

// A bare type name is not callable; constructing goes through `new`.
func TestCallingTypeIsIllegal(t *testing.T) {
	_, bag := bindSource(t, "func f<T>() { T(); }")

	require.Equal(t, 1, errorCount(bag))
	assert.Equal(t, diagnostics.IllegalReferenceContext, bag.All()[0].Code)
}

const vectorManifest = `assembly "corelib" {
    type Vector {
        field X: Float64
        field Y: Float64
    }
}`

func TestExternalTypeAndFieldAccess(t *testing.T) {
	src := "func norm1(v: Vector): float64 {\n    return v.X + v.Y;\n}"

	unit, bag := bindWithManifest(t, vectorManifest, src)

	assert.Zero(t, errorCount(bag))

	fn := firstFunction(t, unit)
	block := fn.Body.(*BlockExpr)
	ret := block.Statements[0].(*ExprStatement).Expr.(*ReturnExpr)
	sum := ret.Value.(*BinaryExpr)

	member := sum.Left.(*MemberExpr)
	require.NotNil(t, member.Symbol)
	assert.Equal(t, "X", member.Symbol.Name)
	require.NotNil(t, member.Type().Resolve())
	assert.Equal(t, "Float64", member.Type().Resolve().Name)
}

func TestNewExpression(t *testing.T) {
	src := "func make(): Vector = new Vector();"

	unit, bag := bindWithManifest(t, vectorManifest, src)

	assert.Zero(t, errorCount(bag))

	fn := firstFunction(t, unit)
	n, ok := fn.Body.(*NewExpr)
	require.True(t, ok)
	assert.Equal(t, "Vector", n.TypeSymbol.Name)
}

func TestArrayLengthMember(t *testing.T) {
	src := "func total(xs: int32...): int32 {\n    return xs.Length;\n}"

	unit, bag := bindSource(t, src)

	assert.Zero(t, errorCount(bag))

	fn := firstFunction(t, unit)
	block := fn.Body.(*BlockExpr)
	ret := block.Statements[0].(*ExprStatement).Expr.(*ReturnExpr)
	member := ret.Value.(*MemberExpr)

	require.NotNil(t, member.Symbol)
	require.NotNil(t, member.Type().Resolve())
	assert.Equal(t, "Int32", member.Type().Resolve().Name)
}

func TestVariableTypeInferredFromInitializer(t *testing.T) {
	unit, bag := bindSource(t, "func main() { var x = 1.5; }")

	assert.Zero(t, errorCount(bag))

	fn := firstFunction(t, unit)
	block := fn.Body.(*BlockExpr)
	vd := block.Statements[0].(*DeclStatement).Decl.(*VariableDecl)

	require.NotNil(t, vd.Type.Resolve())
	assert.Equal(t, "Float64", vd.Type.Resolve().Name)
}

func TestDeclaredTypeMismatchIsReported(t *testing.T) {
	_, bag := bindSource(t, `func main() { var x: int32 = "s"; }`)

	require.Equal(t, 1, errorCount(bag))
	assert.Equal(t, diagnostics.TypeMismatch, bag.All()[0].Code)
}

func TestBooleanOperatorsRequireBool(t *testing.T) {
	_, bag := bindSource(t, "func main() { 1 and 2; }")

	assert.NotZero(t, errorCount(bag))
}

func TestRelationalExpressionIsBool(t *testing.T) {
	unit, bag := bindSource(t, "func main() { var b: bool = 1 < 2; }")

	assert.Zero(t, errorCount(bag))

	fn := firstFunction(t, unit)
	block := fn.Body.(*BlockExpr)
	vd := block.Statements[0].(*DeclStatement).Decl.(*VariableDecl)

	require.NotNil(t, vd.Type.Resolve())
	assert.Equal(t, "Bool", vd.Type.Resolve().Name)
}
