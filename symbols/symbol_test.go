// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package symbols

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedName(t *testing.T) {
	root := New(KindModule, "pkg", nil, Public)
	mod := New(KindModule, "inner", root, Public)
	fn := New(KindFunction, "f", mod, Public)

	assert.Equal(t, "pkg.inner.f", fn.QualifiedName())
	assert.Equal(t, "pkg", root.QualifiedName())
}

func TestTypeEqualityDefault(t *testing.T) {
	int32A := NewType(TypePrimitive, "Int32", nil, Public)
	int32B := NewType(TypePrimitive, "Int32", nil, Public)
	stringT := NewType(TypePrimitive, "String", nil, Public)

	assert.True(t, int32A.Equal(int32B, Default), "structural equality ignores identity")
	assert.False(t, int32A.Equal(stringT, Default))
}

func TestSignatureMatchTreatsTypeParametersAsEqual(t *testing.T) {
	tp1 := NewType(TypeParameterRef, "T", nil, Internal)
	tp2 := NewType(TypeParameterRef, "U", nil, Internal)

	assert.False(t, tp1.Equal(tp2, Default))
	assert.True(t, tp1.Equal(tp2, SignatureMatch))
}

func TestFunctionTypeEquality(t *testing.T) {
	int32T := NewType(TypePrimitive, "Int32", nil, Public)

	f1 := NewType(TypeFunction, "", nil, Public)
	f1.FunctionParams = []*Symbol{int32T}
	f1.FunctionReturn = int32T

	f2 := NewType(TypeFunction, "", nil, Public)
	f2.FunctionParams = []*Symbol{int32T}
	f2.FunctionReturn = int32T

	assert.True(t, f1.Equal(f2, Default))

	f2.FunctionParams = []*Symbol{int32T, int32T}
	assert.False(t, f1.Equal(f2, Default))
}

func TestArrayEquality(t *testing.T) {
	int32T := NewType(TypePrimitive, "Int32", nil, Public)

	a1 := NewType(TypeArray, "", nil, Public)
	a1.ElementType = int32T
	a2 := NewType(TypeArray, "", nil, Public)
	a2.ElementType = int32T

	assert.True(t, a1.Equal(a2, Default))
}

func TestNonTypeSymbolsCompareByIdentity(t *testing.T) {
	l1 := New(KindLocal, "x", nil, Internal)
	l2 := New(KindLocal, "x", nil, Internal)

	assert.True(t, l1.Equal(l1, Default))
	assert.False(t, l1.Equal(l2, Default))
}

func TestMembersPopulateOnce(t *testing.T) {
	mod := New(KindModule, "m", nil, Public)

	var calls int
	var mu sync.Mutex

	mod.SetPopulate(func() []*Symbol {
		mu.Lock()
		calls++
		mu.Unlock()

		return []*Symbol{New(KindFunction, "f", mod, Public)}
	})

	var wg sync.WaitGroup
	results := make([][]*Symbol, 8)

	for i := range results {
		i := i

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = mod.Members()
		}()
	}

	wg.Wait()

	require.Equal(t, 1, calls)

	for _, r := range results[1:] {
		require.Len(t, r, 1)
		assert.Same(t, results[0][0], r[0])
	}
}

func TestScopeShadowing(t *testing.T) {
	outer := NewScope(ScopeCompilationUnit, nil)
	inner := NewScope(ScopeBlock, outer)

	x1 := New(KindGlobal, "x", nil, Internal)
	x2 := New(KindLocal, "x", nil, Internal)

	outer.Declare("x", x1)
	inner.Declare("x", x2)

	got, scope := inner.Lookup("x")
	assert.Same(t, x2, got)
	assert.Same(t, inner, scope)

	got, _ = outer.Lookup("x")
	assert.Same(t, x1, got)
}

func TestFunctionGroupsKeepDeclarationOrder(t *testing.T) {
	scope := NewScope(ScopeCompilationUnit, nil)

	f1 := New(KindFunction, "f", nil, Public)
	f2 := New(KindFunction, "f", nil, Public)
	scope.DeclareFunction("f", f1)
	scope.DeclareFunction("f", f2)

	group := scope.LookupFunctions("f")
	require.Len(t, group, 2)
	assert.Same(t, f1, group[0])
	assert.Same(t, f2, group[1])
}

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()

	a := in.Intern("pkg.Foo")
	b := in.Intern("pkg" + ".Foo")

	assert.Equal(t, a, b)
	assert.Equal(t, []string{"pkg.Foo"}, in.OrderedKeys())
}

func TestGenericInstanceKeyIsDeterministic(t *testing.T) {
	k1 := GenericInstanceKey("List", []string{"Int32"})
	k2 := GenericInstanceKey("List", []string{"Int32"})
	k3 := GenericInstanceKey("List", []string{"String"})

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
