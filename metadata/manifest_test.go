// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyelle/DracoCompiler/symbols"
)

const sampleManifest = `
assembly "corelib" {
    type Vector {
        field X: Float64
        field Y: Float64
    }
    type Node {
        field Next: Node
        field Value: Int32
    }
}
`

func TestParseManifest(t *testing.T) {
	p, err := ParseManifest(sampleManifest)
	require.NoError(t, err)

	asm, ok := p.GetAssembly("corelib", "")
	require.True(t, ok)
	assert.Equal(t, "corelib", asm.Name())

	vec, ok := asm.LookupType("", "Vector")
	require.True(t, ok)

	members := vec.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "X", members[0].Name)
	assert.Equal(t, "Y", members[1].Name)
	assert.Equal(t, "Float64", members[0].ValueType().Name)
}

func TestManifestSelfReference(t *testing.T) {
	p, err := ParseManifest(sampleManifest)
	require.NoError(t, err)

	asm, _ := p.GetAssembly("corelib", "")
	node, ok := asm.LookupType("", "Node")
	require.True(t, ok)

	next := node.Members()[0]
	assert.Same(t, node.Symbol(), next.ValueType())
}

func TestManifestUnknownFieldType(t *testing.T) {
	p, err := ParseManifest(`assembly "a" { type T { field F: Mystery } }`)
	require.NoError(t, err)

	asm, _ := p.GetAssembly("a", "")
	tt, _ := asm.LookupType("", "T")

	f := tt.Members()[0]
	assert.Equal(t, symbols.TypeError, f.ValueType().TypeKind)
}

func TestManifestSyntaxError(t *testing.T) {
	_, err := ParseManifest(`assembly { }`)
	assert.Error(t, err)
}

func TestIntrinsicsAlwaysPresent(t *testing.T) {
	p := NewInMemoryProvider()

	asm, ok := p.GetAssembly("intrinsics", "")
	require.True(t, ok)

	for _, name := range IntrinsicTypeNames {
		typ, ok := asm.LookupType("", name)
		require.True(t, ok, "missing intrinsic %s", name)
		assert.Equal(t, name, typ.Symbol().Name)
	}

	never, _ := asm.LookupType("", "Never")
	assert.Equal(t, symbols.TypeNever, never.Symbol().TypeKind)
}
