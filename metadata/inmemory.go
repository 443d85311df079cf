// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"sort"

	"github.com/lucyelle/DracoCompiler/symbols"
)

// IntrinsicTypeNames are the handful of primitives every compilation needs
// available even with no external metadata wired in at all.
var IntrinsicTypeNames = []string{"Int32", "Float64", "Bool", "String", "Char", "Unit", "Never"}

// InMemoryProvider is a Provider backed by assemblies built directly in
// Go or parsed from the manifest grammar (manifest.go); it requires no
// real host-runtime reader and is what the binder/solver tests exercise
// end-to-end against.
type InMemoryProvider struct {
	assemblies map[string]*inMemoryAssembly
}

// NewInMemoryProvider returns a Provider pre-populated with the intrinsic
// primitive types, registered under the synthetic "intrinsics" assembly.
func NewInMemoryProvider() *InMemoryProvider {
	p := &InMemoryProvider{assemblies: make(map[string]*inMemoryAssembly)}

	asm := &inMemoryAssembly{name: "intrinsics", types: make(map[string]*inMemoryType)}
	for _, name := range IntrinsicTypeNames {
		tk := symbols.TypePrimitive
		if name == "Never" {
			tk = symbols.TypeNever
		}

		sym := symbols.NewType(tk, name, nil, symbols.Public)
		asm.types[name] = &inMemoryType{sym: sym}
	}

	p.assemblies["intrinsics"] = asm

	return p
}

func newInMemoryProviderFromManifest(m *manifestAssembly) *InMemoryProvider {
	p := NewInMemoryProvider()

	asm := &inMemoryAssembly{name: m.Name, types: make(map[string]*inMemoryType)}

	// Two passes: declare every type symbol first (as the same instance
	// that will be returned later) so fields can reference types declared
	// later in the same manifest, then populate each type's fields.
	declared := make(map[string]*symbols.Symbol)
	for _, t := range m.Types {
		sym := symbols.NewType(symbols.TypeGenericInstance, t.Name, nil, symbols.Public)
		declared[t.Name] = sym
	}

	for _, t := range m.Types {
		sym := declared[t.Name]

		fieldSymbols := make([]*symbols.Symbol, 0, len(t.Fields))
		for _, f := range t.Fields {
			fieldType := p.resolveManifestTypeName(asm, declared, f.Type)
			field := symbols.New(symbols.KindField, f.Name, sym, symbols.Public)
			// Reuses ElementType as "the type this field holds"; Field
			// symbols have no dedicated type slot since only Array types
			// otherwise need one.
			field.ElementType = fieldType
			fieldSymbols = append(fieldSymbols, field)
		}

		sym.SetPopulate(func() []*symbols.Symbol { return fieldSymbols })
		asm.types[t.Name] = &inMemoryType{sym: sym, fields: fieldSymbols}
	}

	p.assemblies[m.Name] = asm

	return p
}

func (p *InMemoryProvider) resolveManifestTypeName(asm *inMemoryAssembly, declared map[string]*symbols.Symbol, name string) *symbols.Symbol {
	if sym, ok := declared[name]; ok {
		return sym
	}

	if intrinsics, ok := p.assemblies["intrinsics"]; ok {
		if t, ok := intrinsics.types[name]; ok {
			return t.sym
		}
	}

	// Unknown type name: synthesize an Error-typed placeholder rather than
	// failing the manifest parse outright; no diagnostic is ever fatal.
	return symbols.NewType(symbols.TypeError, name, nil, symbols.Public)
}

// AssemblyNames lists every assembly this provider carries, sorted, so a
// driver can reference all of them without knowing the manifest contents.
func (p *InMemoryProvider) AssemblyNames() []string {
	names := make([]string, 0, len(p.assemblies))
	for name := range p.assemblies {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (p *InMemoryProvider) GetAssembly(name, _ string) (Assembly, bool) {
	asm, ok := p.assemblies[name]
	return asm, ok
}

type inMemoryAssembly struct {
	name  string
	types map[string]*inMemoryType
}

func (a *inMemoryAssembly) Name() string { return a.name }

func (a *inMemoryAssembly) LookupType(_ string, name string) (Type, bool) {
	t, ok := a.types[name]
	return t, ok
}

type inMemoryType struct {
	sym    *symbols.Symbol
	fields []*symbols.Symbol
}

func (t *inMemoryType) Symbol() *symbols.Symbol             { return t.sym }
func (t *inMemoryType) Members() []*symbols.Symbol          { return t.sym.Members() }
func (t *inMemoryType) GenericParameters() []*symbols.Symbol { return nil }
func (t *inMemoryType) IsValueType() bool                   { return t.sym.IsValueType() }
func (t *inMemoryType) Visibility() symbols.Visibility       { return t.sym.Visibility }
