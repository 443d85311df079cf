// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package symbols implements the declarative symbol DAG: modules,
// types, functions, and the value-like symbols nested under them, lazily
// populated from syntax and from external metadata. Symbol identity is a
// stable github.com/google/uuid.UUID, which the IR module uses as the key
// of its per-symbol procedure cache.
package symbols

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind discriminates the symbol sum type.
type Kind int

const (
	KindModule Kind = iota
	KindType
	KindFunction
	KindParameter
	KindLocal
	KindGlobal
	KindField
	KindProperty
	KindLabel
)

// TypeKind discriminates the Type symbol's sub-variants.
type TypeKind int

const (
	TypePrimitive TypeKind = iota
	TypeArray
	TypeFunction
	TypeParameterRef // reference to a declared type parameter
	TypeVariable     // solver-internal, see solver.Variable
	TypeNever
	TypeError
	TypeGenericInstance
)

// Visibility mirrors the `internal`/`public` modifier, defaulting to
// Internal when no modifier is written.
type Visibility int

const (
	Internal Visibility = iota
	Public
)

// EqualityMode selects how Symbol.Equal compares two type symbols.
// SignatureMatch additionally treats all type parameters as
// interchangeable, which is how overload signatures are compared.
type EqualityMode int

const (
	Default EqualityMode = iota
	SignatureMatch
)

// membersState is the lazily-populated, at-most-once-initialized member
// list shared by every symbol kind that can own members; initialization
// happens at most once, however many readers race.
type membersState struct {
	done    atomic.Bool
	mu      sync.Mutex
	members []*Symbol
}

func (m *membersState) get(populate func() []*Symbol) []*Symbol {
	if m.done.Load() {
		return m.members
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done.Load() {
		return m.members
	}

	m.members = populate()
	m.done.Store(true)

	return m.members
}

// Symbol is a single node of the symbol DAG. The Containing back-reference
// is ownership-free (a weak pointer in spirit): walking Containing* must
// terminate at a compilation's root module and never forms a cycle.
type Symbol struct {
	ID         uuid.UUID
	Kind       Kind
	Name       string // "" for anonymous symbols (e.g. a Never/Error type)
	Containing *Symbol
	Visibility Visibility

	// Type-only fields; zero value for non-Type symbols.
	TypeKind       TypeKind
	ElementType    *Symbol // Array element type
	GenericDef     *Symbol // generic definition this is an instance of
	GenericArgs    []*Symbol
	FunctionParams []*Symbol
	FunctionReturn *Symbol

	members membersState
	// populate, if non-nil, lazily computes this symbol's Members on first
	// access (e.g. a module's declarations, or a metadata-backed type's
	// fields). Left nil for symbols with no members (parameters, locals).
	populate func() []*Symbol
}

// New allocates a fresh symbol with a new identity.
func New(kind Kind, name string, containing *Symbol, vis Visibility) *Symbol {
	return &Symbol{ID: uuid.New(), Kind: kind, Name: name, Containing: containing, Visibility: vis}
}

// NewType is New specialized for Kind == KindType.
func NewType(typeKind TypeKind, name string, containing *Symbol, vis Visibility) *Symbol {
	s := New(KindType, name, containing, vis)
	s.TypeKind = typeKind

	return s
}

// SetPopulate installs the lazy member-population function. Must be
// called before the first Members() call; there is no synchronization
// against a concurrent SetPopulate, since symbols freeze after
// construction.
func (s *Symbol) SetPopulate(f func() []*Symbol) {
	s.populate = f
}

// Members returns this symbol's member list, computing it at most once
// even under concurrent access.
func (s *Symbol) Members() []*Symbol {
	if s.populate == nil {
		return nil
	}

	return s.members.get(s.populate)
}

// QualifiedName joins this symbol's name with its Containing chain,
// dot-separated, innermost last (e.g. "mypkg.MyModule.Foo").
func (s *Symbol) QualifiedName() string {
	if s == nil {
		return ""
	}

	if s.Containing == nil || s.Containing.Name == "" {
		return s.Name
	}

	parent := s.Containing.QualifiedName()
	if parent == "" {
		return s.Name
	}

	return parent + "." + s.Name
}

// Equal implements the two comparison modes. Non-Type symbols compare
// by identity only: a Symbol is never structurally interchangeable with
// another declaration.
func (s *Symbol) Equal(other *Symbol, mode EqualityMode) bool {
	if s == other {
		return true
	}

	if s == nil || other == nil {
		return false
	}

	if s.Kind != KindType || other.Kind != KindType {
		return false
	}

	return s.equalType(other, mode)
}

func (s *Symbol) equalType(other *Symbol, mode EqualityMode) bool {
	if mode == SignatureMatch && s.TypeKind == TypeParameterRef && other.TypeKind == TypeParameterRef {
		return true
	}

	if s.TypeKind != other.TypeKind {
		return false
	}

	switch s.TypeKind {
	case TypePrimitive, TypeNever, TypeError, TypeParameterRef:
		return s.Name == other.Name && s.Containing.Equal(other.Containing, mode)
	case TypeArray:
		return s.ElementType.equalType(other.ElementType, mode)
	case TypeFunction:
		if len(s.FunctionParams) != len(other.FunctionParams) {
			return false
		}

		for i := range s.FunctionParams {
			if !s.FunctionParams[i].equalType(other.FunctionParams[i], mode) {
				return false
			}
		}

		return s.FunctionReturn.equalType(other.FunctionReturn, mode)
	case TypeGenericInstance:
		if !s.GenericDef.Equal(other.GenericDef, mode) || len(s.GenericArgs) != len(other.GenericArgs) {
			return false
		}

		for i := range s.GenericArgs {
			if !s.GenericArgs[i].equalType(other.GenericArgs[i], mode) {
				return false
			}
		}

		return true
	default:
		return s == other
	}
}

// ValueType returns the type a value-like symbol (Parameter, Local,
// Global, Field) was declared against, or the symbol itself when it
// already is a type. The declared type rides in the GenericDef slot for
// value symbols; see the binder's parameter handling.
func (s *Symbol) ValueType() *Symbol {
	if s == nil || s.Kind == KindType {
		return s
	}

	// Fields declare their type in the ElementType slot (see the metadata
	// package); other value symbols use GenericDef.
	if s.Kind == KindField && s.ElementType != nil {
		return s.ElementType
	}

	if s.GenericDef != nil {
		return s.GenericDef
	}

	return s
}

// IsValueType reports whether this type symbol denotes a value type
// (primitives only in this core; everything else is reference-like).
func (s *Symbol) IsValueType() bool {
	return s.Kind == KindType && s.TypeKind == TypePrimitive
}
