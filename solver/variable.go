// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package solver implements the fixpoint constraint engine: type
// variables with path-compressed union-find substitution, and the
// constraint variants (Assignable, Call, Overload, Member) that drive
// binder promises to a concrete symbol.
package solver

import (
	"sync"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// Variable is a type variable: a single substitution slot, initially
// empty, plus a union-find parent used when two variables are unified
// with each other before either has a concrete substitution.
type Variable struct {
	mu     sync.Mutex
	parent *Variable
	sub    *symbols.Symbol
}

// NewVariable returns an empty type variable.
func NewVariable() *Variable {
	return &Variable{}
}

// Concrete returns a variable pre-bound to a known concrete type, used
// for expressions whose type is known the instant they're bound (e.g. an
// integer literal's Int32, or a name that resolved to exactly one
// non-overloaded symbol).
func Concrete(sym *symbols.Symbol) *Variable {
	return &Variable{sub: sym}
}

// find returns this variable's union-find root, compressing the path as
// it walks.
func (v *Variable) find() *Variable {
	v.mu.Lock()
	p := v.parent
	v.mu.Unlock()

	if p == nil {
		return v
	}

	root := p.find()

	v.mu.Lock()
	v.parent = root
	v.mu.Unlock()

	return root
}

// Resolve returns this variable's transitive substitution, or nil if it
// is still unresolved.
func (v *Variable) Resolve() *symbols.Symbol {
	root := v.find()

	root.mu.Lock()
	defer root.mu.Unlock()

	return root.sub
}

func (v *Variable) setSub(sym *symbols.Symbol) {
	root := v.find()

	root.mu.Lock()
	root.sub = sym
	root.mu.Unlock()
}

func absorbs(t *symbols.Symbol) bool {
	return t.Kind == symbols.KindType && (t.TypeKind == symbols.TypeError || t.TypeKind == symbols.TypeNever)
}

// Unify handles the three unification cases: variable-variable
// union, variable-concrete substitution, and concrete-concrete structural
// comparison (recording a diagnostic and substituting `Error` on
// mismatch, so one root cause never cascades).
func Unify(a, b *Variable, bag *diagnostics.Bag, errType *symbols.Symbol, span source.Span) {
	ra, rb := a.find(), b.find()
	if ra == rb {
		return
	}

	as, bs := ra.Resolve(), rb.Resolve()

	switch {
	case as == nil && bs == nil:
		ra.mu.Lock()
		ra.parent = rb
		ra.mu.Unlock()
	case as == nil:
		ra.setSub(bs)
	case bs == nil:
		rb.setSub(as)
	default:
		// Error is the poison absorber: a mismatch was already reported at
		// its root cause. Never is the bottom type: a return/goto inhabits
		// any context.
		if absorbs(as) || absorbs(bs) {
			return
		}

		if !as.Equal(bs, symbols.Default) {
			bag.Add(diagnostics.New(diagnostics.Error, diagnostics.TypeMismatch, span, nil,
				"type mismatch: %s is not assignable to %s", bs.QualifiedName(), as.QualifiedName()))
			ra.setSub(errType)
			rb.setSub(errType)
		}
	}
}
