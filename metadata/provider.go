// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package metadata defines the external symbol-provider interface
// the core consumes to resolve host-runtime types, plus a participle-based
// manifest grammar and in-memory implementation used to exercise the
// binder and solver without a real host runtime.
package metadata

import "github.com/lucyelle/DracoCompiler/symbols"

// Assembly is an opaque external metadata source the core queries by
// namespace-qualified type name. The core never parses object files
// itself; only the host application supplies a concrete Assembly.
type Assembly interface {
	Name() string
	LookupType(namespacePath, name string) (Type, bool)
}

// Type is the subset of an external type's shape the binder/solver need.
type Type interface {
	Symbol() *symbols.Symbol
	Members() []*symbols.Symbol
	GenericParameters() []*symbols.Symbol
	IsValueType() bool
	Visibility() symbols.Visibility
}

// Provider resolves assemblies by name and public key token.
type Provider interface {
	GetAssembly(name, publicKeyToken string) (Assembly, bool)
}
