// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import "sync"

// Bag is an append-only collection of Diagnostics. Inserts are safe to
// call concurrently (the solver and binder may run nested lookups that
// both report); enumeration must not race with mutation.
type Bag struct {
	mu   sync.Mutex
	list []Diagnostic

	// byNode lets a phase ask "did we already report against this node"
	// so a single root cause doesn't cascade into repeated diagnostics.
	byNode map[any]bool
}

// NewBag creates an empty Bag.
func NewBag() *Bag {
	return &Bag{byNode: make(map[any]bool)}
}

// Add appends d to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.list = append(b.list, d)
	if d.NodeKey != nil {
		b.byNode[d.NodeKey] = true
	}
}

// HasErrorAt reports whether a diagnostic has already been recorded for
// nodeKey, so a later phase can suppress a dependent diagnostic.
func (b *Bag) HasErrorAt(nodeKey any) bool {
	if nodeKey == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.byNode[nodeKey]
}

// All returns a snapshot slice of every Diagnostic added so far, in
// insertion order.
func (b *Bag) All() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Diagnostic, len(b.list))
	copy(out, b.list)

	return out
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, d := range b.list {
		if d.Severity == Error {
			return true
		}
	}

	return false
}

// Len returns the number of diagnostics recorded.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.list)
}
