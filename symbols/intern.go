// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package symbols

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/dchest/siphash"
)

// internSeed is fixed (not random) so that the hashes behind interned
// names and GenericInstanceKey are reproducible across runs and across
// machines, unlike Go's per-process map hash seed.
const (
	internSeedK0 = 0x5fd924d9a6e5c2b1
	internSeedK1 = 0x1b873593cc9e2d3f
)

// Interner deduplicates name strings (the binder interns every identifier
// it resolves) behind a deterministic hash, so two lookups of the same
// string always land in the same bucket regardless of process-local map
// randomization.
type Interner struct {
	mu      sync.Mutex
	buckets map[uint64][]string
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{buckets: make(map[uint64][]string)}
}

// Intern returns the canonical, deduplicated copy of s.
func (in *Interner) Intern(s string) string {
	h := hashString(s)

	in.mu.Lock()
	defer in.mu.Unlock()

	bucket := in.buckets[h]
	for _, existing := range bucket {
		if existing == s {
			return existing
		}
	}

	in.buckets[h] = append(bucket, s)

	return s
}

// OrderedKeys returns every string interned so far, sorted so that
// iteration is deterministic even though the underlying storage is
// hash-bucketed.
func (in *Interner) OrderedKeys() []string {
	in.mu.Lock()
	defer in.mu.Unlock()

	var out []string
	for _, bucket := range in.buckets {
		out = append(out, bucket...)
	}

	sort.Strings(out)

	return out
}

func hashString(s string) uint64 {
	return siphash.Hash(internSeedK0, internSeedK1, []byte(s))
}

// GenericInstanceKey builds a deterministic key for a generic
// instantiation (def name + ordered argument names): equal inputs give
// equal keys in every run.
func GenericInstanceKey(defQualifiedName string, argQualifiedNames []string) uint64 {
	buf := make([]byte, 0, 8*(1+len(argQualifiedNames)))
	buf = appendHash(buf, defQualifiedName)

	for _, a := range argQualifiedNames {
		buf = appendHash(buf, a)
	}

	return siphash.Hash(internSeedK0, internSeedK1, buf)
}

func appendHash(buf []byte, s string) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], hashString(s))

	return append(buf, tmp[:]...)
}
