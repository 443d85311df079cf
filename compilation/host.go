// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package compilation

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Host compiles independent compilations in parallel. Each Compilation
// stays single-threaded inside; the host only fans out across them, so
// no state is shared except each compilation's own bag and caches.
type Host struct {
	// Limit caps the number of concurrently running compilations;
	// zero or negative means no cap.
	Limit int
}

// CompileAll runs every compilation to completion and returns their
// results in input order. The first cancellation or internal error stops
// the remaining work; partially finished compilations still carry the
// artifacts their completed phases produced.
func (h *Host) CompileAll(ctx context.Context, comps []*Compilation) ([]*Result, error) {
	results := make([]*Result, len(comps))

	g, ctx := errgroup.WithContext(ctx)
	if h.Limit > 0 {
		g.SetLimit(h.Limit)
	}

	for i, c := range comps {
		i, c := i, c

		g.Go(func() error {
			res, err := c.Run(ctx)
			results[i] = res

			return err
		})
	}

	err := g.Wait()

	return results, err
}
