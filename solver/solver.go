// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package solver

// Solver drives a set of constraints to fixpoint: it loops until every
// constraint is Solved or a full pass makes no progress anywhere, at
// which point residual Stale constraints fail with their configured
// diagnostic.
type Solver struct {
	ctx         *Context
	constraints []Constraint
}

// New creates a Solver sharing ctx across every constraint it ticks.
func New(ctx *Context) *Solver {
	return &Solver{ctx: ctx}
}

// Add registers a constraint to be resolved by the next Run.
func (s *Solver) Add(c Constraint) {
	s.constraints = append(s.constraints, c)
}

// Run executes the fixpoint loop to completion.
func (s *Solver) Run() {
	for len(s.constraints) > 0 {
		var remaining []Constraint
		progressed := false

		for _, c := range s.constraints {
			switch c.Tick(s.ctx) {
			case Solved:
				progressed = true
			case AdvancedContinue:
				progressed = true
				remaining = append(remaining, c)
			case Stale:
				remaining = append(remaining, c)
			}
		}

		s.constraints = remaining

		if !progressed {
			for _, c := range s.constraints {
				c.Fail(s.ctx)
			}

			return
		}
	}
}
