// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package ir

import (
	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// CheckFlow runs the flow post-pass over one procedure: it reports
// UnreachableCode for blocks the entry block cannot reach, reports
// NotAllPathsReturn when a value-returning procedure can fall off a
// reachable exit, and finally removes the dead blocks so the "every
// non-entry block has at least one predecessor" invariant holds on the
// surviving graph.
func CheckFlow(p *Procedure, returnType *symbols.Symbol, declSpan source.Span, bag *diagnostics.Bag) {
	reachable := reachableBlocks(p)

	for _, b := range p.Blocks {
		if reachable[b] || isEmptyDetached(b) {
			continue
		}

		span := declSpan
		if sp := firstSpan(b); sp != nil {
			span = *sp
		}

		bag.Add(diagnostics.New(diagnostics.Warning, diagnostics.UnreachableCode, span, p.Symbol,
			"unreachable code in %s", p.Name))
	}

	if needsReturnValue(returnType) {
		for _, b := range p.Blocks {
			if !reachable[b] {
				continue
			}

			t := b.Terminator()
			if t != nil && t.Op == Ret && len(t.Operands) == 0 {
				bag.Add(diagnostics.New(diagnostics.Error, diagnostics.NotAllPathsReturn, declSpan, p.Symbol,
					"not all paths of %s return a %s", p.Name, returnType.QualifiedName()))
				break
			}
		}
	}

	removeDead(p, reachable)
}

func reachableBlocks(p *Procedure) map[*BasicBlock]bool {
	reachable := make(map[*BasicBlock]bool)
	work := []*BasicBlock{p.Entry()}

	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]

		if reachable[b] {
			continue
		}

		reachable[b] = true

		if t := b.Terminator(); t != nil {
			if t.Then != nil {
				work = append(work, t.Then)
			}

			if t.Else != nil {
				work = append(work, t.Else)
			}
		}
	}

	return reachable
}

// isEmptyDetached reports whether a dead block carries nothing a user
// wrote: lowering leaves such husks behind after goto/return detaches,
// and they aren't worth an UnreachableCode report. A sequence point
// marks a real source statement, so its presence makes the block
// reportable.
func isEmptyDetached(b *BasicBlock) bool {
	for _, i := range b.Instructions {
		if i.Op == SequencePoint {
			return false
		}

		if !i.Op.ValidInUnreachable() && !i.Op.IsBranch() {
			return false
		}
	}

	return true
}

func firstSpan(b *BasicBlock) *source.Span {
	for _, i := range b.Instructions {
		if i.Op == SequencePoint {
			sp := i.Span
			return &sp
		}
	}

	return nil
}

func needsReturnValue(returnType *symbols.Symbol) bool {
	if returnType == nil {
		return false
	}

	switch returnType.TypeKind {
	case symbols.TypeNever, symbols.TypeError:
		return false
	case symbols.TypePrimitive:
		return returnType.Name != "Unit"
	default:
		return true
	}
}

func removeDead(p *Procedure, reachable map[*BasicBlock]bool) {
	kept := p.Blocks[:0]

	for _, b := range p.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		}
	}

	p.Blocks = kept

	for i, b := range p.Blocks {
		b.Index = i
	}
}
