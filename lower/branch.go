// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package lower

import (
	"github.com/lucyelle/DracoCompiler/binder"
	"github.com/lucyelle/DracoCompiler/ir"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// lowerBranch lowers cond in branch position: control transfers to
// thenB when it holds and elseB otherwise, terminating the current
// block. `and`, `or`, `not` and chained relational expressions lower to
// control flow here rather than to materialized booleans, so both
// short-circuiting and the lack of boolean arithmetic instructions fall
// out naturally.
func (f *funcLowerer) lowerBranch(cond binder.Expr, thenB, elseB *ir.BasicBlock) {
	switch e := cond.(type) {
	case *binder.BinaryExpr:
		switch e.Op {
		case "and":
			mid := f.newBlock()
			f.lowerBranch(e.Left, mid, elseB)
			f.enter(mid)
			f.lowerBranch(e.Right, thenB, elseB)

			return
		case "or":
			mid := f.newBlock()
			f.lowerBranch(e.Left, thenB, mid)
			f.enter(mid)
			f.lowerBranch(e.Right, thenB, elseB)

			return
		}
	case *binder.UnaryExpr:
		if e.Op == "not" || e.Op == "!" {
			f.lowerBranch(e.Operand, elseB, thenB)
			return
		}
	case *binder.GroupingExpr:
		f.lowerBranch(e.Inner, thenB, elseB)
		return
	case *binder.RelationalExpr:
		f.lowerRelationalBranch(e, thenB, elseB)
		return
	}

	v := f.lowerExpr(cond)
	f.branch(v, thenB, elseB)
}

// lowerRelationalBranch lowers `a < b > c` as `a < b` and-then `b > c`:
// each middle operand is evaluated once, and any failing comparison
// short-circuits to elseB.
func (f *funcLowerer) lowerRelationalBranch(e *binder.RelationalExpr, thenB, elseB *ir.BasicBlock) {
	boolType := resolve(e.Type())
	prev := f.lowerExpr(e.First)

	for i, cl := range e.Clauses {
		next := f.lowerExpr(cl.Next)
		cmp := f.compare(cl.Op, prev, next, boolType)

		if i == len(e.Clauses)-1 {
			f.branch(cmp, thenB, elseB)
			return
		}

		mid := f.newBlock()
		f.branch(cmp, mid, elseB)
		f.enter(mid)

		prev = next
	}

	// No clauses at all: degenerate tree from error recovery.
	f.branch(prev, thenB, elseB)
}

func (f *funcLowerer) branch(cond ir.Operand, thenB, elseB *ir.BasicBlock) {
	if !f.detached && f.block.Terminator() == nil {
		f.block.Append(&ir.Instruction{Op: ir.Branch, Operands: []ir.Operand{cond}, Then: thenB, Else: elseB})
	}

	f.detach()
}

// materializeBool lowers a boolean expression appearing in value position
// through its branch form: both outcomes store into a temporary, and the
// join block loads the result back out.
func (f *funcLowerer) materializeBool(e binder.Expr, boolType *symbols.Symbol) ir.Operand {
	tmp := f.proc.AddLocal("", boolType)

	thenB := f.newBlock()
	elseB := f.newBlock()
	join := f.newBlock()

	f.lowerBranch(e, thenB, elseB)

	f.enter(thenB)
	f.emit(&ir.Instruction{Op: ir.Store, Operands: []ir.Operand{tmp, &ir.Const{Value: true, Type: boolType}}})
	f.jumpTo(join)

	f.enter(elseB)
	f.emit(&ir.Instruction{Op: ir.Store, Operands: []ir.Operand{tmp, &ir.Const{Value: false, Type: boolType}}})
	f.jumpTo(join)

	f.enter(join)

	return f.compute(ir.Load, boolType, tmp)
}
