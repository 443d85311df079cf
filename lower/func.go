// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package lower

import (
	"github.com/lucyelle/DracoCompiler/binder"
	"github.com/lucyelle/DracoCompiler/ir"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// funcLowerer holds the per-procedure lowering state: the current block,
// the detached flag, and the symbol-to-slot maps.
type funcLowerer struct {
	l    *Lowerer
	proc *ir.Procedure

	block    *ir.BasicBlock
	detached bool

	locals map[*symbols.Symbol]*ir.Local
	params map[*symbols.Symbol]*ir.Param
	labels map[*symbols.Symbol]*ir.BasicBlock
}

// emit appends an instruction to the current block, dropping it when the
// block has been detached by a goto or return, unless the instruction is
// explicitly valid in unreachable contexts.
func (f *funcLowerer) emit(i *ir.Instruction) {
	if f.detached && !i.Op.ValidInUnreachable() {
		return
	}

	f.block.Append(i)
}

// startBlock makes b the current block. The previous block, if still
// attached and unterminated, falls through via an implicit jump.
func (f *funcLowerer) startBlock(b *ir.BasicBlock) {
	if !f.detached && f.block.Terminator() == nil {
		f.block.Append(&ir.Instruction{Op: ir.Jump, Then: b})
	}

	f.block = b
	f.detached = false
}

// detach moves lowering into a fresh block with no predecessor after a
// goto or return. Ordinary instructions are discarded until the next
// startBlock/enter; instructions valid in unreachable contexts (scope
// ends, sequence points) still land in the unreachable block, where the
// flow pass either reports them as unreachable code or silently removes
// the empty husk.
func (f *funcLowerer) detach() {
	f.block = f.proc.NewBlock()
	f.detached = true
}

func (f *funcLowerer) newBlock() *ir.BasicBlock {
	return f.proc.NewBlock()
}

// terminateDangling gives every block that never received a terminator a
// trailing ret, so the "every basic block ends in exactly one branch"
// invariant holds before the flow pass runs.
func (f *funcLowerer) terminateDangling() {
	for _, b := range f.proc.Blocks {
		if b.Terminator() == nil {
			b.Append(&ir.Instruction{Op: ir.Ret})
		}
	}
}

// collectLabels pre-allocates a basic block per label declared anywhere
// in the body, so forward gotos have a target before their label lowers.
func (f *funcLowerer) collectLabels(body binder.Expr) {
	var visitExpr func(e binder.Expr)

	visitStmt := func(s binder.Stmt) {
		switch s := s.(type) {
		case *binder.DeclStatement:
			if lbl, ok := s.Decl.(*binder.LabelDecl); ok {
				f.labels[lbl.Symbol] = f.newBlock()
			}
		case *binder.ExprStatement:
			// labels cannot nest inside expressions other than blocks,
			// which visitExpr recurses into below.
		}
	}

	visitExpr = func(e binder.Expr) {
		switch e := e.(type) {
		case *binder.BlockExpr:
			for _, s := range e.Statements {
				visitStmt(s)

				if es, ok := s.(*binder.ExprStatement); ok {
					visitExpr(es.Expr)
				}
			}
		case *binder.IfExpr:
			visitExpr(e.Then)

			if e.Else != nil {
				visitExpr(e.Else)
			}
		case *binder.WhileExpr:
			visitExpr(e.Body)
		case *binder.GroupingExpr:
			visitExpr(e.Inner)
		}
	}

	visitExpr(body)
}

func (f *funcLowerer) lowerStmt(s binder.Stmt) ir.Operand {
	switch s := s.(type) {
	case *binder.DeclStatement:
		f.lowerDecl(s.Decl)
		return nil
	case *binder.ExprStatement:
		return f.lowerExpr(s.Expr)
	default:
		return nil
	}
}

func (f *funcLowerer) lowerDecl(d binder.Decl) {
	switch d := d.(type) {
	case *binder.VariableDecl:
		loc, ok := f.locals[d.Symbol]
		if !ok {
			loc = f.proc.AddLocal(d.Symbol.Name, resolve(d.Type))
			f.locals[d.Symbol] = loc
		}

		if d.Init != nil {
			v := f.lowerExpr(d.Init)
			f.emit(&ir.Instruction{Op: ir.Store, Operands: []ir.Operand{loc, v}})
		}
	case *binder.LabelDecl:
		target := f.labels[d.Symbol]
		f.startBlock(target)
	case *binder.FunctionDecl:
		// Nested functions lower on first reference via the module cache;
		// their declaration emits nothing here.
		f.l.procedureFor(d.Symbol)
	}
}
