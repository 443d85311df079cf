// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/symbols"
)

func intType() *symbols.Symbol {
	return symbols.NewType(symbols.TypePrimitive, "Int32", nil, symbols.Public)
}

func fnSymbol(name string) *symbols.Symbol {
	return symbols.New(symbols.KindFunction, name, nil, symbols.Public)
}

func TestPrintArithmetic(t *testing.T) {
	p := NewProcedure("main", fnSymbol("main"))
	int32T := intType()

	r0 := p.NewRegister(int32T)
	r1 := p.NewRegister(int32T)

	entry := p.Entry()
	entry.Append(&Instruction{Op: Mul, Target: r0, Operands: []Operand{
		&Const{Value: int64(2), Type: int32T}, &Const{Value: int64(3), Type: int32T},
	}})
	entry.Append(&Instruction{Op: Add, Target: r1, Operands: []Operand{
		&Const{Value: int64(1), Type: int32T}, r0,
	}})
	entry.Append(&Instruction{Op: Ret, Operands: []Operand{r1}})

	out := PrintProcedure(p)

	assert.Contains(t, out, "proc main():")
	assert.Contains(t, out, "bb0:")
	assert.Contains(t, out, "r0 := mul 2 3")
	assert.Contains(t, out, "r1 := add 1 r0")
	assert.Contains(t, out, "ret r1")
}

func TestPrintBranches(t *testing.T) {
	p := NewProcedure("f", fnSymbol("f"))
	boolT := symbols.NewType(symbols.TypePrimitive, "Bool", nil, symbols.Public)

	thenB := p.NewBlock()
	elseB := p.NewBlock()

	cond := p.NewRegister(boolT)
	p.Entry().Append(&Instruction{Op: Branch, Operands: []Operand{cond}, Then: thenB, Else: elseB})
	thenB.Append(&Instruction{Op: Jump, Then: elseB})
	elseB.Append(&Instruction{Op: Ret})

	out := PrintProcedure(p)

	assert.Contains(t, out, "branch r0 bb1 bb2")
	assert.Contains(t, out, "jump bb2")
	assert.Contains(t, out, "ret\n")
}

func TestPrintOperandSpellings(t *testing.T) {
	p := NewProcedure("f", fnSymbol("f"))
	int32T := intType()

	prm := p.AddParam("a", int32T)
	loc := p.AddLocal("x", int32T)
	r := p.NewRegister(int32T)

	p.Entry().Append(&Instruction{Op: Load, Target: r, Operands: []Operand{prm}})
	p.Entry().Append(&Instruction{Op: Store, Operands: []Operand{loc, r}})
	p.Entry().Append(&Instruction{Op: Ret})

	out := PrintProcedure(p)

	assert.Contains(t, out, "r0 := load param0")
	assert.Contains(t, out, "store loc0 r0")
}

func TestCloneIsIndependent(t *testing.T) {
	int32T := intType()
	r := &Register{Index: 0, Type: int32T}

	orig := &Instruction{Op: Add, Target: r, Operands: []Operand{
		&Const{Value: int64(1), Type: int32T}, &Const{Value: int64(2), Type: int32T},
	}}

	clone := orig.Clone()
	clone.Operands[0] = &Const{Value: int64(9), Type: int32T}

	assert.Equal(t, int64(1), orig.Operands[0].(*Const).Value)
	assert.Equal(t, Add, clone.Op)
	assert.Same(t, orig.Target, clone.Target)
}

func TestBranchClassification(t *testing.T) {
	assert.True(t, Jump.IsBranch())
	assert.True(t, Branch.IsBranch())
	assert.True(t, Ret.IsBranch())
	assert.False(t, Add.IsBranch())
	assert.False(t, SequencePoint.IsBranch())

	assert.True(t, EndScope.ValidInUnreachable())
	assert.True(t, SequencePoint.ValidInUnreachable())
	assert.False(t, Store.ValidInUnreachable())
}

func TestCheckFlowRemovesDeadBlocks(t *testing.T) {
	bag := diagnostics.NewBag()
	p := NewProcedure("f", fnSymbol("f"))

	dead := p.NewBlock()
	dead.Append(&Instruction{Op: Ret})

	p.Entry().Append(&Instruction{Op: Ret})

	CheckFlow(p, nil, source.Span{}, bag)

	require.Len(t, p.Blocks, 1)
	assert.Zero(t, bag.Len())
}

func TestCheckFlowReportsUnreachableStatements(t *testing.T) {
	bag := diagnostics.NewBag()
	p := NewProcedure("f", fnSymbol("f"))

	dead := p.NewBlock()
	dead.Append(&Instruction{Op: SequencePoint})
	dead.Append(&Instruction{Op: Ret})

	p.Entry().Append(&Instruction{Op: Ret})

	CheckFlow(p, nil, source.Span{}, bag)

	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diagnostics.UnreachableCode, bag.All()[0].Code)
}

func TestCheckFlowReportsMissingReturnValue(t *testing.T) {
	bag := diagnostics.NewBag()
	p := NewProcedure("f", fnSymbol("f"))
	p.Entry().Append(&Instruction{Op: Ret})

	CheckFlow(p, intType(), source.Span{}, bag)

	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diagnostics.NotAllPathsReturn, bag.All()[0].Code)
}

func TestProcedureForCompilesOnce(t *testing.T) {
	m := NewModule()
	sym := fnSymbol("f")

	calls := 0
	compile := func() *Procedure {
		calls++

		p := NewProcedure("f", sym)
		p.Entry().Append(&Instruction{Op: Ret})

		return p
	}

	p1 := m.ProcedureFor(sym, compile)
	p2 := m.ProcedureFor(sym, compile)

	assert.Same(t, p1, p2)
	assert.Equal(t, 1, calls)
	assert.Len(t, m.Procedures, 1)
}
