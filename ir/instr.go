// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package ir

import (
	"fmt"
	"strconv"

	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// Op is the instruction opcode.
type Op int

const (
	// Arithmetic.
	Add Op = iota
	Sub
	Mul
	Div
	Rem

	// Comparison.
	Less
	Equal

	// Memory.
	Load
	Store
	LoadField
	StoreField
	LoadElement
	StoreElement

	// Calls and allocation.
	Call
	MemberCall
	NewObject
	NewArray
	ArrayLength

	// Branches.
	Jump
	Branch
	Ret

	// Pseudo-instructions.
	SequencePoint
	StartScope
	EndScope
	Nop
)

var opNames = map[Op]string{
	Add:           "add",
	Sub:           "sub",
	Mul:           "mul",
	Div:           "div",
	Rem:           "rem",
	Less:          "less",
	Equal:         "equal",
	Load:          "load",
	Store:         "store",
	LoadField:     "loadfield",
	StoreField:    "storefield",
	LoadElement:   "loadelement",
	StoreElement:  "storeelement",
	Call:          "call",
	MemberCall:    "membercall",
	NewObject:     "newobject",
	NewArray:      "newarray",
	ArrayLength:   "arraylength",
	Jump:          "jump",
	Branch:        "branch",
	Ret:           "ret",
	SequencePoint: "sequencepoint",
	StartScope:    "startscope",
	EndScope:      "endscope",
	Nop:           "nop",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}

	return "op(?)"
}

// IsBranch reports whether this opcode terminates a basic block.
func (op Op) IsBranch() bool {
	switch op {
	case Jump, Branch, Ret:
		return true
	default:
		return false
	}
}

// ValidInUnreachable reports whether the instruction may still be emitted
// after the current block has been detached by a goto or return. Scope
// ends and sequence points must survive there so that scope nesting stays
// balanced and debug anchors aren't lost.
func (op Op) ValidInUnreachable() bool {
	switch op {
	case EndScope, SequencePoint, Nop:
		return true
	default:
		return false
	}
}

// Operand is anything an instruction reads: a register, a storage slot,
// a literal constant, or a symbolic reference by qualified name.
type Operand interface {
	operandString() string
}

// Register is an SSA-ish temporary, typed at its definition.
type Register struct {
	Index int
	Type  *symbols.Symbol
}

func (r *Register) operandString() string { return "r" + strconv.Itoa(r.Index) }

// Local is a named stack slot.
type Local struct {
	Index int
	Name  string
	Type  *symbols.Symbol
}

func (l *Local) operandString() string { return "loc" + strconv.Itoa(l.Index) }

// Global is a module-level storage slot.
type Global struct {
	Index int
	Name  string
	Type  *symbols.Symbol
}

func (g *Global) operandString() string { return "glob" + strconv.Itoa(g.Index) }

// Param is a procedure parameter slot.
type Param struct {
	Index int
	Name  string
	Type  *symbols.Symbol
}

func (p *Param) operandString() string { return "param" + strconv.Itoa(p.Index) }

// Const is a literal constant operand.
type Const struct {
	Value any
	Type  *symbols.Symbol
}

func (c *Const) operandString() string {
	switch v := c.Value.(type) {
	case string:
		return strconv.Quote(v)
	case nil:
		return "unit"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SymbolRef references a symbol (a called function, a field) by its
// qualified name.
type SymbolRef struct {
	Symbol *symbols.Symbol
}

func (s *SymbolRef) operandString() string { return s.Symbol.QualifiedName() }

// Instruction is one three-address instruction. Which fields are
// meaningful depends on Op: branches use Then/Else, SequencePoint uses
// Span, StartScope uses ScopeLocals, everything else uses Target and
// Operands.
type Instruction struct {
	Op       Op
	Target   *Register
	Operands []Operand

	// Then is the Jump target, or the true edge of a Branch (whose
	// condition is Operands[0]); Else is the false edge.
	Then *BasicBlock
	Else *BasicBlock

	// Span anchors a SequencePoint to its source statement.
	Span source.Span

	// ScopeLocals are the locals a StartScope brings into scope.
	ScopeLocals []*Local
}

// Clone returns a shallow-field, fresh-slice copy. Optimization passes
// rewrite clones rather than mutating shared instructions.
func (i *Instruction) Clone() *Instruction {
	c := *i
	c.Operands = append([]Operand(nil), i.Operands...)
	c.ScopeLocals = append([]*Local(nil), i.ScopeLocals...)

	return &c
}
