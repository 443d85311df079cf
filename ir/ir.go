// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package ir defines the register-based three-address intermediate
// representation: a Module of Procedures, each an ordered list of basic
// blocks whose instructions operate on typed registers, locals, globals
// and parameters. Lowering from the bound tree lives in package lower;
// this package only knows the shape of the IR, its printable form, and
// the flow checks that run over it.
package ir

import (
	"sync"

	"github.com/lucyelle/DracoCompiler/symbols"
)

// Module owns every procedure and global lowered from one compilation.
type Module struct {
	Procedures []*Procedure
	Globals    []*Global

	mu       sync.Mutex
	compiled map[string]*Procedure
}

// NewModule returns an empty Module.
func NewModule() *Module {
	return &Module{compiled: make(map[string]*Procedure)}
}

// AddGlobal appends a new global slot typed typ and returns it.
func (m *Module) AddGlobal(name string, typ *symbols.Symbol) *Global {
	g := &Global{Index: len(m.Globals), Name: name, Type: typ}
	m.Globals = append(m.Globals, g)

	return g
}

// ProcedureFor returns the procedure already compiled for sym, or calls
// compile to produce it. Synthesized functions are compiled lazily on
// first reference; the cache is keyed by symbol identity. The lock is not
// held while compile runs, so racing first callers may each run compile:
// the first result stored is kept and returned to every caller, and the
// others are discarded.
func (m *Module) ProcedureFor(sym *symbols.Symbol, compile func() *Procedure) *Procedure {
	key := sym.ID.String()

	m.mu.Lock()
	if p, ok := m.compiled[key]; ok {
		m.mu.Unlock()
		return p
	}
	m.mu.Unlock()

	p := compile()

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.compiled[key]; ok {
		return existing
	}

	m.compiled[key] = p
	m.Procedures = append(m.Procedures, p)

	return p
}

// Procedure is one lowered function: parameters, locals, registers, and
// an ordered block list whose first entry is the designated entry block.
type Procedure struct {
	Name   string
	Symbol *symbols.Symbol

	Params []*Param
	Locals []*Local
	Blocks []*BasicBlock

	registers int
}

// NewProcedure creates a procedure with a fresh entry block.
func NewProcedure(name string, sym *symbols.Symbol) *Procedure {
	p := &Procedure{Name: name, Symbol: sym}
	p.NewBlock()

	return p
}

// Entry returns the designated entry block.
func (p *Procedure) Entry() *BasicBlock {
	return p.Blocks[0]
}

// NewBlock appends a fresh, empty basic block and returns it.
func (p *Procedure) NewBlock() *BasicBlock {
	b := &BasicBlock{Index: len(p.Blocks)}
	p.Blocks = append(p.Blocks, b)

	return b
}

// NewRegister allocates the next temporary, typed at its definition.
func (p *Procedure) NewRegister(typ *symbols.Symbol) *Register {
	r := &Register{Index: p.registers, Type: typ}
	p.registers++

	return r
}

// AddParam appends a parameter slot.
func (p *Procedure) AddParam(name string, typ *symbols.Symbol) *Param {
	prm := &Param{Index: len(p.Params), Name: name, Type: typ}
	p.Params = append(p.Params, prm)

	return prm
}

// AddLocal appends a local slot.
func (p *Procedure) AddLocal(name string, typ *symbols.Symbol) *Local {
	l := &Local{Index: len(p.Locals), Name: name, Type: typ}
	p.Locals = append(p.Locals, l)

	return l
}

// BasicBlock is a linear instruction run ending in exactly one branch
// instruction (Jump, Branch or Ret) once lowering of its procedure has
// finished.
type BasicBlock struct {
	Index        int
	Instructions []*Instruction
}

// Append adds an instruction at the end of the block.
func (b *BasicBlock) Append(i *Instruction) {
	b.Instructions = append(b.Instructions, i)
}

// Terminator returns the block's final instruction if it is a branch,
// else nil.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}

	last := b.Instructions[len(b.Instructions)-1]
	if !last.Op.IsBranch() {
		return nil
	}

	return last
}
