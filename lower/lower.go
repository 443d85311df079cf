// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package lower translates the bound tree into the three-address IR: a
// depth-first visitor producing instructions into a current basic block,
// with gotos and returns detaching the block so subsequent instructions
// are dropped unless they are valid in unreachable contexts.
package lower

import (
	"github.com/lucyelle/DracoCompiler/binder"
	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/ir"
	"github.com/lucyelle/DracoCompiler/solver"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// Lowerer lowers one compilation's bound tree into one ir.Module.
type Lowerer struct {
	bag    *diagnostics.Bag
	module *ir.Module

	// decls indexes every function declaration in the unit (nested ones
	// included) by symbol, so a call site can compile its target lazily
	// through ir.Module's at-most-once cache.
	decls   map[*symbols.Symbol]*binder.FunctionDecl
	globals map[*symbols.Symbol]*ir.Global

	concat *symbols.Symbol
}

// stringConcat returns the symbolic reference interpolated strings fold
// their pieces through; the host runtime supplies the implementation.
func (l *Lowerer) stringConcat() *symbols.Symbol {
	if l.concat == nil {
		str := symbols.New(symbols.KindModule, "String", nil, symbols.Public)
		l.concat = symbols.New(symbols.KindFunction, "Concat", str, symbols.Public)
	}

	return l.concat
}

// Lower translates the whole unit. Functions lower on first reference or
// declaration, whichever comes first; global initializers collect into a
// synthetic module initializer procedure.
func Lower(unit *binder.CompilationUnit, bag *diagnostics.Bag) *ir.Module {
	l := &Lowerer{
		bag:     bag,
		module:  ir.NewModule(),
		decls:   make(map[*symbols.Symbol]*binder.FunctionDecl),
		globals: make(map[*symbols.Symbol]*ir.Global),
	}

	l.collect(unit.Declarations)

	// Globals get their slots before any function lowers, since a body may
	// reference a global declared after it.
	var inits []*binder.VariableDecl
	var fns []*binder.FunctionDecl

	var walk func(decls []binder.Decl)
	walk = func(decls []binder.Decl) {
		for _, d := range decls {
			switch d := d.(type) {
			case *binder.FunctionDecl:
				fns = append(fns, d)
			case *binder.ModuleDecl:
				walk(d.Declarations)
			case *binder.VariableDecl:
				g := l.module.AddGlobal(d.Symbol.Name, resolve(d.Type))
				l.globals[d.Symbol] = g

				if d.Init != nil {
					inits = append(inits, d)
				}
			}
		}
	}
	walk(unit.Declarations)

	for _, fn := range fns {
		l.procedureFor(fn.Symbol)
	}

	if len(inits) > 0 {
		l.lowerModuleInit(inits)
	}

	return l.module
}

// collect indexes every FunctionDecl reachable from decls, recursing into
// modules, blocks and expression bodies, so that forward references and
// calls to nested functions can find their declaration.
func (l *Lowerer) collect(decls []binder.Decl) {
	var visitExpr func(e binder.Expr)
	var visitDecl func(d binder.Decl)

	visitStmt := func(s binder.Stmt) {
		switch s := s.(type) {
		case *binder.DeclStatement:
			visitDecl(s.Decl)
		case *binder.ExprStatement:
			visitExpr(s.Expr)
		}
	}

	visitDecl = func(d binder.Decl) {
		switch d := d.(type) {
		case *binder.FunctionDecl:
			l.decls[d.Symbol] = d
			visitExpr(d.Body)
		case *binder.ModuleDecl:
			for _, inner := range d.Declarations {
				visitDecl(inner)
			}
		case *binder.VariableDecl:
			if d.Init != nil {
				visitExpr(d.Init)
			}
		}
	}

	visitExpr = func(e binder.Expr) {
		switch e := e.(type) {
		case *binder.BlockExpr:
			for _, s := range e.Statements {
				visitStmt(s)
			}
		case *binder.IfExpr:
			visitExpr(e.Cond)
			visitExpr(e.Then)

			if e.Else != nil {
				visitExpr(e.Else)
			}
		case *binder.WhileExpr:
			visitExpr(e.Cond)
			visitExpr(e.Body)
		case *binder.GroupingExpr:
			visitExpr(e.Inner)
		case *binder.UnaryExpr:
			visitExpr(e.Operand)
		case *binder.BinaryExpr:
			visitExpr(e.Left)
			visitExpr(e.Right)
		case *binder.RelationalExpr:
			visitExpr(e.First)
			for _, cl := range e.Clauses {
				visitExpr(cl.Next)
			}
		case *binder.CallExpr:
			if e.Callee != nil {
				visitExpr(e.Callee)
			}

			for _, a := range e.Args {
				visitExpr(a)
			}
		case *binder.NewExpr:
			for _, a := range e.Args {
				visitExpr(a)
			}
		case *binder.IndexExpr:
			visitExpr(e.Receiver)
			visitExpr(e.Index)
		case *binder.MemberExpr:
			visitExpr(e.Receiver)
		case *binder.AssignmentExpr:
			visitExpr(e.Target)
			visitExpr(e.Value)
		case *binder.ReturnExpr:
			if e.Value != nil {
				visitExpr(e.Value)
			}
		case *binder.StringExpr:
			for _, p := range e.Pieces {
				if p.Expr != nil {
					visitExpr(p.Expr)
				}
			}
		}
	}

	for _, d := range decls {
		visitDecl(d)
	}
}

// procedureFor returns sym's procedure, compiling it at most once.
func (l *Lowerer) procedureFor(sym *symbols.Symbol) *ir.Procedure {
	decl, ok := l.decls[sym]
	if !ok {
		return nil
	}

	return l.module.ProcedureFor(sym, func() *ir.Procedure {
		return l.lowerFunction(decl)
	})
}

func (l *Lowerer) lowerFunction(decl *binder.FunctionDecl) *ir.Procedure {
	proc := ir.NewProcedure(decl.Symbol.QualifiedName(), decl.Symbol)

	f := &funcLowerer{
		l:      l,
		proc:   proc,
		block:  proc.Entry(),
		locals: make(map[*symbols.Symbol]*ir.Local),
		params: make(map[*symbols.Symbol]*ir.Param),
		labels: make(map[*symbols.Symbol]*ir.BasicBlock),
	}

	for _, p := range decl.Params {
		f.params[p] = proc.AddParam(p.Name, paramType(p))
	}

	f.collectLabels(decl.Body)

	value := f.lowerExpr(decl.Body)

	retType := decl.Symbol.FunctionReturn

	if !f.detached {
		if isUnit(retType) || isVoidOperand(value) {
			// A bare ret out of a value-returning procedure is what the
			// flow pass reports as a missing return path.
			f.emit(&ir.Instruction{Op: ir.Ret})
		} else {
			f.emit(&ir.Instruction{Op: ir.Ret, Operands: []ir.Operand{value}})
		}
	}

	f.terminateDangling()

	ir.CheckFlow(proc, retType, decl.Span(), l.bag)

	return proc
}

// lowerModuleInit lowers every global initializer, in declaration order,
// into one synthetic `.init` procedure.
func (l *Lowerer) lowerModuleInit(inits []*binder.VariableDecl) {
	initSym := symbols.New(symbols.KindFunction, ".init", nil, symbols.Internal)
	proc := ir.NewProcedure(".init", initSym)

	f := &funcLowerer{
		l:      l,
		proc:   proc,
		block:  proc.Entry(),
		locals: make(map[*symbols.Symbol]*ir.Local),
		params: make(map[*symbols.Symbol]*ir.Param),
		labels: make(map[*symbols.Symbol]*ir.BasicBlock),
	}

	for _, d := range inits {
		f.emit(&ir.Instruction{Op: ir.SequencePoint, Span: d.Span()})

		v := f.lowerExpr(d.Init)
		f.emit(&ir.Instruction{Op: ir.Store, Operands: []ir.Operand{l.globals[d.Symbol], v}})
	}

	f.emit(&ir.Instruction{Op: ir.Ret})
	f.terminateDangling()

	l.module.Procedures = append(l.module.Procedures, proc)
}

func resolve(v *solver.Variable) *symbols.Symbol {
	if v == nil {
		return nil
	}

	return v.Resolve()
}

func paramType(p *symbols.Symbol) *symbols.Symbol {
	if t := p.GenericDef; t != nil {
		return t
	}

	return nil
}

// isVoidOperand recognizes the zero Const lowering uses as the "this
// expression produced no value" marker (unit-typed statements, detached
// control flow).
func isVoidOperand(op ir.Operand) bool {
	if op == nil {
		return true
	}

	c, ok := op.(*ir.Const)

	return ok && c.Value == nil && c.Type == nil
}

func isUnit(t *symbols.Symbol) bool {
	return t == nil || (t.TypeKind == symbols.TypePrimitive && t.Name == "Unit")
}
