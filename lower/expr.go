// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package lower

import (
	"github.com/lucyelle/DracoCompiler/binder"
	"github.com/lucyelle/DracoCompiler/ir"
	"github.com/lucyelle/DracoCompiler/symbols"
)

func (f *funcLowerer) lowerExpr(e binder.Expr) ir.Operand {
	switch e := e.(type) {
	case *binder.LiteralExpr:
		return &ir.Const{Value: e.Value, Type: resolve(e.Type())}
	case *binder.StringExpr:
		return f.lowerString(e)
	case *binder.NameExpr:
		return f.lowerName(e)
	case *binder.MemberExpr:
		return f.lowerMember(e)
	case *binder.CallExpr:
		return f.lowerCall(e)
	case *binder.NewExpr:
		operands := []ir.Operand{&ir.SymbolRef{Symbol: e.TypeSymbol}}
		for _, a := range e.Args {
			operands = append(operands, f.lowerExpr(a))
		}

		op := ir.NewObject
		if e.TypeSymbol.TypeKind == symbols.TypeArray {
			op = ir.NewArray
		}

		r := f.proc.NewRegister(e.TypeSymbol)
		f.emit(&ir.Instruction{Op: op, Target: r, Operands: operands})

		return r
	case *binder.IndexExpr:
		recv := f.lowerExpr(e.Receiver)
		idx := f.lowerExpr(e.Index)

		return f.compute(ir.LoadElement, resolve(e.Type()), recv, idx)
	case *binder.UnaryExpr:
		return f.lowerUnary(e)
	case *binder.BinaryExpr:
		return f.lowerBinary(e)
	case *binder.RelationalExpr:
		if len(e.Clauses) == 1 {
			a := f.lowerExpr(e.First)
			b := f.lowerExpr(e.Clauses[0].Next)

			return f.compare(e.Clauses[0].Op, a, b, resolve(e.Type()))
		}

		return f.materializeBool(e, resolve(e.Type()))
	case *binder.IfExpr:
		return f.lowerIf(e)
	case *binder.WhileExpr:
		return f.lowerWhile(e)
	case *binder.BlockExpr:
		return f.lowerBlock(e)
	case *binder.ReturnExpr:
		if e.Value != nil {
			v := f.lowerExpr(e.Value)
			f.emit(&ir.Instruction{Op: ir.Ret, Operands: []ir.Operand{v}})
		} else {
			f.emit(&ir.Instruction{Op: ir.Ret})
		}

		f.detach()

		return &ir.Const{}
	case *binder.GotoExpr:
		if target, ok := f.labels[e.Label]; ok {
			f.emit(&ir.Instruction{Op: ir.Jump, Then: target})
		}

		f.detach()

		return &ir.Const{}
	case *binder.GroupingExpr:
		return f.lowerExpr(e.Inner)
	case *binder.AssignmentExpr:
		return f.lowerAssignment(e)
	default:
		return &ir.Const{}
	}
}

func isModuleReceiver(e binder.Expr) bool {
	n, ok := e.(*binder.NameExpr)
	return ok && n.Symbol != nil && n.Symbol.Kind == symbols.KindModule
}

// compute emits `target := op operands` into a fresh register.
func (f *funcLowerer) compute(op ir.Op, typ *symbols.Symbol, operands ...ir.Operand) *ir.Register {
	r := f.proc.NewRegister(typ)
	f.emit(&ir.Instruction{Op: op, Target: r, Operands: operands})

	return r
}

func (f *funcLowerer) lowerString(e *binder.StringExpr) ir.Operand {
	if len(e.Pieces) == 0 {
		return &ir.Const{Value: "", Type: resolve(e.Type())}
	}

	var acc ir.Operand

	for _, p := range e.Pieces {
		var piece ir.Operand
		if p.Expr != nil {
			piece = f.lowerExpr(p.Expr)
		} else {
			piece = &ir.Const{Value: p.Text, Type: resolve(e.Type())}
		}

		if acc == nil {
			acc = piece
			continue
		}

		r := f.proc.NewRegister(resolve(e.Type()))
		f.emit(&ir.Instruction{
			Op:       ir.Call,
			Target:   r,
			Operands: []ir.Operand{&ir.SymbolRef{Symbol: f.l.stringConcat()}, acc, piece},
		})
		acc = r
	}

	return acc
}

func (f *funcLowerer) lowerName(e *binder.NameExpr) ir.Operand {
	sym := e.Symbol
	if sym == nil && len(e.Group) > 0 {
		sym = e.Group[0]
	}

	if sym == nil {
		return &ir.Const{}
	}

	switch sym.Kind {
	case symbols.KindLocal:
		return f.compute(ir.Load, resolve(e.Type()), f.locals[sym])
	case symbols.KindParameter:
		return f.compute(ir.Load, resolve(e.Type()), f.params[sym])
	case symbols.KindGlobal:
		return f.compute(ir.Load, resolve(e.Type()), f.l.globals[sym])
	case symbols.KindFunction:
		f.l.procedureFor(sym)
		return &ir.SymbolRef{Symbol: sym}
	default:
		return &ir.SymbolRef{Symbol: sym}
	}
}

func (f *funcLowerer) lowerMember(e *binder.MemberExpr) ir.Operand {
	recv := f.lowerExpr(e.Receiver)

	if e.Symbol == nil {
		return &ir.Const{}
	}

	if recvType := resolve(e.Receiver.Type()); recvType != nil &&
		recvType.TypeKind == symbols.TypeArray && e.Symbol.Name == "Length" {
		return f.compute(ir.ArrayLength, resolve(e.Type()), recv)
	}

	if e.Symbol.Kind == symbols.KindFunction {
		return &ir.SymbolRef{Symbol: e.Symbol}
	}

	return f.compute(ir.LoadField, resolve(e.Type()), recv, &ir.SymbolRef{Symbol: e.Symbol})
}

func (f *funcLowerer) lowerCall(e *binder.CallExpr) ir.Operand {
	// Member calls keep the receiver as a distinct operand so the callee
	// is evaluated exactly once, before the arguments. A module-qualified
	// call is not a member call: the "receiver" is a namespace.
	if m, ok := e.Callee.(*binder.MemberExpr); ok && e.Resolved != nil && e.Resolved.TypeKind != symbols.TypeError &&
		!isModuleReceiver(m.Receiver) {
		recv := f.lowerExpr(m.Receiver)

		operands := []ir.Operand{&ir.SymbolRef{Symbol: e.Resolved}, recv}
		for _, a := range e.Args {
			operands = append(operands, f.lowerExpr(a))
		}

		return f.computeCall(ir.MemberCall, resolve(e.Type()), operands)
	}

	if e.Resolved != nil && e.Resolved.Kind == symbols.KindFunction {
		f.l.procedureFor(e.Resolved)

		operands := []ir.Operand{&ir.SymbolRef{Symbol: e.Resolved}}
		for _, a := range e.Args {
			operands = append(operands, f.lowerExpr(a))
		}

		return f.computeCall(ir.Call, resolve(e.Type()), operands)
	}

	// Indirect call through a function-typed value.
	callee := f.lowerExpr(e.Callee)

	operands := []ir.Operand{callee}
	for _, a := range e.Args {
		operands = append(operands, f.lowerExpr(a))
	}

	return f.computeCall(ir.Call, resolve(e.Type()), operands)
}

func (f *funcLowerer) computeCall(op ir.Op, typ *symbols.Symbol, operands []ir.Operand) ir.Operand {
	if isUnit(typ) {
		f.emit(&ir.Instruction{Op: op, Operands: operands})
		return &ir.Const{}
	}

	r := f.proc.NewRegister(typ)
	f.emit(&ir.Instruction{Op: op, Target: r, Operands: operands})

	return r
}

func (f *funcLowerer) lowerUnary(e *binder.UnaryExpr) ir.Operand {
	v := f.lowerExpr(e.Operand)
	typ := resolve(e.Type())

	switch e.Op {
	case "-":
		return f.compute(ir.Mul, typ, v, &ir.Const{Value: int64(-1), Type: typ})
	case "not", "!":
		return f.compute(ir.Equal, typ, v, &ir.Const{Value: false, Type: typ})
	default:
		return v
	}
}

func (f *funcLowerer) lowerBinary(e *binder.BinaryExpr) ir.Operand {
	if e.Op == "and" || e.Op == "or" {
		return f.materializeBool(e, resolve(e.Type()))
	}

	a := f.lowerExpr(e.Left)
	b := f.lowerExpr(e.Right)
	typ := resolve(e.Type())

	switch e.Op {
	case "+":
		return f.compute(ir.Add, typ, a, b)
	case "-":
		return f.compute(ir.Sub, typ, a, b)
	case "*":
		return f.compute(ir.Mul, typ, a, b)
	case "/":
		return f.compute(ir.Div, typ, a, b)
	case "rem":
		return f.compute(ir.Rem, typ, a, b)
	case "mod":
		// Euclidean mod: (a rem b + b) rem b.
		t1 := f.compute(ir.Rem, typ, a, b)
		t2 := f.compute(ir.Add, typ, t1, b)

		return f.compute(ir.Rem, typ, t2, b)
	default:
		return a
	}
}

// compare emits the comparison for one relational operator. Only Less and
// Equal exist as instructions; the other four operators rewrite onto them.
func (f *funcLowerer) compare(op string, a, b ir.Operand, boolType *symbols.Symbol) ir.Operand {
	switch op {
	case "<":
		return f.compute(ir.Less, boolType, a, b)
	case ">":
		return f.compute(ir.Less, boolType, b, a)
	case ">=":
		t := f.compute(ir.Less, boolType, a, b)
		return f.compute(ir.Equal, boolType, t, &ir.Const{Value: false, Type: boolType})
	case "<=":
		t := f.compute(ir.Less, boolType, b, a)
		return f.compute(ir.Equal, boolType, t, &ir.Const{Value: false, Type: boolType})
	case "==":
		return f.compute(ir.Equal, boolType, a, b)
	case "!=":
		t := f.compute(ir.Equal, boolType, a, b)
		return f.compute(ir.Equal, boolType, t, &ir.Const{Value: false, Type: boolType})
	default:
		return f.compute(ir.Equal, boolType, a, b)
	}
}

func (f *funcLowerer) lowerIf(e *binder.IfExpr) ir.Operand {
	thenB := f.newBlock()
	endB := f.newBlock()

	if e.Else == nil {
		f.lowerBranch(e.Cond, thenB, endB)

		f.enter(thenB)
		f.lowerExpr(e.Then)
		f.jumpTo(endB)

		f.enter(endB)

		return &ir.Const{}
	}

	elseB := f.newBlock()
	typ := resolve(e.Type())
	tmp := f.proc.AddLocal("", typ)

	f.lowerBranch(e.Cond, thenB, elseB)

	f.enter(thenB)
	v := f.lowerExpr(e.Then)
	f.emit(&ir.Instruction{Op: ir.Store, Operands: []ir.Operand{tmp, v}})
	f.jumpTo(endB)

	f.enter(elseB)
	v = f.lowerExpr(e.Else)
	f.emit(&ir.Instruction{Op: ir.Store, Operands: []ir.Operand{tmp, v}})
	f.jumpTo(endB)

	f.enter(endB)

	return f.compute(ir.Load, typ, tmp)
}

func (f *funcLowerer) lowerWhile(e *binder.WhileExpr) ir.Operand {
	condB := f.newBlock()
	bodyB := f.newBlock()
	endB := f.newBlock()

	f.jumpTo(condB)
	f.enter(condB)
	f.lowerBranch(e.Cond, bodyB, endB)

	f.enter(bodyB)
	f.lowerExpr(e.Body)
	f.jumpTo(condB)

	f.enter(endB)

	return &ir.Const{}
}

func (f *funcLowerer) lowerBlock(e *binder.BlockExpr) ir.Operand {
	// Locals are allocated up front so StartScope can name all of them.
	var scopeLocals []*ir.Local

	for _, s := range e.Statements {
		ds, ok := s.(*binder.DeclStatement)
		if !ok {
			continue
		}

		if vd, ok := ds.Decl.(*binder.VariableDecl); ok {
			loc := f.proc.AddLocal(vd.Symbol.Name, resolve(vd.Type))
			f.locals[vd.Symbol] = loc
			scopeLocals = append(scopeLocals, loc)
		}
	}

	f.emit(&ir.Instruction{Op: ir.StartScope, ScopeLocals: scopeLocals})

	var last ir.Operand

	for _, s := range e.Statements {
		f.emit(&ir.Instruction{Op: ir.SequencePoint, Span: s.Span()})
		last = f.lowerStmt(s)
	}

	f.emit(&ir.Instruction{Op: ir.EndScope})

	if last == nil {
		last = &ir.Const{}
	}

	return last
}

func (f *funcLowerer) lowerAssignment(e *binder.AssignmentExpr) ir.Operand {
	// Right-hand side first, then the lvalue as a load/store template
	// pair whose receiver and index operands are evaluated exactly once.
	rhs := f.lowerExpr(e.Value)

	load, store := f.lvalue(e.Target)

	if e.Op == "=" {
		store(rhs)
		return rhs
	}

	current := load()
	typ := resolve(e.Type())

	var result ir.Operand

	switch e.Op {
	case "+=":
		result = f.compute(ir.Add, typ, current, rhs)
	case "-=":
		result = f.compute(ir.Sub, typ, current, rhs)
	case "*=":
		result = f.compute(ir.Mul, typ, current, rhs)
	case "/=":
		result = f.compute(ir.Div, typ, current, rhs)
	default:
		result = rhs
	}

	store(result)

	return result
}

// lvalue compiles the target's side-effecting sub-expressions once and
// returns a (load, store) template pair over the resulting operands.
func (f *funcLowerer) lvalue(target binder.Expr) (load func() ir.Operand, store func(ir.Operand)) {
	nop := func(ir.Operand) {}

	switch t := target.(type) {
	case *binder.NameExpr:
		var slot ir.Operand

		switch {
		case t.Symbol == nil:
			return func() ir.Operand { return &ir.Const{} }, nop
		case t.Symbol.Kind == symbols.KindLocal:
			slot = f.locals[t.Symbol]
		case t.Symbol.Kind == symbols.KindParameter:
			slot = f.params[t.Symbol]
		case t.Symbol.Kind == symbols.KindGlobal:
			slot = f.l.globals[t.Symbol]
		default:
			return func() ir.Operand { return &ir.Const{} }, nop
		}

		typ := resolve(target.Type())

		return func() ir.Operand { return f.compute(ir.Load, typ, slot) },
			func(v ir.Operand) {
				f.emit(&ir.Instruction{Op: ir.Store, Operands: []ir.Operand{slot, v}})
			}
	case *binder.IndexExpr:
		recv := f.lowerExpr(t.Receiver)
		idx := f.lowerExpr(t.Index)
		typ := resolve(target.Type())

		return func() ir.Operand { return f.compute(ir.LoadElement, typ, recv, idx) },
			func(v ir.Operand) {
				f.emit(&ir.Instruction{Op: ir.StoreElement, Operands: []ir.Operand{recv, idx, v}})
			}
	case *binder.MemberExpr:
		recv := f.lowerExpr(t.Receiver)
		field := &ir.SymbolRef{Symbol: t.Symbol}
		typ := resolve(target.Type())

		if t.Symbol == nil {
			return func() ir.Operand { return &ir.Const{} }, nop
		}

		return func() ir.Operand { return f.compute(ir.LoadField, typ, recv, field) },
			func(v ir.Operand) {
				f.emit(&ir.Instruction{Op: ir.StoreField, Operands: []ir.Operand{recv, field, v}})
			}
	case *binder.GroupingExpr:
		return f.lvalue(t.Inner)
	default:
		return func() ir.Operand { return &ir.Const{} }, nop
	}
}

// enter switches lowering into b without emitting a fall-through jump;
// callers use it for blocks that are already branch targets.
func (f *funcLowerer) enter(b *ir.BasicBlock) {
	f.block = b
	f.detached = false
}

// jumpTo terminates the current block with a jump to b, unless the block
// is detached or already terminated.
func (f *funcLowerer) jumpTo(b *ir.BasicBlock) {
	if !f.detached && f.block.Terminator() == nil {
		f.block.Append(&ir.Instruction{Op: ir.Jump, Then: b})
	}

	f.detach()
}
