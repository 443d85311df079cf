// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package binder walks a green/red syntax tree into the "untyped tree":
// names resolved to symbols, but every expression's type left as
// a solver.Variable that may still be unresolved. Running a solver.Solver
// over the constraints a Bind call registers turns the same tree into the
// "bound tree" by filling in those variables in place, which is why this
// package's node types carry a *solver.Variable rather than two separate
// typed/untyped representations.
package binder

import (
	"github.com/lucyelle/DracoCompiler/solver"
	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// Node is implemented by every untyped/bound tree node.
type Node interface {
	Span() source.Span
}

type base struct {
	span source.Span
}

func (b base) Span() source.Span { return b.span }

// CompilationUnit is the bound-tree root.
type CompilationUnit struct {
	base
	Declarations []Decl
	Scope        *symbols.Scope
}

// Decl is implemented by every declaration node.
type Decl interface {
	Node
	isDecl()
}

type FunctionDecl struct {
	base
	Symbol     *symbols.Symbol
	Params     []*symbols.Symbol
	ReturnType *solver.Variable
	Body       Expr // either a BlockExpr or a single expression (`= expr;` form)
	Scope      *symbols.Scope
}

func (*FunctionDecl) isDecl() {}

type ModuleDecl struct {
	base
	Symbol       *symbols.Symbol
	Declarations []Decl
	Scope        *symbols.Scope
}

func (*ModuleDecl) isDecl() {}

type VariableDecl struct {
	base
	Symbol *symbols.Symbol
	Type   *solver.Variable
	Init   Expr // nil if no initializer
}

func (*VariableDecl) isDecl() {}

type LabelDecl struct {
	base
	Symbol *symbols.Symbol
}

func (*LabelDecl) isDecl() {}

// UnexpectedDecl stands in for a recovered Unexpected* declaration node;
// it carries no semantics and is skipped by every later phase.
type UnexpectedDecl struct{ base }

func (*UnexpectedDecl) isDecl() {}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	isStmt()
}

type DeclStatement struct {
	base
	Decl Decl
}

func (*DeclStatement) isStmt() {}

type ExprStatement struct {
	base
	Expr Expr
}

func (*ExprStatement) isStmt() {}

type NoOpStatement struct{ base }

func (*NoOpStatement) isStmt() {}

// Expr is implemented by every expression node. Type starts as an
// unresolved solver.Variable and is filled in by the constraints Bind
// registers (directly for atoms, via a pending Constraint for calls and
// member access).
type Expr interface {
	Node
	isExpr()
	Type() *solver.Variable
}

type exprBase struct {
	base
	typ *solver.Variable
}

func (e exprBase) Type() *solver.Variable { return e.typ }

type LiteralExpr struct {
	exprBase
	Value any
}

func (*LiteralExpr) isExpr() {}

// StringPiece is one segment of a string literal: either literal Text or
// an interpolated expression, never both.
type StringPiece struct {
	Text string
	Expr Expr
}

type StringExpr struct {
	exprBase
	Pieces []StringPiece
}

func (*StringExpr) isExpr() {}

// NameExpr is a resolved value reference. Symbol is nil (and Group
// non-nil) when the name resolved to a function group still awaiting
// overload resolution.
type NameExpr struct {
	exprBase
	Name   string
	Symbol *symbols.Symbol
	Group  []*symbols.Symbol
}

func (*NameExpr) isExpr() {}

type MemberExpr struct {
	exprBase
	Receiver Expr
	Name     string
	Symbol   *symbols.Symbol // filled once the Member constraint solves
	// Group holds the function group when the receiver is a module and
	// the member names overloaded functions; resolution then runs through
	// the enclosing call's Overload constraint, exactly like a NameExpr.
	Group []*symbols.Symbol
}

func (*MemberExpr) isExpr() {}

type CallExpr struct {
	exprBase
	Callee Expr
	Args   []Expr
	// Resolved is filled once the Call/Overload constraint solves: the
	// concrete function symbol actually invoked.
	Resolved *symbols.Symbol
}

func (*CallExpr) isExpr() {}

// NewExpr constructs an instance of a named type; this is the one place
// a type reference legally appears in value position.
type NewExpr struct {
	exprBase
	TypeSymbol *symbols.Symbol
	Args       []Expr
}

func (*NewExpr) isExpr() {}

type IndexExpr struct {
	exprBase
	Receiver Expr
	Index    Expr
}

func (*IndexExpr) isExpr() {}

type UnaryExpr struct {
	exprBase
	Op      string
	Operand Expr
}

func (*UnaryExpr) isExpr() {}

type BinaryExpr struct {
	exprBase
	Op          string
	Left, Right Expr
	// Resolved is the intrinsic operator symbol the solver picked; IR
	// lowering keys its typed instructions off it.
	Resolved *symbols.Symbol
}

func (*BinaryExpr) isExpr() {}

type RelationalClause struct {
	Op   string
	Next Expr
}

type RelationalExpr struct {
	exprBase
	First   Expr
	Clauses []RelationalClause
}

func (*RelationalExpr) isExpr() {}

type IfExpr struct {
	exprBase
	Cond       Expr
	Then       Expr
	Else       Expr // nil if no else
}

func (*IfExpr) isExpr() {}

type WhileExpr struct {
	exprBase
	Cond Expr
	Body Expr
}

func (*WhileExpr) isExpr() {}

type BlockExpr struct {
	exprBase
	Statements []Stmt
	Scope      *symbols.Scope
}

func (*BlockExpr) isExpr() {}

type ReturnExpr struct {
	exprBase
	Value Expr // nil for a bare `return;`
}

func (*ReturnExpr) isExpr() {}

type GotoExpr struct {
	exprBase
	LabelName string
	Label     *symbols.Symbol
}

func (*GotoExpr) isExpr() {}

type GroupingExpr struct {
	exprBase
	Inner Expr
}

func (*GroupingExpr) isExpr() {}

type AssignmentExpr struct {
	exprBase
	Op          string
	Target, Value Expr
}

func (*AssignmentExpr) isExpr() {}

// UnexpectedExpr stands in for a recovered Unexpected* expression node.
type UnexpectedExpr struct{ exprBase }

func (*UnexpectedExpr) isExpr() {}
