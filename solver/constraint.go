// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package solver

import (
	"math"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/source"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// SolveState is the per-tick result a Constraint reports back to the
// Solver driver loop.
type SolveState int

const (
	Stale SolveState = iota
	AdvancedContinue
	Solved
)

// Constraint is one pending unit of deferred resolution work.
type Constraint interface {
	// Tick attempts progress and reports the outcome. ctx carries the
	// shared diagnostic bag and the well-known Error type.
	Tick(ctx *Context) SolveState
	// Fail is invoked once, only if this constraint is still Stale when
	// the driver detects a full pass with no progress anywhere.
	Fail(ctx *Context)
}

// Context is threaded through every constraint tick.
type Context struct {
	Bag       *diagnostics.Bag
	ErrorType *symbols.Symbol
	// IntType backs the synthesized Length member on array types; nil
	// disables that lookup (standalone solver tests).
	IntType *symbols.Symbol
}

func (c *Context) unify(a, b *Variable, span source.Span) {
	Unify(a, b, c.Bag, c.ErrorType, span)
}

// Assignable unifies source into target, applying implicit conversions
// (currently identity).
type Assignable struct {
	Target, Source *Variable
	Span           source.Span
}

func (a *Assignable) Tick(ctx *Context) SolveState {
	ctx.unify(a.Target, a.Source, a.Span)
	return Solved
}

func (a *Assignable) Fail(ctx *Context) {}

// Call resolves an indirect call: once CalledType is known, unifies Args
// against its parameter types and ReturnType against its return type.
type Call struct {
	CalledType *Variable
	Args       []*Variable
	ReturnType *Variable
	Span       source.Span
}

func (c *Call) Tick(ctx *Context) SolveState {
	fn := c.CalledType.Resolve()
	if fn == nil {
		return Stale
	}

	if fn.Kind == symbols.KindType && fn.TypeKind == symbols.TypeError {
		// The callee already failed; its root cause was reported.
		c.ReturnType.setSub(ctx.ErrorType)
		return Solved
	}

	callable := fn.Kind == symbols.KindFunction ||
		(fn.Kind == symbols.KindType && fn.TypeKind == symbols.TypeFunction)
	if !callable {
		ctx.Bag.Add(diagnostics.New(diagnostics.Error, diagnostics.CallNonFunction, c.Span, nil,
			"%s is not callable", fn.QualifiedName()))
		c.ReturnType.setSub(ctx.ErrorType)

		return Solved
	}

	for i, arg := range c.Args {
		if i < len(fn.FunctionParams) {
			ctx.unify(Concrete(fn.FunctionParams[i].ValueType()), arg, c.Span)
		}
	}

	ctx.unify(c.ReturnType, Concrete(fn.FunctionReturn), c.Span)

	return Solved
}

func (c *Call) Fail(ctx *Context) {
	c.ReturnType.setSub(ctx.ErrorType)
}

// Overload resolves a function group: candidates are scored
// once every argument has a known type, the unique maximum wins, ties
// report AmbiguousOverload, and a set in which every candidate was
// eliminated reports NoMatchingOverload.
type Overload struct {
	Candidates []*symbols.Symbol
	Args       []*Variable
	ReturnType *Variable
	Span       source.Span
	Resolved   *symbols.Symbol // set once Solved
}

func (o *Overload) Tick(ctx *Context) SolveState {
	for _, a := range o.Args {
		if a.Resolve() == nil {
			return Stale
		}
	}

	type scored struct {
		sym   *symbols.Symbol
		score float64
	}

	var best []scored
	bestScore := math.Inf(-1)

	for _, cand := range o.Candidates {
		score := scoreCandidate(cand, o.Args)
		if math.IsInf(score, -1) {
			continue
		}

		switch {
		case score > bestScore:
			bestScore = score
			best = []scored{{cand, score}}
		case score == bestScore:
			best = append(best, scored{cand, score})
		}
	}

	switch len(best) {
	case 0:
		ctx.Bag.Add(diagnostics.New(diagnostics.Error, diagnostics.NoMatchingOverload, o.Span, nil,
			"no overload matches the given arguments"))
		o.Resolved = ctx.ErrorType
		o.ReturnType.setSub(ctx.ErrorType)
	case 1:
		o.Resolved = best[0].sym
		ctx.unify(o.ReturnType, Concrete(returnTypeOf(best[0].sym, o.Args)), o.Span)
	default:
		ctx.Bag.Add(diagnostics.New(diagnostics.Error, diagnostics.AmbiguousOverload, o.Span, nil,
			"%d overloads are equally good matches", len(best)))
		o.Resolved = ctx.ErrorType
		o.ReturnType.setSub(ctx.ErrorType)
	}

	return Solved
}

func (o *Overload) Fail(ctx *Context) {
	o.Resolved = ctx.ErrorType
	o.ReturnType.setSub(ctx.ErrorType)
}

// scoreCandidate scores one candidate
// against already-resolved argument types.
func scoreCandidate(cand *symbols.Symbol, args []*Variable) float64 {
	params := cand.FunctionParams

	variadic := len(params) > 0 && params[len(params)-1].ValueType().TypeKind == symbols.TypeArray
	if variadic {
		if len(args) < len(params)-1 {
			return math.Inf(-1)
		}
	} else if len(args) != len(params) {
		return math.Inf(-1)
	}

	total := 0.0

	for i, arg := range args {
		var param *symbols.Symbol

		switch {
		case variadic && i >= len(params)-1:
			param = params[len(params)-1].ValueType().ElementType
		case i < len(params):
			param = params[i].ValueType()
		default:
			return math.Inf(-1)
		}

		argType := arg.Resolve()

		switch {
		case argType == nil:
			total += 0
		case argType.TypeKind == symbols.TypeError || argType.TypeKind == symbols.TypeNever:
			// A poisoned or bottom-typed argument neither helps nor hurts:
			// its own root cause was already reported.
			total += 0
		case argType.Equal(param, symbols.Default):
			total += 2
		case isAssignable(param, argType):
			total += 1
		default:
			return math.Inf(-1)
		}
	}

	return total
}

// returnTypeOf substitutes a type-parameter return position with the
// argument type that bound it, so a generic function called with a known
// argument yields that concrete type rather than a bare type parameter.
// Non-generic returns pass through untouched.
func returnTypeOf(cand *symbols.Symbol, args []*Variable) *symbols.Symbol {
	ret := cand.FunctionReturn
	if ret == nil || ret.TypeKind != symbols.TypeParameterRef {
		return ret
	}

	for i, p := range cand.FunctionParams {
		if i >= len(args) {
			break
		}

		t := p.ValueType()
		if t == nil {
			continue
		}

		bindsRet := t == ret || (t.TypeKind == symbols.TypeArray && t.ElementType == ret)
		if !bindsRet {
			continue
		}

		if argType := args[i].Resolve(); argType != nil && argType.TypeKind != symbols.TypeError {
			return argType
		}
	}

	return ret
}

// isAssignable mirrors Assignable's current identity conversion, plus
// generic unification: a type-parameter target accepts any source (the
// substitution is what a full generic-instantiation pass would compute),
// and otherwise source and target must match under signature equality
// (type parameters treated as interchangeable).
func isAssignable(target, source *symbols.Symbol) bool {
	if target.TypeKind == symbols.TypeParameterRef {
		return true
	}

	if target.TypeKind == symbols.TypeArray && target.ElementType != nil &&
		target.ElementType.TypeKind == symbols.TypeParameterRef {
		return true
	}

	return source.Equal(target, symbols.SignatureMatch)
}

// Member awaits a receiver type, then looks up name among its members.
type Member struct {
	ReceiverType *Variable
	Name         string
	Span         source.Span
	Result       *symbols.Symbol
}

func (m *Member) Tick(ctx *Context) SolveState {
	recv := m.ReceiverType.Resolve()
	if recv == nil {
		return Stale
	}

	// Arrays carry one synthesized member: their element count.
	if recv.TypeKind == symbols.TypeArray && m.Name == "Length" && ctx.IntType != nil {
		length := symbols.New(symbols.KindField, "Length", recv, symbols.Public)
		length.ElementType = ctx.IntType
		m.Result = length

		return Solved
	}

	for _, member := range recv.Members() {
		if member.Name == m.Name {
			m.Result = member
			return Solved
		}
	}

	ctx.Bag.Add(diagnostics.New(diagnostics.Error, diagnostics.UndefinedReference, m.Span, nil,
		"%s has no member %q", recv.QualifiedName(), m.Name))
	m.Result = ctx.ErrorType

	return Solved
}

func (m *Member) Fail(ctx *Context) {
	m.Result = ctx.ErrorType
}
