// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package binder

import (
	"github.com/lucyelle/DracoCompiler/solver"
	"github.com/lucyelle/DracoCompiler/symbols"
)

// operatorGroup returns the intrinsic function group backing a binary
// operator. Operators resolve exactly like any other overloaded call: the
// group goes into a solver.Overload constraint, and the winner becomes
// the BinaryExpr's Resolved symbol, which is what IR lowering keys its
// typed instructions off.
func (b *Binder) operatorGroup(op string) []*symbols.Symbol {
	if b.operators == nil {
		b.operators = make(map[string][]*symbols.Symbol)

		int32T := b.intrinsic("Int32")
		float64T := b.intrinsic("Float64")
		stringT := b.intrinsic("String")

		for _, name := range []string{"+", "-", "*", "/"} {
			b.operators[name] = []*symbols.Symbol{
				b.operatorFunc(name, int32T, int32T, int32T),
				b.operatorFunc(name, float64T, float64T, float64T),
			}
		}

		b.operators["+"] = append(b.operators["+"],
			b.operatorFunc("+", stringT, stringT, stringT))

		for _, name := range []string{"mod", "rem"} {
			b.operators[name] = []*symbols.Symbol{
				b.operatorFunc(name, int32T, int32T, int32T),
			}
		}
	}

	return b.operators[op]
}

func (b *Binder) operatorFunc(name string, left, right, result *symbols.Symbol) *symbols.Symbol {
	fn := symbols.New(symbols.KindFunction, "operator "+name, nil, symbols.Public)
	fn.FunctionParams = []*symbols.Symbol{left, right}
	fn.FunctionReturn = result

	return fn
}

// opOverload adapts solver.Overload so BinaryExpr.Resolved gets filled
// once the operator's constraint solves, mirroring callOverload.
type opOverload struct {
	overload *solver.Overload
	expr     *BinaryExpr
}

func (c *opOverload) Tick(ctx *solver.Context) solver.SolveState {
	state := c.overload.Tick(ctx)
	if state == solver.Solved {
		c.expr.Resolved = c.overload.Resolved
	}

	return state
}

func (c *opOverload) Fail(ctx *solver.Context) {
	c.overload.Fail(ctx)
	c.expr.Resolved = c.overload.Resolved
}
