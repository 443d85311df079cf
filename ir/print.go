// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package ir

import (
	"fmt"
	"strings"
)

// Print renders the whole module in the textual IR form, procedure by
// procedure.
func Print(m *Module) string {
	sb := &strings.Builder{}

	for _, g := range m.Globals {
		fmt.Fprintf(sb, "global %s ; %s\n", g.operandString(), g.Name)
	}

	for i, p := range m.Procedures {
		if i > 0 || len(m.Globals) > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(PrintProcedure(p))
	}

	return sb.String()
}

// PrintProcedure renders one procedure: a header line, then each block as
// a `bb<n>:` label followed by its instructions, one per line, in the
// form `<target> := <op> <operands>` (`ret`, `jump` and `branch` have
// their own spellings).
func PrintProcedure(p *Procedure) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "proc %s(", p.Name)

	for i, prm := range p.Params {
		if i > 0 {
			sb.WriteString(", ")
		}

		fmt.Fprintf(sb, "%s %s", prm.operandString(), prm.Name)
	}

	sb.WriteString("):\n")

	for _, b := range p.Blocks {
		fmt.Fprintf(sb, "bb%d:\n", b.Index)

		for _, instr := range b.Instructions {
			sb.WriteString("  ")
			sb.WriteString(PrintInstruction(instr))
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// PrintInstruction renders a single instruction.
func PrintInstruction(i *Instruction) string {
	switch i.Op {
	case Jump:
		return fmt.Sprintf("jump bb%d", i.Then.Index)
	case Branch:
		return fmt.Sprintf("branch %s bb%d bb%d", i.Operands[0].operandString(), i.Then.Index, i.Else.Index)
	case Ret:
		if len(i.Operands) == 0 {
			return "ret"
		}

		return "ret " + i.Operands[0].operandString()
	case SequencePoint:
		return fmt.Sprintf("sequencepoint %s", i.Span)
	case StartScope:
		names := make([]string, len(i.ScopeLocals))
		for n, l := range i.ScopeLocals {
			names[n] = l.operandString()
		}

		return "startscope " + strings.Join(names, " ")
	case EndScope:
		return "endscope"
	case Nop:
		return "nop"
	default:
		parts := make([]string, 0, len(i.Operands)+2)
		parts = append(parts, i.Op.String())

		for _, o := range i.Operands {
			parts = append(parts, o.operandString())
		}

		if i.Target == nil {
			return strings.Join(parts, " ")
		}

		return i.Target.operandString() + " := " + strings.Join(parts, " ")
	}
}
