// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package diagnostics accumulates compiler diagnostics keyed by node
// identity. No phase of the compiler ever fails outright on ill-formed
// input; instead it records a Diagnostic here and keeps going.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/lucyelle/DracoCompiler/source"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "severity(?)"
	}
}

// Code identifies the kind of a Diagnostic, grouped by the phase that
// raises it: syntax, symbol resolution, type checking, flow.
type Code string

const (
	UnexpectedInput                              Code = "unexpected-input"
	ExpectedToken                                Code = "expected-token"
	IllegalElementInContext                      Code = "illegal-element-in-context"
	InsufficientIndentationInMultiLineString     Code = "insufficient-indentation"
	ClosingQuotesOfMultiLineStringNotOnNewLine   Code = "closing-quotes-not-on-newline"
	ExtraTokensInlineWithOpenQuotesOfMultiString Code = "extra-tokens-after-open-quotes"
	ModuleInLocalContext                         Code = "module-in-local"
	LabelOutsideLocalContext                     Code = "label-outside-local"

	UndefinedReference   Code = "undefined-reference"
	AmbiguousReference    Code = "ambiguous-reference"
	IllegalReferenceContext Code = "illegal-reference-context"

	TypeMismatch        Code = "type-mismatch"
	CallNonFunction     Code = "call-non-function"
	AmbiguousOverload   Code = "ambiguous-overload"
	NoMatchingOverload  Code = "no-matching-overload"
	GenericArityMismatch Code = "generic-arity-mismatch"

	UnreachableCode  Code = "unreachable-code"
	NotAllPathsReturn Code = "not-all-paths-return"
)

// Diagnostic is a single, fully formatted compiler message anchored at a
// source span.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Span     source.Span
	// NodeKey identifies the syntax/symbol node this diagnostic was raised
	// against, so later phases can suppress duplicate diagnostics for a
	// node that already carries an Error-severity one (see Bag.HasErrorAt).
	NodeKey any
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Span, d.Severity, d.Message, d.Code)
}

// New builds a Diagnostic from a message template and its format
// arguments.
func New(sev Severity, code Code, span source.Span, nodeKey any, template string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(template, args...),
		Span:     span,
		NodeKey:  nodeKey,
	}
}

// Explain renders a multi-line, caret-annotated explanation of a
// Diagnostic against the given source text.
func Explain(d Diagnostic, text string) string {
	lines := strings.Split(text, "\n")

	var line string
	if idx := d.Span.Begin.Line - 1; idx >= 0 && idx < len(lines) {
		line = lines[idx]
	}

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%s: %s: %s\n", d.Span, d.Severity, d.Message)
	fmt.Fprintf(sb, "  %d | %s\n", d.Span.Begin.Line, line)

	indent := len(fmt.Sprintf("%d", d.Span.Begin.Line))
	sb.WriteString(strings.Repeat(" ", indent))
	sb.WriteString("  | ")

	width := d.Span.End.Col - d.Span.Begin.Col
	if width <= 0 {
		width = 1
	}

	if d.Span.Begin.Col > 1 {
		sb.WriteString(strings.Repeat(" ", d.Span.Begin.Col-1))
	}
	sb.WriteString(strings.Repeat("^", width))
	sb.WriteByte('\n')

	return sb.String()
}
