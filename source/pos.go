// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package source describes positions and spans within a single source text.
package source

import "strconv"

// Pos is a resolved position within a file: a byte Offset plus the
// human-facing Line/Col it corresponds to.
type Pos struct {
	File string
	// Offset is the zero-based byte offset from the start of File.
	Offset int
	// Line is the one-based line number.
	Line int
	// Col is the one-based column number, counted in runes from the
	// start of Line.
	Col int
}

func (p Pos) String() string {
	return p.File + ":" + strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

// Span is a half-open [Begin, End) range of positions.
type Span struct {
	Begin Pos
	End   Pos
}

// Node is anything with a resolved source span; diagnostics, tokens and
// syntax nodes all implement it.
type Node interface {
	Span() Span
}

// Width reports the byte length of the span.
func (s Span) Width() int {
	return s.End.Offset - s.Begin.Offset
}

func (s Span) String() string {
	return s.Begin.String()
}
