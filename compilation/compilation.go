// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Package compilation wires the phases into a pipeline: lex/parse to a
// green tree, wrap it red, bind, solve, and lower to IR. A Compilation is
// single-threaded inside; a Host (host.go) runs many of them in parallel.
package compilation

import (
	"context"

	"github.com/lucyelle/DracoCompiler/binder"
	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/ir"
	"github.com/lucyelle/DracoCompiler/lower"
	"github.com/lucyelle/DracoCompiler/metadata"
	"github.com/lucyelle/DracoCompiler/parser"
	"github.com/lucyelle/DracoCompiler/red"
	"github.com/lucyelle/DracoCompiler/source"
)

// Options configures one Compilation. The zero value is usable: no
// external metadata, full pipeline.
type Options struct {
	// ParseOnly stops the pipeline after the syntax tree is built.
	ParseOnly bool

	// Provider resolves external metadata; nil leaves only the intrinsic
	// types available.
	Provider metadata.Provider

	// References names the provider assemblies whose types the source may
	// use unqualified.
	References []string
}

// Compilation is one source file moving through the pipeline. It is
// created cold; Run drives it to completion.
type Compilation struct {
	File   string
	Source string
	Opts   Options

	Bag *diagnostics.Bag
}

// Result carries every artifact a finished (or cancelled) pipeline
// produced. Earlier-phase artifacts are present even when later phases
// were skipped due to ParseOnly or cancellation.
type Result struct {
	Green  *green.Node
	Root   *red.Node
	Unit   *binder.CompilationUnit
	Module *ir.Module

	Diagnostics []diagnostics.Diagnostic
}

// New creates a cold Compilation for one file's source text.
func New(file, src string, opts Options) *Compilation {
	return &Compilation{File: file, Source: src, Opts: opts, Bag: diagnostics.NewBag()}
}

// Run executes the pipeline. Cancellation is consulted between phases:
// on cancellation Run returns the context error alongside whatever
// artifacts completed phases produced, with no partial phase state.
func (c *Compilation) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	checkLanguagePragma(c.File, c.Source, c.Bag)

	res.Green = parser.Parse(c.File, c.Source, c.Bag)
	res.Root = red.NewRoot(c.File, res.Green)
	c.resolveNodeDiagnostics(res.Root)

	if c.Opts.ParseOnly {
		res.Diagnostics = c.Bag.All()
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		res.Diagnostics = c.Bag.All()
		return res, err
	}

	b := binder.New(c.Bag, c.Opts.Provider)
	for _, ref := range c.Opts.References {
		b.AddReference(ref)
	}

	res.Unit = b.Bind(res.Root)

	if err := ctx.Err(); err != nil {
		res.Diagnostics = c.Bag.All()
		return res, err
	}

	b.Solve()

	if err := ctx.Err(); err != nil {
		res.Diagnostics = c.Bag.All()
		return res, err
	}

	res.Module = lower.Lower(res.Unit, c.Bag)
	res.Diagnostics = c.Bag.All()

	return res, nil
}

// resolveNodeDiagnostics converts the position-free diagnostics attached
// to green nodes (missing tokens, recovery wrappers, multi-line string
// indentation) into absolute-span diagnostics in the bag, by pairing each
// green node with its red position.
func (c *Compilation) resolveNodeDiagnostics(root *red.Node) {
	var walk func(n *red.Node)
	walk = func(n *red.Node) {
		for _, d := range n.Green().Diagnostics {
			begin := c.posAt(n.FullPosition().Offset + d.Offset)
			end := begin

			if d.Width > 0 {
				end = c.posAt(begin.Offset + d.Width)
			}

			c.Bag.Add(diagnostics.Diagnostic{
				Severity: diagnostics.Severity(d.Severity),
				Code:     diagnostics.Code(d.Code),
				Message:  d.Message,
				Span:     source.Span{Begin: begin, End: end},
			})
		}

		for _, child := range n.Children() {
			if child.Node != nil {
				walk(child.Node)
			}
		}
	}

	walk(root)
}

// posAt resolves a byte offset into the source to a full position.
func (c *Compilation) posAt(offset int) source.Pos {
	if offset > len(c.Source) {
		offset = len(c.Source)
	}

	pos := source.Pos{File: c.File, Line: 1, Col: 1}

	for i := 0; i < offset; i++ {
		b := c.Source[i]

		switch {
		case b == '\n':
			if i > 0 && c.Source[i-1] == '\r' {
				continue // the \r already advanced the line
			}

			pos.Line++
			pos.Col = 1
		case b == '\r':
			pos.Line++
			pos.Col = 1
		case b&0xC0 != 0x80:
			// Columns count runes; UTF-8 continuation bytes don't advance.
			pos.Col++
		}
	}

	pos.Offset = offset

	return pos
}
