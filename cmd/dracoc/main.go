// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

// Command dracoc is a thin smoke-test driver over the compiler core: it
// reads one source file, runs the pipeline, and prints diagnostics.
// Exit codes: 0 on success, 1 when error-severity diagnostics were
// reported, 2 on driver failure (unreadable input, bad flags).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lucyelle/DracoCompiler/compilation"
	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/green"
	"github.com/lucyelle/DracoCompiler/ir"
	"github.com/lucyelle/DracoCompiler/metadata"
)

func main() {
	os.Exit(run())
}

func run() int {
	parseOnly := flag.Bool("parse-only", false, "stop after parsing")
	emitIR := flag.Bool("emit-ir", false, "print the lowered IR")
	emitSyntax := flag.Bool("emit-syntax", false, "print the syntax tree")
	manifestPath := flag.String("metadata", "", "path to an assembly manifest supplying external symbols")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dracoc [flags] <file>")
		return 2
	}

	file := flag.Arg(0)

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dracoc:", err)
		return 2
	}

	opts := compilation.Options{ParseOnly: *parseOnly}

	if *manifestPath != "" {
		manifest, err := os.ReadFile(*manifestPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "dracoc:", err)
			return 2
		}

		provider, err := metadata.ParseManifest(string(manifest))
		if err != nil {
			fmt.Fprintln(os.Stderr, "dracoc: bad manifest:", err)
			return 2
		}

		opts.Provider = provider
		opts.References = provider.AssemblyNames()
	}

	c := compilation.New(file, string(src), opts)

	res, err := c.Run(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "dracoc:", err)
		return 2
	}

	for _, d := range res.Diagnostics {
		fmt.Fprint(os.Stderr, diagnostics.Explain(d, string(src)))
	}

	if *emitSyntax && res.Green != nil {
		fmt.Print(green.Dump(res.Green))
	}

	if *emitIR && res.Module != nil {
		fmt.Print(ir.Print(res.Module))
	}

	for _, d := range res.Diagnostics {
		if d.Severity == diagnostics.Error {
			return 1
		}
	}

	return 0
}
