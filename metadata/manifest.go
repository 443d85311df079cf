// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The manifest grammar is a small declarative stand-in for a real host
// metadata reader: it describes an assembly's exported types and fields
// without requiring a real object-format parser, staying behind the
// external symbol-provider boundary. Example:
//
//	assembly "corelib" {
//	    type Vector {
//	        field X: Float64
//	        field Y: Float64
//	    }
//	}
type manifestFile struct {
	Assembly *manifestAssembly `@@`
}

type manifestAssembly struct {
	Name  string           `"assembly" @String "{"`
	Types []*manifestType  `@@*  "}"`
}

type manifestType struct {
	Name   string           `"type" @Ident "{"`
	Fields []*manifestField `@@* "}"`
}

type manifestField struct {
	Name string `"field" @Ident ":"`
	Type string `@Ident`
}

var manifestLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[{}:]`},
	{Name: "whitespace", Pattern: `\s+`},
})

var manifestParser = participle.MustBuild[manifestFile](
	participle.Lexer(manifestLexer),
	participle.Unquote("String"),
)

// ParseManifest parses a manifest-grammar source string into an
// in-memory Provider carrying the manifest's assembly alongside the
// built-in "intrinsics" assembly.
func ParseManifest(src string) (*InMemoryProvider, error) {
	file, err := manifestParser.ParseString("", src)
	if err != nil {
		return nil, err
	}

	return newInMemoryProviderFromManifest(file.Assembly), nil
}
