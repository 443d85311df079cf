// SPDX-FileCopyrightText: © 2025 The DracoCompiler authors
// SPDX-License-Identifier: Apache-2.0

package compilation

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/lucyelle/DracoCompiler/diagnostics"
	"github.com/lucyelle/DracoCompiler/source"
)

// LanguageVersion is the language revision this compiler implements. A
// compilation unit may pin a minimum revision with a leading pragma
// comment of the form `// lang 0.3.0`; sources pinning a newer revision
// than this are flagged rather than mis-compiled.
const LanguageVersion = "0.3.0"

const langPragma = "// lang "

// checkLanguagePragma scans the first lines of src for a language-version
// pragma and validates it. An absent pragma means "any revision". The
// scan stops at the first non-comment, non-blank line, since the pragma
// is only meaningful at the top of the unit.
func checkLanguagePragma(file, src string, bag *diagnostics.Bag) {
	offset := 0

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(trimmed, langPragma):
			version := strings.TrimSpace(strings.TrimPrefix(trimmed, langPragma))
			span := pragmaSpan(file, src, offset, len(trimmed))

			if !semver.IsValid("v" + version) {
				bag.Add(diagnostics.New(diagnostics.Error, diagnostics.UnexpectedInput, span, nil,
					"%q is not a valid language version", version))
				return
			}

			if semver.Compare("v"+version, "v"+LanguageVersion) > 0 {
				bag.Add(diagnostics.New(diagnostics.Error, diagnostics.UnexpectedInput, span, nil,
					"source requires language version %s, but this compiler implements %s", version, LanguageVersion))
			}

			return
		case strings.TrimSpace(trimmed) == "" || strings.HasPrefix(strings.TrimSpace(trimmed), "//"):
			offset += len(line) + 1
			continue
		default:
			return
		}
	}
}

func pragmaSpan(file, src string, offset, width int) source.Span {
	c := &Compilation{File: file, Source: src}

	return source.Span{Begin: c.posAt(offset), End: c.posAt(offset + width)}
}
