// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cyclesim

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// a decl is one parsed symbol declaration: a name and a bit width.
type decl struct {
	name  string
	width int
}

// parseDecls parses a symbol declaration list and returns individual
// declarations. A declaration is a name optionally followed by a bit width
// in brackets; the width defaults to 1. For example:
//
//	parseDecls("a[16], b[16], e")
//
// declares two 16 bit symbols and one 1 bit symbol.
//
func parseDecls(spec string) ([]decl, error) {
	var out []decl
	for pos := 0; pos < len(spec); {
		r := rune(spec[pos])
		if r == ',' || unicode.IsSpace(r) {
			pos++
			continue
		}
		start := pos
		for pos < len(spec) && isIdentRune(rune(spec[pos])) {
			pos++
		}
		if pos == start {
			return nil, parseError(spec, pos, "expected symbol name")
		}
		d := decl{name: spec[start:pos], width: 1}
		if pos < len(spec) && spec[pos] == '[' {
			pos++
			ws := pos
			for pos < len(spec) && spec[pos] != ']' {
				pos++
			}
			if pos == len(spec) {
				return nil, parseError(spec, pos, "missing close bracket")
			}
			w, err := strconv.Atoi(strings.TrimSpace(spec[ws:pos]))
			if err != nil || w < 1 {
				return nil, parseError(spec, ws, "invalid bit width")
			}
			d.width = w
			pos++
		}
		if pos < len(spec) && spec[pos] != ',' && !unicode.IsSpace(rune(spec[pos])) {
			return nil, parseError(spec, pos, "expected comma or end of input")
		}
		out = append(out, d)
	}
	return out, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
