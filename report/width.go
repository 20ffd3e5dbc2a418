// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

const (
	// TabstopWidth is the size we render all tabstops as.
	TabstopWidth int = 4
	// MaxMessageWidth is the maximum width of a diagnostic message before it is
	// word-wrapped, to try to keep everything within the bounds of a terminal.
	MaxMessageWidth int = 80
)

// NonPrint defines whether or not a rune is considered "unprintable for the
// purposes of diagnostics", that is, whether it is a rune that the diagnostics
// engine will replace with <U+NNNN> when printing.
func NonPrint(r rune) bool {
	return !strings.ContainsRune(" \r\t\n", r) && !unicode.IsPrint(r)
}

// wordWrap returns an iterator over chunks of s that are no wider than width,
// which can be printed as their own lines. Newlines in text are hard breaks.
//
// A single word wider than width gets a line of its own.
func wordWrap(text string, width int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.SplitSeq(text, "\n") {
			var buf strings.Builder
			var column int
			for word := range strings.FieldsSeq(line) {
				w := uniseg.StringWidth(word)
				if column > 0 && column+1+w > width {
					if !yield(buf.String()) {
						return
					}
					buf.Reset()
					column = 0
				}
				if column > 0 {
					buf.WriteByte(' ')
					column++
				}
				buf.WriteString(word)
				column += w
			}
			if !yield(buf.String()) {
				return
			}
		}
	}
}

// stringWidth calculates the rendered width of text if placed at the given column,
// accounting for tabstops.
//
// If out is not nil, the text is also written to it, with tabs expanded and,
// unless allowNonPrint is set, unprintable runes escaped.
func stringWidth(column int, text string, allowNonPrint bool, out *writer) int {
	// uniseg.StringWidth does not know about tabstops, so we split on them.
	for text != "" {
		nextTab := strings.IndexByte(text, '\t')
		haveTab := nextTab != -1
		next := text
		if haveTab {
			next, text = text[:nextTab], text[nextTab+1:]
		} else {
			text = ""
		}

		for next != "" {
			chunk := next
			var escape string
			if !allowNonPrint {
				if i := strings.IndexFunc(next, NonPrint); i != -1 {
					r, n := utf8.DecodeRuneInString(next[i:])
					chunk, next = next[:i], next[i+n:]
					escape = fmt.Sprintf("<U+%04X>", r)
				} else {
					next = ""
				}
			} else {
				next = ""
			}

			column += uniseg.StringWidth(chunk) + len(escape)
			if out != nil {
				_, _ = out.WriteString(chunk)
				_, _ = out.WriteString(escape)
			}
		}

		if haveTab {
			tab := TabstopWidth - (column % TabstopWidth)
			column += tab
			if out != nil {
				out.WriteSpaces(tab)
			}
		}
	}
	return column
}
