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
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/bufbuild/dmlparse/source"
)

// Renderer configures a diagnostic rendering operation.
type Renderer struct {
	// If set, uses a compact one-line format for each diagnostic.
	Compact bool

	// If set, rendering results are enriched with ANSI color escapes.
	Colorize bool

	// Upgrades all warnings to errors.
	WarningsAreErrors bool

	// If set, remark diagnostics will be printed.
	//
	// Ignored by [Renderer.Diagnostic].
	ShowRemarks bool
}

// Render renders a diagnostic report.
//
// In addition to returning the rendering result, returns the number of
// errors and warnings it rendered. The error return is an error from writing
// to out.
func (r Renderer) Render(report *Report, out io.Writer) (errorCount, warningCount int, err error) {
	w := &writer{out: out}
	for d := range report.All() {
		if !r.ShowRemarks && d.level == Remark {
			continue
		}

		r.diagnostic(w, d)
		_, _ = w.WriteString("\n")
		if !r.Compact {
			_, _ = w.WriteString("\n")
		}

		switch {
		case d.level == Error, d.level == Warning && r.WarningsAreErrors:
			errorCount++
		case d.level == Warning:
			warningCount++
		}
	}

	if !r.Compact {
		c := newStyleSheet(r)
		switch {
		case errorCount > 0 && warningCount > 0:
			fmt.Fprintf(w, "%sencountered %d error%v and %d warning%v%s\n",
				c.bError, errorCount, plural(errorCount), warningCount, plural(warningCount), c.reset)
		case errorCount > 0:
			fmt.Fprintf(w, "%sencountered %d error%v%s\n",
				c.bError, errorCount, plural(errorCount), c.reset)
		case warningCount > 0:
			fmt.Fprintf(w, "%sencountered %d warning%v%s\n",
				c.bWarning, warningCount, plural(warningCount), c.reset)
		}
	}

	err = w.Flush()
	return errorCount, warningCount, err
}

// RenderString is a helper for calling [Renderer.Render] with a [strings.Builder].
func (r Renderer) RenderString(report *Report) (text string, errorCount, warningCount int) {
	var buf strings.Builder
	e, w, _ := r.Render(report, &buf)
	return buf.String(), e, w
}

// Diagnostic renders a single diagnostic to a string, without a trailing
// newline.
func (r Renderer) Diagnostic(d *Diagnostic) string {
	var buf strings.Builder
	w := &writer{out: &buf}
	r.diagnostic(w, d)
	_ = w.Flush()
	return buf.String()
}

func (r Renderer) diagnostic(w *writer, d *Diagnostic) {
	c := newStyleSheet(r)
	level := d.level.String()
	if d.level == Warning && r.WarningsAreErrors {
		level = Error.String()
	}

	// For the compact style, we imitate the Go compiler.
	if r.Compact {
		_, _ = w.WriteString(c.ColorForLevel(d.level))
		_, _ = w.WriteString(level)
		_, _ = w.WriteString(": ")
		if span := d.Primary(); !span.IsZero() {
			fmt.Fprintf(w, "%v: ", span)
		} else if d.inFile != "" {
			fmt.Fprintf(w, "%s: ", d.inFile)
		}
		_, _ = w.WriteString(d.message)
		_, _ = w.WriteString(c.reset)
		return
	}

	// Otherwise, we imitate the Rust compiler.
	_, _ = w.WriteString(c.BoldForLevel(d.level))
	_, _ = w.WriteString(level)
	_, _ = w.WriteString(": ")
	w.WriteWrapped(d.message, MaxMessageWidth)
	_, _ = w.WriteString(c.reset)

	// The line bar must fit the largest line number in any window.
	var greatestLine int
	for _, a := range d.annotations {
		greatestLine = max(greatestLine, a.EndLoc().Line)
	}
	lineBarWidth := max(2, len(strconv.Itoa(greatestLine)))

	for i, group := range groupByFile(d.annotations) {
		arrow := "-->"
		if i > 0 {
			arrow = ":::"
		}
		_, _ = w.WriteString("\n")
		_, _ = w.WriteString(c.nAccent)
		w.WriteSpaces(lineBarWidth)
		fmt.Fprintf(w, "%s %v", arrow, group[0].Span)
		_, _ = w.WriteString("\n")
		w.WriteSpaces(lineBarWidth)
		_, _ = w.WriteString(" |")
		renderWindow(w, &c, lineBarWidth, d.level, group)
	}

	if len(d.annotations) == 0 && d.inFile != "" {
		_, _ = w.WriteString("\n")
		_, _ = w.WriteString(c.nAccent)
		w.WriteSpaces(lineBarWidth)
		fmt.Fprintf(w, "--> %s", d.inFile)
	}

	footer := func(kind, text string) {
		_, _ = w.WriteString("\n")
		_, _ = w.WriteString(c.nAccent)
		w.WriteSpaces(lineBarWidth)
		_, _ = w.WriteString(" = ")
		_, _ = w.WriteString(c.bRemark)
		_, _ = w.WriteString(kind)
		_, _ = w.WriteString(": ")
		_, _ = w.WriteString(c.reset)
		w.WriteWrapped(text, MaxMessageWidth)
	}
	for _, text := range d.notes {
		footer("note", text)
	}
	for _, text := range d.help {
		footer("help", text)
	}
	_, _ = w.WriteString(c.reset)
}

// groupByFile partitions annotations by file, in order of first appearance.
func groupByFile(annotations []annotation) [][]annotation {
	var groups [][]annotation
outer:
	for _, a := range annotations {
		for i, group := range groups {
			if group[0].File == a.File {
				groups[i] = append(group, a)
				continue outer
			}
		}
		groups = append(groups, []annotation{a})
	}
	return groups
}

// underline is a single underlined region of one source line. Columns are
// zero-based display columns, after tab expansion.
type underline struct {
	line       int
	start, end int
	level      Level
	message    string
	insert     bool // A zero-width primary span.
}

// renderWindow renders the source lines covered by annotations, which must
// all be in the same file, with an underline row under each annotated line
// for every annotation on it.
//
// An annotation spanning several lines is underlined to the end of its
// first line.
func renderWindow(w *writer, c *styleSheet, lineBarWidth int, level Level, annotations []annotation) {
	file := annotations[0].File
	text := file.Text()

	underlines := make([]underline, 0, len(annotations))
	for _, a := range annotations {
		loc := a.StartLoc()
		start, end := lineBounds(file, loc.Line)
		offset := min(max(a.Start, start), end)
		ul := underline{
			line:    loc.Line,
			start:   stringWidth(0, text[start:offset], false, nil),
			end:     stringWidth(0, text[start:min(max(a.End, offset), end)], false, nil),
			level:   note,
			message: a.message,
		}
		if a.primary {
			ul.level = level
			ul.insert = a.Start == a.End
		}
		// Make sure no empty underlines exist.
		if ul.end <= ul.start {
			ul.end = ul.start + 1
		}
		underlines = append(underlines, ul)
	}
	slices.SortStableFunc(underlines, func(a, b underline) int {
		if n := cmp.Compare(a.line, b.line); n != 0 {
			return n
		}
		if n := cmp.Compare(a.start, b.start); n != 0 {
			return n
		}
		return cmp.Compare(a.end, b.end)
	})

	prev := 0
	for i, ul := range underlines {
		if i == 0 || ul.line != prev {
			if prev != 0 && ul.line > prev+1 {
				_, _ = w.WriteString("\n")
				_, _ = w.WriteString(c.nAccent)
				_, _ = w.WriteString("...")
			}
			start, end := lineBounds(file, ul.line)
			_, _ = w.WriteString("\n")
			_, _ = w.WriteString(c.nAccent)
			fmt.Fprintf(w, "%*d | ", lineBarWidth, ul.line)
			_, _ = w.WriteString(c.reset)
			stringWidth(0, text[start:end], false, w)
			prev = ul.line
		}

		sigil := "-"
		if ul.level != note {
			sigil = "^"
		}
		_, _ = w.WriteString("\n")
		_, _ = w.WriteString(c.nAccent)
		w.WriteSpaces(lineBarWidth)
		_, _ = w.WriteString(" | ")
		w.WriteSpaces(ul.start)
		_, _ = w.WriteString(c.ForUnderline(ul))
		_, _ = w.WriteString(strings.Repeat(sigil, ul.end-ul.start))
		if ul.message != "" {
			_, _ = w.WriteString(" ")
			_, _ = w.WriteString(ul.message)
		}
		_, _ = w.WriteString(c.reset)
	}
}

// lineBounds returns the offsets of the given one-based line, excluding its
// terminator.
func lineBounds(file *source.File, line int) (start, end int) {
	start, end = file.LineOffsets(line)
	text := file.Text()
	for end > start && (text[end-1] == '\n' || text[end-1] == '\r') {
		end--
	}
	return start, end
}
