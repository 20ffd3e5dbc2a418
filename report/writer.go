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
	"bytes"
	"io"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// writer implements low-level writing helpers, including a custom buffering
// routine to avoid printing trailing whitespace to the output.
type writer struct {
	out io.Writer
	buf []byte // Never contains a '\n' byte.
	err error
}

// Write implements [io.Writer].
func (w *writer) Write(data []byte) (int, error) {
	_, _ = w.WriteString(string(data))
	return len(data), nil
}

func (w *writer) WriteSpaces(n int) {
	w.buf = slices.Grow(w.buf, n)
	const spaces = "                                        "
	for n > len(spaces) {
		w.buf = append(w.buf, spaces...)
		n -= len(spaces)
	}
	w.buf = append(w.buf, spaces[:n]...)
}

func (w *writer) WriteString(data string) (int, error) {
	// Each time we're about to append a newline, discard all trailing
	// whitespace on the current line.
	first := true
	for line := range strings.SplitSeq(data, "\n") {
		if !first {
			_ = w.flush(true)
		}
		first = false
		w.buf = append(w.buf, line...)
	}
	return len(data), nil
}

var ansiEscapePat = regexp.MustCompile("^\033\\[([\\d;]*)m")

// WriteWrapped writes a string to w, taking care to wrap data such that a line
// is (ideally) never wider than width. Continuation lines are indented to
// the column at which data starts.
func (w *writer) WriteWrapped(data string, width int) {
	var margin int
	for i := 0; i < len(w.buf); i++ {
		if esc := ansiEscapePat.Find(w.buf[i:]); esc != nil {
			i += len(esc) - 1
			continue
		}
		margin++
	}

	first := true
	for line := range wordWrap(data, max(width-margin, 1)) {
		if !first {
			_, _ = w.WriteString("\n")
			w.WriteSpaces(margin)
		}
		first = false
		_, _ = w.WriteString(line)
	}
}

// Flush flushes the buffer to the writer's output.
func (w *writer) Flush() error {
	defer func() { w.err = nil }()
	return w.flush(false)
}

// flush is like [writer.Flush], but instead retains the error to be returned
// out of Flush later.
//
// If withNewline is set, appends a newline to the data being written.
func (w *writer) flush(withNewline bool) error {
	if w.err != nil {
		return w.err
	}

	orig := w.buf
	w.buf = bytes.TrimRightFunc(w.buf, unicode.IsSpace)
	if withNewline {
		w.buf = append(w.buf, '\n')
	}

	_, w.err = w.out.Write(w.buf)

	if withNewline {
		w.buf = w.buf[:0]
		return w.err
	}

	// Keep the trailing spaces; the caller may append more to this line.
	w.buf = append(orig[:0], orig[len(w.buf):]...) //nolint:gocritic
	return w.err
}

// plural is a helper for printing out plurals of numbers.
type plural int

// String implements [fmt.Stringer].
func (p plural) String() string {
	if p == 1 {
		return ""
	}
	return "s"
}
