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

package source

import "fmt"

// Point is a zero-based row and byte column, the coordinates an editor uses
// to describe an edit.
type Point struct {
	Row, Column int
}

// Less reports whether p comes strictly before q.
func (p Point) Less(q Point) bool {
	return p.Row < q.Row || (p.Row == q.Row && p.Column < q.Column)
}

// String implements [fmt.Stringer].
func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}

// Location is a user-displayable location within a source file.
type Location struct {
	// The byte offset for this location.
	Offset int

	// The line and column for this location, one-indexed. Columns are
	// measured in runes.
	Line, Column int
}

// Position is a Location that also names its file.
type Position struct {
	Path string
	Location
}

// String implements [fmt.Stringer].
func (p Position) String() string {
	if p.Path == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Column)
}

// Spanner is any type that has a span.
type Spanner interface {
	Span() Span
}

// Span is a half-open range of bytes within a [File].
type Span struct {
	*File
	Start, End int
}

// IsZero returns whether this is the zero span.
func (s Span) IsZero() bool {
	return s.File == nil && s.Start == 0 && s.End == 0
}

// Span implements [Spanner].
func (s Span) Span() Span {
	return s
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Text returns the text this span covers.
func (s Span) Text() string {
	text := s.File.Text()
	start := min(max(s.Start, 0), len(text))
	end := min(max(s.End, start), len(text))
	return text[start:end]
}

// StartLoc returns the location of the start of the span.
func (s Span) StartLoc() Location {
	return s.File.Location(s.Start)
}

// EndLoc returns the location of the end of the span.
func (s Span) EndLoc() Location {
	return s.File.Location(s.End)
}

// Join returns the smallest span that covers both spans. The zero span is
// the identity.
func Join(a, b Span) Span {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	}
	return Span{File: a.File, Start: min(a.Start, b.Start), End: max(a.End, b.End)}
}

// Format implements [fmt.Formatter].
func (s Span) Format(state fmt.State, verb rune) {
	if s.IsZero() {
		fmt.Fprint(state, "<nil>")
		return
	}
	start := s.StartLoc()
	fmt.Fprintf(state, "%s:%d:%d", s.Path(), start.Line, start.Column)
	if verb == 'v' && state.Flag('+') {
		end := s.EndLoc()
		fmt.Fprintf(state, "-%d:%d", end.Line, end.Column)
	}
}
