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

import (
	"slices"
	"sync"
	"unicode/utf8"
)

// File is a DML source file: a path and an immutable byte buffer, plus the
// book-keeping needed to turn byte offsets into lines and columns.
//
// A nil *File behaves like an empty file with the path name "".
type File struct {
	path, text string

	once sync.Once
	// The offset of the first byte of each line. A line ends at \n, at \r\n,
	// or at a lone \r.
	lineIndex []int
}

// NewFile constructs a new source file.
func NewFile(path, text string) *File {
	return &File{path: path, text: text}
}

// Path returns this file's path. It need not exist on disk.
func (f *File) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

// Text returns this file's contents.
func (f *File) Text() string {
	if f == nil {
		return ""
	}
	return f.text
}

// Len returns the length of the file in bytes.
func (f *File) Len() int {
	return len(f.Text())
}

// LineCount returns the number of lines in the file. An empty file has one
// (empty) line.
func (f *File) LineCount() int {
	return len(f.lines())
}

// LineByOffset returns the zero-based index of the line containing offset.
//
// This operation is O(log n).
func (f *File) LineByOffset(offset int) int {
	lines := f.lines()
	line, exact := slices.BinarySearch(lines, offset)
	if !exact {
		line--
	}
	return max(line, 0)
}

// Point returns the zero-based row and byte column of offset.
func (f *File) Point(offset int) Point {
	offset = f.clamp(offset)
	row := f.LineByOffset(offset)
	return Point{Row: row, Column: offset - f.lines()[row]}
}

// Offset is the inverse of [File.Point]. Columns past the end of the row are
// clamped to the row's end.
func (f *File) Offset(p Point) int {
	lines := f.lines()
	if p.Row < 0 {
		return 0
	}
	if p.Row >= len(lines) {
		return f.Len()
	}
	start, end := f.LineOffsets(p.Row + 1)
	return min(start+max(p.Column, 0), end)
}

// Location returns the one-based line and column of offset. Columns count
// runes, so a tab is a single column.
func (f *File) Location(offset int) Location {
	offset = f.clamp(offset)
	row := f.LineByOffset(offset)
	chunk := f.Text()[f.lines()[row]:offset]
	return Location{
		Offset: offset,
		Line:   row + 1,
		Column: utf8.RuneCountInString(chunk) + 1,
	}
}

// Position is like [File.Location], but carries the file's path.
func (f *File) Position(offset int) Position {
	return Position{Path: f.Path(), Location: f.Location(offset)}
}

// Span is a shorthand for creating a new Span.
func (f *File) Span(start, end int) Span {
	return Span{File: f, Start: start, End: end}
}

// EOF returns an empty span at the end of the file.
func (f *File) EOF() Span {
	return f.Span(f.Len(), f.Len())
}

// Line returns the given one-based line, including its terminator.
func (f *File) Line(line int) string {
	start, end := f.LineOffsets(line)
	return f.Text()[start:end]
}

// LineOffsets returns the offsets for the given one-based line, including its
// terminator.
func (f *File) LineOffsets(line int) (start, end int) {
	lines := f.lines()
	if line < 1 || line > len(lines) {
		return f.Len(), f.Len()
	}
	if line == len(lines) {
		return lines[line-1], f.Len()
	}
	return lines[line-1], lines[line]
}

func (f *File) clamp(offset int) int {
	return min(max(offset, 0), f.Len())
}

func (f *File) lines() []int {
	if f == nil {
		return []int{0}
	}

	f.once.Do(func() {
		text := f.text
		f.lineIndex = append(f.lineIndex, 0)
		for i := 0; i < len(text); i++ {
			switch text[i] {
			case '\n':
				f.lineIndex = append(f.lineIndex, i+1)
			case '\r':
				if i+1 < len(text) && text[i+1] == '\n' {
					i++
				}
				f.lineIndex = append(f.lineIndex, i+1)
			}
		}
	})
	return f.lineIndex
}
