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

package source_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bufbuild/dmlparse/source"
)

func TestLocation(t *testing.T) {
	t.Parallel()

	file := source.NewFile("test.dml", "ab\ncd\r\nef\rg\th\n")
	tests := []struct {
		offset    int
		line, col int
		point     source.Point
	}{
		{offset: 0, line: 1, col: 1, point: source.Point{Row: 0, Column: 0}},
		{offset: 2, line: 1, col: 3, point: source.Point{Row: 0, Column: 2}},
		{offset: 3, line: 2, col: 1, point: source.Point{Row: 1, Column: 0}},
		{offset: 5, line: 2, col: 3, point: source.Point{Row: 1, Column: 2}},
		{offset: 7, line: 3, col: 1, point: source.Point{Row: 2, Column: 0}},
		{offset: 10, line: 4, col: 1, point: source.Point{Row: 3, Column: 0}},
		{offset: 12, line: 4, col: 3, point: source.Point{Row: 3, Column: 2}},
		{offset: 14, line: 5, col: 1, point: source.Point{Row: 4, Column: 0}},
		{offset: 100, line: 5, col: 1, point: source.Point{Row: 4, Column: 0}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.offset), func(t *testing.T) {
			t.Parallel()
			loc := file.Location(test.offset)
			assert.Equal(t, test.line, loc.Line)
			assert.Equal(t, test.col, loc.Column)
			assert.Equal(t, test.point, file.Point(test.offset))
			if test.offset <= file.Len() {
				assert.Equal(t, test.offset, file.Offset(test.point))
			}
		})
	}
	assert.Equal(t, 5, file.LineCount())
	assert.Equal(t, "cd\r\n", file.Line(2))
	assert.Equal(t, "ef\r", file.Line(3))
}

func TestRuneColumns(t *testing.T) {
	t.Parallel()

	file := source.NewFile("", "\"héllo\" x")
	assert.Equal(t, 9, file.Location(9).Column)
	assert.Equal(t, 9, file.Point(9).Column)
}

func TestSpan(t *testing.T) {
	t.Parallel()

	file := source.NewFile("a.dml", "device foo;\n")
	span := file.Span(7, 10)
	assert.Equal(t, "foo", span.Text())
	assert.Equal(t, "a.dml:1:8", fmt.Sprint(span))
	assert.Equal(t, "a.dml:1:8-1:11", fmt.Sprintf("%+v", span))
	assert.Equal(t, file.Span(0, 10), source.Join(file.Span(0, 6), span))
	assert.Equal(t, span, source.Join(source.Span{}, span))
	assert.Equal(t, "a.dml:1:8", file.Position(7).String())
}

func TestNilFile(t *testing.T) {
	t.Parallel()

	var file *source.File
	assert.Equal(t, 1, file.LineCount())
	assert.Equal(t, source.Point{}, file.Point(10))
	assert.Empty(t, file.Span(0, 5).Text())
}
