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

package syntax

import (
	"fmt"

	"github.com/bufbuild/dmlparse/internal/interval"
	"github.com/bufbuild/dmlparse/source"
)

// Edit describes a single replacement of a range of the old input with new
// text.
//
// Byte offsets are authoritative. Points are carried along for callers that
// track them, but the parser does not read them.
type Edit struct {
	StartByte, OldEndByte, NewEndByte    int
	StartPoint, OldEndPoint, NewEndPoint source.Point
}

// Delta returns the change in length of the input.
func (e Edit) Delta() int {
	return e.NewEndByte - e.OldEndByte
}

// Validate checks that e can turn an input of oldLen bytes into one of newLen
// bytes. The error wraps [ErrInvalidEdit].
func (e Edit) Validate(oldLen, newLen int) error {
	switch {
	case e.StartByte < 0 || e.StartByte > e.OldEndByte || e.StartByte > e.NewEndByte:
		return fmt.Errorf("%w: start %d is not before old end %d and new end %d",
			ErrInvalidEdit, e.StartByte, e.OldEndByte, e.NewEndByte)
	case e.OldEndByte > oldLen:
		return fmt.Errorf("%w: old end %d is past the old input (%d bytes)", ErrInvalidEdit, e.OldEndByte, oldLen)
	case e.NewEndByte > newLen:
		return fmt.Errorf("%w: new end %d is past the new input (%d bytes)", ErrInvalidEdit, e.NewEndByte, newLen)
	case oldLen+e.Delta() != newLen:
		return fmt.Errorf("%w: edit changes the length by %d, but the input changed by %d",
			ErrInvalidEdit, e.Delta(), newLen-oldLen)
	}
	return nil
}

// mapStart maps an offset at which something starts in the old input to the
// new input. Offsets inside the edited range map to its new end.
func (e Edit) mapStart(offset int) int {
	switch {
	case offset >= e.OldEndByte:
		return offset + e.Delta()
	case offset <= e.StartByte:
		return offset
	default:
		return e.NewEndByte
	}
}

// mapEnd maps an offset at which something ends in the old input to the new
// input.
func (e Edit) mapEnd(offset int) int {
	switch {
	case offset <= e.StartByte:
		return offset
	case offset >= e.OldEndByte:
		return offset + e.Delta()
	default:
		return e.NewEndByte
	}
}

// EditFor computes the smallest single edit that turns before into after.
func EditFor(before, after []byte) Edit {
	n := min(len(before), len(after))
	var prefix int
	for prefix < n && before[prefix] == after[prefix] {
		prefix++
	}
	var suffix int
	for suffix < n-prefix && before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}

	oldFile := source.NewFile("", string(before))
	newFile := source.NewFile("", string(after))
	e := Edit{
		StartByte:  prefix,
		OldEndByte: len(before) - suffix,
		NewEndByte: len(after) - suffix,
	}
	e.StartPoint = oldFile.Point(e.StartByte)
	e.OldEndPoint = oldFile.Point(e.OldEndByte)
	e.NewEndPoint = newFile.Point(e.NewEndByte)
	return e
}

// Range is a half-open range of bytes.
type Range struct {
	Start, End int
}

// ChangedRanges returns the ranges of after's input covered by tokens that
// after does not share with before, in ascending order. Adjacent ranges are
// merged.
//
// When after was produced by reparsing before, these are the parts of the
// input whose syntax may have changed.
func ChangedRanges(before, after *Tree) []Range {
	shared := make(map[*subtree]struct{})
	if before != nil {
		stack := []*subtree{before.root}
		for len(stack) > 0 {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			shared[s] = struct{}{}
			stack = append(stack, s.children...)
		}
	}

	type item struct {
		sub    *subtree
		offset int
	}
	var changed interval.Union[int]
	stack := []item{{after.root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := shared[it.sub]; ok {
			continue
		}
		if it.sub.isLeaf() {
			changed.Add(it.offset, it.offset+it.sub.total())
			continue
		}
		offset := it.offset
		for _, c := range it.sub.children {
			stack = append(stack, item{c, offset})
			offset += c.total()
		}
	}

	var out []Range
	for start, end := range changed.All() {
		out = append(out, Range{start, end})
	}
	return out
}
