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
	"iter"
	"strings"

	"github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/source"
	"github.com/bufbuild/dmlparse/token"
)

// Tree is a concrete syntax tree for a single input.
//
// Trees are immutable and safe for concurrent use. A tree produced by
// reparsing shares the unaffected parts of its predecessor.
type Tree struct {
	file  *source.File
	table *grammar.Table
	root  *subtree
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return Node{tree: t, sub: t.root}
}

// HasError returns whether the tree contains any ERROR or missing node.
func (t *Tree) HasError() bool {
	return t.root.hasError()
}

// Source returns a copy of the parsed input.
func (t *Tree) Source() []byte {
	return []byte(t.file.Text())
}

// File returns the parsed input.
func (t *Tree) File() *source.File {
	return t.file
}

// Language returns the grammar table the tree was parsed with.
func (t *Tree) Language() *grammar.Table {
	return t.table
}

// Tokens yields every token of the tree in order, trivia included, ending
// with the [token.EOF] token. Missing tokens are not yielded, so the tokens
// cover the input exactly.
func (t *Tree) Tokens() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for leaf, offset := range t.leaves() {
			if leaf.flags&flagMissing != 0 {
				continue
			}
			for _, tr := range leaf.trivia {
				end := offset + int(tr.size)
				tok := token.Token{
					Kind:   tr.kind,
					Symbol: grammar.NoSymbol,
					Start:  offset,
					End:    end,
					Point:  t.file.Point(offset),
				}
				if !yield(tok) {
					return
				}
				offset = end
			}

			start := offset
			tok := token.Token{
				Kind:         leaf.kind,
				Symbol:       leaf.symbol,
				Start:        start,
				End:          start + int(leaf.size),
				Point:        t.file.Point(start),
				Lookahead:    int(leaf.lookahead),
				Unterminated: leaf.flags&flagUnterminated != 0,
			}
			if leaf.symbol == grammar.End {
				tok.Kind = token.EOF
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// Text reconstructs the input from the tokens of the tree.
func (t *Tree) Text() string {
	var b strings.Builder
	src := t.file.Text()
	for tok := range t.Tokens() {
		b.WriteString(tok.Text(src))
	}
	return b.String()
}

// Errors yields the outermost ERROR nodes, missing nodes and unrecognized
// tokens of the tree, in order.
func (t *Tree) Errors() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for n, w := range t.Root().Walk() {
			switch {
			case n.IsError() || n.IsMissing():
				if !yield(n) {
					return
				}
				w.SkipChildren()
			case !n.HasError():
				w.SkipChildren()
			}
		}
	}
}

// leaves yields every leaf of the tree, hidden ones included, with the
// offset at which its padding starts.
func (t *Tree) leaves() iter.Seq2[*subtree, int] {
	return func(yield func(*subtree, int) bool) {
		type item struct {
			sub    *subtree
			offset int
		}
		stack := []item{{t.root, 0}}
		for len(stack) > 0 {
			it := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(it.sub.children) == 0 {
				if it.sub.production < 0 && !yield(it.sub, it.offset) {
					return
				}
				continue
			}
			end := it.offset + it.sub.total()
			for i := len(it.sub.children) - 1; i >= 0; i-- {
				c := it.sub.children[i]
				end -= c.total()
				stack = append(stack, item{c, end})
			}
		}
	}
}
