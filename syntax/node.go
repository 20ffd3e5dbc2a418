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
	"iter"
	"strconv"
	"strings"

	"github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/source"
	"github.com/bufbuild/dmlparse/token"
)

// Node is a visible node of a [Tree].
//
// Nodes are values: they are cheap to copy and compare, but two nodes
// obtained separately for the same position compare equal with ==.
// The zero Node is not part of any tree.
type Node struct {
	tree   *Tree
	sub    *subtree
	offset int // Where the node's leading trivia starts.
}

// IsZero returns whether n is the zero Node.
func (n Node) IsZero() bool {
	return n.sub == nil
}

// Tree returns the tree n belongs to.
func (n Node) Tree() *Tree {
	return n.tree
}

// Type returns the node type: the name of a rule, or the text of an
// anonymous token.
func (n Node) Type() string {
	if n.IsZero() {
		return ""
	}
	return n.tree.table.Symbol(n.sub.nodeType()).Name
}

// Symbol returns the grammar symbol of the node type.
func (n Node) Symbol() grammar.Symbol {
	if n.IsZero() {
		return grammar.NoSymbol
	}
	return n.sub.nodeType()
}

// IsNamed returns whether the node is of a named type, as opposed to an
// anonymous token such as a keyword or punctuation.
func (n Node) IsNamed() bool {
	return n.sub != nil && n.sub.flags&flagNamed != 0
}

// IsMissing returns whether the node is a zero-width token that error
// recovery inserted.
func (n Node) IsMissing() bool {
	return n.sub != nil && n.sub.flags&flagMissing != 0
}

// IsError returns whether the node is an ERROR node, or a token the scanner
// did not recognize.
func (n Node) IsError() bool {
	return n.sub != nil && n.sub.flags&flagError != 0
}

// IsExtra returns whether the node is not part of the grammar production
// of its parent, which is the case for errors.
func (n Node) IsExtra() bool {
	return n.sub.isExtra()
}

// HasError returns whether the node is an error or a missing node, or
// contains one.
func (n Node) HasError() bool {
	return n.sub != nil && n.sub.hasError()
}

// StartByte returns the offset of the node's first significant byte.
func (n Node) StartByte() int {
	if n.IsZero() {
		return 0
	}
	return n.offset + int(n.sub.padding)
}

// EndByte returns the offset just past the node's last byte.
func (n Node) EndByte() int {
	if n.IsZero() {
		return 0
	}
	return n.offset + n.sub.total()
}

// StartPoint returns the row and column of [Node.StartByte].
func (n Node) StartPoint() source.Point {
	return n.file().Point(n.StartByte())
}

// EndPoint returns the row and column of [Node.EndByte].
func (n Node) EndPoint() source.Point {
	return n.file().Point(n.EndByte())
}

// Span implements [source.Spanner].
func (n Node) Span() source.Span {
	if n.IsZero() {
		return source.Span{}
	}
	return n.file().Span(n.StartByte(), n.EndByte())
}

// Text returns the source text of the node, without leading trivia.
func (n Node) Text() string {
	return n.Span().Text()
}

// Same returns whether n and m are the same node object. A node of a tree
// produced by reparsing is the same as a node of the old tree if it was
// reused, even though its offset may have changed.
func (n Node) Same(m Node) bool {
	return n.sub != nil && n.sub == m.sub
}

// Cursor returns a cursor positioned at n.
func (n Node) Cursor() *Cursor {
	c := new(Cursor)
	c.Reset(n)
	return c
}

// Children yields the node's children.
func (n Node) Children() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if n.IsZero() {
			return
		}
		c := n.Cursor()
		for ok := c.GotoFirstChild(); ok; ok = c.GotoNextSibling() {
			if !yield(c.Node()) {
				return
			}
		}
	}
}

// NamedChildren yields the node's children that are of named types.
func (n Node) NamedChildren() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for c := range n.Children() {
			if c.IsNamed() && !yield(c) {
				return
			}
		}
	}
}

// ChildCount returns the number of children.
func (n Node) ChildCount() int {
	var count int
	for range n.Children() {
		count++
	}
	return count
}

// Child returns the i-th child, or the zero Node if there is none.
func (n Node) Child(i int) Node {
	for c := range n.Children() {
		if i == 0 {
			return c
		}
		i--
	}
	return Node{}
}

// ChildOfType returns the first child of the given type.
func (n Node) ChildOfType(typ string) (Node, bool) {
	for c := range n.Children() {
		if c.Type() == typ {
			return c, true
		}
	}
	return Node{}, false
}

// Parent returns the node's parent, or the zero Node for the root.
//
// Nodes do not store their parent; this searches down from the root.
func (n Node) Parent() Node {
	if n.IsZero() || n.sub == n.tree.root {
		return Node{}
	}
	stack := []Node{n.tree.Root()}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := range p.Children() {
			if c == n {
				return p
			}
			if c.offset <= n.offset && n.EndByte() <= c.EndByte() && len(c.sub.children) > 0 {
				stack = append(stack, c)
			}
		}
	}
	return Node{}
}

// NextSibling returns the node after n in its parent, or the zero Node.
func (n Node) NextSibling() Node {
	var found bool
	for c := range n.Parent().Children() {
		if found {
			return c
		}
		found = c == n
	}
	return Node{}
}

// PrevSibling returns the node before n in its parent, or the zero Node.
func (n Node) PrevSibling() Node {
	var prev Node
	for c := range n.Parent().Children() {
		if c == n {
			return prev
		}
		prev = c
	}
	return Node{}
}

// LeadingTrivia returns the whitespace and comment tokens before the node's
// first token.
func (n Node) LeadingTrivia() []token.Token {
	if n.IsZero() {
		return nil
	}
	leaf, offset := n.sub, n.offset
	for !leaf.isLeaf() {
		var next *subtree
		for _, c := range leaf.children {
			if c.size > 0 {
				next = c
				break
			}
			offset += c.total()
		}
		if next == nil {
			return nil
		}
		leaf = next
	}

	out := make([]token.Token, 0, len(leaf.trivia))
	for _, tr := range leaf.trivia {
		end := offset + int(tr.size)
		out = append(out, token.Token{
			Kind:   tr.kind,
			Symbol: grammar.NoSymbol,
			Start:  offset,
			End:    end,
			Point:  n.file().Point(offset),
		})
		offset = end
	}
	return out
}

// LeadingComments returns the comments before the node's first token.
func (n Node) LeadingComments() []token.Token {
	var out []token.Token
	for _, tok := range n.LeadingTrivia() {
		if tok.Kind == token.Comment {
			out = append(out, tok)
		}
	}
	return out
}

// String returns an S-expression for the node that shows only named nodes
// and missing tokens.
func (n Node) String() string {
	return n.SExpr(false)
}

// SExpr returns an S-expression for the node. If all is set, anonymous
// tokens are included as quoted strings.
func (n Node) SExpr(all bool) string {
	if n.IsZero() {
		return "()"
	}

	var b strings.Builder
	// Reports whether a parenthesis was opened, and whether the children of
	// m should be visited.
	enter := func(m Node, force bool) (open, visit bool) {
		if !all && !force && !m.IsNamed() && !m.IsMissing() {
			return false, false
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		switch {
		case m.IsMissing():
			name := m.Type()
			if !m.IsNamed() {
				name = strconv.Quote(name)
			}
			fmt.Fprintf(&b, "(MISSING %s", name)
			return true, false
		case m.IsNamed():
			b.WriteString("(")
			b.WriteString(m.Type())
			return true, true
		default:
			b.WriteString(strconv.Quote(m.Type()))
			return false, true
		}
	}

	c := n.Cursor()
	open, visit := enter(n, true)
	opened := []bool{open}
	for {
		if visit && c.GotoFirstChild() {
			open, visit = enter(c.Node(), false)
			opened = append(opened, open)
			continue
		}
		for {
			if opened[len(opened)-1] {
				b.WriteByte(')')
			}
			opened = opened[:len(opened)-1]
			if c.GotoNextSibling() {
				open, visit = enter(c.Node(), false)
				opened = append(opened, open)
				break
			}
			if !c.GotoParent() {
				return b.String()
			}
		}
	}
}

// Format implements [fmt.Formatter]. The %+v verb prints the S-expression
// including anonymous tokens.
func (n Node) Format(state fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		fmt.Fprint(state, n.SExpr(state.Flag('+')))
	case 'q':
		fmt.Fprint(state, strconv.Quote(n.String()))
	default:
		fmt.Fprintf(state, "%%!%c(syntax.Node=%s)", verb, n.Type())
	}
}

func (n Node) file() *source.File {
	if n.tree == nil {
		return nil
	}
	return n.tree.file
}
