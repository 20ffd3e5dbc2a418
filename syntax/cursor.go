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

import "iter"

// Cursor walks the nodes of a tree without recursion.
//
// A cursor is confined to the subtree of the node it was reset to: it never
// moves to that node's parent or siblings.
type Cursor struct {
	tree *Tree
	// The path from the cursor's starting node to the current node,
	// including hidden subtrees. The first and last frames are visible.
	stack []frame
	// Scratch space for restoring the path when a move fails.
	scratch []frame
}

type frame struct {
	sub    *subtree
	offset int
	index  int // The index of sub among its parent's children.
}

// Reset moves the cursor to n, which becomes its new starting node.
func (c *Cursor) Reset(n Node) {
	c.tree = n.tree
	c.stack = append(c.stack[:0], frame{sub: n.sub, offset: n.offset})
}

// Node returns the current node.
func (c *Cursor) Node() Node {
	top := c.stack[len(c.stack)-1]
	return Node{tree: c.tree, sub: top.sub, offset: top.offset}
}

// Depth returns the number of visible nodes between the starting node and
// the current node.
func (c *Cursor) Depth() int {
	var depth int
	for _, f := range c.stack[1:] {
		if f.sub.visible() {
			depth++
		}
	}
	return depth
}

// GotoFirstChild moves to the first child of the current node. Returns false
// and does not move if there is none.
func (c *Cursor) GotoFirstChild() bool {
	parent := len(c.stack) - 1
	top := c.stack[parent]
	if top.sub == nil || len(top.sub.children) == 0 {
		return false
	}
	c.stack = append(c.stack, frame{sub: top.sub.children[0], offset: top.offset})
	if c.settle(parent) {
		return true
	}
	c.stack = c.stack[:parent+1]
	return false
}

// GotoNextSibling moves to the next sibling of the current node. Returns
// false and does not move if there is none.
func (c *Cursor) GotoNextSibling() bool {
	parent := c.parent()
	if parent < 0 {
		return false
	}
	c.scratch = append(c.scratch[:0], c.stack...)
	if c.advance(parent) && c.settle(parent) {
		return true
	}
	c.stack, c.scratch = c.scratch, c.stack
	return false
}

// GotoParent moves to the parent of the current node. Returns false and
// does not move if the current node is the starting node.
func (c *Cursor) GotoParent() bool {
	parent := c.parent()
	if parent < 0 {
		return false
	}
	c.stack = c.stack[:parent+1]
	return true
}

// parent returns the index of the frame of the visible parent of the
// current node, or -1.
func (c *Cursor) parent() int {
	for i := len(c.stack) - 2; i >= 0; i-- {
		if c.stack[i].sub.visible() {
			return i
		}
	}
	return -1
}

// settle moves from the top frame to the first visible subtree at or after
// it, entering hidden subtrees. It does not leave the children of the frame
// at index parent.
func (c *Cursor) settle(parent int) bool {
	for {
		top := c.stack[len(c.stack)-1]
		switch {
		case top.sub.visible():
			return true
		case len(top.sub.children) > 0:
			c.stack = append(c.stack, frame{sub: top.sub.children[0], offset: top.offset})
		default:
			if !c.advance(parent) {
				return false
			}
		}
	}
}

// advance replaces the top frame with its next sibling, popping hidden
// frames that have no more children. It does not leave the children of the
// frame at index parent.
func (c *Cursor) advance(parent int) bool {
	for {
		n := len(c.stack)
		top, up := c.stack[n-1], c.stack[n-2]
		if next := top.index + 1; next < len(up.sub.children) {
			c.stack[n-1] = frame{
				sub:    up.sub.children[next],
				offset: top.offset + top.sub.total(),
				index:  next,
			}
			return true
		}
		if n-2 == parent {
			return false
		}
		c.stack = c.stack[:n-1]
	}
}

// Walker controls a walk started by [Node.Walk].
type Walker struct {
	skip bool
}

// SkipChildren prevents the walk from visiting the children of the node it
// just yielded.
func (w *Walker) SkipChildren() {
	w.skip = true
}

// Walk yields n and its descendants in depth-first pre-order.
func (n Node) Walk() iter.Seq2[Node, *Walker] {
	return func(yield func(Node, *Walker) bool) {
		if n.IsZero() {
			return
		}
		c := n.Cursor()
		w := new(Walker)
		for {
			w.skip = false
			if !yield(c.Node(), w) {
				return
			}
			if !w.skip && c.GotoFirstChild() {
				continue
			}
			for !c.GotoNextSibling() {
				if !c.GotoParent() {
					return
				}
			}
		}
	}
}

// Preorder yields n and its descendants in depth-first pre-order.
func Preorder(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for m := range n.Walk() {
			if !yield(m) {
				return
			}
		}
	}
}

// Leaves yields the leaves under n, in order.
func Leaves(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for m := range Preorder(n) {
			if len(m.sub.children) == 0 && !yield(m) {
				return
			}
		}
	}
}
