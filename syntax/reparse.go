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
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/btree"

	"github.com/bufbuild/dmlparse/grammar"
)

// reuser indexes the subtrees of an old tree by the offset at which they
// would start in the new input.
type reuser struct {
	edit Edit
	// Candidates by mapped start offset, largest first. The index is
	// expanded lazily: a subtree's children are added when the subtree
	// itself is passed over or rejected.
	index btree.Map[int, []reuseEntry]
}

type reuseEntry struct {
	sub *subtree
	// Where the subtree's padding starts in the old input.
	oldStart int
}

func newReuser(old *Tree, edit Edit) *reuser {
	r := &reuser{edit: edit}
	// The root is never reused: it absorbs the end-of-input token.
	r.expand(reuseEntry{sub: old.root})
	return r
}

// expand adds the children of e that could be reused.
func (r *reuser) expand(e reuseEntry) {
	offset := e.oldStart
	for _, c := range e.sub.children {
		if len(c.children) > 0 {
			r.insert(reuseEntry{sub: c, oldStart: offset})
		}
		offset += c.total()
	}
}

func (r *reuser) insert(e reuseEntry) {
	key := r.edit.mapStart(e.oldStart)
	list, _ := r.index.Get(key)
	i := slices.IndexFunc(list, func(f reuseEntry) bool {
		return f.sub.total() < e.sub.total()
	})
	if i < 0 {
		i = len(list)
	}
	r.index.Set(key, slices.Insert(list, i, e))
}

// next removes and returns the largest candidate starting at offset.
// Candidates starting before offset are discarded, but their children that
// extend past offset are kept.
func (r *reuser) next(offset int) (reuseEntry, bool) {
	for {
		iter := r.index.Iter()
		if !iter.First() || iter.Key() > offset {
			return reuseEntry{}, false
		}
		key, list := iter.Key(), iter.Value()
		if key == offset {
			if len(list) == 1 {
				r.index.Delete(key)
			} else {
				r.index.Set(key, list[1:])
			}
			return list[0], true
		}

		r.index.Delete(key)
		for _, e := range list {
			if r.edit.mapEnd(e.oldStart+e.sub.total()) > offset {
				r.expand(e)
			}
		}
	}
}

// tryReuse attempts to push a subtree of the old tree in place of the
// tokens starting at the current offset. On success the lookahead is the
// token after the reused subtree.
func (p *parse) tryReuse(top grammar.State) (bool, error) {
	for {
		e, ok := p.reuse.next(p.pos)
		if !ok {
			return false, nil
		}
		if next := p.reusable(e, top); next != nil {
			p.debug("reusing subtree", logrus.Fields{
				"node":  p.table.Symbol(e.sub.nodeType()).Name,
				"bytes": e.sub.total(),
			})
			if err := p.push(p.table.Goto(top, e.sub.symbol), e.sub); err != nil {
				return false, err
			}
			p.pos += e.sub.total()
			p.la = next
			return true, nil
		}
		p.reuse.expand(e)
	}
}

// reusable checks whether e can be pushed in state top. If so, it returns
// the token that follows it.
func (p *parse) reusable(e reuseEntry, top grammar.State) *subtree {
	sub, edit := e.sub, p.reuse.edit
	if sub.production < 0 || len(sub.children) == 0 || sub.hasError() || sub.isExtra() {
		return nil
	}
	oldEnd := e.oldStart + sub.total()
	if oldEnd+int(sub.lookahead) > edit.StartByte && e.oldStart < edit.OldEndByte {
		return nil
	}
	if sub.state != top {
		return nil
	}
	if len(p.stack)-1+int(sub.depth) > p.opts.maxDepth {
		return nil
	}

	next := p.scanLeaf(p.pos + sub.total())
	if next.flags&flagError != 0 || !p.validSpine(sub, next.symbol) {
		return nil
	}
	return next
}

// validSpine checks that, with next as the lookahead, the parser would
// finish sub exactly as it was finished before: by reducing the productions
// along its right edge, deepest first, and nothing else.
func (p *parse) validSpine(sub *subtree, next grammar.Symbol) bool {
	stack := states(p.stack)
	var spine []*subtree
	for node := sub; node != nil; {
		if node.production < 0 {
			s := p.table.Goto(stack[len(stack)-1], node.symbol)
			if s == grammar.NoState {
				return false
			}
			stack = append(stack, s)
			break
		}

		spine = append(spine, node)
		var last *subtree
		for i, c := range node.children {
			if i == len(node.children)-1 {
				last = c
				break
			}
			s := p.table.Goto(stack[len(stack)-1], c.symbol)
			if s == grammar.NoState {
				return false
			}
			stack = append(stack, s)
		}
		node = last
	}

	for i := len(spine) - 1; i >= 0; i-- {
		action := p.table.Action(stack[len(stack)-1], next)
		if action.Kind != grammar.ActionReduce || action.Production() != int(spine[i].production) {
			return false
		}
		prod := p.table.Production(action.Production())
		stack = stack[:len(stack)-len(prod.RHS)]
		s := p.table.Goto(stack[len(stack)-1], prod.LHS)
		if s == grammar.NoState {
			return false
		}
		stack = append(stack, s)
	}
	return true
}
