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

package grammar

import (
	"encoding/binary"
	"slices"

	"github.com/bufbuild/dmlparse/internal/arena"
)

const maxRHS = 1 << 16

// item is an LR(0) item: a production with a dot position.
type item struct {
	prod, dot int32
}

func (a item) compare(b item) int {
	if a.prod != b.prod {
		return int(a.prod - b.prod)
	}
	return int(a.dot - b.dot)
}

type transition struct {
	sym Symbol
	to  arena.Pointer[lrState]
}

type lrState struct {
	kernel []item
	pos    map[item]int // Index into kernel.
	trans  []transition // Sorted by symbol.
	la     []bitset     // Lookaheads, parallel to kernel.
}

func (s *lrState) next(sym Symbol) arena.Pointer[lrState] {
	i, ok := slices.BinarySearchFunc(s.trans, sym, func(t transition, sym Symbol) int {
		return int(t.sym - sym)
	})
	if !ok {
		return 0
	}
	return s.trans[i].to
}

// builder constructs the LALR(1) automaton for a numbered grammar, following
// the lookahead propagation algorithm of Aho, Sethi and Ullman.
type builder struct {
	t *Table

	byLHS    [][]int32 // Productions of each nonterminal.
	nullable []bool    // Per nonterminal.
	first    []bitset  // Per nonterminal.

	// FIRST and nullability of each production suffix, indexed by production
	// then dot.
	firstAfter    [][]bitset
	nullableAfter [][]bool

	states   arena.Arena[lrState]
	byKernel map[string]arena.Pointer[lrState]

	// Bit used for the propagation marker, one past the last terminal.
	hash int
}

func newBuilder(t *Table) *builder {
	return &builder{
		t:        t,
		byKernel: make(map[string]arena.Pointer[lrState]),
		hash:     t.terminals,
	}
}

func (b *builder) build() {
	b.computeFirst()
	b.buildLR0()
	b.computeLookaheads()
	b.fillTables()
}

func (b *builder) nonterm(s Symbol) int {
	return int(s) - b.t.terminals
}

func (b *builder) setSize() int {
	return b.t.terminals + 1
}

func (b *builder) computeFirst() {
	t := b.t
	n := len(t.symbols) - t.terminals
	b.byLHS = make([][]int32, n)
	b.nullable = make([]bool, n)
	b.first = make([]bitset, n)
	for i := range b.first {
		b.first[i] = newBitset(b.setSize())
	}
	for i, p := range t.productions {
		b.byLHS[b.nonterm(p.LHS)] = append(b.byLHS[b.nonterm(p.LHS)], int32(i))
	}

	for changed := true; changed; {
		changed = false
		for _, p := range t.productions {
			lhs := b.nonterm(p.LHS)
			allNullable := true
			for _, s := range p.RHS {
				if t.IsTerminal(s) {
					if !b.first[lhs].has(int(s)) {
						b.first[lhs].set(int(s))
						changed = true
					}
					allNullable = false
					break
				}
				if b.first[lhs].union(b.first[b.nonterm(s)]) {
					changed = true
				}
				if !b.nullable[b.nonterm(s)] {
					allNullable = false
					break
				}
			}
			if allNullable && !b.nullable[lhs] {
				b.nullable[lhs] = true
				changed = true
			}
		}
	}

	b.firstAfter = make([][]bitset, len(t.productions))
	b.nullableAfter = make([][]bool, len(t.productions))
	for i, p := range t.productions {
		fa := make([]bitset, len(p.RHS)+1)
		na := make([]bool, len(p.RHS)+1)
		fa[len(p.RHS)] = newBitset(b.setSize())
		na[len(p.RHS)] = true
		for dot := len(p.RHS) - 1; dot >= 0; dot-- {
			s := p.RHS[dot]
			fa[dot] = newBitset(b.setSize())
			if t.IsTerminal(s) {
				fa[dot].set(int(s))
				continue
			}
			fa[dot].union(b.first[b.nonterm(s)])
			if b.nullable[b.nonterm(s)] {
				fa[dot].union(fa[dot+1])
				na[dot] = na[dot+1]
			}
		}
		b.firstAfter[i] = fa
		b.nullableAfter[i] = na
	}
}

func (b *builder) nextSymbol(it item) Symbol {
	rhs := b.t.productions[it.prod].RHS
	if int(it.dot) >= len(rhs) {
		return NoSymbol
	}
	return rhs[it.dot]
}

func (b *builder) addState(kernel []item) arena.Pointer[lrState] {
	key := make([]byte, 0, len(kernel)*8)
	for _, it := range kernel {
		key = binary.LittleEndian.AppendUint32(key, uint32(it.prod))
		key = binary.LittleEndian.AppendUint32(key, uint32(it.dot))
	}
	if p, ok := b.byKernel[string(key)]; ok {
		return p
	}

	st := lrState{
		kernel: kernel,
		pos:    make(map[item]int, len(kernel)),
		la:     make([]bitset, len(kernel)),
	}
	for i, it := range kernel {
		st.pos[it] = i
		st.la[i] = newBitset(b.setSize())
	}
	p := b.states.New(st)
	b.byKernel[string(key)] = p
	return p
}

// closure0 computes the LR(0) closure of a kernel.
func (b *builder) closure0(kernel []item, seen []bool) []item {
	clear(seen)
	items := slices.Clone(kernel)
	for i := 0; i < len(items); i++ {
		s := b.nextSymbol(items[i])
		if s == NoSymbol || b.t.IsTerminal(s) || seen[b.nonterm(s)] {
			continue
		}
		seen[b.nonterm(s)] = true
		for _, q := range b.byLHS[b.nonterm(s)] {
			items = append(items, item{prod: q})
		}
	}
	return items
}

func (b *builder) buildLR0() {
	seen := make([]bool, len(b.t.symbols)-b.t.terminals)
	b.addState([]item{{prod: 0}})

	// New states are appended while iterating; All visits them too.
	for _, st := range b.states.All() {
		items := b.closure0(st.kernel, seen)

		var syms []Symbol
		groups := make(map[Symbol][]item)
		for _, it := range items {
			s := b.nextSymbol(it)
			if s == NoSymbol {
				continue
			}
			if _, ok := groups[s]; !ok {
				syms = append(syms, s)
			}
			groups[s] = append(groups[s], item{prod: it.prod, dot: it.dot + 1})
		}
		slices.Sort(syms)
		for _, s := range syms {
			kernel := groups[s]
			slices.SortFunc(kernel, item.compare)
			st.trans = append(st.trans, transition{sym: s, to: b.addState(kernel)})
		}
	}
	b.t.states = b.states.Len()
}

// closure1 computes the LR(1) closure of a set of items with lookaheads.
// Items are returned in discovery order.
func (b *builder) closure1(kernel []item, las []bitset) ([]item, []bitset) {
	items := slices.Clone(kernel)
	sets := make([]bitset, len(kernel))
	for i := range las {
		sets[i] = las[i].clone()
	}
	pos := make(map[item]int, len(kernel)*4)
	for i, it := range kernel {
		pos[it] = i
	}

	queue := make([]int, 0, len(items))
	queued := make([]bool, len(items))
	for i := range items {
		queue = append(queue, i)
		queued[i] = true
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		queued[i] = false

		it := items[i]
		s := b.nextSymbol(it)
		if s == NoSymbol || b.t.IsTerminal(s) {
			continue
		}
		la := b.firstAfter[it.prod][it.dot+1].clone()
		if b.nullableAfter[it.prod][it.dot+1] {
			la.union(sets[i])
		}
		for _, q := range b.byLHS[b.nonterm(s)] {
			next := item{prod: q}
			if j, ok := pos[next]; ok {
				if sets[j].union(la) && !queued[j] {
					queue = append(queue, j)
					queued[j] = true
				}
				continue
			}
			pos[next] = len(items)
			items = append(items, next)
			sets = append(sets, la.clone())
			queue = append(queue, len(items)-1)
			queued = append(queued, true)
		}
	}
	return items, sets
}

func (b *builder) computeLookaheads() {
	type edge struct {
		from, to *bitset
	}
	var edges []edge

	b.states.At(1).la[0].set(int(End))

	marker := newBitset(b.setSize())
	marker.set(b.hash)
	for _, st := range b.states.All() {
		for k, kit := range st.kernel {
			if s := b.nextSymbol(kit); s == NoSymbol {
				continue
			}
			items, sets := b.closure1([]item{kit}, []bitset{marker})
			for i, it := range items {
				s := b.nextSymbol(it)
				if s == NoSymbol {
					continue
				}
				target := b.states.At(st.next(s))
				j := target.pos[item{prod: it.prod, dot: it.dot + 1}]
				if sets[i].has(b.hash) {
					edges = append(edges, edge{from: &st.la[k], to: &target.la[j]})
					sets[i].clear(b.hash)
				}
				target.la[j].union(sets[i])
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, e := range edges {
			if e.to.union(*e.from) {
				changed = true
			}
		}
	}
}

func (b *builder) fillTables() {
	t := b.t
	nonterms := len(t.symbols) - t.terminals
	t.actions = make([]Action, t.states*t.terminals)
	t.gotos = make([]State, t.states*nonterms)
	for i := range t.gotos {
		t.gotos[i] = NoState
	}
	t.expected = make([][]Symbol, t.states)

	for p, st := range b.states.All() {
		state := State(p.Index())
		items, sets := b.closure1(st.kernel, st.la)

		shifts := make(map[Symbol][]int)
		reduces := make(map[Symbol][]int)
		for i, it := range items {
			s := b.nextSymbol(it)
			switch {
			case s == NoSymbol:
				for la := range sets[i].all() {
					if la < t.terminals {
						reduces[Symbol(la)] = append(reduces[Symbol(la)], int(it.prod))
					}
				}
			case t.IsTerminal(s):
				shifts[s] = append(shifts[s], int(it.prod))
			}
		}

		for _, tr := range st.trans {
			if !t.IsTerminal(tr.sym) {
				t.gotos[int(state)*nonterms+b.nonterm(tr.sym)] = State(tr.to.Index())
			}
		}
		for sym := range Symbol(t.terminals) {
			prods := reduces[sym]
			var shift Action
			if to := st.next(sym); !to.Nil() {
				shift = Action{Kind: ActionShift, Target: int32(to.Index())}
			}
			if len(prods) == 0 && shift.Kind == ActionError {
				continue
			}
			action := b.resolve(state, sym, shift, shifts[sym], prods)
			t.actions[int(state)*t.terminals+int(sym)] = action
			if action.Kind != ActionError {
				t.expected[state] = append(t.expected[state], sym)
			}
		}
	}
}

// resolve picks the action for one table cell, recording a conflict if
// precedence does not decide it.
func (b *builder) resolve(state State, sym Symbol, shift Action, shiftProds, reduces []int) Action {
	t := b.t
	if len(reduces) == 0 {
		return shift
	}
	slices.Sort(reduces)
	reduces = slices.Compact(reduces)

	// Pick the reduction with the highest precedence, the earliest one on a
	// tie.
	best := reduces[0]
	tied := false
	for _, r := range reduces[1:] {
		switch rp, bp := t.productions[r].Prec, t.productions[best].Prec; {
		case rp > bp:
			best, tied = r, false
		case rp == bp:
			tied = true
		}
	}
	reduce := Action{Kind: ActionReduce, Target: int32(best)}
	if best == 0 {
		reduce = Action{Kind: ActionAccept}
	}

	if shift.Kind == ActionError {
		if tied {
			t.conflicts = append(t.conflicts, Conflict{
				State: state, Lookahead: sym, Productions: reduces, Chosen: reduce,
			})
		}
		return reduce
	}

	r := &t.productions[best]
	var wantShift, wantReduce, unresolved bool
	for _, q := range shiftProds {
		qp := t.productions[q].Prec
		switch {
		case r.Prec > qp:
			wantReduce = true
		case r.Prec < qp:
			wantShift = true
		case r.Assoc == AssocLeft:
			wantReduce = true
		case r.Assoc == AssocRight:
			wantShift = true
		default:
			unresolved = true
		}
	}
	switch {
	case !unresolved && !tied && wantReduce && !wantShift:
		return reduce
	case !unresolved && !tied && wantShift && !wantReduce:
		return shift
	}
	t.conflicts = append(t.conflicts, Conflict{
		State: state, Lookahead: sym, Shift: true, Productions: reduces, Chosen: shift,
	})
	return shift
}
