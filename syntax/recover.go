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
	"github.com/sirupsen/logrus"

	"github.com/bufbuild/dmlparse/grammar"
)

// Tokens that are tried first when recovery inserts a missing token.
var closers = []string{";", ")", "]", "}"}

// recover is called when the lookahead has no action in the current state.
//
// If inserting a single zero-width token lets the parser shift the lookahead
// and the token after it, that token is inserted as a missing leaf.
// Otherwise, tokens are skipped until one appears on which some state on
// the stack can continue; the entries above that state and the skipped
// tokens are wrapped in an ERROR node.
func (p *parse) recover() error {
	if p.la.flags&flagMissing == 0 {
		if sym := p.insertion(); sym != grammar.NoSymbol {
			p.debug("inserting missing token", logrus.Fields{
				"lookahead": p.table.Symbol(p.la.symbol).Name,
				"missing":   p.table.Symbol(sym).Name,
			})
			p.queue = append([]*subtree{p.la}, p.queue...)
			p.la = newMissing(p.table, sym)
			return nil
		}
	}
	return p.panicMode()
}

// insertion finds a token that, inserted before the lookahead, lets parsing
// continue. Returns [grammar.NoSymbol] if there is none.
func (p *parse) insertion() grammar.Symbol {
	stack := states(p.stack)
	follow := []grammar.Symbol{p.la.symbol}
	if p.la.symbol != grammar.End {
		follow = append(follow, p.peek().symbol)
	}

	try := func(sym grammar.Symbol) bool {
		if sym == grammar.NoSymbol || sym == grammar.End || sym == grammar.Error {
			return false
		}
		return p.simulate(stack, append([]grammar.Symbol{sym}, follow...)...)
	}
	for _, text := range closers {
		if sym := p.table.LiteralSymbol(text); try(sym) {
			return sym
		}
	}
	for _, sym := range p.table.Expected(p.top()) {
		if try(sym) {
			return sym
		}
	}
	return grammar.NoSymbol
}

// panicMode skips tokens until the parser can resynchronize.
func (p *parse) panicMode() error {
	var skipped []*subtree
	for {
		sym := p.la.symbol
		if sym == grammar.End || (p.la.flags&flagError == 0 && p.table.IsSync(sym)) {
			if i := p.resumeAt(sym); i >= 0 {
				p.debug("resynchronizing", logrus.Fields{
					"lookahead": p.table.Symbol(sym).Name,
					"popped":    len(p.stack) - 1 - i,
					"skipped":   len(skipped),
				})
				return p.wrapError(i, skipped)
			}
		}
		skipped = append(skipped, p.la)
		p.consume()
		p.la = p.next()
	}
}

// resumeAt returns the index of the topmost stack entry from which sym can
// be shifted, or -1. Only the bottom entry and entries for nodes that are
// not extras are considered.
func (p *parse) resumeAt(sym grammar.Symbol) int {
	stack := states(p.stack)
	n := len(stack)
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].node.isExtra() {
			continue
		}
		if p.simulate(stack[:n], sym) {
			return i
		}
		n--
	}
	return -1
}

// wrapError pops the entries above the i-th and pushes an ERROR node holding
// them, followed by skipped.
func (p *parse) wrapError(i int, skipped []*subtree) error {
	popped := p.stack[i+1:]
	if len(popped)+len(skipped) == 0 {
		return nil
	}
	children := make([]*subtree, 0, len(popped)+len(skipped))
	for _, e := range popped {
		children = append(children, e.node)
	}
	children = append(children, skipped...)

	state := p.stack[i].state
	p.stack = p.stack[:i+1]
	return p.push(state, newError(p.table, children, len(popped), state))
}
