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
	"github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/token"
)

type flags uint8

const (
	flagVisible flags = 1 << iota
	flagNamed
	flagExtra        // Not part of any production; carried by the enclosing node.
	flagMissing      // A zero-width leaf inserted by error recovery.
	flagError        // An ERROR node, or a leaf for an unrecognized token.
	flagHasError     // Some descendant is missing or an error.
	flagUnterminated // A leaf for a literal or comment that runs off its line.
	flagAnchored     // Has a position even though it is empty; see summarize.
)

// subtree is the immutable internal representation of a node.
//
// Sizes are relative, so a subtree can be shared between two trees even if
// an edit moved it. Absolute offsets are computed while walking down from a
// root; see [Node].
//
// Hidden subtrees exist in the internal tree but are not visible through
// [Node]; their children are spliced into the nearest visible ancestor.
type subtree struct {
	symbol grammar.Symbol // The grammar symbol, used for parsing.
	alias  grammar.Symbol // The node type, if renamed by the parent production.

	// The production that built this subtree, or -1 for leaves and ERROR
	// nodes.
	production int32
	// The parser state below this subtree when it was parsed. A subtree can
	// only be reused in the same state.
	state grammar.State

	// Leading trivia, then significant bytes.
	padding, size int32
	// Bytes past the end that were examined while scanning the tokens of
	// this subtree.
	lookahead int32
	// The largest number of parse stack entries this subtree needed.
	depth int32
	// For ERROR nodes: the index of the first child that was a skipped
	// token, rather than a partial construct popped off the stack.
	skip int32

	kind  token.Kind // Lexical kind, for leaves.
	flags flags

	children []*subtree
	trivia   []trivium // Leading trivia, for leaves.
}

// trivium is a single whitespace or comment token.
type trivium struct {
	kind token.Kind
	size int32
}

func (s *subtree) total() int {
	return int(s.padding) + int(s.size)
}

// nodeType returns the symbol naming this subtree's node type.
func (s *subtree) nodeType() grammar.Symbol {
	if s.alias != grammar.NoSymbol {
		return s.alias
	}
	return s.symbol
}

func (s *subtree) isLeaf() bool {
	return s.production < 0 && len(s.children) == 0
}

func (s *subtree) isExtra() bool {
	return s != nil && s.flags&flagExtra != 0
}

func (s *subtree) hasError() bool {
	return s.flags&(flagError|flagMissing|flagHasError) != 0
}

func (s *subtree) visible() bool {
	return s.flags&flagVisible != 0
}

// typeFlags computes the visibility flags of a node of the given type.
func typeFlags(table *grammar.Table, sym grammar.Symbol) flags {
	info := table.Symbol(sym)
	var f flags
	if !info.Hidden {
		f |= flagVisible
	}
	if info.Named {
		f |= flagNamed
	}
	return f
}

// newLeaf builds a leaf for tok, which was scanned after the trivia starting
// at pos. triviaEnd is the offset of the last byte the scanner examined while
// scanning the trivia.
func newLeaf(table *grammar.Table, tok token.Token, pos int, trivia []trivium, triviaEnd int) *subtree {
	s := &subtree{
		symbol:     tok.Symbol,
		alias:      grammar.NoSymbol,
		production: -1,
		state:      grammar.NoState,
		padding:    int32(tok.Start - pos),
		size:       int32(tok.Len()),
		lookahead:  int32(max(tok.Lookahead, triviaEnd-tok.End, 0)),
		depth:      1,
		skip:       -1,
		kind:       tok.Kind,
		flags:      typeFlags(table, tok.Symbol),
		trivia:     trivia,
	}
	if tok.Symbol == grammar.Error {
		s.flags |= flagError
	}
	if tok.Unterminated {
		s.flags |= flagUnterminated
	}
	return s
}

// newMissing builds a zero-width leaf for a token that recovery inserted.
func newMissing(table *grammar.Table, sym grammar.Symbol) *subtree {
	return &subtree{
		symbol:     sym,
		alias:      grammar.NoSymbol,
		production: -1,
		state:      grammar.NoState,
		depth:      1,
		skip:       -1,
		flags:      typeFlags(table, sym) | flagMissing | flagAnchored,
	}
}

// newNode builds the node for a reduction by production prod over children,
// whose aliases must already be applied.
func newNode(table *grammar.Table, prod *grammar.Production, children []*subtree, state grammar.State) *subtree {
	s := &subtree{
		symbol:     prod.LHS,
		alias:      grammar.NoSymbol,
		production: int32(prod.Index),
		state:      state,
		skip:       -1,
		flags:      typeFlags(table, prod.LHS),
		children:   children,
	}
	s.summarize()
	return s
}

// newError builds an ERROR node. The first skip children were popped off the
// parse stack; the rest are the tokens recovery skipped.
func newError(table *grammar.Table, children []*subtree, skip int, state grammar.State) *subtree {
	s := &subtree{
		symbol:     grammar.Error,
		alias:      grammar.NoSymbol,
		production: -1,
		state:      state,
		skip:       int32(skip),
		flags:      typeFlags(table, grammar.Error) | flagError | flagExtra,
		children:   children,
	}
	s.summarize()
	return s
}

// summarize computes the sizes and flags of s from its children.
//
// A node starts where its first child with a position starts: the first
// non-empty child, a missing leaf, or a node holding one. Missing leaves sit
// before the trivia of the token that follows them, so a node that begins
// with one also begins before that trivia.
func (s *subtree) summarize() {
	var offset, end, depth int
	padded := false
	for i, c := range s.children {
		if !padded && (c.size > 0 || c.flags&flagAnchored != 0) {
			s.padding = int32(offset) + c.padding
			padded = true
			if c.size == 0 {
				s.flags |= flagAnchored
			}
		}
		offset += c.total()
		end = max(end, offset+int(c.lookahead))
		depth = max(depth, i+int(c.depth))
		if c.hasError() {
			s.flags |= flagHasError
		}
	}
	if !padded {
		s.padding = int32(offset)
	}
	s.size = int32(offset) - s.padding
	s.lookahead = int32(end - offset)
	s.depth = int32(max(depth, 1))
}

// withAlias returns s renamed to alias, copying it if necessary. Passing
// [grammar.NoSymbol] removes an alias.
func (s *subtree) withAlias(table *grammar.Table, alias grammar.Symbol) *subtree {
	if s.alias == alias {
		return s
	}
	c := *s
	c.alias = alias
	c.flags &^= flagVisible | flagNamed
	c.flags |= typeFlags(table, c.nodeType())
	return &c
}
