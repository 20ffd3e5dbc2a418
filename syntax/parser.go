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

// Package syntax builds lossless concrete syntax trees with a table-driven
// LR parser.
//
// Parsing never fails because of syntax errors. Unparsable input ends up in
// ERROR nodes and tokens the parser had to assume are represented as
// zero-width missing nodes; see [Tree.Diagnostics]. After an edit,
// [Parser.Reparse] builds the new tree from the unaffected parts of the old
// one.
package syntax

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bufbuild/dmlparse/dml"
	"github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/reporter"
	"github.com/bufbuild/dmlparse/scanner"
	"github.com/bufbuild/dmlparse/source"
)

// Parser parses source text with a compiled grammar table.
//
// A Parser holds no state between calls and is safe for concurrent use.
type Parser struct {
	table   *grammar.Table
	lexicon *scanner.Lexicon
	opts    options
}

// NewParser returns a parser for the language of table.
func NewParser(table *grammar.Table, opts ...Option) *Parser {
	return &Parser{
		table:   table,
		lexicon: scanner.NewLexicon(table),
		opts:    newOptions(opts),
	}
}

// Parse parses DML source text.
func Parse(src []byte, opts ...Option) (*Tree, error) {
	return NewParser(dml.Table(), opts...).Parse(src)
}

// Reparse parses DML source text, reusing the parts of old that edit did not
// affect. See [Parser.Reparse].
func Reparse(old *Tree, edit Edit, src []byte, opts ...Option) (*Tree, error) {
	return NewParser(dml.Table(), opts...).Reparse(old, edit, src)
}

// Language returns the grammar table this parser uses.
func (p *Parser) Language() *grammar.Table {
	return p.table
}

// Parse parses src.
//
// Syntax errors never fail a parse: they are recorded in the tree as ERROR
// and missing nodes. The only errors returned are [ErrTooLarge] and
// [ErrTooDeep], wrapped with the position at which the limit was hit.
func (p *Parser) Parse(src []byte) (*Tree, error) {
	return p.parse(p.opts.path, src, nil)
}

// ParseFile is like [Parser.Parse], but positions in the tree are reported
// against path instead of the path set with [WithPath].
func (p *Parser) ParseFile(path string, src []byte) (*Tree, error) {
	return p.parse(path, src, nil)
}

// Reparse parses src, which is the text of old with edit applied.
//
// Subtrees of old that the edit cannot have affected are reused verbatim:
// the new tree shares them with old. The result is the same as that of
// [Parser.Parse] on src.
//
// Returns an error wrapping [ErrInvalidEdit] if edit is inconsistent with
// the lengths of the two inputs.
func (p *Parser) Reparse(old *Tree, edit Edit, src []byte) (*Tree, error) {
	if old == nil {
		return p.Parse(src)
	}
	if err := edit.Validate(old.file.Len(), len(src)); err != nil {
		return nil, err
	}
	if old.table != p.table {
		return p.Parse(src)
	}
	path := p.opts.path
	if path == "" {
		path = old.file.Path()
	}
	return p.parse(path, src, newReuser(old, edit))
}

func (p *Parser) parse(path string, src []byte, reuse *reuser) (*Tree, error) {
	file := source.NewFile(path, string(src))
	if len(src) > p.opts.maxSize {
		return nil, reporter.Error(file.Position(p.opts.maxSize), ErrTooLarge)
	}

	run := &parse{
		Parser: p,
		file:   file,
		scan:   scanner.NewWithLexicon(p.lexicon, file),
		reuse:  reuse,
		stack:  []entry{{state: 0}},
	}
	root, err := run.run()
	if err != nil {
		return nil, err
	}
	return &Tree{file: file, table: p.table, root: root}, nil
}

// entry is an entry of the parse stack.
type entry struct {
	state grammar.State
	node  *subtree // Nil for the bottom entry.
}

// parse is the state of a single run of the parser.
type parse struct {
	*Parser
	file *source.File
	scan *scanner.Scanner

	stack []entry
	// The offset just past the last token consumed. The trivia of the next
	// token starts here.
	pos int
	// The current lookahead, or nil if the next token has not been scanned.
	la *subtree
	// Tokens scanned ahead of the lookahead, in order.
	queue []*subtree

	reuse *reuser
}

func (p *parse) run() (*subtree, error) {
	for {
		if p.la == nil {
			p.la = p.next()
		}
		la := p.la
		top := p.top()

		if la.flags&flagError != 0 {
			// Unrecognized input can appear anywhere; it does not change the
			// parser's state.
			la.state = top
			la.flags |= flagExtra
			if err := p.push(top, la); err != nil {
				return nil, err
			}
			p.consume()
			continue
		}

		action := p.table.Action(top, la.symbol)
		switch action.Kind {
		case grammar.ActionShift:
			if p.reuse != nil && len(p.queue) == 0 && la.flags&flagMissing == 0 {
				if ok, err := p.tryReuse(top); err != nil {
					return nil, err
				} else if ok {
					continue
				}
			}
			la.state = top
			if err := p.push(action.State(), la); err != nil {
				return nil, err
			}
			p.consume()

		case grammar.ActionReduce:
			if err := p.reduce(action.Production()); err != nil {
				return nil, err
			}

		case grammar.ActionAccept:
			return p.accept(), nil

		default:
			if err := p.recover(); err != nil {
				return nil, err
			}
		}
	}
}

func (p *parse) top() grammar.State {
	return p.stack[len(p.stack)-1].state
}

func (p *parse) push(state grammar.State, node *subtree) error {
	p.stack = append(p.stack, entry{state: state, node: node})
	if len(p.stack)-1 > p.opts.maxDepth {
		return reporter.Error(p.file.Position(p.pos), ErrTooDeep)
	}
	return nil
}

// consume advances past the lookahead.
func (p *parse) consume() {
	p.pos += p.la.total()
	p.la = nil
}

// next returns the next token after the one just consumed.
func (p *parse) next() *subtree {
	if len(p.queue) > 0 {
		leaf := p.queue[0]
		p.queue = p.queue[1:]
		return leaf
	}
	return p.scanLeaf(p.pos)
}

// peek returns the first token after the lookahead that is not an
// unrecognized token, scanning ahead as needed.
func (p *parse) peek() *subtree {
	pos := p.pos + p.la.total()
	for i := 0; ; i++ {
		if i == len(p.queue) {
			p.queue = append(p.queue, p.scanLeaf(pos))
		}
		leaf := p.queue[i]
		if leaf.flags&flagError == 0 {
			return leaf
		}
		pos += leaf.total()
	}
}

// scanLeaf scans a token and its leading trivia, starting at pos.
func (p *parse) scanLeaf(pos int) *subtree {
	var trivia []trivium
	examined := pos
	for at := pos; ; {
		tok := p.scan.Next(at)
		if !tok.IsTrivia() {
			return newLeaf(p.table, tok, pos, trivia, examined)
		}
		trivia = append(trivia, trivium{kind: tok.Kind, size: int32(tok.Len())})
		examined = max(examined, tok.End+tok.Lookahead)
		at = tok.End
	}
}

// reduce reduces by the i-th production.
//
// Extras on top of the stack are left outside of the new node; extras between
// its children become its children.
func (p *parse) reduce(i int) error {
	prod := p.table.Production(i)

	end := len(p.stack)
	for p.stack[end-1].node.isExtra() {
		end--
	}
	trailing := make([]*subtree, 0, len(p.stack)-end)
	for _, e := range p.stack[end:] {
		trailing = append(trailing, e.node)
	}

	start := end
	for n := 0; n < len(prod.RHS); {
		start--
		if !p.stack[start].node.isExtra() {
			n++
		}
	}

	children := make([]*subtree, 0, end-start)
	var rhs int
	for _, e := range p.stack[start:end] {
		child := e.node
		if !child.isExtra() {
			child = child.withAlias(p.table, prod.Alias(rhs))
			rhs++
		}
		children = append(children, child)
	}

	below := p.stack[start-1].state
	p.stack = p.stack[:start]
	goTo := p.table.Goto(below, prod.LHS)
	if goTo == grammar.NoState {
		panic(fmt.Sprintf("syntax: no goto from state %d on %s", below, p.table.Symbol(prod.LHS).Name))
	}
	if err := p.push(goTo, newNode(p.table, prod, children, below)); err != nil {
		return err
	}
	for _, extra := range trailing {
		if err := p.push(goTo, extra); err != nil {
			return err
		}
	}
	return nil
}

// accept builds the root from what is left on the stack and the end-of-input
// token, which carries the trailing trivia.
func (p *parse) accept() *subtree {
	var body *subtree
	var children []*subtree
	for _, e := range p.stack[1:] {
		if body == nil && !e.node.isExtra() {
			body = e.node
			children = append(children, body.children...)
			continue
		}
		children = append(children, e.node)
	}
	p.la.state = p.top()
	children = append(children, p.la)

	root := *body
	root.flags &^= flagHasError
	root.children = children
	root.summarize()
	return &root
}

// states returns the states of the entries of stack that are not extras.
func states(stack []entry) []grammar.State {
	out := make([]grammar.State, 0, len(stack))
	for _, e := range stack {
		if !e.node.isExtra() {
			out = append(out, e.state)
		}
	}
	return out
}

// simulate runs the parser on syms from the given stack of states, without
// building anything. Returns whether every symbol was shifted or the input
// was accepted.
func (p *Parser) simulate(stack []grammar.State, syms ...grammar.Symbol) bool {
	stack = append([]grammar.State(nil), stack...)
	for _, sym := range syms {
	actions:
		for {
			action := p.table.Action(stack[len(stack)-1], sym)
			switch action.Kind {
			case grammar.ActionShift:
				stack = append(stack, action.State())
				break actions
			case grammar.ActionReduce:
				prod := p.table.Production(action.Production())
				stack = stack[:len(stack)-len(prod.RHS)]
				goTo := p.table.Goto(stack[len(stack)-1], prod.LHS)
				if goTo == grammar.NoState {
					return false
				}
				stack = append(stack, goTo)
			case grammar.ActionAccept:
				return true
			default:
				return false
			}
		}
	}
	return true
}

func (p *parse) debug(msg string, fields logrus.Fields) {
	fields["offset"] = p.pos
	fields["state"] = p.top()
	p.opts.logger.WithFields(fields).Debug(msg)
}
