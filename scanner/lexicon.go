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

package scanner

import (
	"sync"

	"github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/internal/trie"
)

// Names of the named tokens the scanner produces. A grammar that does not
// declare one of them gets [grammar.Error] for that lexical form.
const (
	Identifier   = "identifier"
	IntegerLit   = "integer_literal"
	HexLit       = "hex_literal"
	BinaryLit    = "binary_literal"
	FloatLit     = "float_literal"
	CharLit      = "char_literal"
	StringLit    = "string_literal"
	CCodeLiteral = "c_code"
)

// Literals that start with this byte followed by a word, like "#if", are
// scanned as keywords.
const hashKeyPrefix = '#'

// Lexicon is the lexical view of a grammar table: which words are keywords,
// which strings are operators, and which symbols the literal forms map to.
type Lexicon struct {
	table *grammar.Table

	keywords  map[string]grammar.Symbol
	operators trie.Trie[grammar.Symbol]
	// Bytes that can start some token other than an unrecognized run.
	starts [256]bool

	ident, integer, hex, binary, float, char, str, ccode grammar.Symbol
}

var lexicons sync.Map // *grammar.Table -> *Lexicon

// NewLexicon returns the lexicon for table. Lexicons are cached per table.
func NewLexicon(table *grammar.Table) *Lexicon {
	if lex, ok := lexicons.Load(table); ok {
		return lex.(*Lexicon)
	}

	lex := &Lexicon{
		table:    table,
		keywords: make(map[string]grammar.Symbol),
	}
	for text, sym := range table.Literals() {
		switch {
		case isWord(text):
			lex.keywords[text] = sym
		case text[0] == hashKeyPrefix && len(text) > 1 && isWord(text[1:]):
			lex.keywords[text] = sym
		default:
			lex.operators.Insert(text, sym)
			lex.starts[text[0]] = true
		}
	}
	for c := range 256 {
		b := byte(c)
		if isSpace(b) || isIdentStart(b) || isDigit(b) {
			lex.starts[c] = true
		}
	}
	for _, c := range []byte{'"', '\'', '#', '/', '%'} {
		lex.starts[c] = true
	}

	named := func(name string) grammar.Symbol {
		if sym := table.SymbolByName(name); sym != grammar.NoSymbol && table.IsTerminal(sym) {
			return sym
		}
		return grammar.Error
	}
	lex.ident = named(Identifier)
	lex.integer = named(IntegerLit)
	lex.hex = named(HexLit)
	lex.binary = named(BinaryLit)
	lex.float = named(FloatLit)
	lex.char = named(CharLit)
	lex.str = named(StringLit)
	lex.ccode = named(CCodeLiteral)

	actual, _ := lexicons.LoadOrStore(table, lex)
	return actual.(*Lexicon)
}

// Table returns the table this lexicon was derived from.
func (l *Lexicon) Table() *grammar.Table {
	return l.table
}

// Keyword returns the keyword symbol for word, if it is one.
func (l *Lexicon) Keyword(word string) (grammar.Symbol, bool) {
	sym, ok := l.keywords[word]
	return sym, ok
}

func isWord(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentContinue(s[i]) {
			return false
		}
	}
	return true
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isBinary(c byte) bool {
	return c == '0' || c == '1'
}
