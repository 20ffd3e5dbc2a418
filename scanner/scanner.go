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

// Package scanner splits DML source into tokens.
//
// The scanner is stateless between tokens: [Scanner.Next] can be restarted at
// any byte offset, which is what lets the incremental parser lex only the
// edited part of a file. It never fails; bytes it does not understand become
// [token.Unrecognized] tokens carrying the [grammar.Error] symbol.
package scanner

import (
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/source"
	"github.com/bufbuild/dmlparse/token"
)

// Scanner produces tokens from a source file.
type Scanner struct {
	*Lexicon
	file *source.File
	src  string
}

// New returns a scanner for file using the lexical rules of table.
func New(table *grammar.Table, file *source.File) *Scanner {
	return NewWithLexicon(NewLexicon(table), file)
}

// NewWithLexicon is like [New], with a lexicon computed ahead of time.
func NewWithLexicon(lex *Lexicon, file *source.File) *Scanner {
	return &Scanner{Lexicon: lex, file: file, src: file.Text()}
}

// File returns the file being scanned.
func (s *Scanner) File() *source.File {
	return s.file
}

// Next returns the token that starts at offset, trivia included. At the end
// of input it returns a zero-width [token.EOF] token.
func (s *Scanner) Next(offset int) token.Token {
	offset = min(max(offset, 0), len(s.src))
	l := &lexer{Scanner: s, start: offset, pos: offset, examined: offset}
	tok := l.scan()
	l.mustProgress(tok)

	tok.Start, tok.End = offset, l.pos
	tok.Point = s.file.Point(offset)
	tok.Lookahead = max(l.examined-l.pos, 0)
	return tok
}

// All yields every token of the file in order, ending with [token.EOF].
func (s *Scanner) All() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		offset := 0
		for {
			tok := s.Next(offset)
			if !yield(tok) || tok.Kind == token.EOF {
				return
			}
			offset = tok.End
		}
	}
}

// lexer is the book-keeping for scanning a single token.
type lexer struct {
	*Scanner
	start, pos int
	// One past the last byte inspected so far. Inspecting the end of input
	// counts as inspecting a byte.
	examined int
}

// peek returns the byte i bytes past pos, recording that it was inspected.
func (l *lexer) peek(i int) (byte, bool) {
	j := l.pos + i
	l.examined = max(l.examined, j+1)
	if j >= len(l.src) {
		return 0, false
	}
	return l.src[j], true
}

// takeWhile advances over bytes matching pred.
func (l *lexer) takeWhile(pred func(byte) bool) {
	for {
		c, ok := l.peek(0)
		if !ok || !pred(c) {
			return
		}
		l.pos++
	}
}

func (l *lexer) mustProgress(tok token.Token) {
	if tok.Kind != token.EOF && l.pos <= l.start {
		panic(fmt.Sprintf("scanner: failed to make progress at offset %d", l.start))
	}
}

func (l *lexer) scan() token.Token {
	c, ok := l.peek(0)
	if !ok {
		return token.Token{Kind: token.EOF, Symbol: grammar.End}
	}

	switch {
	case isSpace(c):
		l.takeWhile(isSpace)
		return trivia(token.Space)

	case isIdentStart(c):
		l.takeWhile(isIdentContinue)
		word := l.src[l.start:l.pos]
		if sym, ok := l.keywords[word]; ok {
			return token.Token{Kind: token.Keyword, Symbol: sym}
		}
		return token.Token{Kind: token.Ident, Symbol: l.ident}

	case isDigit(c):
		return l.number()

	case c == '"':
		return l.quoted('"', token.String, l.str)

	case c == '\'':
		return l.quoted('\'', token.Char, l.char)
	}

	if c == '/' || c == '%' || c == '#' {
		if tok, ok := l.twoByte(c); ok {
			return tok
		}
	}

	n, sym, scanned := l.operators.Longest(l.src[l.pos:])
	l.examined = max(l.examined, l.pos+scanned)
	if n > 0 {
		l.pos += n
		return token.Token{Kind: token.Punct, Symbol: sym}
	}

	// Consume a run of bytes that cannot start any token, keeping whole
	// runes together.
	for {
		_, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
		c, ok := l.peek(0)
		if !ok || l.starts[c] {
			break
		}
	}
	return token.Token{Kind: token.Unrecognized, Symbol: grammar.Error}
}

// twoByte scans the tokens whose first byte alone does not decide their
// form: comments, C blocks and hash keywords.
func (l *lexer) twoByte(c byte) (token.Token, bool) {
	next, _ := l.peek(1)
	switch {
	case c == '/' && next == '/':
		l.pos += 2
		l.takeWhile(func(c byte) bool { return c != '\n' && c != '\r' })
		return trivia(token.Comment), true

	case c == '/' && next == '*':
		l.pos += 2
		if !l.seek("*/") {
			return unterminated(token.Unrecognized), true
		}
		return trivia(token.Comment), true

	case c == '%' && next == '{':
		l.pos += 2
		if !l.seek("%}") {
			return unterminated(token.CCode), true
		}
		return token.Token{Kind: token.CCode, Symbol: l.ccode}, true

	case c == '#' && isIdentStart(next):
		l.pos++
		l.takeWhile(isIdentContinue)
		if sym, ok := l.keywords[l.src[l.start:l.pos]]; ok {
			return token.Token{Kind: token.Keyword, Symbol: sym}, true
		}
		return token.Token{Kind: token.Unrecognized, Symbol: grammar.Error}, true
	}
	return token.Token{}, false
}

// seek advances past the next occurrence of end, or to the end of input.
// Returns whether end was found.
func (l *lexer) seek(end string) bool {
	idx := strings.Index(l.src[l.pos:], end)
	if idx < 0 {
		l.pos = len(l.src)
		l.examined = max(l.examined, l.pos+1)
		return false
	}
	l.pos += idx + len(end)
	l.examined = max(l.examined, l.pos)
	return true
}

func (l *lexer) number() token.Token {
	c0, _ := l.peek(0)
	c1, _ := l.peek(1)
	if c0 == '0' {
		switch c1 {
		case 'x', 'X':
			if c2, ok := l.peek(2); ok && isHex(c2) {
				l.pos += 2
				l.takeWhile(func(c byte) bool { return isHex(c) || c == '_' })
				l.suffix()
				return token.Token{Kind: token.Number, Symbol: l.hex}
			}
		case 'b', 'B':
			if c2, ok := l.peek(2); ok && isBinary(c2) {
				l.pos += 2
				l.takeWhile(func(c byte) bool { return isBinary(c) || c == '_' })
				l.suffix()
				return token.Token{Kind: token.Number, Symbol: l.binary}
			}
		}
	}

	decimal := func(c byte) bool { return isDigit(c) || c == '_' }
	l.takeWhile(decimal)
	sym := l.integer
	if c, _ := l.peek(0); c == '.' {
		if d, ok := l.peek(1); ok && isDigit(d) {
			l.pos++
			l.takeWhile(decimal)
			sym = l.float

			if e, _ := l.peek(0); e == 'e' || e == 'E' {
				digit := 1
				if sign, _ := l.peek(1); sign == '+' || sign == '-' {
					digit = 2
				}
				if d, ok := l.peek(digit); ok && isDigit(d) {
					l.pos += digit
					l.takeWhile(decimal)
				}
			}
		}
	}
	l.suffix()
	return token.Token{Kind: token.Number, Symbol: sym}
}

func (l *lexer) suffix() {
	l.takeWhile(func(c byte) bool { return strings.IndexByte("uUlL", c) >= 0 })
}

// quoted scans a string or character literal. Literals may not span lines.
func (l *lexer) quoted(quote byte, kind token.Kind, sym grammar.Symbol) token.Token {
	l.pos++
	for {
		c, ok := l.peek(0)
		switch {
		case !ok || c == '\n' || c == '\r':
			return unterminated(kind)
		case c == quote:
			l.pos++
			return token.Token{Kind: kind, Symbol: sym}
		case c == '\\':
			l.pos++
			if c, ok := l.peek(0); ok && c != '\n' && c != '\r' {
				_, size := utf8.DecodeRuneInString(l.src[l.pos:])
				l.pos += size
			}
		default:
			l.pos++
		}
	}
}

func trivia(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Symbol: grammar.NoSymbol}
}

func unterminated(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Symbol: grammar.Error, Unterminated: true}
}
