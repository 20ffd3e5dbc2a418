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

// Package token defines the lexical tokens produced by the scanner.
package token

import (
	"fmt"

	"github.com/bufbuild/dmlparse/grammar"
	"github.com/bufbuild/dmlparse/source"
)

// Kind is a coarse lexical category.
type Kind uint8

const (
	Unrecognized Kind = iota // Bytes that start no token; also unterminated literals.
	Space                    // Whitespace, including line terminators.
	Comment                  // A // or /* */ comment.
	Ident                    // An identifier that is not a keyword.
	Keyword                  // A reserved or contextual word, including #if and friends.
	Punct                    // An operator or punctuation mark.
	Number                   // An integer or floating point literal.
	String                   // A double-quoted string literal.
	Char                     // A single-quoted character literal.
	CCode                    // An embedded %{ ... %} block.
	EOF                      // The zero-width end of input.
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case Unrecognized:
		return "Unrecognized"
	case Space:
		return "Space"
	case Comment:
		return "Comment"
	case Ident:
		return "Ident"
	case Keyword:
		return "Keyword"
	case Punct:
		return "Punct"
	case Number:
		return "Number"
	case String:
		return "String"
	case Char:
		return "Char"
	case CCode:
		return "CCode"
	case EOF:
		return "EOF"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsTrivia returns whether tokens of this kind are skipped by the parser.
func (k Kind) IsTrivia() bool {
	return k == Space || k == Comment
}

// Token is a single lexeme: a byte range of the source with its grammar
// symbol.
//
// Trivia tokens carry [grammar.NoSymbol]; lexical errors carry
// [grammar.Error].
type Token struct {
	Kind   Kind
	Symbol grammar.Symbol

	// Byte range of the token.
	Start, End int
	// Row and byte column of Start.
	Point source.Point

	// The number of bytes past End that the scanner inspected to decide
	// where this token ends. A change within that many bytes of End can
	// change this token.
	Lookahead int

	// Set for string, character, comment and C-code tokens that run into
	// the end of their line or of the file before being closed.
	Unterminated bool
}

// Len returns the length of the token in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}

// IsTrivia returns whether the parser skips this token.
func (t Token) IsTrivia() bool {
	return t.Kind.IsTrivia()
}

// Text returns the token's text within src.
func (t Token) Text(src string) string {
	return src[t.Start:t.End]
}

// String implements [fmt.Stringer].
func (t Token) String() string {
	return fmt.Sprintf("%v[%d:%d]", t.Kind, t.Start, t.End)
}
