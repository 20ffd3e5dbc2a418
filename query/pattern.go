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

package query

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/bufbuild/dmlparse/reporter"
	"github.com/bufbuild/dmlparse/source"
	"github.com/bufbuild/dmlparse/syntax"
)

// Pattern is a compiled shape pattern. Patterns are S-expressions:
//
//	(type child...)  a node of the given type whose children match, in order
//	(type)           a node of the given type, whatever its children
//	(_ child...)     a named node of any type
//	type             a node of the given type, named or not
//	"text"           an anonymous token, such as a keyword or punctuation
//	_                any node
//	*                any number of further children; only valid last
//
// Any element but * may be followed by @name to capture the node it matched.
//
// For example, `(toplevel "import" (utf8_sconst) @path ";")` matches import
// statements and captures their path.
type Pattern struct {
	text string
	root *element
}

type elementKind int8

const (
	elemNode  elementKind = iota // (type child...)
	elemType                     // type
	elemToken                    // "text"
	elemAny                      // _
	elemRest                     // *
)

type element struct {
	kind     elementKind
	typ      string
	children []*element
	capture  string
}

// Match is a successful match of a [Pattern].
type Match struct {
	// The node the whole pattern matched.
	Node syntax.Node
	// Captured nodes, by name.
	Captures map[string]syntax.Node
}

// Capture returns the node captured under name.
func (m Match) Capture(name string) (syntax.Node, bool) {
	n, ok := m.Captures[name]
	return n, ok
}

// MustCompile is like [Compile], but panics on error.
func MustCompile(text string) *Pattern {
	p, err := Compile(text)
	if err != nil {
		panic(fmt.Sprintf("query: %v", err))
	}
	return p
}

// Compile compiles a pattern. Errors carry the position in text at which
// compilation failed, as a [reporter.ErrorWithPos].
func Compile(text string) (*Pattern, error) {
	c := &compiler{file: source.NewFile("", text), text: text}
	root, err := c.element()
	if err != nil {
		return nil, err
	}
	if root.kind == elemRest {
		return nil, c.errorf(0, "* must be inside a node pattern")
	}
	c.skipSpace()
	if c.pos < len(text) {
		return nil, c.errorf(c.pos, "unexpected %q after pattern", text[c.pos:c.pos+1])
	}
	return &Pattern{text: text, root: root}, nil
}

// String returns the text the pattern was compiled from.
func (p *Pattern) String() string {
	return p.text
}

// Match matches n against the pattern.
func (p *Pattern) Match(n syntax.Node) (Match, bool) {
	captures := make(map[string]syntax.Node)
	if n.IsZero() || !p.root.match(n, captures) {
		return Match{}, false
	}
	return Match{Node: n, Captures: captures}, true
}

// FindAll yields the matches of the pattern against root and all of its
// descendants, in pre-order.
func (p *Pattern) FindAll(root syntax.Node) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for n := range syntax.Preorder(root) {
			if m, ok := p.Match(n); ok && !yield(m) {
				return
			}
		}
	}
}

func (e *element) match(n syntax.Node, captures map[string]syntax.Node) bool {
	switch e.kind {
	case elemAny:
	case elemType:
		if n.Type() != e.typ {
			return false
		}
	case elemToken:
		if n.IsNamed() || n.Type() != e.typ {
			return false
		}
	case elemNode:
		if e.typ == "_" {
			if !n.IsNamed() {
				return false
			}
		} else if n.Type() != e.typ {
			return false
		}
		if len(e.children) > 0 && !e.matchChildren(n, captures) {
			return false
		}
	default:
		return false
	}

	if e.capture != "" {
		captures[e.capture] = n
	}
	return true
}

func (e *element) matchChildren(n syntax.Node, captures map[string]syntax.Node) bool {
	i := 0
	for c := range n.Children() {
		if i == len(e.children) {
			return false
		}
		child := e.children[i]
		if child.kind == elemRest {
			return true
		}
		if !child.match(c, captures) {
			return false
		}
		i++
	}
	// Unmatched patterns remain; only a trailing * may match nothing.
	return i == len(e.children) || (i == len(e.children)-1 && e.children[i].kind == elemRest)
}

type compiler struct {
	file *source.File
	text string
	pos  int
}

func (c *compiler) errorf(offset int, format string, args ...any) error {
	return reporter.Errorf(c.file.Position(offset), format, args...)
}

func (c *compiler) skipSpace() {
	for c.pos < len(c.text) && strings.IndexByte(" \t\r\n", c.text[c.pos]) >= 0 {
		c.pos++
	}
}

func (c *compiler) element() (*element, error) {
	c.skipSpace()
	if c.pos == len(c.text) {
		return nil, c.errorf(c.pos, "unexpected end of pattern")
	}

	start := c.pos
	var e *element
	switch ch := c.text[c.pos]; {
	case ch == '(':
		c.pos++
		c.skipSpace()
		typ := c.word()
		if typ == "" {
			return nil, c.errorf(c.pos, "expected a node type after (")
		}
		e = &element{kind: elemNode, typ: typ}
		for {
			c.skipSpace()
			if c.pos == len(c.text) {
				return nil, c.errorf(start, "unclosed (")
			}
			if c.text[c.pos] == ')' {
				c.pos++
				break
			}
			if n := len(e.children); n > 0 && e.children[n-1].kind == elemRest {
				return nil, c.errorf(c.pos, "* must be the last child pattern")
			}
			child, err := c.element()
			if err != nil {
				return nil, err
			}
			e.children = append(e.children, child)
		}

	case ch == '"':
		end := c.pos + 1
		for end < len(c.text) && c.text[end] != '"' {
			if c.text[end] == '\\' {
				end++
			}
			end++
		}
		if end >= len(c.text) {
			return nil, c.errorf(start, "unterminated string")
		}
		text, err := strconv.Unquote(c.text[start : end+1])
		if err != nil {
			return nil, c.errorf(start, "invalid string: %v", err)
		}
		c.pos = end + 1
		e = &element{kind: elemToken, typ: text}

	case ch == '*':
		c.pos++
		return &element{kind: elemRest}, nil

	case ch == ')':
		return nil, c.errorf(c.pos, "unexpected )")

	default:
		typ := c.word()
		switch typ {
		case "":
			return nil, c.errorf(c.pos, "unexpected %q", c.text[c.pos:c.pos+1])
		case "_":
			e = &element{kind: elemAny}
		default:
			e = &element{kind: elemType, typ: typ}
		}
	}

	c.skipSpace()
	if c.pos < len(c.text) && c.text[c.pos] == '@' {
		c.pos++
		e.capture = c.word()
		if e.capture == "" {
			return nil, c.errorf(c.pos, "expected a capture name after @")
		}
	}
	return e, nil
}

// word scans a node type or capture name.
func (c *compiler) word() string {
	start := c.pos
	for c.pos < len(c.text) {
		ch := c.text[c.pos]
		if ch != '_' && ch != '#' && ch != '.' && ch != '-' &&
			!('a' <= ch && ch <= 'z') && !('A' <= ch && ch <= 'Z') && !('0' <= ch && ch <= '9') {
			break
		}
		c.pos++
	}
	return c.text[start:c.pos]
}
