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
	"fmt"

	"github.com/bufbuild/dmlparse/report"
	"github.com/bufbuild/dmlparse/scanner"
	"github.com/bufbuild/dmlparse/token"
)

// Tags of the diagnostics produced by [Tree.Diagnostics].
const (
	TagUnexpected   report.Tag = "syntax/unexpected"
	TagMissing      report.Tag = "syntax/missing"
	TagUnrecognized report.Tag = "syntax/unrecognized"
	TagUnterminated report.Tag = "syntax/unterminated"
)

// Diagnostics describes each of the tree's [Tree.Errors] as an error
// diagnostic.
func (t *Tree) Diagnostics() report.Report {
	var r report.Report
	for n := range t.Errors() {
		switch {
		case n.IsMissing():
			r.Error(
				TagMissing,
				report.Message("expected %s", n.describe()),
				report.Snippet(n, "expected %s here", n.describe()),
			)

		case len(n.sub.children) == 0:
			lexical(&r, n)

		default:
			for m := range Leaves(n) {
				if m.IsError() {
					lexical(&r, m)
				}
			}
			t.unexpected(&r, n)
		}
	}
	return r
}

// unexpected describes an ERROR node by the first token it skipped, or by
// the token that follows it if it skipped none.
func (t *Tree) unexpected(r *report.Report, n Node) {
	if skip := int(n.sub.skip); skip >= 0 && skip < len(n.sub.children) {
		offset := n.offset
		for _, c := range n.sub.children[:skip] {
			offset += c.total()
		}
		tok := Node{tree: t, sub: n.sub.children[skip], offset: offset}
		if tok.IsError() {
			// Already reported as a lexical error.
			return
		}
		if tok.sub.size > 0 {
			r.Error(
				TagUnexpected,
				report.Message("unexpected `%s`", tok.Text()),
				report.Snippet(tok),
			)
			return
		}
	}

	s := scanner.New(t.table, t.file)
	next := s.Next(n.EndByte())
	for next.IsTrivia() {
		next = s.Next(next.End)
	}
	if next.Kind == token.EOF {
		r.Error(
			TagUnexpected,
			report.Message("unexpected end of input"),
			report.Snippet(n, "could not parse this"),
		)
		return
	}
	span := t.file.Span(next.Start, next.End)
	r.Error(
		TagUnexpected,
		report.Message("unexpected `%s`", span.Text()),
		report.Snippet(span),
		report.Snippet(n, "could not parse this"),
	)
}

// lexical describes a token the scanner did not recognize.
func lexical(r *report.Report, n Node) {
	if n.sub.flags&flagUnterminated == 0 {
		r.Error(
			TagUnrecognized,
			report.Message("unrecognized token `%s`", n.Text()),
			report.Snippet(n),
		)
		return
	}

	var what string
	switch n.sub.kind {
	case token.String:
		what = "string literal"
	case token.Char:
		what = "character literal"
	case token.CCode:
		what = "C block"
	default:
		what = "block comment"
	}
	r.Error(
		TagUnterminated,
		report.Message("unterminated %s", what),
		report.Snippet(n, "%s starts here", what),
	)
}

// describe names the node type for a message.
func (n Node) describe() string {
	if n.IsNamed() {
		return n.Type()
	}
	return fmt.Sprintf("`%s`", n.Type())
}
