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
	"strconv"
	"strings"

	"github.com/bufbuild/dmlparse/dml"
	"github.com/bufbuild/dmlparse/source"
	"github.com/bufbuild/dmlparse/syntax"
)

// Import is an import statement.
type Import struct {
	// The imported path, without quotes.
	Path string
	// The span of the quoted path.
	Span source.Span
	// The toplevel node of the statement.
	Node syntax.Node
}

var importPattern = MustCompile(`(toplevel "import" (utf8_sconst) @path ";")`)

// Imports returns the import statements of tree, in order, including
// those inside toplevel #if blocks.
//
// Statements with syntax errors are included if they still have the shape
// of an import, for example when only the semicolon is missing; check
// Node.HasError to tell them apart.
func Imports(tree *syntax.Tree) []Import {
	var out []Import
	for n := range OfType(tree.Root(), dml.TypeToplevel) {
		m, ok := importPattern.Match(n)
		if !ok {
			continue
		}
		path := m.Captures["path"]
		out = append(out, Import{
			Path: unquote(path.Text()),
			Span: path.Span(),
			Node: n,
		})
	}
	return out
}

func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
}
