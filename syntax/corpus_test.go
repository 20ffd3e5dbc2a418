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

package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bufbuild/dmlparse/internal/corpora"
	"github.com/bufbuild/dmlparse/report"
	"github.com/bufbuild/dmlparse/syntax"
)

func TestCorpus(t *testing.T) {
	t.Parallel()

	corpora.Corpus{
		Root:      "testdata/parse",
		Refresh:   "DMLPARSE_REFRESH",
		Extension: "dml",
		Outputs: []corpora.Output{
			{Extension: "sexp"},
			{Extension: "diag"},
		},
		Test: func(t *testing.T, path, text string) []string {
			tree, err := syntax.Parse([]byte(text), syntax.WithPath(path))
			require.NoError(t, err)
			require.Equal(t, text, tree.Text())

			diags := tree.Diagnostics()
			rendered, _, _ := report.Renderer{Compact: true}.RenderString(&diags)
			return []string{tree.Root().String() + "\n", rendered}
		},
	}.Run(t)
}

// TestValidCorpus parses files that must produce no errors at all. The only
// output is the rendered diagnostics, which must be empty.
func TestValidCorpus(t *testing.T) {
	t.Parallel()

	corpora.Corpus{
		Root:      "testdata/valid",
		Refresh:   "DMLPARSE_REFRESH",
		Extension: "dml",
		Outputs:   []corpora.Output{{Extension: "diag"}},
		Test: func(t *testing.T, path, text string) []string {
			tree, err := syntax.Parse([]byte(text), syntax.WithPath(path))
			require.NoError(t, err)
			checkTree(t, text, tree)

			var errs []string
			for n := range tree.Errors() {
				errs = append(errs, n.String())
			}
			require.Empty(t, errs)
			require.False(t, tree.HasError())

			diags := tree.Diagnostics()
			rendered, _, _ := report.Renderer{Compact: true}.RenderString(&diags)
			return []string{rendered}
		},
	}.Run(t)
}
