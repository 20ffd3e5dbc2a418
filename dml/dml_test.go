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

package dml_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/dmlparse/dml"
	"github.com/bufbuild/dmlparse/grammar"
)

func TestTable(t *testing.T) {
	t.Parallel()

	table := dml.Table()
	require.NotNil(t, table)
	assert.Same(t, table, dml.Table())
	assert.Equal(t, "dml", table.Name())

	for _, name := range dml.NodeTypes() {
		sym := table.SymbolByName(name)
		if assert.NotEqual(t, grammar.NoSymbol, sym, name) {
			info := table.Symbol(sym)
			assert.True(t, info.Named, name)
			assert.False(t, info.Hidden, name)
		}
	}
	for _, keyword := range []string{"import", "device", "register", "field", "method", "#if", "#?"} {
		assert.NotEqual(t, grammar.NoSymbol, table.LiteralSymbol(keyword), keyword)
	}
}

func TestNoConflicts(t *testing.T) {
	t.Parallel()

	table := dml.Table()
	for _, c := range table.Conflicts() {
		t.Error(table.FormatConflict(c))
	}
	assert.Empty(t, table.Conflicts())
}

func TestImportShape(t *testing.T) {
	t.Parallel()

	table := dml.Table()
	toplevel := table.SymbolByName(dml.TypeToplevel)
	imp := table.LiteralSymbol(dml.TypeImport)

	var found int
	for i := range table.Productions() {
		p := table.Production(i)
		if p.LHS != toplevel || len(p.RHS) == 0 || p.RHS[0] != imp {
			continue
		}
		found++
		require.Len(t, p.RHS, 3)
		assert.Equal(t, table.SymbolByName(dml.TypeUTF8String), p.RHS[1])
		assert.Equal(t, table.LiteralSymbol(";"), p.RHS[2])
	}
	assert.Equal(t, 1, found)
}

func TestSync(t *testing.T) {
	t.Parallel()

	table := dml.Table()
	for _, text := range []string{";", "}", "device", "register", "field", "method", "import"} {
		assert.True(t, table.IsSync(table.LiteralSymbol(text)), text)
	}
	for _, text := range []string{"(", "+", "if"} {
		assert.False(t, table.IsSync(table.LiteralSymbol(text)), text)
	}
}

func TestNodeTypesGolden(t *testing.T) {
	t.Parallel()

	golden, err := os.ReadFile("testdata/node_types.yaml")
	require.NoError(t, err)
	var want dml.NodeTypesDoc
	require.NoError(t, yaml.Unmarshal(golden, &want))

	data, err := dml.NodeTypesYAML()
	require.NoError(t, err)
	var got dml.NodeTypesDoc
	require.NoError(t, yaml.Unmarshal(data, &got))

	assert.Equal(t, want, got)
	assert.Len(t, dml.NodeTypes(), len(want.Rules)+len(want.Tokens))
}

func TestRulesAreFresh(t *testing.T) {
	t.Parallel()

	a, b := dml.Rules(), dml.Rules()
	require.NotSame(t, a, b)
	a.Rules = a.Rules[:1]
	assert.Greater(t, len(b.Rules), 1)
	assert.Equal(t, dml.TypeSourceFile, b.Rules[0].Name)
}
