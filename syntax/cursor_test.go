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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/dmlparse/dml"
	"github.com/bufbuild/dmlparse/syntax"
)

func TestCursor(t *testing.T) {
	t.Parallel()

	tree := parse(t, `import "a.dml"; import "b.dml";`)
	c := tree.Root().Cursor()
	assert.Equal(t, dml.TypeSourceFile, c.Node().Type())
	assert.False(t, c.GotoNextSibling())
	assert.False(t, c.GotoParent())

	require.True(t, c.GotoFirstChild())
	assert.Equal(t, dml.TypeToplevel, c.Node().Type())
	assert.Equal(t, 1, c.Depth())
	first := c.Node()

	require.True(t, c.GotoFirstChild())
	assert.Equal(t, "import", c.Node().Type())
	assert.False(t, c.Node().IsNamed())
	require.True(t, c.GotoNextSibling())
	assert.Equal(t, dml.TypeUTF8String, c.Node().Type())
	require.True(t, c.GotoNextSibling())
	assert.Equal(t, ";", c.Node().Type())
	assert.False(t, c.GotoNextSibling())
	assert.Equal(t, ";", c.Node().Type(), "failed move must not move")
	assert.False(t, c.GotoFirstChild())

	require.True(t, c.GotoParent())
	assert.Equal(t, first, c.Node())
	require.True(t, c.GotoNextSibling())
	assert.Equal(t, `import "b.dml";`, c.Node().Text())
	assert.False(t, c.GotoNextSibling())
	require.True(t, c.GotoParent())
	assert.Equal(t, tree.Root(), c.Node())
}

func TestCursorConfined(t *testing.T) {
	t.Parallel()

	tree := parse(t, scenario2)
	reg := find(tree.Root(), dml.TypeRegisterDeclaration)[0]
	c := reg.Cursor()
	assert.False(t, c.GotoNextSibling())
	assert.False(t, c.GotoParent())

	var got []string
	for n := range reg.Walk() {
		got = append(got, n.Type())
	}
	assert.Equal(t, dml.TypeRegisterDeclaration, got[0])
	assert.Contains(t, got, dml.TypeFieldDeclaration)
	assert.NotContains(t, got, dml.TypeDeviceDeclaration)
}

func TestWalkSkipChildren(t *testing.T) {
	t.Parallel()

	tree := parse(t, scenario2)
	var got []string
	for n, w := range tree.Root().Walk() {
		if !n.IsNamed() {
			continue
		}
		got = append(got, n.Type())
		if n.Type() == dml.TypeRegisterDeclaration {
			w.SkipChildren()
		}
	}
	assert.Equal(t, []string{
		dml.TypeSourceFile, dml.TypeToplevel, dml.TypeDeviceDeclaration,
		dml.TypeIdentifier, dml.TypeRegisterDeclaration,
	}, got)

	var n int
	for range syntax.Preorder(tree.Root()) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestNodeNavigation(t *testing.T) {
	t.Parallel()

	tree := parse(t, scenario2)
	root := tree.Root()
	field := find(root, dml.TypeFieldDeclaration)[0]
	reg := field.Parent()
	assert.Equal(t, dml.TypeRegisterDeclaration, reg.Type())
	assert.Equal(t, dml.TypeDeviceDeclaration, reg.Parent().Type())
	assert.True(t, root.Parent().IsZero())

	name := reg.Child(1)
	assert.Equal(t, dml.TypeIdentifier, name.Type())
	assert.Equal(t, "r", name.Text())
	assert.Equal(t, "register", name.PrevSibling().Type())
	assert.Equal(t, dml.TypeSizeSpec, name.NextSibling().Type())
	assert.True(t, reg.Child(100).IsZero())

	assert.Equal(t, []string{dml.TypeIdentifier, dml.TypeSizeSpec, dml.TypeFieldDeclaration},
		types(reg.NamedChildren()))
	spec, ok := reg.ChildOfType(dml.TypeSizeSpec)
	require.True(t, ok)
	assert.Equal(t, "size 4", spec.Text())

	assert.Equal(t, 13, reg.StartByte())
	assert.Equal(t, 0, reg.StartPoint().Row)
	assert.Equal(t, 13, reg.StartPoint().Column)
	assert.Equal(t, "test.dml:1:14", fmt.Sprint(find(parse(t, scenario2, syntax.WithPath("test.dml")).Root(),
		dml.TypeRegisterDeclaration)[0].Span()))
}

func TestSExpr(t *testing.T) {
	t.Parallel()

	tree := parse(t, `import "a";`)
	top := find(tree.Root(), dml.TypeToplevel)[0]
	assert.Equal(t, `(toplevel "import" (utf8_sconst (string_literal)) ";")`, top.SExpr(true))
	assert.Equal(t, `(toplevel (utf8_sconst (string_literal)))`, fmt.Sprint(top))
	assert.Equal(t, top.SExpr(true), fmt.Sprintf("%+v", top))
	assert.Equal(t, "()", syntax.Node{}.String())

	tree = parse(t, "import \"a\"")
	assert.Equal(t, `(source_file (toplevel (utf8_sconst (string_literal)) (MISSING ";")))`, tree.Root().String())
}
