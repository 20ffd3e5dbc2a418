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
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufbuild/dmlparse/dml"
	"github.com/bufbuild/dmlparse/reporter"
	"github.com/bufbuild/dmlparse/syntax"
	"github.com/bufbuild/dmlparse/token"
)

const scenario2 = "device foo { register r size 4 { field f @ [0:3]; } }"

func parse(t *testing.T, src string, opts ...syntax.Option) *syntax.Tree {
	t.Helper()
	tree, err := syntax.Parse([]byte(src), opts...)
	require.NoError(t, err)
	return tree
}

func count(n syntax.Node, typ string) int {
	var c int
	for m := range syntax.Preorder(n) {
		if m.Type() == typ {
			c++
		}
	}
	return c
}

func find(n syntax.Node, typ string) []syntax.Node {
	var out []syntax.Node
	for m := range syntax.Preorder(n) {
		if m.Type() == typ {
			out = append(out, m)
		}
	}
	return out
}

func types(nodes func(func(syntax.Node) bool)) []string {
	var out []string
	for n := range nodes {
		out = append(out, n.Type())
	}
	return out
}

func TestImport(t *testing.T) {
	t.Parallel()

	tree := parse(t, `import "utils.dml";`)
	root := tree.Root()
	assert.False(t, tree.HasError())
	assert.Equal(t, `(source_file (toplevel (utf8_sconst (string_literal))))`, root.String())

	top := find(root, dml.TypeToplevel)
	require.Len(t, top, 1)
	assert.Equal(t, []string{"import", "utf8_sconst", ";"}, types(top[0].Children()))
	assert.Equal(t, `"utils.dml"`, top[0].Child(1).Text())
	assert.False(t, top[0].HasError())
}

func TestDevice(t *testing.T) {
	t.Parallel()

	tree := parse(t, scenario2)
	root := tree.Root()
	assert.False(t, tree.HasError())
	assert.Equal(t, 1, count(root, dml.TypeDeviceDeclaration))
	assert.Equal(t, 1, count(root, dml.TypeRegisterDeclaration))
	assert.Equal(t, 1, count(root, dml.TypeFieldDeclaration))
	assert.Equal(t, 0, count(root, dml.TypeMethodDeclaration))
	assert.Equal(t,
		"(source_file (toplevel (device_declaration (identifier) "+
			"(register_declaration (identifier) (sizespec (integer_literal)) "+
			"(field_declaration (identifier) (bitrangespec (bitrange (integer_literal) (integer_literal))))))))",
		root.String(),
	)
	assert.Empty(t, tree.Diagnostics().Diagnostics)
}

func TestMissingSemicolon(t *testing.T) {
	t.Parallel()

	tree := parse(t, "device foo { register r size 4 { field f @ [0:3] } }")
	root := tree.Root()
	assert.True(t, tree.HasError())
	assert.Equal(t, 1, count(root, dml.TypeDeviceDeclaration))
	assert.Equal(t, 1, count(root, dml.TypeRegisterDeclaration))
	assert.Equal(t, 1, count(root, dml.TypeFieldDeclaration))
	assert.Equal(t, 0, count(root, dml.TypeMethodDeclaration))

	errs := types(tree.Errors())
	require.Equal(t, []string{";"}, errs)
	for n := range tree.Errors() {
		assert.True(t, n.IsMissing())
		assert.Equal(t, n.StartByte(), n.EndByte())
		assert.Equal(t, dml.TypeFieldDeclaration, n.Parent().Type())
	}

	field := find(root, dml.TypeFieldDeclaration)[0]
	assert.True(t, field.HasError())
	assert.Contains(t, field.String(), `(MISSING ";")`)
	for _, typ := range []string{dml.TypeSizeSpec, dml.TypeBitrangeSpec, dml.TypeIdentifier} {
		for _, n := range find(root, typ) {
			assert.False(t, n.HasError(), typ)
		}
	}

	diags := tree.Diagnostics()
	require.Len(t, diags.Diagnostics, 1)
	d := diags.Diagnostics[0]
	assert.True(t, d.Is(syntax.TagMissing))
	assert.Equal(t, "expected `;`", d.Message())
}

func TestLeadingMissing(t *testing.T) {
	t.Parallel()

	// The inserted keyword sits before the space that precedes "par", so
	// the declaration it starts must begin there too.
	src := "template t { par default 1; }\n"
	tree := parse(t, src)
	require.True(t, tree.HasError())
	checkTree(t, src, tree)

	params := find(tree.Root(), dml.TypeParameterDeclaration)
	require.Len(t, params, 1)
	param := params[0]
	first := param.Child(0)
	assert.True(t, first.IsMissing())
	assert.Equal(t, "param", first.Type())
	assert.Equal(t, 12, first.StartByte())
	assert.Equal(t, 12, param.StartByte())
	assert.Equal(t, 27, param.EndByte())

	for n := range tree.Errors() {
		parent := n.Parent()
		assert.GreaterOrEqual(t, n.StartByte(), parent.StartByte(), "%v in %v", n, parent)
		assert.LessOrEqual(t, n.EndByte(), parent.EndByte(), "%v in %v", n, parent)
	}
}

func TestVarargs(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"extern int f(int a, int b, ...);",
		"extern int f(int a, ...);",
		"extern int f(...);",
	} {
		tree := parse(t, src)
		assert.False(t, tree.HasError(), src)
		decls := find(tree.Root(), dml.TypeCDecl)
		require.NotEmpty(t, decls, src)
		f := decls[0]
		assert.Equal(t, "...", f.Child(f.ChildCount()-2).Type(), src)
		assert.Len(t, decls, strings.Count(src, "int"), src)
	}
}

func TestTupleInitializer(t *testing.T) {
	t.Parallel()

	tree := parse(t, "method m() { x = (1, 2); x = y = (3, 4); (a, b) = (b, a); }")
	assert.False(t, tree.HasError())
	root := tree.Root()
	assert.Equal(t, 3, count(root, dml.TypeTupleInitializer))
	assert.Equal(t, 1, count(root, dml.TypeTupleExpression))
	assert.Equal(t, 0, count(root, dml.TypeParenthesizedExpression))

	assigns := find(root, dml.TypeAssignmentExpression)
	require.Len(t, assigns, 4)
	assert.Equal(t, []string{"identifier", "=", "tuple_initializer"}, types(assigns[0].Children()))
	assert.Equal(t, []string{"identifier", "=", "assignment_expression"}, types(assigns[1].Children()))
	assert.True(t, assigns[2].Same(assigns[1].Child(2)))
	assert.Equal(t, []string{"tuple_expression", "=", "tuple_initializer"}, types(assigns[3].Children()))
}

func TestRecoveryLocality(t *testing.T) {
	t.Parallel()

	src := "device d {\n" +
		"  register a size 4;\n" +
		"  register b size 4 4 4;\n" +
		"  register c size 4;\n" +
		"}\n"
	tree := parse(t, src)
	root := tree.Root()
	require.True(t, tree.HasError())

	regs := find(root, dml.TypeRegisterDeclaration)
	require.Len(t, regs, 3)
	assert.False(t, regs[0].HasError())
	assert.True(t, regs[1].HasError())
	assert.False(t, regs[2].HasError())

	var errs []syntax.Node
	for n := range tree.Errors() {
		errs = append(errs, n)
	}
	require.Len(t, errs, 1)
	assert.True(t, errs[0].IsError())
	assert.True(t, errs[0].IsExtra())
	assert.Equal(t, "4 4", errs[0].Text())
	assert.True(t, regs[1].Same(errs[0].Parent()))

	diags := tree.Diagnostics()
	require.Len(t, diags.Diagnostics, 1)
	assert.Equal(t, "unexpected `4`", diags.Diagnostics[0].Message())
	assert.True(t, diags.Diagnostics[0].Is(syntax.TagUnexpected))
}

func TestLexicalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, src string
		tag       string
		message   string
	}{
		{
			name:    "garbage",
			src:     "device d; $$",
			tag:     string(syntax.TagUnrecognized),
			message: "unrecognized token `$$`",
		},
		{
			name:    "string",
			src:     "import \"abc\n",
			tag:     string(syntax.TagUnterminated),
			message: "unterminated string literal",
		},
		{
			name:    "comment",
			src:     "device d; /* abc",
			tag:     string(syntax.TagUnterminated),
			message: "unterminated block comment",
		},
		{
			name:    "c-block",
			src:     "header %{ int x;",
			tag:     string(syntax.TagUnterminated),
			message: "unterminated C block",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			tree := parse(t, test.src)
			assert.True(t, tree.HasError())
			assert.Equal(t, test.src, tree.Text())

			diags := tree.Diagnostics()
			assert.True(t, diags.HasErrors())
			var found bool
			for d := range diags.All() {
				if string(d.Tag()) == test.tag {
					assert.Equal(t, test.message, d.Message())
					found = true
				}
			}
			assert.True(t, found, "no %s diagnostic", test.tag)
		})
	}
}

func TestLossless(t *testing.T) {
	t.Parallel()

	srcs := []string{
		"",
		"   \n",
		"// only a comment",
		scenario2,
		"device foo { register r size 4 { field f @ [0:3] } }",
		"\n\n/* a */ import \"a.dml\"; // b\r\nimport \"b.dml\";\n",
		"device d { method m(int x) -> (int) { return x + 1; } }",
		"}}}} {{{{ ;;;; import",
		"device d { register r size 4 4 4; }",
		"$$ ` \"x",
	}
	for _, src := range srcs {
		checkTree(t, src, parse(t, src))
	}
}

func TestRandomInput(t *testing.T) {
	t.Parallel()

	fragments := []string{
		"device", "d", "{", "}", ";", "register", "r", "size", "4", "field",
		"f", "@", "[", "]", "0", ":", "3", "method", "m", "(", ")", "import",
		`"a.dml"`, "if", "else", "+", "=", "$", "/*", "*/", "//", "\n", " ",
		"template", "is", "param", "default", "return", ",", "->", "%{", "%}",
	}
	r := rand.New(rand.NewPCG(7, 11))
	for range 300 {
		var b strings.Builder
		for range r.IntN(40) {
			b.WriteString(fragments[r.IntN(len(fragments))])
			if r.IntN(2) == 0 {
				b.WriteByte(' ')
			}
		}
		src := b.String()
		checkTree(t, src, parse(t, src))
	}
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	for _, src := range []string{scenario2, "device d { register b size 4 4 4; }", "import"} {
		a, b := parse(t, src), parse(t, src)
		assert.Empty(t, cmp.Diff(snapshot(a), snapshot(b)), src)
		assert.Equal(t, a.Root().SExpr(true), b.Root().SExpr(true))
	}
}

func TestLimits(t *testing.T) {
	t.Parallel()

	src := []byte("constant x = " + strings.Repeat("(", 40) + "1" + strings.Repeat(")", 40) + ";")

	_, err := syntax.Parse(src)
	require.NoError(t, err)

	_, err = syntax.Parse(src, syntax.WithMaxDepth(16), syntax.WithPath("deep.dml"))
	require.ErrorIs(t, err, syntax.ErrTooDeep)
	var withPos reporter.ErrorWithPos
	require.ErrorAs(t, err, &withPos)
	assert.Equal(t, "deep.dml", withPos.GetPosition().Path)

	_, err = syntax.Parse(src, syntax.WithMaxSize(10))
	require.ErrorIs(t, err, syntax.ErrTooLarge)
	assert.False(t, errors.Is(err, syntax.ErrTooDeep))
}

func TestTokens(t *testing.T) {
	t.Parallel()

	src := "// c\nimport \"a\";"
	tree := parse(t, src)
	var kinds []token.Kind
	for tok := range tree.Tokens() {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.Comment, token.Space, token.Keyword, token.Space, token.String, token.Punct, token.EOF,
	}, kinds)

	top := find(tree.Root(), dml.TypeToplevel)[0]
	comments := top.LeadingComments()
	require.Len(t, comments, 1)
	assert.Equal(t, "// c", comments[0].Text(src))
	assert.Len(t, top.LeadingTrivia(), 2)
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	tree := parse(t, "  // nothing\n")
	root := tree.Root()
	assert.Equal(t, "(source_file)", root.String())
	assert.Equal(t, 0, root.ChildCount())
	assert.Equal(t, 13, root.EndByte())
	assert.False(t, tree.HasError())
}

type nodeSnapshot struct {
	Type       string
	Start, End int
	Missing    bool
	Error      bool
}

func snapshot(tree *syntax.Tree) []nodeSnapshot {
	var out []nodeSnapshot
	for n := range syntax.Preorder(tree.Root()) {
		out = append(out, nodeSnapshot{
			Type:    n.Type(),
			Start:   n.StartByte(),
			End:     n.EndByte(),
			Missing: n.IsMissing(),
			Error:   n.IsError(),
		})
	}
	return out
}

// checkTree checks the structural properties every tree must have.
func checkTree(t *testing.T, src string, tree *syntax.Tree) {
	t.Helper()

	require.Equal(t, src, tree.Text(), "%q", src)
	assert.Equal(t, src, string(tree.Source()))

	offset := 0
	for tok := range tree.Tokens() {
		require.Equal(t, offset, tok.Start, "%q", src)
		offset = tok.End
	}
	require.Equal(t, len(src), offset, "%q", src)

	root := tree.Root()
	require.Equal(t, len(src), root.EndByte(), "%q", src)
	for n := range syntax.Preorder(root) {
		require.LessOrEqual(t, n.StartByte(), n.EndByte(), "%q", src)
		prevEnd := n.StartByte()
		first := true
		for c := range n.Children() {
			if !first {
				require.LessOrEqual(t, prevEnd, c.StartByte(), "%q: %v in %v", src, c, n)
			}
			require.GreaterOrEqual(t, c.StartByte(), n.StartByte(), "%q", src)
			require.LessOrEqual(t, c.EndByte(), n.EndByte(), "%q", src)
			prevEnd = c.EndByte()
			first = false
		}
		if n.IsError() || n.IsMissing() {
			require.True(t, tree.HasError())
		}
	}
}
