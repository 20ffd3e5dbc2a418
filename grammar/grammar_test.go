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

package grammar_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	g "github.com/bufbuild/dmlparse/grammar"
)

func calc() *g.Grammar {
	return &g.Grammar{
		Name: "calc",
		Rules: []g.Rule{
			{Name: "expr", Body: g.Choice(
				g.PrecLeft(1, g.Seq(g.Ref("expr"), g.Lit("+"), g.Ref("expr"))),
				g.PrecLeft(2, g.Seq(g.Ref("expr"), g.Lit("*"), g.Ref("expr"))),
				g.PrecRight(3, g.Seq(g.Ref("expr"), g.Lit("^"), g.Ref("expr"))),
				g.Seq(g.Lit("("), g.Ref("expr"), g.Lit(")")),
				g.Lit("n"),
			)},
		},
	}
}

func TestPrecedence(t *testing.T) {
	t.Parallel()

	table, err := g.Compile(calc())
	require.NoError(t, err)
	assert.Empty(t, table.Conflicts())

	tests := []struct {
		input, want string
	}{
		{"n", "(expr n)"},
		{"n + n * n", "(expr (expr n) + (expr (expr n) * (expr n)))"},
		{"n * n + n", "(expr (expr (expr n) * (expr n)) + (expr n))"},
		{"n + n + n", "(expr (expr (expr n) + (expr n)) + (expr n))"},
		{"n ^ n ^ n", "(expr (expr n) ^ (expr (expr n) ^ (expr n)))"},
		{"( n + n ) * n", "(expr (expr ( (expr (expr n) + (expr n)) )) * (expr n))"},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.want, recognize(t, table, test.input))
		})
	}
}

func TestDanglingElse(t *testing.T) {
	t.Parallel()

	table, err := g.Compile(&g.Grammar{
		Name: "stmt",
		Rules: []g.Rule{
			{Name: "stmt", Body: g.Choice(
				g.PrecRight(0, g.Seq(g.Lit("if"), g.Lit("c"), g.Ref("stmt"))),
				g.PrecRight(0, g.Seq(g.Lit("if"), g.Lit("c"), g.Ref("stmt"), g.Lit("else"), g.Ref("stmt"))),
				g.Lit("x"),
			)},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, table.Conflicts())
	assert.Equal(t,
		"(stmt if c (stmt if c (stmt x) else (stmt x)))",
		recognize(t, table, "if c if c x else x"),
	)
}

func TestUnresolvedConflict(t *testing.T) {
	t.Parallel()

	table, err := g.Compile(&g.Grammar{
		Name: "ambiguous",
		Rules: []g.Rule{
			{Name: "e", Body: g.Choice(g.Seq(g.Ref("e"), g.Lit("+"), g.Ref("e")), g.Lit("n"))},
		},
	})
	require.NoError(t, err)
	require.Len(t, table.Conflicts(), 1)

	conflict := table.Conflicts()[0]
	assert.True(t, conflict.Shift)
	assert.Equal(t, g.ActionShift, conflict.Chosen.Kind)
	assert.Equal(t, table.LiteralSymbol("+"), conflict.Lookahead)
	assert.Contains(t, table.FormatConflict(conflict), `reduce (e → e "+" e)`)

	// Shift wins, so the operator associates to the right.
	assert.Equal(t, "(e (e n) + (e (e n) + (e n)))", recognize(t, table, "n + n + n"))
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	table, err := g.Compile(&g.Grammar{
		Name: "list",
		Rules: []g.Rule{
			{Name: "list", Body: g.Seq(g.Lit("["), g.Sep(g.Ref("_item"), g.Lit(",")), g.Lit("]"))},
			{Name: "_item", Body: g.Choice(g.Lit("a"), g.Alias(g.Lit("b"), "bee"))},
		},
		Sync: []string{"]"},
	})
	require.NoError(t, err)
	assert.Empty(t, table.Conflicts())

	assert.Equal(t, "(list [ ])", recognize(t, table, "[ ]"))
	assert.Equal(t, "(list [ a , b , a ])", recognize(t, table, "[ a , b , a ]"))

	helper := table.SymbolByName("_list_repeat1")
	require.NotEqual(t, g.NoSymbol, helper)
	assert.True(t, table.Symbol(helper).Hidden)
	assert.True(t, table.Symbol(table.SymbolByName("_item")).Hidden)
	assert.False(t, table.Symbol(table.SymbolByName("list")).Hidden)

	bee := table.SymbolByName("bee")
	require.NotEqual(t, g.NoSymbol, bee)
	assert.True(t, table.IsTerminal(bee))
	assert.True(t, table.Symbol(bee).Named)

	var aliased bool
	for i := range table.Productions() {
		p := table.Production(i)
		if len(p.RHS) == 1 && p.RHS[0] == table.LiteralSymbol("b") {
			assert.Equal(t, bee, p.Alias(0))
			aliased = true
		}
	}
	assert.True(t, aliased)

	assert.True(t, table.IsSync(table.LiteralSymbol("]")))
	assert.False(t, table.IsSync(table.LiteralSymbol("[")))
	assert.Equal(t, []g.Symbol{table.LiteralSymbol("[")}, table.Expected(0))

	literals := make(map[string]g.Symbol)
	for text, sym := range table.Literals() {
		literals[text] = sym
	}
	assert.Len(t, literals, 5)
}

func TestInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rules []g.Rule
		want  string
	}{
		{
			name:  "undefined",
			rules: []g.Rule{{Name: "a", Body: g.Ref("b")}},
			want:  `undefined symbol "b"`,
		},
		{
			name:  "duplicate",
			rules: []g.Rule{{Name: "a", Body: g.Lit("x")}, {Name: "a", Body: g.Lit("y")}},
			want:  `duplicate rule "a"`,
		},
		{
			name:  "alias",
			rules: []g.Rule{{Name: "a", Body: g.Alias(g.Seq(g.Lit("x"), g.Lit("y")), "b")}},
			want:  "not a single symbol",
		},
		{
			name:  "nullable-repeat",
			rules: []g.Rule{{Name: "a", Body: g.Repeat1(g.Optional(g.Lit("x")))}},
			want:  "matches nothing",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := g.Compile(&g.Grammar{Name: test.name, Rules: test.rules})
			require.ErrorIs(t, err, g.ErrInvalidGrammar)
			assert.Contains(t, err.Error(), test.want)
		})
	}
}

// recognize runs the table over space-separated literal tokens and renders
// the reductions as an S-expression, splicing hidden symbols.
func recognize(t *testing.T, table *g.Table, input string) string {
	t.Helper()

	tokens := strings.Fields(input)
	states := []g.State{0}
	var nodes []string
	for i := 0; ; {
		sym := g.End
		if i < len(tokens) {
			sym = table.LiteralSymbol(tokens[i])
			require.NotEqual(t, g.NoSymbol, sym, "unknown token %q", tokens[i])
		}

		action := table.Action(states[len(states)-1], sym)
		switch action.Kind {
		case g.ActionShift:
			states = append(states, action.State())
			nodes = append(nodes, tokens[i])
			i++
		case g.ActionReduce:
			p := table.Production(action.Production())
			n := len(p.RHS)
			var kids []string
			for _, kid := range nodes[len(nodes)-n:] {
				if kid != "" {
					kids = append(kids, kid)
				}
			}
			states = states[:len(states)-n]
			nodes = nodes[:len(nodes)-n]

			node := strings.Join(kids, " ")
			if info := table.Symbol(p.LHS); !info.Hidden {
				node = "(" + strings.TrimSpace(info.Name+" "+node) + ")"
			}
			states = append(states, table.Goto(states[len(states)-1], p.LHS))
			nodes = append(nodes, node)
		case g.ActionAccept:
			require.Len(t, nodes, 1)
			return nodes[0]
		default:
			t.Fatalf("syntax error at token %d of %q", i, input)
		}
	}
}
