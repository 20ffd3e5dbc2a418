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

package grammar

import (
	"fmt"
	"iter"
	"strings"
)

// Symbol is a grammar symbol: a terminal or a nonterminal.
//
// Terminals are numbered first, starting with [End] and [Error].
type Symbol int32

const (
	NoSymbol Symbol = -1
	End      Symbol = 0 // The end of input.
	Error    Symbol = 1 // Unrecognized input, and the type of error nodes.
)

// State is a parser state.
type State int32

// NoState is returned by [Table.Goto] when there is no transition.
const NoState State = -1

// SymbolInfo describes a symbol.
type SymbolInfo struct {
	Name string

	Terminal bool
	// A terminal written as literal text in the grammar, such as ";" or
	// "import".
	Literal bool
	// Named nodes are those of named tokens and rules; literal nodes are
	// anonymous.
	Named bool
	// Hidden symbols never produce visible nodes.
	Hidden bool
}

// Production is a single BNF production.
type Production struct {
	Index int
	LHS   Symbol
	RHS   []Symbol

	// Parallel to RHS: the node type each child is renamed to, or
	// [NoSymbol]. Nil if nothing is aliased.
	Aliases []Symbol

	Prec  int
	Assoc Assoc
}

// Alias returns the alias of the i-th child, or [NoSymbol].
func (p *Production) Alias(i int) Symbol {
	if p.Aliases == nil {
		return NoSymbol
	}
	return p.Aliases[i]
}

// ActionKind is the kind of a parse action.
type ActionKind uint8

const (
	ActionError ActionKind = iota
	ActionShift
	ActionReduce
	ActionAccept
)

// Action is an entry of the action table.
type Action struct {
	Kind ActionKind
	// The target state for a shift, or the production for a reduce.
	Target int32
}

// State returns the target state of a shift.
func (a Action) State() State {
	return State(a.Target)
}

// Production returns the production index of a reduce.
func (a Action) Production() int {
	return int(a.Target)
}

// String implements [fmt.Stringer].
func (a Action) String() string {
	switch a.Kind {
	case ActionShift:
		return fmt.Sprintf("shift %d", a.Target)
	case ActionReduce:
		return fmt.Sprintf("reduce %d", a.Target)
	case ActionAccept:
		return "accept"
	default:
		return "error"
	}
}

// Conflict is a parsing conflict that precedence did not resolve.
type Conflict struct {
	State     State
	Lookahead Symbol
	// Whether a shift was involved, as opposed to only reductions.
	Shift bool
	// The reductions involved.
	Productions []int
	// The action that was chosen.
	Chosen Action
}

// Table is a compiled LALR(1) parse table, together with the symbol and
// production metadata the parser needs to build trees.
//
// Tables are immutable and safe for concurrent use.
type Table struct {
	name string

	symbols   []SymbolInfo
	terminals int
	named     map[string]Symbol
	literals  map[string]Symbol

	productions []Production

	states    int
	actions   []Action // states × terminals
	gotos     []State  // states × nonterminals
	expected  [][]Symbol
	sync      []bool
	conflicts []Conflict
}

// Name returns the name of the language.
func (t *Table) Name() string {
	return t.name
}

// Symbols returns the number of symbols.
func (t *Table) Symbols() int {
	return len(t.symbols)
}

// Terminals returns the number of terminals. Terminals are the symbols
// below this number.
func (t *Table) Terminals() int {
	return t.terminals
}

// Symbol returns the metadata of s.
func (t *Table) Symbol(s Symbol) SymbolInfo {
	if s < 0 || int(s) >= len(t.symbols) {
		return SymbolInfo{Name: fmt.Sprintf("Symbol(%d)", int(s)), Hidden: true}
	}
	return t.symbols[s]
}

// IsTerminal returns whether s is a terminal.
func (t *Table) IsTerminal(s Symbol) bool {
	return s >= 0 && int(s) < t.terminals
}

// SymbolByName looks up a rule or named token. Returns [NoSymbol] if there is
// none.
func (t *Table) SymbolByName(name string) Symbol {
	if s, ok := t.named[name]; ok {
		return s
	}
	return NoSymbol
}

// LiteralSymbol looks up the terminal for a literal text. Returns
// [NoSymbol] if there is none.
func (t *Table) LiteralSymbol(text string) Symbol {
	if s, ok := t.literals[text]; ok {
		return s
	}
	return NoSymbol
}

// Literals yields the text and symbol of every literal terminal.
func (t *Table) Literals() iter.Seq2[string, Symbol] {
	return func(yield func(string, Symbol) bool) {
		for s := range Symbol(t.terminals) {
			info := t.symbols[s]
			if info.Literal && !yield(info.Name, s) {
				return
			}
		}
	}
}

// Productions returns the number of productions.
func (t *Table) Productions() int {
	return len(t.productions)
}

// Production returns the i-th production. Production 0 is the augmented
// start production.
func (t *Table) Production(i int) *Production {
	return &t.productions[i]
}

// States returns the number of parser states. The initial state is 0.
func (t *Table) States() int {
	return t.states
}

// Action returns the action to take in state on the terminal sym.
func (t *Table) Action(state State, sym Symbol) Action {
	if state < 0 || !t.IsTerminal(sym) {
		return Action{}
	}
	return t.actions[int(state)*t.terminals+int(sym)]
}

// Goto returns the state to enter after reducing to the nonterminal sym in
// state, or after shifting the terminal sym.
func (t *Table) Goto(state State, sym Symbol) State {
	if state < 0 {
		return NoState
	}
	if t.IsTerminal(sym) {
		if a := t.Action(state, sym); a.Kind == ActionShift {
			return a.State()
		}
		return NoState
	}
	nonterms := len(t.symbols) - t.terminals
	return t.gotos[int(state)*nonterms+int(sym)-t.terminals]
}

// Expected returns the terminals that have an action in state, in symbol
// order.
func (t *Table) Expected(state State) []Symbol {
	return t.expected[state]
}

// IsSync returns whether error recovery may resynchronize on sym.
func (t *Table) IsSync(sym Symbol) bool {
	return t.IsTerminal(sym) && t.sync[sym]
}

// Conflicts returns the conflicts that precedence did not resolve.
func (t *Table) Conflicts() []Conflict {
	return t.conflicts
}

// FormatProduction renders a production as "lhs → a b c".
func (t *Table) FormatProduction(i int) string {
	p := t.Production(i)
	var b strings.Builder
	b.WriteString(t.Symbol(p.LHS).Name)
	b.WriteString(" →")
	if len(p.RHS) == 0 {
		b.WriteString(" ε")
	}
	for _, s := range p.RHS {
		b.WriteByte(' ')
		b.WriteString(t.displayName(s))
	}
	return b.String()
}

// FormatConflict renders a conflict for humans.
func (t *Table) FormatConflict(c Conflict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state %d on %s: ", c.State, t.displayName(c.Lookahead))
	if c.Shift {
		b.WriteString("shift")
	}
	for i, p := range c.Productions {
		if i > 0 || c.Shift {
			b.WriteString(" / ")
		}
		fmt.Fprintf(&b, "reduce (%s)", t.FormatProduction(p))
	}
	fmt.Fprintf(&b, "; chose %v", c.Chosen)
	return b.String()
}

func (t *Table) displayName(s Symbol) string {
	info := t.Symbol(s)
	if info.Literal {
		return fmt.Sprintf("%q", info.Name)
	}
	return info.Name
}
