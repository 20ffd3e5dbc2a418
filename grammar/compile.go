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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrInvalidGrammar is returned by [Compile] for malformed grammars.
var ErrInvalidGrammar = errors.New("invalid grammar")

// Option configures [Compile].
type Option func(*compileOptions)

type compileOptions struct {
	logger logrus.FieldLogger
}

// WithLogger sets the logger that unresolved conflicts are reported to, at
// debug level.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *compileOptions) {
		o.logger = logger
	}
}

// Compile desugars g into BNF productions and builds its LALR(1) table.
func Compile(g *Grammar, options ...Option) (*Table, error) {
	var opts compileOptions
	for _, opt := range options {
		opt(&opts)
	}
	if opts.logger == nil {
		logger := logrus.New()
		logger.Out = io.Discard
		opts.logger = logger
	}

	c := &compiler{
		g:     g,
		rules: make(map[string]int),
		aux:   make(map[string]int),
	}
	if err := c.desugar(); err != nil {
		return nil, err
	}
	t, err := c.number()
	if err != nil {
		return nil, err
	}

	b := newBuilder(t)
	b.build()
	for _, conflict := range t.conflicts {
		opts.logger.WithFields(logrus.Fields{
			"grammar": g.Name,
			"state":   conflict.State,
		}).Debug("unresolved conflict: ", t.FormatConflict(conflict))
	}
	return t, nil
}

type rawSym struct {
	name  string
	lit   bool
	alias string
}

type alt struct {
	syms  []rawSym
	prec  int
	assoc Assoc
	// Whether prec and assoc were set explicitly.
	hasPrec bool
}

type rawRule struct {
	name string
	alts []alt
	aux  bool
}

type compiler struct {
	g     *Grammar
	rules map[string]int // Rule name to index in raw.
	aux   map[string]int // Per-rule counter for helper names.
	raw   []rawRule
}

func (c *compiler) desugar() error {
	if len(c.g.Rules) == 0 {
		return fmt.Errorf("%w: %s: no rules", ErrInvalidGrammar, c.g.Name)
	}
	for i, rule := range c.g.Rules {
		if _, dup := c.rules[rule.Name]; dup {
			return fmt.Errorf("%w: duplicate rule %q", ErrInvalidGrammar, rule.Name)
		}
		c.rules[rule.Name] = i
		c.raw = append(c.raw, rawRule{name: rule.Name})
	}
	for i, rule := range c.g.Rules {
		alts, err := c.expand(rule.Body, rule.Name, nil)
		if err != nil {
			return fmt.Errorf("%w: rule %q: %w", ErrInvalidGrammar, rule.Name, err)
		}
		c.raw[i].alts = dedup(alts)
	}
	return nil
}

// expand turns an expression into a list of alternatives. inherited is the
// precedence of an enclosing Prec, which helper rules created for repetitions
// inherit.
func (c *compiler) expand(e Expr, owner string, inherited *alt) ([]alt, error) {
	switch e := e.(type) {
	case litExpr:
		if e.text == "" {
			return nil, errors.New("empty literal")
		}
		return []alt{{syms: []rawSym{{name: e.text, lit: true}}}}, nil

	case refExpr:
		return []alt{{syms: []rawSym{{name: e.name}}}}, nil

	case seqExpr:
		out := []alt{{}}
		for _, item := range e.items {
			alts, err := c.expand(item, owner, inherited)
			if err != nil {
				return nil, err
			}
			var next []alt
			for _, a := range out {
				for _, b := range alts {
					joined := alt{
						syms:    append(append([]rawSym(nil), a.syms...), b.syms...),
						prec:    a.prec,
						assoc:   a.assoc,
						hasPrec: a.hasPrec,
					}
					if b.hasPrec {
						joined.prec, joined.assoc, joined.hasPrec = b.prec, b.assoc, true
					}
					next = append(next, joined)
				}
			}
			out = next
		}
		return out, nil

	case choiceExpr:
		var out []alt
		for _, a := range e.alts {
			alts, err := c.expand(a, owner, inherited)
			if err != nil {
				return nil, err
			}
			out = append(out, alts...)
		}
		return out, nil

	case optExpr:
		alts, err := c.expand(e.inner, owner, inherited)
		if err != nil {
			return nil, err
		}
		return append(alts, alt{}), nil

	case repeatExpr:
		alts, err := c.expand(e.inner, owner, inherited)
		if err != nil {
			return nil, err
		}
		name := c.helperName(owner)
		self := rawSym{name: name}
		var prods []alt
		for _, a := range alts {
			if len(a.syms) == 0 {
				return nil, fmt.Errorf("repetition of an expression that matches nothing: %v", e)
			}
			if !a.hasPrec && inherited != nil {
				a.prec, a.assoc, a.hasPrec = inherited.prec, inherited.assoc, true
			}
			recur := a
			recur.syms = append([]rawSym{self}, a.syms...)
			prods = append(prods, recur, a)
		}
		c.rules[name] = len(c.raw)
		c.raw = append(c.raw, rawRule{name: name, alts: dedup(prods), aux: true})
		return []alt{{syms: []rawSym{self}}}, nil

	case precExpr:
		p := &alt{prec: e.level, assoc: e.assoc, hasPrec: true}
		alts, err := c.expand(e.inner, owner, p)
		if err != nil {
			return nil, err
		}
		for i := range alts {
			if !alts[i].hasPrec {
				alts[i].prec, alts[i].assoc, alts[i].hasPrec = p.prec, p.assoc, true
			}
		}
		return alts, nil

	case aliasExpr:
		alts, err := c.expand(e.inner, owner, inherited)
		if err != nil {
			return nil, err
		}
		for i := range alts {
			if len(alts[i].syms) != 1 {
				return nil, fmt.Errorf("alias %q of an expression that is not a single symbol: %v", e.name, e.inner)
			}
			alts[i].syms[0].alias = e.name
		}
		return alts, nil

	default:
		return nil, fmt.Errorf("unknown expression %T", e)
	}
}

func (c *compiler) helperName(owner string) string {
	c.aux[owner]++
	return fmt.Sprintf("_%s_repeat%d", strings.TrimPrefix(owner, "_"), c.aux[owner])
}

func dedup(alts []alt) []alt {
	seen := make(map[string]bool, len(alts))
	out := alts[:0]
	for _, a := range alts {
		var key strings.Builder
		for _, s := range a.syms {
			fmt.Fprintf(&key, "%v/%s/%s\x00", s.lit, s.name, s.alias)
		}
		if seen[key.String()] {
			continue
		}
		seen[key.String()] = true
		out = append(out, a)
	}
	return out
}

// number assigns symbols and builds the production list.
func (c *compiler) number() (*Table, error) {
	t := &Table{
		name:     c.g.Name,
		named:    make(map[string]Symbol),
		literals: make(map[string]Symbol),
	}
	addTerminal := func(info SymbolInfo) Symbol {
		s := Symbol(len(t.symbols))
		info.Terminal = true
		t.symbols = append(t.symbols, info)
		if info.Literal {
			t.literals[info.Name] = s
		} else {
			t.named[info.Name] = s
		}
		return s
	}

	addTerminal(SymbolInfo{Name: "end", Hidden: true})
	addTerminal(SymbolInfo{Name: "ERROR", Named: true})
	for _, name := range c.g.Tokens {
		if _, dup := t.named[name]; dup {
			return nil, fmt.Errorf("%w: duplicate token %q", ErrInvalidGrammar, name)
		}
		if _, clash := c.rules[name]; clash {
			return nil, fmt.Errorf("%w: %q is both a token and a rule", ErrInvalidGrammar, name)
		}
		addTerminal(SymbolInfo{Name: name, Named: true, Hidden: isHidden(name)})
	}
	for _, rule := range c.raw {
		for _, a := range rule.alts {
			for _, s := range a.syms {
				if s.lit {
					if _, ok := t.literals[s.name]; !ok {
						addTerminal(SymbolInfo{Name: s.name, Literal: true})
					}
				} else if _, ok := c.rules[s.name]; !ok {
					if _, ok := t.named[s.name]; !ok {
						return nil, fmt.Errorf("%w: rule %q: undefined symbol %q", ErrInvalidGrammar, rule.name, s.name)
					}
				}
			}
		}
	}
	// Aliases to names that are neither rules nor tokens become terminals
	// that the scanner never produces.
	for _, rule := range c.raw {
		for _, a := range rule.alts {
			for _, s := range a.syms {
				if s.alias == "" {
					continue
				}
				if _, ok := t.named[s.alias]; !ok {
					if _, ok := c.rules[s.alias]; !ok {
						addTerminal(SymbolInfo{Name: s.alias, Named: true})
					}
				}
			}
		}
	}
	t.terminals = len(t.symbols)

	// The augmented start symbol comes first among the nonterminals.
	start := Symbol(len(t.symbols))
	t.symbols = append(t.symbols, SymbolInfo{Name: "$start", Hidden: true})
	for _, rule := range c.raw {
		t.named[rule.name] = Symbol(len(t.symbols))
		t.symbols = append(t.symbols, SymbolInfo{
			Name:   rule.name,
			Named:  true,
			Hidden: rule.aux || isHidden(rule.name),
		})
	}

	resolve := func(s rawSym) Symbol {
		if s.lit {
			return t.literals[s.name]
		}
		return t.named[s.name]
	}
	t.productions = append(t.productions, Production{
		LHS: start,
		RHS: []Symbol{t.named[c.raw[0].name]},
	})
	for _, rule := range c.raw {
		lhs := t.named[rule.name]
		for _, a := range rule.alts {
			p := Production{
				Index: len(t.productions),
				LHS:   lhs,
				RHS:   make([]Symbol, len(a.syms)),
				Prec:  a.prec,
				Assoc: a.assoc,
			}
			for i, s := range a.syms {
				p.RHS[i] = resolve(s)
				if s.alias == "" {
					continue
				}
				if p.Aliases == nil {
					p.Aliases = make([]Symbol, len(a.syms))
					for j := range p.Aliases {
						p.Aliases[j] = NoSymbol
					}
				}
				p.Aliases[i] = t.named[s.alias]
			}
			if len(p.RHS) > maxRHS {
				return nil, fmt.Errorf("%w: rule %q: production too long", ErrInvalidGrammar, rule.name)
			}
			t.productions = append(t.productions, p)
		}
	}

	t.sync = make([]bool, t.terminals)
	for _, text := range c.g.Sync {
		s, ok := t.literals[text]
		if !ok {
			return nil, fmt.Errorf("%w: sync literal %q does not appear in any rule", ErrInvalidGrammar, text)
		}
		t.sync[s] = true
	}
	return t, nil
}
