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

import "fmt"

// Grammar is a declarative grammar: a list of named rules over named lexical
// tokens and literal strings.
type Grammar struct {
	// The name of the language, for diagnostics.
	Name string

	// Named lexical tokens, such as "identifier". The scanner is responsible
	// for producing them.
	Tokens []string

	// The rules of the grammar. The first rule is the start symbol.
	//
	// Rules whose name begins with an underscore are hidden: their nodes
	// never appear in a syntax tree, and their children are spliced into the
	// parent instead.
	Rules []Rule

	// Literal texts that error recovery may resynchronize on.
	Sync []string
}

// Rule is a single named rule.
type Rule struct {
	Name string
	Body Expr
}

// Hidden returns whether nodes for this rule are spliced into their parent.
func (r Rule) Hidden() bool {
	return isHidden(r.Name)
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

// Expr is a grammar expression, built with the functions in this package.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Assoc is the associativity of a production, used to resolve conflicts
// between productions of equal precedence.
type Assoc uint8

const (
	AssocNone Assoc = iota
	AssocLeft
	AssocRight
)

// String implements [fmt.Stringer].
func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	default:
		return "none"
	}
}

type (
	litExpr    struct{ text string }
	refExpr    struct{ name string }
	seqExpr    struct{ items []Expr }
	choiceExpr struct{ alts []Expr }
	optExpr    struct{ inner Expr }
	repeatExpr struct{ inner Expr }
	precExpr   struct {
		inner Expr
		level int
		assoc Assoc
	}
	aliasExpr struct {
		inner Expr
		name  string
	}
)

// Lit matches the literal text, which becomes a keyword if it looks like an
// identifier and a punctuation token otherwise.
func Lit(text string) Expr { return litExpr{text} }

// Ref matches the rule or named token called name.
func Ref(name string) Expr { return refExpr{name} }

// Seq matches each of items in order.
func Seq(items ...Expr) Expr { return seqExpr{items} }

// Choice matches any one of alts.
func Choice(alts ...Expr) Expr { return choiceExpr{alts} }

// Optional matches e or nothing.
func Optional(e Expr) Expr { return optExpr{e} }

// Repeat1 matches one or more e.
func Repeat1(e Expr) Expr { return repeatExpr{e} }

// Repeat matches zero or more e.
func Repeat(e Expr) Expr { return Optional(Repeat1(e)) }

// Sep1 matches one or more e, separated by sep.
func Sep1(e, sep Expr) Expr { return Seq(e, Repeat(Seq(sep, e))) }

// Sep matches zero or more e, separated by sep.
func Sep(e, sep Expr) Expr { return Optional(Sep1(e, sep)) }

// Prec gives the productions produced by e a precedence level. Higher levels
// bind tighter.
func Prec(level int, e Expr) Expr { return precExpr{e, level, AssocNone} }

// PrecLeft is like [Prec], but also makes the productions left-associative.
func PrecLeft(level int, e Expr) Expr { return precExpr{e, level, AssocLeft} }

// PrecRight is like [Prec], but also makes the productions
// right-associative.
func PrecRight(level int, e Expr) Expr { return precExpr{e, level, AssocRight} }

// Alias renames the node produced by e, which must be a single symbol. The
// parser still uses the original symbol; only the node type changes.
func Alias(e Expr, name string) Expr { return aliasExpr{e, name} }

func (litExpr) isExpr()    {}
func (refExpr) isExpr()    {}
func (seqExpr) isExpr()    {}
func (choiceExpr) isExpr() {}
func (optExpr) isExpr()    {}
func (repeatExpr) isExpr() {}
func (precExpr) isExpr()   {}
func (aliasExpr) isExpr()  {}

func (e litExpr) String() string    { return fmt.Sprintf("%q", e.text) }
func (e refExpr) String() string    { return e.name }
func (e seqExpr) String() string    { return fmt.Sprintf("seq%v", e.items) }
func (e choiceExpr) String() string { return fmt.Sprintf("choice%v", e.alts) }
func (e optExpr) String() string    { return fmt.Sprintf("optional(%v)", e.inner) }
func (e repeatExpr) String() string { return fmt.Sprintf("repeat1(%v)", e.inner) }
func (e precExpr) String() string {
	return fmt.Sprintf("prec.%v(%d, %v)", e.assoc, e.level, e.inner)
}
func (e aliasExpr) String() string { return fmt.Sprintf("alias(%v, %s)", e.inner, e.name) }
