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

// Package query finds nodes in syntax trees, by type, by predicate, or by
// matching their shape against a pattern.
package query

import (
	"iter"
	"slices"

	"github.com/bufbuild/dmlparse/syntax"
)

// OfType yields the nodes under n, n included, whose type is one of types.
func OfType(n syntax.Node, types ...string) iter.Seq[syntax.Node] {
	return Find(n, func(m syntax.Node) bool {
		return slices.Contains(types, m.Type())
	})
}

// Find yields the nodes under n, n included, for which pred is true, in
// pre-order.
func Find(n syntax.Node, pred func(syntax.Node) bool) iter.Seq[syntax.Node] {
	return func(yield func(syntax.Node) bool) {
		for m := range syntax.Preorder(n) {
			if pred(m) && !yield(m) {
				return
			}
		}
	}
}

// First returns the first node under n for which pred is true.
func First(n syntax.Node, pred func(syntax.Node) bool) (syntax.Node, bool) {
	for m := range Find(n, pred) {
		return m, true
	}
	return syntax.Node{}, false
}

// Count returns the number of nodes of each named type under n, n
// included.
func Count(n syntax.Node) map[string]int {
	counts := make(map[string]int)
	for m := range syntax.Preorder(n) {
		if m.IsNamed() {
			counts[m.Type()]++
		}
	}
	return counts
}
