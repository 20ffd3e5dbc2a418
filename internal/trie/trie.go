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

// Package trie contains a byte-wise trie used for longest-match operator
// lookup in the scanner.
package trie

import (
	"fmt"
	"slices"
	"strings"
)

// Trie maps byte strings to values.
//
// A zero Trie is empty and ready to use.
type Trie[V any] struct {
	root node[V]
	len  int
}

type node[V any] struct {
	// Sorted by label.
	labels []byte
	next   []*node[V]

	value V
	ok    bool
}

// Len returns the number of keys in the trie.
func (t *Trie[V]) Len() int {
	return t.len
}

// Insert adds a key to the trie, overwriting any previous value.
func (t *Trie[V]) Insert(key string, value V) {
	n := &t.root
	for i := range len(key) {
		n = n.child(key[i], true)
	}
	if !n.ok {
		t.len++
	}
	n.value, n.ok = value, true
}

// Get returns the value for exactly key.
func (t *Trie[V]) Get(key string) (V, bool) {
	n := &t.root
	for i := range len(key) {
		if n = n.child(key[i], false); n == nil {
			var z V
			return z, false
		}
	}
	return n.value, n.ok
}

// Longest finds the longest key in the trie that is a prefix of text.
//
// It returns the length of that key, its value, and the number of bytes of
// text that had to be examined to decide. The latter can exceed n: looking up
// "<" in a trie that also holds "<<=" examines the byte after "<".
func (t *Trie[V]) Longest(text string) (n int, value V, scanned int) {
	node := &t.root
	for i := 0; len(node.labels) > 0; i++ {
		// Running out of text counts as examining the byte after it, since
		// appending to text could extend the match.
		scanned = i + 1
		if i >= len(text) {
			break
		}
		if node = node.child(text[i], false); node == nil {
			break
		}
		if node.ok {
			n, value = i+1, node.value
		}
	}
	return n, value, scanned
}

// Dump prints the trie's keys in sorted order, for debugging.
func (t *Trie[V]) Dump() string {
	var out strings.Builder
	var dump func(prefix []byte, n *node[V])
	dump = func(prefix []byte, n *node[V]) {
		if n.ok {
			fmt.Fprintf(&out, "%q: %v\n", prefix, n.value)
		}
		for i, label := range n.labels {
			dump(append(prefix, label), n.next[i])
		}
	}
	dump(nil, &t.root)
	return out.String()
}

func (n *node[V]) child(b byte, insert bool) *node[V] {
	i, found := slices.BinarySearch(n.labels, b)
	if found {
		return n.next[i]
	}
	if !insert {
		return nil
	}
	next := new(node[V])
	n.labels = slices.Insert(n.labels, i, b)
	n.next = slices.Insert(n.next, i, next)
	return next
}
