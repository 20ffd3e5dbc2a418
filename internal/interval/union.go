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

// Package interval provides interval arithmetic on sorted integer ranges.
package interval

import (
	"fmt"
	"iter"
	"strings"

	"github.com/tidwall/btree"
	"golang.org/x/exp/constraints"
)

// Endpoint is a type that may be used as an interval endpoint.
type Endpoint = constraints.Integer

// Union is a set of disjoint half-open intervals. Inserting an interval that
// overlaps or touches existing ones merges them.
//
// A zero Union is empty and ready to use.
type Union[K Endpoint] struct {
	// Keys are interval ends; values are interval starts.
	tree btree.Map[K, K]
}

// Add inserts [start, end) into the union.
func (u *Union[K]) Add(start, end K) {
	if start > end {
		panic(fmt.Sprintf("interval: start (%v) > end (%v)", start, end))
	}

	var merged []K
	iter := u.tree.Iter()
	for more := iter.Seek(start); more && iter.Value() <= end; more = iter.Next() {
		start = min(start, iter.Value())
		end = max(end, iter.Key())
		merged = append(merged, iter.Key())
	}
	for _, k := range merged {
		u.tree.Delete(k)
	}
	u.tree.Set(end, start)
}

// Contains returns whether k is inside some interval of the union.
func (u *Union[K]) Contains(k K) bool {
	iter := u.tree.Iter()
	// Seek to the first interval ending strictly after k.
	if !iter.Seek(k + 1) {
		return false
	}
	return iter.Value() <= k
}

// Len returns the number of disjoint intervals.
func (u *Union[K]) Len() int {
	return u.tree.Len()
}

// All yields each interval as a (start, end) pair, in ascending order.
func (u *Union[K]) All() iter.Seq2[K, K] {
	return func(yield func(K, K) bool) {
		u.tree.Scan(func(end, start K) bool {
			return yield(start, end)
		})
	}
}

// String implements [fmt.Stringer].
func (u *Union[K]) String() string {
	var b strings.Builder
	for start, end := range u.All() {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "[%v, %v)", start, end)
	}
	return b.String()
}
