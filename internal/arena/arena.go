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

// Package arena defines an append-only allocator with stable, compressed
// pointers.
package arena

import (
	"fmt"
	"iter"
	"strings"
)

const chunkShift = 8

// Pointer is a compressed pointer into an [Arena]: a one-based index of the
// value. The zero Pointer is nil.
type Pointer[T any] uint32

// Nil returns whether this pointer is nil.
func (p Pointer[T]) Nil() bool {
	return p == 0
}

// Index returns the zero-based allocation index of p, or -1 if it is nil.
func (p Pointer[T]) Index() int {
	return int(p) - 1
}

// Arena is an append-only allocator. Values are stored in fixed-size chunks,
// so a *T obtained from [Arena.At] stays valid as the arena grows.
//
// A zero Arena is empty and ready to use.
type Arena[T any] struct {
	chunks [][]T
	len    int
}

// New allocates a new value and returns a pointer to it.
func (a *Arena[T]) New(value T) Pointer[T] {
	chunk := a.len >> chunkShift
	if chunk == len(a.chunks) {
		a.chunks = append(a.chunks, make([]T, 0, 1<<chunkShift))
	}
	a.chunks[chunk] = append(a.chunks[chunk], value)
	a.len++
	return Pointer[T](a.len)
}

// At dereferences a pointer. Panics if p is nil or out of bounds.
func (a *Arena[T]) At(p Pointer[T]) *T {
	if p.Nil() {
		panic("arena: dereferenced nil pointer")
	}
	i := p.Index()
	return &a.chunks[i>>chunkShift][i&(1<<chunkShift-1)]
}

// Len returns the number of values allocated so far.
func (a *Arena[T]) Len() int {
	return a.len
}

// All yields every pointer and value, in allocation order. Values allocated
// during iteration are visited too.
func (a *Arena[T]) All() iter.Seq2[Pointer[T], *T] {
	return func(yield func(Pointer[T], *T) bool) {
		for i := 0; i < a.len; i++ {
			p := Pointer[T](i + 1)
			if !yield(p, a.At(p)) {
				return
			}
		}
	}
}

// String implements [fmt.Stringer].
func (a *Arena[T]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, chunk := range a.chunks {
		if i > 0 {
			b.WriteByte('|')
		}
		for j, v := range chunk {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprint(&b, v)
		}
	}
	b.WriteByte(']')
	return b.String()
}
