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

package arena_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bufbuild/dmlparse/internal/arena"
)

func TestPointers(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var a arena.Arena[int]
	var nilp arena.Pointer[int]
	assert.True(nilp.Nil())
	assert.Equal(-1, nilp.Index())

	p1 := a.New(5)
	first := a.At(p1)
	assert.Equal(5, *first)
	assert.Equal(0, p1.Index())

	for i := range 1000 {
		a.New(i)
	}
	assert.Equal(1001, a.Len())
	assert.Same(first, a.At(p1))
	assert.Equal(999, *a.At(arena.Pointer[int](1001)))
	assert.Equal(255, *a.At(arena.Pointer[int](257)))

	var n int
	for p, v := range a.All() {
		assert.Equal(*a.At(p), *v)
		n++
	}
	assert.Equal(1001, n)

	assert.Panics(func() { a.At(nilp) })
}

func TestString(t *testing.T) {
	t.Parallel()

	var a arena.Arena[int]
	for i := range 3 {
		a.New(i)
	}
	assert.Equal(t, "[0 1 2]", a.String())
}
