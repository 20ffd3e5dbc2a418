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

// Package dml contains the grammar of the Device Modeling Language, version
// 1.4, as data for the [grammar] package.
//
// The rules are modeled on the DML 1.4 reference grammar. Names of visible
// rules are the node types of the trees the syntax package builds; they are
// exported as the Type* constants.
package dml

import (
	"fmt"
	"sync"

	"github.com/bufbuild/dmlparse/grammar"
)

var compiled = sync.OnceValue(func() *grammar.Table {
	table, err := grammar.Compile(Rules())
	if err != nil {
		panic(fmt.Sprintf("dml: grammar does not compile: %v", err))
	}
	return table
})

// Table returns the compiled DML parse table. It is built on first use and
// shared; it is immutable and safe for concurrent use.
func Table() *grammar.Table {
	return compiled()
}
