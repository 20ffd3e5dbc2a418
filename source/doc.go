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

// Package source provides the source-file abstraction shared by the scanner,
// the parser and the diagnostics renderer: an immutable buffer with a lazily
// built line index.
//
// Three line terminators are recognized: \n, \r\n and a lone \r. Columns are
// reported either in bytes ([Point]) or in runes ([Location]); in both cases
// a tab counts as a single column.
package source
