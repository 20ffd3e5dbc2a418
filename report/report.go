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

// Package report provides a diagnostics framework: a [Report] collects
// [Diagnostic]s about source files, and a [Renderer] prints them for humans.
package report

import (
	"cmp"
	"errors"
	"iter"
	"slices"
)

// Report is a collection of diagnostics.
//
// The zero value is empty and ready to use.
type Report struct {
	// The diagnostics in this report, in the order they were added.
	Diagnostics []Diagnostic
}

// Error pushes an error diagnostic onto this report.
func (r *Report) Error(options ...DiagnosticOption) *Diagnostic {
	return r.push(Error).With(options...)
}

// Warn pushes a warning diagnostic onto this report.
func (r *Report) Warn(options ...DiagnosticOption) *Diagnostic {
	return r.push(Warning).With(options...)
}

// Remark pushes a remark diagnostic onto this report.
func (r *Report) Remark(options ...DiagnosticOption) *Diagnostic {
	return r.push(Remark).With(options...)
}

func (r *Report) push(level Level) *Diagnostic {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{level: level})
	return &r.Diagnostics[len(r.Diagnostics)-1]
}

// Len returns the number of diagnostics in this report.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics)
}

// All returns an iterator over pointers to the diagnostics in this report.
func (r *Report) All() iter.Seq[*Diagnostic] {
	return func(yield func(*Diagnostic) bool) {
		if r == nil {
			return
		}
		for i := range r.Diagnostics {
			if !yield(&r.Diagnostics[i]) {
				return
			}
		}
	}
}

// HasErrors returns whether this report contains any error diagnostics.
func (r *Report) HasErrors() bool {
	for d := range r.All() {
		if d.level == Error {
			return true
		}
	}
	return false
}

// Err returns the errors in this report joined with [errors.Join], or nil if
// there are none.
func (r *Report) Err() error {
	var errs []error
	for d := range r.All() {
		if d.level == Error {
			errs = append(errs, d)
		}
	}
	return errors.Join(errs...)
}

// Append appends the diagnostics of other to r.
func (r *Report) Append(other *Report) {
	if other == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// Sort sorts this report's diagnostics by file, then by position of the
// primary span, then by level. Diagnostics without a span sort first within
// their file.
//
// The sort is stable, so diagnostics at the same position keep the order in
// which they were added.
func (r *Report) Sort() {
	slices.SortStableFunc(r.Diagnostics, func(a, b Diagnostic) int {
		if n := cmp.Compare(a.Path(), b.Path()); n != 0 {
			return n
		}
		as, bs := a.Primary(), b.Primary()
		if n := boolCompare(as.IsZero(), bs.IsZero()); n != 0 {
			return n
		}
		if n := cmp.Compare(as.Start, bs.Start); n != 0 {
			return n
		}
		if n := cmp.Compare(as.End, bs.End); n != 0 {
			return n
		}
		return cmp.Compare(a.level, b.level)
	})
}

// boolCompare orders true before false.
func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}
