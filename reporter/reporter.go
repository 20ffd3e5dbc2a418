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

package reporter

import (
	"errors"
	"sync"

	"github.com/bufbuild/dmlparse/report"
	"github.com/bufbuild/dmlparse/source"
)

// ErrorReporter is responsible for reporting the given error. If the reporter
// returns a non-nil error, parsing of further files will abort with that
// error. If the reporter returns nil, processing continues and the error is
// collected.
type ErrorReporter func(err ErrorWithPos) error

// WarningReporter is responsible for reporting the given warning. Warnings
// never cause processing to abort.
type WarningReporter func(ErrorWithPos)

// Reporter is a type that handles reporting both errors and warnings.
type Reporter interface {
	// Error is called when the given error is encountered and needs to be
	// reported. If this function returns an error, processing aborts with
	// that error. It may return the given error to abort on the first error.
	Error(ErrorWithPos) error
	// Warning is called when the given warning is encountered.
	Warning(ErrorWithPos)
}

// NewReporter creates a new reporter that invokes the given functions on
// error or warning. A nil errs aborts on the first error; a nil warnings
// ignores warnings.
func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

// Collect returns a reporter that never aborts and appends everything it is
// given to the given slices, either of which may be nil.
func Collect(errs, warnings *[]ErrorWithPos) Reporter {
	return NewReporter(
		func(err ErrorWithPos) error {
			if errs != nil {
				*errs = append(*errs, err)
			}
			return nil
		},
		func(err ErrorWithPos) {
			if warnings != nil {
				*warnings = append(*warnings, err)
			}
		},
	)
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(err ErrorWithPos) error {
	if r.errs == nil {
		return err
	}
	return r.errs(err)
}

func (r reporterFuncs) Warning(err ErrorWithPos) {
	if r.warnings != nil {
		r.warnings(err)
	}
}

// Handler is used by the workspace to report errors and warnings from many
// files, possibly concurrently. Once the reporter has returned an error, the
// handler remembers it and returns it for every subsequent call.
type Handler struct {
	reporter Reporter

	mu           sync.Mutex
	errsReported bool
	err          error
}

// NewHandler creates a new Handler that reports errors and warnings using the
// given reporter. A nil reporter aborts on the first error.
func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// HandleError handles the given error. If it is an [ErrorWithPos], it is sent
// to the reporter; any other error aborts immediately.
func (h *Handler) HandleError(err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	var ewp ErrorWithPos
	if errors.As(err, &ewp) {
		h.errsReported = true
		err = h.reporter.Error(ewp)
	}
	h.err = err
	return err
}

// HandleWarning sends the given warning to the reporter.
func (h *Handler) HandleWarning(err ErrorWithPos) {
	// No lock needed; warnings don't interact with mutable fields.
	h.reporter.Warning(err)
}

// HandleReport sends every error and warning diagnostic in rep to the
// reporter, stopping at the first error the reporter decides to abort on.
// Remarks are dropped.
func (h *Handler) HandleReport(rep *report.Report) error {
	for d := range rep.All() {
		pos := source.Position{Path: d.Path()}
		if span := d.Primary(); !span.IsZero() {
			pos.Location = span.StartLoc()
		}
		ewp := Error(pos, errors.New(d.Message()))
		switch d.Level() {
		case report.Error:
			if err := h.HandleError(ewp); err != nil {
				return err
			}
		case report.Warning:
			h.HandleWarning(ewp)
		}
	}
	return h.ReporterError()
}

// Error returns the handler's final result. If the reporter aborted, that is
// the error returned. If errors were reported but collected instead,
// ErrInvalidSource is returned.
func (h *Handler) Error() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errsReported && h.err == nil {
		return ErrInvalidSource
	}
	return h.err
}

// ReporterError returns the error the reporter aborted with, if any.
func (h *Handler) ReporterError() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}
