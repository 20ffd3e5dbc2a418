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

// Package workspace parses sets of DML files concurrently and keeps their
// trees up to date as the files are edited.
package workspace

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bufbuild/dmlparse/dml"
	"github.com/bufbuild/dmlparse/report"
	"github.com/bufbuild/dmlparse/reporter"
	"github.com/bufbuild/dmlparse/syntax"
)

// File is a parsed file. A File is a snapshot: editing the file through the
// workspace produces a new File and leaves this one unchanged.
type File struct {
	Path        string
	Tree        *syntax.Tree
	Diagnostics report.Report
}

// Workspace holds the most recent tree of every file it has parsed.
//
// A Workspace is safe for concurrent use. Operations on the same path are
// serialized; operations on different paths run in parallel.
type Workspace struct {
	opts   options
	parser *syntax.Parser

	mu    sync.Mutex
	files map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	file *File
}

// New returns an empty workspace.
func New(opts ...Option) *Workspace {
	o := newOptions(opts)
	parserOpts := append(slices.Clip(o.parser), syntax.WithLogger(o.logger))
	return &Workspace{
		opts:   o,
		parser: syntax.NewParser(dml.Table(), parserOpts...),
		files:  make(map[string]*entry),
	}
}

// Parse reads and parses the files at paths, at most as many at a time as
// configured with [WithParallelism]. Files that were parsed before are read
// and parsed again from scratch.
//
// Syntax errors are sent to the workspace's reporter. Parse stops at the
// first error the reporter aborts with, and at the first file that cannot be
// read or exceeds the parser's limits. The returned slice has one element per
// path, nil for files that were not parsed.
//
// If the reporter collects errors instead of aborting, Parse returns
// [reporter.ErrInvalidSource] after parsing every file when any had errors.
func (w *Workspace) Parse(ctx context.Context, paths ...string) ([]*File, error) {
	h := reporter.NewHandler(w.opts.reporter)
	sem := semaphore.NewWeighted(int64(w.opts.parallelism))
	g, ctx := errgroup.WithContext(ctx)

	files := make([]*File, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			file, err := w.load(path)
			if err != nil {
				return err
			}
			files[i] = file
			return h.HandleReport(&file.Diagnostics)
		})
	}
	if err := g.Wait(); err != nil {
		return files, err
	}
	return files, h.Error()
}

// Update replaces the contents of the file at path with src and reparses it,
// reusing what it can of the previous tree. The edit is computed from the
// difference between the old and the new text. If path has not been parsed
// yet, src is parsed from scratch.
//
// Unlike [Workspace.Parse], Update does not report syntax errors: they are
// in the returned file's diagnostics.
func (w *Workspace) Update(path string, src []byte) (*File, error) {
	e := w.entry(path)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return w.store(e, path, src, nil, syntax.Edit{})
	}
	edit := syntax.EditFor(e.file.Tree.Source(), src)
	return w.store(e, path, src, e.file.Tree, edit)
}

// Apply is like [Workspace.Update], but with the edit supplied by the
// caller, as an editor would. Returns an error wrapping
// [syntax.ErrInvalidEdit] if edit does not fit the old and new text.
func (w *Workspace) Apply(path string, edit syntax.Edit, src []byte) (*File, error) {
	e := w.entry(path)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return nil, fmt.Errorf("%s: file has not been parsed", path)
	}
	return w.store(e, path, src, e.file.Tree, edit)
}

// File returns the current state of the file at path.
func (w *Workspace) File(path string) (*File, bool) {
	w.mu.Lock()
	e := w.files[path]
	w.mu.Unlock()
	if e == nil {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file, e.file != nil
}

// Paths returns the paths of all parsed files, sorted.
func (w *Workspace) Paths() []string {
	w.mu.Lock()
	paths := slices.Sorted(maps.Keys(w.files))
	w.mu.Unlock()

	return slices.DeleteFunc(paths, func(path string) bool {
		_, ok := w.File(path)
		return !ok
	})
}

// Forget drops the file at path from the workspace.
func (w *Workspace) Forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, path)
}

func (w *Workspace) entry(path string) *entry {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := w.files[path]
	if e == nil {
		e = new(entry)
		w.files[path] = e
	}
	return e
}

func (w *Workspace) load(path string) (*File, error) {
	e := w.entry(path)
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := readFile(w.opts.fs, path)
	if err != nil {
		return nil, err
	}
	return w.store(e, path, src, nil, syntax.Edit{})
}

// store parses src, incrementally if old is not nil, and makes the result
// the current state of e. e.mu must be held.
func (w *Workspace) store(e *entry, path string, src []byte, old *syntax.Tree, edit syntax.Edit) (*File, error) {
	start := time.Now()
	var (
		tree *syntax.Tree
		err  error
	)
	if old == nil {
		tree, err = w.parser.ParseFile(path, src)
	} else {
		tree, err = w.parser.Reparse(old, edit, src)
	}
	if err != nil {
		return nil, err
	}

	file := &File{Path: path, Tree: tree, Diagnostics: tree.Diagnostics()}
	e.file = file

	w.opts.logger.WithFields(logrus.Fields{
		"path":        path,
		"bytes":       len(src),
		"incremental": old != nil,
		"errors":      len(file.Diagnostics.Diagnostics),
		"elapsed":     time.Since(start),
	}).Debug("parsed file")
	return file, nil
}
