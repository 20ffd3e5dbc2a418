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

package workspace

import (
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/bufbuild/dmlparse/reporter"
	"github.com/bufbuild/dmlparse/syntax"
)

// Option configures a [Workspace].
type Option func(*options)

type options struct {
	fs          afero.Fs
	parallelism int
	logger      logrus.FieldLogger
	reporter    reporter.Reporter
	parser      []syntax.Option
}

// WithFS sets the file system files are read from. The default is the
// operating system's.
func WithFS(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithParallelism bounds the number of files parsed at once. If n is not
// positive, min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)) is used.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithLogger sets the logger for the workspace and the parsers it runs.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReporter sets the reporter that syntax errors and warnings of parsed
// files are sent to. The default reporter fails on the first error.
func WithReporter(rep reporter.Reporter) Option {
	return func(o *options) {
		o.reporter = rep
	}
}

// WithParserOptions sets options for the parser. [syntax.WithPath] is
// ignored: trees always carry the path of their file.
func WithParserOptions(opts ...syntax.Option) Option {
	return func(o *options) {
		o.parser = append(o.parser, opts...)
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.parallelism <= 0 {
		o.parallelism = min(runtime.NumCPU(), runtime.GOMAXPROCS(-1))
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}
	return o
}
