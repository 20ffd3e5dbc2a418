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

package syntax

import (
	"errors"
	"io"
	"math"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxDepth is the default bound on the parse stack.
	DefaultMaxDepth = 1 << 14
	// DefaultMaxSize is the default bound on the input size, in bytes. It is
	// also the largest input the parser supports.
	DefaultMaxSize = math.MaxInt32
)

var (
	// ErrTooDeep is returned when the input nests deeper than the configured
	// maximum depth.
	ErrTooDeep = errors.New("syntax: input nests too deeply")
	// ErrTooLarge is returned when the input is larger than the configured
	// maximum size.
	ErrTooLarge = errors.New("syntax: input is too large")
	// ErrInvalidEdit is returned by [Edit.Validate] and by reparsing when an
	// edit does not describe the change between the old and the new input.
	ErrInvalidEdit = errors.New("syntax: invalid edit")
)

// Option configures a [Parser].
type Option func(*options)

type options struct {
	maxDepth int
	maxSize  int
	path     string
	logger   logrus.FieldLogger
}

// WithMaxDepth bounds the number of entries on the parse stack, which grows
// with the nesting of the input. Parsing input that needs more fails with
// [ErrTooDeep]. A non-positive n selects [DefaultMaxDepth].
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultMaxDepth
		}
		o.maxDepth = n
	}
}

// WithMaxSize bounds the size of the input in bytes. Larger input fails with
// [ErrTooLarge]. A non-positive n, or one larger than [DefaultMaxSize],
// selects [DefaultMaxSize].
func WithMaxSize(n int) Option {
	return func(o *options) {
		if n <= 0 || n > DefaultMaxSize {
			n = DefaultMaxSize
		}
		o.maxSize = n
	}
}

// WithPath sets the path that positions and diagnostics refer to.
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithLogger sets a logger that error recovery and subtree reuse are traced
// to, at debug level.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		maxDepth: DefaultMaxDepth,
		maxSize:  DefaultMaxSize,
		logger:   discard,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var discard = func() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}()
