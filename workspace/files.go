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
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

func readFile(fs afero.Fs, path string) ([]byte, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	return afero.ReadFile(fs, path)
}

// Glob expands patterns into the paths of the files they match on fs.
// Patterns use doublestar syntax, so "**/*.dml" matches every DML file
// below the working directory. A pattern with no metacharacters is taken
// as a path and returned whether or not it exists, so that reading it
// reports a proper error. The result is sorted and has no duplicates.
func Glob(fs afero.Fs, patterns ...string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(filepath.Clean(pattern))
		if !strings.ContainsAny(pattern, `*?[{\`) {
			paths = append(paths, pattern)
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}

		base, _ := doublestar.SplitPattern(pattern)
		var matched bool
		err := afero.Walk(fs, filepath.FromSlash(base), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			path = filepath.ToSlash(path)
			if doublestar.MatchUnvalidated(pattern, path) {
				paths = append(paths, path)
				matched = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if !matched {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}
