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

package workspace_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bufbuild/dmlparse/reporter"
	"github.com/bufbuild/dmlparse/syntax"
	"github.com/bufbuild/dmlparse/workspace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	good   = "device d;\nregister r size 4;\n"
	broken = "device d;\nregister r size 4\n"
)

func newFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, text := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	}
	return fs
}

func firstOfType(n syntax.Node, typ string) syntax.Node {
	for n := range syntax.Preorder(n) {
		if n.Type() == typ {
			return n
		}
	}
	return syntax.Node{}
}

func TestParse(t *testing.T) {
	t.Parallel()

	fs := newFS(t, map[string]string{
		"dev/a.dml": good,
		"dev/b.dml": broken,
		"dev/c.dml": `import "a.dml";`,
	})
	var errs []reporter.ErrorWithPos
	ws := workspace.New(
		workspace.WithFS(fs),
		workspace.WithParallelism(2),
		workspace.WithReporter(reporter.Collect(&errs, nil)),
	)

	files, err := ws.Parse(context.Background(), "dev/a.dml", "dev/b.dml", "dev/c.dml")
	require.ErrorIs(t, err, reporter.ErrInvalidSource)
	require.Len(t, files, 3)
	for i, path := range []string{"dev/a.dml", "dev/b.dml", "dev/c.dml"} {
		require.NotNil(t, files[i], path)
		assert.Equal(t, path, files[i].Path)
		assert.Equal(t, path, files[i].Tree.File().Path())
	}
	assert.False(t, files[0].Tree.HasError())
	assert.True(t, files[1].Tree.HasError())

	require.Len(t, errs, 1)
	assert.Equal(t, "dev/b.dml", errs[0].GetPosition().Path)
	assert.Contains(t, errs[0].Error(), "expected `;`")

	assert.Equal(t, []string{"dev/a.dml", "dev/b.dml", "dev/c.dml"}, ws.Paths())
	file, ok := ws.File("dev/c.dml")
	require.True(t, ok)
	assert.Same(t, files[2], file)
}

func TestParseFailFast(t *testing.T) {
	t.Parallel()

	fs := newFS(t, map[string]string{"b.dml": broken})
	ws := workspace.New(workspace.WithFS(fs))

	_, err := ws.Parse(context.Background(), "b.dml")
	var ewp reporter.ErrorWithPos
	require.ErrorAs(t, err, &ewp)
	assert.Equal(t, "b.dml", ewp.GetPosition().Path)
	assert.NotErrorIs(t, err, reporter.ErrInvalidSource)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	fs := newFS(t, map[string]string{
		"big.dml":   good,
		"dir/x.dml": good,
	})
	ws := workspace.New(
		workspace.WithFS(fs),
		workspace.WithParserOptions(syntax.WithMaxSize(4)),
	)

	_, err := ws.Parse(context.Background(), "missing.dml")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ws.Parse(context.Background(), "dir")
	assert.ErrorContains(t, err, "is a directory")

	_, err = ws.Parse(context.Background(), "big.dml")
	assert.ErrorIs(t, err, syntax.ErrTooLarge)

	assert.Empty(t, ws.Paths())
}

func TestParseCanceled(t *testing.T) {
	t.Parallel()

	fs := newFS(t, map[string]string{"a.dml": good})
	ws := workspace.New(workspace.WithFS(fs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ws.Parse(ctx, "a.dml")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	fs := newFS(t, map[string]string{"a.dml": good})
	ws := workspace.New(workspace.WithFS(fs))
	files, err := ws.Parse(context.Background(), "a.dml")
	require.NoError(t, err)
	before := firstOfType(files[0].Tree.Root(), "register_declaration")
	require.False(t, before.IsZero())

	after, err := ws.Update("a.dml", []byte(good+"register q size 2;\n"))
	require.NoError(t, err)
	assert.False(t, after.Tree.HasError())
	assert.True(t, before.Same(firstOfType(after.Tree.Root(), "register_declaration")))
	assert.Empty(t, after.Diagnostics.Diagnostics)

	current, ok := ws.File("a.dml")
	require.True(t, ok)
	assert.Same(t, after, current)

	// The workspace reparses; the file system is left alone.
	data, err := afero.ReadFile(fs, "a.dml")
	require.NoError(t, err)
	assert.Equal(t, good, string(data))

	fresh, err := ws.Update("new.dml", []byte(broken))
	require.NoError(t, err)
	assert.True(t, fresh.Tree.HasError())
	assert.NotEmpty(t, fresh.Diagnostics.Diagnostics)
	assert.Equal(t, []string{"a.dml", "new.dml"}, ws.Paths())

	ws.Forget("new.dml")
	_, ok = ws.File("new.dml")
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.WithFS(afero.NewMemMapFs()))
	_, err := ws.Apply("a.dml", syntax.Edit{}, []byte(good))
	require.Error(t, err)

	_, err = ws.Update("a.dml", []byte(good))
	require.NoError(t, err)

	src := []byte(broken)
	file, err := ws.Apply("a.dml", syntax.EditFor([]byte(good), src), src)
	require.NoError(t, err)
	assert.True(t, file.Tree.HasError())

	_, err = ws.Apply("a.dml", syntax.Edit{StartByte: 100, OldEndByte: 100, NewEndByte: 100}, src)
	require.ErrorIs(t, err, syntax.ErrInvalidEdit)
	current, _ := ws.File("a.dml")
	assert.Same(t, file, current)
}

func TestConcurrentUpdates(t *testing.T) {
	t.Parallel()

	ws := workspace.New(workspace.WithFS(afero.NewMemMapFs()))
	var wg sync.WaitGroup
	for i := range 8 {
		path := fmt.Sprintf("f%d.dml", i%2)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 10 {
				src := fmt.Sprintf("device d;\nregister r%d size %d;\n", j, i)
				file, err := ws.Update(path, []byte(src))
				if !assert.NoError(t, err) {
					return
				}
				assert.False(t, file.Tree.HasError())
			}
		}()
	}
	wg.Wait()

	for _, path := range ws.Paths() {
		file, ok := ws.File(path)
		require.True(t, ok)
		fresh, err := syntax.Parse(file.Tree.Source())
		require.NoError(t, err)
		assert.Equal(t, fresh.Root().String(), file.Tree.Root().String())
	}
	assert.Len(t, ws.Paths(), 2)
}

func TestGlob(t *testing.T) {
	t.Parallel()

	fs := newFS(t, map[string]string{
		"src/a.dml":     good,
		"src/sub/b.dml": good,
		"src/sub/c.txt": "",
		"other/d.dml":   good,
	})

	tests := []struct {
		patterns []string
		want     []string
		err      string
	}{
		{patterns: []string{"src/*.dml"}, want: []string{"src/a.dml"}},
		{patterns: []string{"src/**/*.dml"}, want: []string{"src/a.dml", "src/sub/b.dml"}},
		{patterns: []string{"src/**/*.dml", "./src/a.dml"}, want: []string{"src/a.dml", "src/sub/b.dml"}},
		{patterns: []string{"missing.dml"}, want: []string{"missing.dml"}},
		{patterns: []string{"other/*.{dml,txt}"}, want: []string{"other/d.dml"}},
		{patterns: []string{"src/*.txt"}, err: `no files match "src/*.txt"`},
		{patterns: []string{"src/[.dml"}, err: "invalid pattern"},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.patterns), func(t *testing.T) {
			t.Parallel()
			paths, err := workspace.Glob(fs, test.patterns...)
			if test.err != "" {
				assert.ErrorContains(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, paths)
		})
	}
}

func TestGlobParse(t *testing.T) {
	t.Parallel()

	fs := newFS(t, map[string]string{
		"src/a.dml":     good,
		"src/sub/b.dml": good,
	})
	paths, err := workspace.Glob(fs, "src/**/*.dml")
	require.NoError(t, err)

	ws := workspace.New(workspace.WithFS(fs), workspace.WithParallelism(1))
	files, err := ws.Parse(context.Background(), paths...)
	require.NoError(t, err)
	for _, file := range files {
		assert.Equal(t, good, file.Tree.Text())
	}
}
