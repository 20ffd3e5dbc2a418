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

package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/dmlparse/dml"
)

const (
	importSrc  = `import "utils.dml";`
	deviceSrc  = "device foo { register r size 4 { field f @ [0:3]; } }"
	brokenSrc  = "device foo { register r size 4 { field f @ [0:3] } }"
	importsSrc = "import \"utils.dml\";\nimport \"b.dml\";\n"
)

type result struct {
	code           int
	stdout, stderr string
}

func execute(t *testing.T, files map[string]string, args ...string) result {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, text := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	}
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	logger := logrus.New()
	logger.SetOutput(stderr)
	gs := &globalState{
		ctx:    context.Background(),
		fs:     fs,
		stdout: stdout,
		stderr: stderr,
		logger: logger,
	}
	code := run(gs, args)
	return result{code, stdout.String(), stderr.String()}
}

func TestParse(t *testing.T) {
	t.Parallel()

	files := map[string]string{"import.dml": importSrc, "device.dml": deviceSrc}
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "sexp",
			args: []string{"parse", "import.dml"},
			want: "(source_file (toplevel (utf8_sconst (string_literal))))\n",
		},
		{
			name: "tree",
			args: []string{"parse", "-f", "tree", "import.dml"},
			want: `source_file: "import \"utils.dml\";"
  toplevel: "import \"utils.dml\";"
    import: "import"
    utf8_sconst: "\"utils.dml\""
      string_literal: "\"utils.dml\""
    ;: ";"
`,
		},
		{
			name: "tree-depth",
			args: []string{"parse", "--format=tree", "--depth=2", "import.dml"},
			want: `source_file: "import \"utils.dml\";"
  toplevel: "import \"utils.dml\";"
`,
		},
		{
			name: "several",
			args: []string{"parse", "*.dml"},
			want: `==> device.dml <==
(source_file (toplevel (device_declaration (identifier) (register_declaration (identifier) (sizespec (integer_literal)) (field_declaration (identifier) (bitrangespec (bitrange (integer_literal) (integer_literal))))))))
==> import.dml <==
(source_file (toplevel (utf8_sconst (string_literal))))
`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			res := execute(t, files, test.args...)
			assert.Equal(t, exitOK, res.code, res.stderr)
			assert.Equal(t, test.want, res.stdout)
		})
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	res := execute(t, map[string]string{"import.dml": importSrc}, "parse", "-f", "yaml", "import.dml")
	require.Equal(t, exitOK, res.code, res.stderr)

	var doc struct {
		Path     string `yaml:"path"`
		HasError bool   `yaml:"has_error"`
		Root     struct {
			Type     string `yaml:"type"`
			Children []struct {
				Type  string `yaml:"type"`
				Start struct {
					Row, Column int
				} `yaml:"start"`
				Children []map[string]any `yaml:"children"`
			} `yaml:"children"`
		} `yaml:"root"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, "import.dml", doc.Path)
	assert.False(t, doc.HasError)
	assert.Equal(t, "source_file", doc.Root.Type)
	require.Len(t, doc.Root.Children, 1)
	assert.Equal(t, "toplevel", doc.Root.Children[0].Type)
	// Anonymous children are left out without --all.
	require.Len(t, doc.Root.Children[0].Children, 1)
	assert.Equal(t, "utf8_sconst", doc.Root.Children[0].Children[0]["type"])
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	res := execute(t, map[string]string{"broken.dml": brokenSrc}, "parse", "--format", "json", "--all", "broken.dml")
	require.Equal(t, exitSyntax, res.code)

	var doc structpb.Struct
	require.NoError(t, protojson.Unmarshal([]byte(res.stdout), &doc))
	m := doc.AsMap()
	assert.Equal(t, "broken.dml", m["path"])
	assert.Equal(t, true, m["has_error"])

	// Find the missing semicolon.
	var missing []map[string]any
	var visit func(node map[string]any)
	visit = func(node map[string]any) {
		if node["missing"] == true {
			missing = append(missing, node)
		}
		children, _ := node["children"].([]any)
		for _, child := range children {
			visit(child.(map[string]any))
		}
	}
	visit(m["root"].(map[string]any))
	require.Len(t, missing, 1)
	assert.Equal(t, ";", missing[0]["type"])
	assert.Equal(t, map[string]any{"row": float64(0), "column": float64(48)}, missing[0]["start"])
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	res := execute(t, map[string]string{"broken.dml": brokenSrc}, "parse", "--compact", "broken.dml")
	assert.Equal(t, exitSyntax, res.code)
	assert.Contains(t, res.stdout, `(MISSING ";")`)
	assert.Equal(t, "error: broken.dml:1:49: expected `;`\n", res.stderr)

	res = execute(t, nil, "parse", "missing.dml")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "file does not exist")

	res = execute(t, map[string]string{"a.dml": importSrc}, "parse", "-f", "xml", "a.dml")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "unknown format")

	res = execute(t, nil, "parse")
	assert.Equal(t, exitFailure, res.code)
}

func TestQuery(t *testing.T) {
	t.Parallel()

	files := map[string]string{"device.dml": deviceSrc, "import.dml": importSrc}
	res := execute(t, files, "query", `(register_declaration "register" (identifier) @name *)`, "device.dml")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, `device.dml:1:14: register_declaration "register r size 4 { field f @ [0:3]; }"
  @name device.dml:1:23: "r"
`, res.stdout)

	res = execute(t, files, "query", "--count", "(toplevel)", "device.dml", "import.dml")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "device.dml: 1\nimport.dml: 1\n", res.stdout)

	res = execute(t, files, "query", "(a * b)", "device.dml")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "invalid pattern: 1:6: * must be the last child pattern")
}

func TestImports(t *testing.T) {
	t.Parallel()

	files := map[string]string{"a.dml": importsSrc, "c.dml": `import "b.dml";`}
	res := execute(t, files, "imports", "a.dml")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "a.dml:1:8: utils.dml\na.dml:2:8: b.dml\n", res.stdout)

	res = execute(t, files, "imports", "-u", "a.dml", "c.dml")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, "b.dml\nutils.dml\n", res.stdout)
}

func TestStats(t *testing.T) {
	t.Parallel()

	res := execute(t, map[string]string{"device.dml": deviceSrc, "a.dml": importsSrc}, "stats", "--types", "device.dml", "a.dml")
	require.Equal(t, exitOK, res.code, res.stderr)

	blocks := strings.Split(res.stdout, "\n\n=== ")
	require.Len(t, blocks, 2)
	device, imports := blocks[1], blocks[0]

	assert.True(t, strings.HasPrefix(imports, "=== a.dml ===\n"))
	assert.Contains(t, imports, "  Imports: 2\n")
	assert.Contains(t, imports, "Import Statements:\n  1. utils.dml\n  2. b.dml\n")

	assert.True(t, strings.HasPrefix(device, "device.dml ===\n"))
	for _, line := range []string{
		"Root node type: source_file\n",
		"Parse errors: false\n",
		"  Devices: 1\n",
		"  Registers: 1\n",
		"  Fields: 1\n",
		"  Methods: 0\n",
		"  Imports: 0\n",
		"  bitrange: 1\n",
		"  source_file: 1\n",
	} {
		assert.Contains(t, device, line)
	}
	assert.NotContains(t, device, "Import Statements")
}

func TestGrammar(t *testing.T) {
	t.Parallel()

	want, err := dml.NodeTypesYAML()
	require.NoError(t, err)
	res := execute(t, nil, "grammar")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, string(want), res.stdout)

	table := dml.Table()
	var conflicts strings.Builder
	for _, c := range table.Conflicts() {
		fmt.Fprintln(&conflicts, table.FormatConflict(c))
	}
	res = execute(t, nil, "grammar", "--conflicts")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, conflicts.String(), res.stdout)

	res = execute(t, nil, "grammar", "--productions")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, table.Productions(), strings.Count(res.stdout, "\n"))

	res = execute(t, nil, "grammar", "--productions", "--conflicts")
	assert.Equal(t, exitFailure, res.code)
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"a.dml":        deviceSrc,
		"small.yaml":   "max_size: 4\nlog_level: error\n",
		"bad.yaml":     "color: purple\n",
		"unknown.yaml": "colour: never\n",
		"empty.yaml":   "",
	}

	res := execute(t, files, "-c", "small.yaml", "parse", "a.dml")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "too large")

	// Flags win over the file.
	res = execute(t, files, "--config=small.yaml", "--max-size=0", "parse", "a.dml")
	assert.Equal(t, exitOK, res.code, res.stderr)

	res = execute(t, files, "-c", "bad.yaml", "parse", "a.dml")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "color must be")

	res = execute(t, files, "-c", "unknown.yaml", "parse", "a.dml")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "colour")

	res = execute(t, files, "-c", "empty.yaml", "parse", "a.dml")
	assert.Equal(t, exitOK, res.code, res.stderr)

	res = execute(t, files, "--parallelism=-1", "parse", "a.dml")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "parallelism must not be negative")
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("DMLPARSE_MAX_SIZE", "4")

	files := map[string]string{"a.dml": deviceSrc, "big.yaml": "max_size: 1000\n"}
	res := execute(t, files, "parse", "a.dml")
	assert.Equal(t, exitFailure, res.code)
	assert.Contains(t, res.stderr, "too large")

	// The environment wins over the file.
	res = execute(t, files, "-c", "big.yaml", "parse", "a.dml")
	assert.Equal(t, exitFailure, res.code)

	res = execute(t, files, "--max-size=1000", "parse", "a.dml")
	assert.Equal(t, exitOK, res.code, res.stderr)

	t.Setenv("DMLPARSE_CONFIG", "big.yaml")
	t.Setenv("DMLPARSE_MAX_SIZE", "")
	res = execute(t, files, "parse", "a.dml")
	assert.Equal(t, exitOK, res.code, res.stderr)
}

func TestConfigApply(t *testing.T) {
	t.Parallel()

	conf := defaultConfig().Apply(Config{
		MaxDepth: null.IntFrom(64),
		Color:    null.StringFrom(colorNever),
	})
	assert.Equal(t, null.IntFrom(64), conf.MaxDepth)
	assert.Equal(t, null.IntFrom(0), conf.Parallelism)
	assert.Equal(t, colorNever, conf.Color.String)
	assert.Equal(t, "warning", conf.LogLevel.String)
	require.NoError(t, conf.Validate())

	conf.LogLevel = null.StringFrom("loud")
	assert.Error(t, conf.Validate())
}

func TestColor(t *testing.T) {
	t.Parallel()

	files := map[string]string{"a.dml": importSrc, "b.dml": importSrc}
	res := execute(t, files, "--color=always", "parse", "a.dml", "b.dml")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "\x1b[")

	res = execute(t, files, "--color=never", "parse", "a.dml", "b.dml")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.NotContains(t, res.stdout, "\x1b[")
	assert.Contains(t, res.stdout, "==> a.dml <==\n")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééééééé...", truncate(strings.Repeat("é", 20), 10))
	assert.Equal(t, strings.Repeat("é", 10), truncate(strings.Repeat("é", 10), 10))
}
