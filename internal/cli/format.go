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
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rivo/uniseg"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/bufbuild/dmlparse/source"
	"github.com/bufbuild/dmlparse/syntax"
	"github.com/bufbuild/dmlparse/workspace"
)

// Output formats for trees.
const (
	formatSExpr = "sexp"
	formatTree  = "tree"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

// Longest text, in user-perceived characters, shown for a node.
const maxTextLen = 50

type styles struct {
	header *color.Color
	path   *color.Color
	typ    *color.Color
	label  *color.Color
}

func newStyles(enabled bool) styles {
	s := styles{
		header: color.New(color.FgCyan, color.Bold),
		path:   color.New(color.Bold),
		typ:    color.New(color.FgYellow),
		label:  color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{s.header, s.path, s.typ, s.label} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// treeWriter renders parsed files in one of the output formats.
type treeWriter struct {
	out    io.Writer
	format string
	all    bool
	depth  int
	styles styles

	yaml *yaml.Encoder
}

func (tw *treeWriter) write(file *workspace.File, header bool) error {
	switch tw.format {
	case formatSExpr:
		if header {
			tw.styles.header.Fprintf(tw.out, "==> %s <==\n", file.Path)
		}
		_, err := fmt.Fprintln(tw.out, file.Tree.Root().SExpr(tw.all))
		return err
	case formatTree:
		if header {
			tw.styles.header.Fprintf(tw.out, "==> %s <==\n", file.Path)
		}
		return tw.printTree(file.Tree.Root())
	case formatYAML:
		if tw.yaml == nil {
			tw.yaml = yaml.NewEncoder(tw.out)
			tw.yaml.SetIndent(2)
		}
		return tw.yaml.Encode(tw.fileDoc(file))
	case formatJSON:
		doc, err := structpb.NewStruct(tw.fileDoc(file))
		if err != nil {
			return err
		}
		data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(tw.out, "%s\n", data)
		return err
	default:
		return fmt.Errorf("unknown format %q", tw.format)
	}
}

func (tw *treeWriter) close() error {
	if tw.yaml != nil {
		return tw.yaml.Close()
	}
	return nil
}

// printTree prints one node per line, indented by depth, with its text.
func (tw *treeWriter) printTree(root syntax.Node) error {
	c := root.Cursor()
	for {
		n := c.Node()
		depth := c.Depth()
		for range depth {
			if _, err := io.WriteString(tw.out, "  "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(tw.out, "%s: %q\n", tw.styles.typ.Sprint(n.Type()), truncate(n.Text(), maxTextLen)); err != nil {
			return err
		}

		if (tw.depth <= 0 || depth+1 < tw.depth) && c.GotoFirstChild() {
			continue
		}
		for !c.GotoNextSibling() {
			if !c.GotoParent() {
				return nil
			}
		}
	}
}

func (tw *treeWriter) fileDoc(file *workspace.File) map[string]any {
	return map[string]any{
		"path":      file.Path,
		"has_error": file.Tree.HasError(),
		"root":      tw.nodeDoc(file.Tree.Root()),
	}
}

func (tw *treeWriter) nodeDoc(n syntax.Node) map[string]any {
	doc := map[string]any{
		"type":  n.Type(),
		"named": n.IsNamed(),
		"start": pointDoc(n.StartPoint()),
		"end":   pointDoc(n.EndPoint()),
	}
	switch {
	case n.IsMissing():
		doc["missing"] = true
	case n.IsError():
		doc["error"] = true
	}
	if n.ChildCount() == 0 {
		doc["text"] = n.Text()
		return doc
	}

	var children []any
	for child := range n.Children() {
		if tw.all || child.IsNamed() || child.IsMissing() {
			children = append(children, tw.nodeDoc(child))
		}
	}
	if children != nil {
		doc["children"] = children
	}
	return doc
}

func pointDoc(p source.Point) map[string]any {
	return map[string]any{"row": p.Row, "column": p.Column}
}

// truncate shortens text to at most limit grapheme clusters, marking the
// cut with an ellipsis.
func truncate(text string, limit int) string {
	if uniseg.GraphemeClusterCount(text) <= limit {
		return text
	}
	g := uniseg.NewGraphemes(text)
	var end int
	for range limit - 3 {
		g.Next()
		_, end = g.Positions()
	}
	return text[:end] + "..."
}
