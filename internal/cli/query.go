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
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/bufbuild/dmlparse/query"
)

func getQueryCmd(c *rootCommand) *cobra.Command {
	var count bool
	cmd := &cobra.Command{
		Use:   "query PATTERN FILE...",
		Short: "find nodes matching a shape pattern",
		Long: `Query prints every node that matches PATTERN. A pattern is an S-expression
such as

    (register_declaration (identifier) @name)

where a bare word matches a named node of that type, a quoted string an
anonymous node with that text, _ any named node and * any remaining
children. @name captures the node before it.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := query.Compile(args[0])
			if err != nil {
				return fmt.Errorf("invalid pattern: %w", err)
			}
			files, _, err := c.load(args[1:])
			if err != nil {
				return err
			}
			c.warnSyntax(files)

			w := c.gs.stdout
			for _, file := range files {
				var n int
				for m := range pattern.FindAll(file.Tree.Root()) {
					n++
					if count {
						continue
					}
					fmt.Fprintf(w, "%s: %s %q\n",
						c.styles.path.Sprint(m.Node.Span()),
						c.styles.typ.Sprint(m.Node.Type()),
						truncate(m.Node.Text(), maxTextLen))
					for _, name := range slices.Sorted(maps.Keys(m.Captures)) {
						node := m.Captures[name]
						fmt.Fprintf(w, "  %s %s: %q\n",
							c.styles.label.Sprint("@"+name),
							c.styles.path.Sprint(node.Span()),
							truncate(node.Text(), maxTextLen))
					}
				}
				if count {
					fmt.Fprintf(w, "%s: %d\n", c.styles.path.Sprint(file.Path), n)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&count, "count", false, "only print the number of matches in each file")
	return cmd
}

func getImportsCmd(c *rootCommand) *cobra.Command {
	var unique bool
	cmd := &cobra.Command{
		Use:   "imports FILE...",
		Short: "list the files DML files import",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, _, err := c.load(args)
			if err != nil {
				return err
			}
			c.warnSyntax(files)

			w := c.gs.stdout
			seen := make(map[string]bool)
			for _, file := range files {
				for _, imp := range query.Imports(file.Tree) {
					switch {
					case !unique:
						fmt.Fprintf(w, "%s: %s\n", c.styles.path.Sprint(imp.Span), imp.Path)
					case !seen[imp.Path]:
						seen[imp.Path] = true
					}
				}
			}
			if unique {
				for _, path := range slices.Sorted(maps.Keys(seen)) {
					fmt.Fprintln(w, path)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&unique, "unique", "u", false, "print each imported path once, sorted")
	return cmd
}
