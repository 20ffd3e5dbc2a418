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
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/bufbuild/dmlparse/dml"
	"github.com/bufbuild/dmlparse/query"
	"github.com/bufbuild/dmlparse/workspace"
)

func getStatsCmd(c *rootCommand) *cobra.Command {
	var types bool
	cmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "summarize the contents of DML files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, _, err := c.load(args)
			if err != nil {
				return err
			}
			for i, file := range files {
				if i > 0 {
					fmt.Fprintln(c.gs.stdout)
				}
				c.printStats(c.gs.stdout, file, types)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&types, "types", "t", false, "also count every node type")
	return cmd
}

func (c *rootCommand) printStats(w io.Writer, file *workspace.File, types bool) {
	root := file.Tree.Root()
	counts := query.Count(root)
	imports := query.Imports(file.Tree)
	label := c.styles.label.Sprint

	c.styles.header.Fprintf(w, "=== %s ===\n", file.Path)
	fmt.Fprintf(w, "%s %s\n", label("Root node type:"), root.Type())
	fmt.Fprintf(w, "%s %d\n", label("Number of children:"), root.ChildCount())
	fmt.Fprintf(w, "%s %t\n", label("Parse errors:"), root.HasError())

	fmt.Fprintln(w, "\nStatistics:")
	for _, row := range []struct {
		name string
		n    int
	}{
		{"Devices", counts[dml.TypeDeviceDeclaration]},
		{"Registers", counts[dml.TypeRegisterDeclaration]},
		{"Fields", counts[dml.TypeFieldDeclaration]},
		{"Methods", counts[dml.TypeMethodDeclaration]},
		{"Imports", len(imports)},
	} {
		fmt.Fprintf(w, "  %s %d\n", label(row.name+":"), row.n)
	}

	if len(imports) > 0 {
		fmt.Fprintln(w, "\nImport Statements:")
		for i, imp := range imports {
			fmt.Fprintf(w, "  %d. %s\n", i+1, imp.Path)
		}
	}

	if types {
		fmt.Fprintln(w, "\nNode Types:")
		for _, typ := range slices.Sorted(maps.Keys(counts)) {
			fmt.Fprintf(w, "  %s %d\n", label(typ+":"), counts[typ])
		}
	}
}
