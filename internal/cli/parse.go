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

	"github.com/spf13/cobra"

	"github.com/bufbuild/dmlparse/report"
)

func getParseCmd(c *rootCommand) *cobra.Command {
	tw := &treeWriter{}
	var compact bool
	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "print the syntax trees of DML files",
		Long: `Parse prints the syntax tree of every file. Files are paths or doublestar
patterns such as "src/**/*.dml". Syntax errors are printed to stderr, and
make the command exit with status 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch tw.format {
			case formatSExpr, formatTree, formatYAML, formatJSON:
			default:
				return fmt.Errorf("unknown format %q", tw.format)
			}

			files, hadErrors, err := c.load(args)
			if err != nil {
				return err
			}

			tw.out = c.gs.stdout
			tw.styles = c.styles
			for _, file := range files {
				if err := tw.write(file, len(files) > 1); err != nil {
					return err
				}
			}
			if err := tw.close(); err != nil {
				return err
			}

			if !hadErrors {
				return nil
			}
			renderer := report.Renderer{Compact: compact, Colorize: c.colorizeStderr()}
			for _, file := range files {
				if _, _, err := renderer.Render(&file.Diagnostics, c.gs.stderr); err != nil {
					return err
				}
			}
			return ExitCode{error: errSyntax, Code: exitSyntax}
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&tw.format, "format", "f", formatSExpr, "output format: sexp, tree, yaml or json")
	flags.BoolVarP(&tw.all, "all", "a", false, "include anonymous nodes")
	flags.IntVar(&tw.depth, "depth", 0, "maximum depth printed by the tree format (0 for no limit)")
	flags.BoolVar(&compact, "compact", false, "print each syntax error on one line")
	return cmd
}
