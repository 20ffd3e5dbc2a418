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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bufbuild/dmlparse/dml"
)

func getGrammarCmd(c *rootCommand) *cobra.Command {
	var conflicts, productions bool
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "describe the DML grammar",
		Long: `Grammar prints the node types that can appear in DML syntax trees as YAML.
With --conflicts it prints the parse table conflicts that precedence did not
resolve instead, and with --productions every production of the grammar.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if conflicts && productions {
				return errors.New("--conflicts and --productions cannot be used together")
			}
			table := dml.Table()
			w := c.gs.stdout
			switch {
			case conflicts:
				list := table.Conflicts()
				for _, conflict := range list {
					fmt.Fprintln(w, table.FormatConflict(conflict))
				}
				c.gs.logger.WithField("conflicts", len(list)).Debug("listed conflicts")
			case productions:
				for i := range table.Productions() {
					fmt.Fprintf(w, "%4d  %s\n", i, table.FormatProduction(i))
				}
			default:
				data, err := dml.NodeTypesYAML()
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&conflicts, "conflicts", false, "print unresolved conflicts")
	cmd.Flags().BoolVar(&productions, "productions", false, "print the productions")
	return cmd
}
