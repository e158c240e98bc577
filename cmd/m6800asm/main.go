/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify it
under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful, but
WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public
License along with this program. If not, see
<http://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdxjjb/m6800asm/internal/config"
	"github.com/pdxjjb/m6800asm/pkg/asm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "m6800asm",
		Short: "m6800asm — a two-pass assembler for the Motorola 6800",
	}

	var configPath string
	var outPath string
	var originFlag uint16

	assembleCmd := &cobra.Command{
		Use:   "assemble [source.asm]",
		Short: "Assemble a 6800 source file into machine code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			origin := cfg.Assemble.OriginAddress
			if cmd.Flags().Changed("origin") {
				origin = originFlag
			}

			source, err := os.ReadFile(args[0]) // #nosec G304 -- user-specified source path
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			a := asm.New(string(source), origin)
			code, _, err := a.Assemble()
			if err != nil {
				return fatal(err)
			}

			if outPath == "" {
				outPath = args[0] + ".bin"
			}
			if err := os.WriteFile(outPath, code, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Printf("%s: %d bytes -> %s\n", args[0], len(code), outPath)
			return nil
		},
	}
	assembleCmd.Flags().StringVar(&configPath, "config", "m6800asm.toml", "Path to config file")
	assembleCmd.Flags().StringVarP(&outPath, "o", "o", "", "Output file path (default: <source>.bin)")
	assembleCmd.Flags().Uint16Var(&originFlag, "origin", 0, "Program counter origin address, overrides config")

	rootCmd.AddCommand(assembleCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// fatal wraps an assembly-time error (parser.Error, translate.ModeError,
// or translate.ErrDisplacementRange) for display, the CLI-layer successor
// to the teacher's fatal()/os.Exit pattern, now a returned RunE error.
func fatal(err error) error {
	return fmt.Errorf("assembly failed: %w", err)
}
