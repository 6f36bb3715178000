package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/willingc/papermill/internal/kernel"
)

func newKernelsCommand() *cobra.Command {
	var dirs []string

	cmd := &cobra.Command{
		Use:   "kernels",
		Short: "List resolvable kernelspecs",
		Long: `List resolvable kernelspecs.

Kernelspecs are found under the configured search directories, the
PAPERMILL_KERNELS_DIR environment variable, and the usual Jupyter data
locations, with built-in Python specs filling any gaps.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			specs, err := kernel.ListSpecs(append(dirs, kernel.DefaultSpecDirs()...))
			if err != nil {
				return fmt.Errorf("listing kernelspecs: %w", err)
			}
			if len(specs) == 0 {
				fmt.Fprintln(out, "No kernelspecs found.")
				return nil
			}

			fmt.Fprintf(out, "%-16s %-20s %-10s %s\n", "Name", "Display Name", "Language", "Command")
			fmt.Fprintln(out, "─"+strings.Repeat("─", 70))
			for _, name := range slices.Sorted(maps.Keys(specs)) {
				s := specs[name]
				fmt.Fprintf(out, "%-16s %-20s %-10s %s\n", name, s.DisplayName, s.Language, strings.Join(s.Argv, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&dirs, "kernels-dir", nil, "Additional kernelspec directory to search (can be repeated)")

	return cmd
}
