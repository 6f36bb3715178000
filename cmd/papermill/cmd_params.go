package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/willingc/papermill/internal/nbformat"
	"github.com/willingc/papermill/internal/storage"
	"github.com/willingc/papermill/internal/wizard"
)

func newParamsCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "params <notebook>",
		Short: "Interactively build a parameters file for a notebook",
		Long: `Interactively build a parameters file for a notebook.

Each parameter found in the notebook's parameters cell becomes a form
field pre-filled with its default. The answers are written as a YAML
mapping ready for 'papermill execute -f'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := args[0]

			store := storage.NewRegistry()
			data, err := store.Read(cmd.Context(), ref)
			if err != nil {
				return fmt.Errorf("reading %s: %w", ref, err)
			}
			nb, err := nbformat.Parse(data)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", ref, err)
			}

			inferred := inferParameters(nb)
			if len(inferred) == 0 {
				return fmt.Errorf("%s has no cell tagged 'parameters'", ref)
			}

			params, err := wizard.RunParamsWizard(cmd.InOrStdin(), cmd.OutOrStdout(), inferred)
			if err != nil {
				return err
			}

			rendered, err := wizard.GenerateYAML(params)
			if err != nil {
				return err
			}

			if outputPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			}
			if err := os.WriteFile(outputPath, []byte(rendered), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outputPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Parameters written to: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the parameters YAML to this file (default: stdout)")

	return cmd
}
