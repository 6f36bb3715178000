package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/willingc/papermill/internal/nbformat"
	"github.com/willingc/papermill/internal/parameters"
	"github.com/willingc/papermill/internal/storage"
	"github.com/willingc/papermill/internal/translators"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <notebook>",
		Short: "Show the parameters a notebook accepts",
		Long: `Show the parameters a notebook accepts.

The parameters cell's assignments are scanned for names, defaults, type
annotations, and trailing comments, which become the help text. The
notebook can be a local path or a URL.`,
		Args: cobra.ExactArgs(1),
		RunE: inspectCommandE,
	}
	return cmd
}

func inspectCommandE(cmd *cobra.Command, args []string) error {
	ref := args[0]
	out := cmd.OutOrStdout()

	store := storage.NewRegistry()
	data, err := store.Read(cmd.Context(), ref)
	if err != nil {
		return fmt.Errorf("reading %s: %w", ref, err)
	}
	nb, err := nbformat.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", ref, err)
	}

	fmt.Fprintf(out, "Notebook: %s\n", nbformat.DisplayTitle(nb, ref))
	if ks, ok := nb.Kernelspec(); ok {
		fmt.Fprintf(out, "Kernel:   %s\n", ks.Name)
	}
	fmt.Fprintf(out, "Language: %s\n", nb.Language())
	fmt.Fprintf(out, "Cells:    %d (%d code)\n", len(nb.Cells), nb.CodeCellCount())
	fmt.Fprintln(out)

	inferred := inferParameters(nb)
	if len(inferred) == 0 {
		fmt.Fprintln(out, "No cell tagged 'parameters' declares any parameters.")
		return nil
	}

	fmt.Fprintf(out, "%-20s %-12s %-16s %s\n", "Name", "Type", "Default", "Help")
	fmt.Fprintln(out, "─"+strings.Repeat("─", 64))
	for _, p := range inferred {
		fmt.Fprintf(out, "%-20s %-12s %-16s %s\n", p.Name, orDash(p.Type), orDash(p.Default), p.Help)
	}
	return nil
}

// inferParameters scans the notebook's parameters cell for assignments.
// Languages without a registered translator still get scanned with "#"
// comments, which covers most notebook kernels.
func inferParameters(nb *nbformat.Notebook) []parameters.InferredParameter {
	cell := nbformat.ParametersCell(nb)
	if cell == nil {
		return nil
	}

	name := ""
	if ks, ok := nb.Kernelspec(); ok {
		name = ks.Name
	}
	prefix := "#"
	if tr, err := translators.Default.Find(name, nb.Language()); err == nil {
		prefix = tr.CommentPrefix()
	}

	return parameters.Infer(cell.Source.String(), prefix)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
