package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papermill",
		Short: "Papermill - parameterize and execute Jupyter notebooks",
		Long: `Papermill parameterizes and executes Jupyter notebooks.

It injects parameter values into a copy of a notebook, runs it cell by
cell against a Jupyter kernel, and writes a new notebook containing the
outputs and execution records of the run.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newExecuteCommand())
	cmd.AddCommand(newInspectCommand())
	cmd.AddCommand(newParamsCommand())
	cmd.AddCommand(newKernelsCommand())
	cmd.AddCommand(newLogsCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
