package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/willingc/papermill/internal/session"
)

func newLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View recorded execution logs",
		Long: `View recorded execution logs.

Execution logs are NDJSON files written during runs when --execution-log
is given. They record the full lifecycle: run start, per-cell execution,
skips, and completion.`,
	}

	cmd.AddCommand(newLogsListCommand())
	cmd.AddCommand(newLogsViewCommand())

	return cmd
}

func newLogsListCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List execution logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			files, err := session.ListLogs(absDir)
			if err != nil {
				return fmt.Errorf("listing execution logs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No execution logs found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s %-8s %s\n", "File", "Events", "Modified")
			fmt.Fprintln(out, "─────────────────────────────────────────────────────────────────")
			for _, f := range files {
				fmt.Fprintf(out, "%-40s %-8d %s\n", f.Name, f.NumEvents, f.ModTime.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to search for execution logs")

	return cmd
}

func newLogsViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <log-file>",
		Short: "View an execution timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := session.ReadEvents(args[0])
			if err != nil {
				return fmt.Errorf("reading execution log: %w", err)
			}

			session.RenderTimeline(cmd.OutOrStdout(), events)
			return nil
		},
	}

	return cmd
}
