package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/willingc/papermill/internal/engine"
	"github.com/willingc/papermill/internal/kernel"
	"github.com/willingc/papermill/internal/nbformat"
	"github.com/willingc/papermill/internal/parameters"
	"github.com/willingc/papermill/internal/progress"
	"github.com/willingc/papermill/internal/session"
	"github.com/willingc/papermill/internal/storage"
	"github.com/willingc/papermill/internal/utils"
)

var (
	paramPairs   []string
	paramRaw     []string
	paramFiles   []string
	paramYAML    []string
	paramBase64  []string
	kernelName   string
	kernelsDirs  []string
	workingDir   string
	cellTimeout  time.Duration
	startTimeout time.Duration
	prepareOnly  bool
	progressBar  bool
	logOutput    bool
	executionLog string
	dumpStdout   bool
)

func newExecuteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <input> [output]",
		Short: "Execute a notebook with parameters",
		Long: `Execute a notebook with parameters.

Parameter values are injected into a copy of the input notebook, which then
runs cell by cell against a kernel. The executed notebook, outputs and all,
is written to the output ref after every cell, so partial results survive
failures. Input and output can be local paths, http(s) or abs:// URLs, or
"-" for the standard streams; omitting the output runs without saving.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: executeCommandE,
	}

	cmd.Flags().StringArrayVarP(&paramPairs, "parameters", "p", nil, "Parameter as name=value; the value's type is inferred (can be repeated)")
	cmd.Flags().StringArrayVarP(&paramRaw, "parameters-raw", "r", nil, "Parameter as name=value, keeping the value a string (can be repeated)")
	cmd.Flags().StringArrayVarP(&paramFiles, "parameters-file", "f", nil, "YAML file of parameters (can be repeated)")
	cmd.Flags().StringArrayVarP(&paramYAML, "parameters-yaml", "y", nil, "Inline YAML mapping of parameters (can be repeated)")
	cmd.Flags().StringArrayVarP(&paramBase64, "parameters-base64", "b", nil, "Base64-encoded YAML mapping of parameters (can be repeated)")
	cmd.Flags().StringVarP(&kernelName, "kernel", "k", "", "Kernel to run on (default: the notebook's own kernelspec)")
	cmd.Flags().StringArrayVar(&kernelsDirs, "kernels-dir", nil, "Additional kernelspec directory to search (can be repeated)")
	cmd.Flags().StringVar(&workingDir, "cwd", "", "Working directory for the kernel process")
	cmd.Flags().DurationVar(&cellTimeout, "cell-timeout", 0, "Per-cell execution timeout (0 means no limit)")
	cmd.Flags().DurationVar(&startTimeout, "startup-timeout", 60*time.Second, "Kernel startup timeout")
	cmd.Flags().BoolVar(&prepareOnly, "prepare-only", false, "Inject parameters and save without executing")
	cmd.Flags().BoolVar(&progressBar, "progress-bar", true, "Show cell progress (bar on a terminal, one line per cell otherwise)")
	cmd.Flags().BoolVar(&logOutput, "log-output", false, "Stream each cell's outputs through the logger as it finishes")
	cmd.Flags().StringVar(&executionLog, "execution-log", "", "Write an NDJSON event log to this file, or into this directory")
	cmd.Flags().BoolVar(&dumpStdout, "stdout", false, "Also write the executed notebook to stdout")

	return cmd
}

func executeCommandE(cmd *cobra.Command, args []string) error {
	inputRef := args[0]
	outputRef := ""
	if len(args) > 1 {
		outputRef = args[1]
	}

	// Keep stdout clean when the notebook itself goes there.
	infoOut := io.Writer(os.Stdout)
	if outputRef == storage.StdStream || dumpStdout {
		infoOut = os.Stderr
	}

	store := storage.NewRegistry()
	store.UseStdio(cmd.InOrStdin(), cmd.OutOrStdout())

	params, err := collectParameters(cmd.Context(), store)
	if err != nil {
		return err
	}

	opts := []engine.Option{engine.WithStore(store)}
	if len(kernelsDirs) > 0 {
		dirs := utils.ResolvePaths(kernelsDirs, workingDir)
		opts = append(opts, engine.WithSpecDirs(append(dirs, kernel.DefaultSpecDirs()...)))
	}
	if cellTimeout > 0 {
		opts = append(opts, engine.WithCellTimeout(cellTimeout))
	}
	if startTimeout > 0 {
		opts = append(opts, engine.WithStartupTimeout(startTimeout))
	}
	runner := engine.NewRunner(opts...)

	req := &engine.ExecuteRequest{
		InputRef:    inputRef,
		OutputRef:   outputRef,
		Parameters:  params,
		KernelName:  kernelName,
		WorkingDir:  workingDir,
		PrepareOnly: prepareOnly,
	}

	if prepareOnly {
		res, err := runner.ExecuteNotebook(cmd.Context(), req)
		if err != nil {
			return err
		}
		if outputRef != "" {
			fmt.Fprintf(infoOut, "Prepared notebook saved to: %s\n", outputRef)
		}
		return dumpNotebook(cmd.OutOrStdout(), res)
	}

	runner.OnProgress(utils.ProgressToSlog)
	switch {
	case logOutput:
		runner.OnProgress(lineProgressListener(infoOut, true))
	case progressBar && progress.IsTerminal(os.Stderr):
		runner.OnProgress(barProgressListener(os.Stderr))
	case progressBar:
		runner.OnProgress(lineProgressListener(infoOut, false))
	}

	var logPath string
	if executionLog != "" {
		sink, err := openExecutionLog(executionLog)
		if err != nil {
			return err
		}
		defer sink.Close() //nolint:errcheck
		logPath = sink.Path()
		runner.OnProgress(sessionBridge(sink, inputRef, outputRef, kernelName))
	}

	// SIGINT and SIGTERM cancel the run; the engine interrupts the kernel
	// and the partial notebook still reaches the output ref.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(infoOut, "Executing: %s\n", inputRef)
	if params.Len() > 0 {
		fmt.Fprintf(infoOut, "Parameters: %s\n", strings.Join(params.Keys(), ", "))
	}
	if kernelName != "" {
		fmt.Fprintf(infoOut, "Kernel: %s\n", kernelName)
	}
	fmt.Fprintln(infoOut)

	res, err := runner.ExecuteNotebook(ctx, req)
	if res == nil {
		return err
	}

	printRunSummary(infoOut, res, outputRef)
	if logPath != "" {
		fmt.Fprintf(infoOut, "Execution log: %s\n", logPath)
	}

	if derr := dumpNotebook(cmd.OutOrStdout(), res); derr != nil && err == nil {
		err = derr
	}
	return err
}

// collectParameters merges every parameter source in precedence order:
// base64 blobs, files, inline YAML, -p pairs, then -r raw pairs, with
// later sources winning name by name. Parameter files are read through
// the storage registry, so they can come from URLs too.
func collectParameters(ctx context.Context, store *storage.Registry) (*parameters.Map, error) {
	merged := parameters.New()

	for _, encoded := range paramBase64 {
		m, err := parameters.ParseBase64(encoded)
		if err != nil {
			return nil, fmt.Errorf("--parameters-base64: %w", err)
		}
		merged.Merge(m)
	}
	for _, ref := range paramFiles {
		data, err := store.Read(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("reading parameters file: %w", err)
		}
		m, err := parameters.ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		merged.Merge(m)
	}
	for _, doc := range paramYAML {
		m, err := parameters.ParseYAML([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("--parameters-yaml: %w", err)
		}
		merged.Merge(m)
	}

	m, err := parameters.ParsePairs(paramPairs, false)
	if err != nil {
		return nil, err
	}
	merged.Merge(m)

	m, err = parameters.ParsePairs(paramRaw, true)
	if err != nil {
		return nil, err
	}
	merged.Merge(m)

	return merged, nil
}

// openExecutionLog opens the NDJSON sink, generating a timestamped file
// name when the flag points at a directory.
func openExecutionLog(path string) (*session.JSONLSink, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = session.DefaultLogPath(path)
	}
	return session.NewJSONLSink(path)
}

// dumpNotebook writes the executed notebook to out when --stdout is set.
func dumpNotebook(out io.Writer, res *engine.ExecutionResult) error {
	if !dumpStdout || res == nil || res.Notebook == nil {
		return nil
	}
	data, err := nbformat.Serialize(res.Notebook)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
