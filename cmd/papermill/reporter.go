package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/willingc/papermill/internal/engine"
	"github.com/willingc/papermill/internal/progress"
	"github.com/willingc/papermill/internal/session"
)

// formatDuration formats a duration in a consistent, human-readable way.
// This ensures stable output regardless of Go version changes.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// barProgressListener renders the run as a single-line terminal bar on
// out. Between notebook start and the first cell event the kernel is
// still coming up, which shows as a spinner.
func barProgressListener(out io.Writer) engine.ProgressListener {
	var bar *progress.Bar
	var stopSpinner func()
	total := 0

	kernelUp := func() {
		if bar == nil {
			stopSpinner()
			bar = progress.NewBar(out, total)
		}
	}

	return func(event engine.ProgressEvent) {
		switch event.EventType {
		case engine.EventNotebookStart:
			total = event.TotalCells
			stopSpinner = progress.Spin(out, "Starting kernel...")
		case engine.EventCellStart:
			kernelUp()
			bar.Describe(fmt.Sprintf("cell %d/%d", event.CellIndex+1, event.TotalCells))
		case engine.EventCellComplete:
			kernelUp()
			label := fmt.Sprintf("cell %d/%d", event.CellIndex+1, event.TotalCells)
			if event.Status == string(engine.CellFailed) {
				label += " ✗"
			}
			bar.Step(label)
		case engine.EventCellSkipped:
			kernelUp()
			bar.Step(fmt.Sprintf("cell %d/%d skipped", event.CellIndex+1, event.TotalCells))
		case engine.EventNotebookComplete:
			// No cell event means the kernel never came up; there is
			// no progress to draw.
			if bar == nil {
				stopSpinner()
				return
			}
			bar.Finish()
		}
	}
}

// lineProgressListener prints one line per cell on out, the fallback when
// stderr is not a terminal. With logOutput set, each finished cell's text
// output is also streamed through slog, line by line.
func lineProgressListener(out io.Writer, logOutput bool) engine.ProgressListener {
	return func(event engine.ProgressEvent) {
		switch event.EventType {
		case engine.EventCellSkipped:
			fmt.Fprintf(out, "- [%d/%d] skipped\n", event.CellIndex+1, event.TotalCells)
		case engine.EventCellComplete:
			icon := "✓"
			if event.Status == string(engine.CellFailed) {
				icon = "✗"
			}
			fmt.Fprintf(out, "%s [%d/%d] (%s)\n", icon, event.CellIndex+1, event.TotalCells,
				formatDuration(time.Duration(event.DurationMs)*time.Millisecond))

			if ename := eventDetail(event, "ename"); ename != "" && icon == "✗" {
				fmt.Fprintf(out, "    %s: %s\n", ename, eventDetail(event, "evalue"))
			} else if msg := eventDetail(event, "error"); msg != "" {
				fmt.Fprintf(out, "    %s\n", msg)
			}

			if text := eventDetail(event, "text"); logOutput && text != "" {
				for line := range strings.SplitSeq(strings.TrimRight(text, "\n"), "\n") {
					slog.Info("cell output", "cell", event.CellIndex+1, "text", line)
				}
			}
		}
	}
}

// eventDetail returns a string detail of the event, or "" when absent.
func eventDetail(event engine.ProgressEvent, key string) string {
	s, _ := event.Details[key].(string)
	return s
}

// sessionBridge translates engine progress into run events on sink. It
// keeps its own executed/failed counters: a cell counts as executed once
// it started and finished, failed or not, and markdown cells never
// produce cell events at all.
func sessionBridge(sink session.Sink, inputRef, outputRef, kernelName string) engine.ProgressListener {
	executed, failed := 0, 0
	running := map[int]bool{}

	return func(event engine.ProgressEvent) {
		var ev session.Event
		switch event.EventType {
		case engine.EventNotebookStart:
			ev = session.NewEvent(session.EventRunStart,
				session.RunStartData(inputRef, outputRef, kernelName, event.TotalCells))
		case engine.EventCellStart:
			running[event.CellIndex] = true
			ev = session.NewEvent(session.EventCellStart,
				session.CellStartData(event.CellIndex, event.TotalCells))
		case engine.EventCellComplete:
			if !running[event.CellIndex] {
				return
			}
			delete(running, event.CellIndex)
			executed++
			if event.Status == string(engine.CellFailed) {
				failed++
			}
			ev = session.NewEvent(session.EventCellComplete,
				session.CellCompleteData(event.CellIndex, event.Status, event.DurationMs, eventDetail(event, "ename")))
		case engine.EventCellSkipped:
			ev = session.NewEvent(session.EventCellSkipped, session.CellSkippedData(event.CellIndex))
		case engine.EventNotebookComplete:
			ev = session.NewEvent(session.EventRunComplete,
				session.RunCompleteData(event.Status, executed, failed, event.DurationMs))
		default:
			return
		}

		if err := sink.Log(ev); err != nil {
			slog.Warn("execution log write failed", "error", err)
		}
	}
}

func printRunSummary(out io.Writer, res *engine.ExecutionResult, outputRef string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "="+strings.Repeat("=", 50))
	fmt.Fprintln(out, " EXECUTION RESULTS")
	fmt.Fprintln(out, "="+strings.Repeat("=", 50))
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Status:         %s\n", res.Status)
	fmt.Fprintf(out, "Cells executed: %d\n", res.ExecutedCells)
	fmt.Fprintf(out, "Duration:       %s\n", formatDuration(res.Duration))
	if outputRef != "" {
		fmt.Fprintf(out, "Output:         %s\n", outputRef)
	}
	if res.Err != nil {
		fmt.Fprintf(out, "Error:          %s\n", res.Err)
	}
	fmt.Fprintln(out)
}
