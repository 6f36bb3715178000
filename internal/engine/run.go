package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/willingc/papermill/internal/kernel"
	"github.com/willingc/papermill/internal/nbformat"
)

// recordKey is the metadata key execution records live under, on both the
// notebook and each cell.
const recordKey = "papermill"

// CellStatus is an execution state recorded under metadata.papermill on
// each cell.
type CellStatus string

// CellStatus constants.
const (
	CellPending   CellStatus = "pending"
	CellRunning   CellStatus = "running"
	CellCompleted CellStatus = "completed"
	CellFailed    CellStatus = "failed"
	CellSkipped   CellStatus = "skipped"
)

// PersistFunc saves the notebook's current state. The engine calls it
// once before the first cell runs, after every executed cell, and once
// more when the run ends, so observers always see fresh partial results.
type PersistFunc func(nb *nbformat.Notebook) error

// RunRequest describes one notebook execution.
type RunRequest struct {
	Notebook *nbformat.Notebook
	Spec     *kernel.Spec
	Persist  PersistFunc // optional
}

// Run executes every code cell in order against a fresh kernel. The
// result's notebook always reflects whatever executed, including on
// failure; the error reports the first cell exception, timeout, or kernel
// fault. Cells tagged raises-exception keep the run going when they fail,
// and cells tagged skip are not executed at all. The kernel is shut down
// on every path out.
func (r *Runner) Run(ctx context.Context, req *RunRequest) (*ExecutionResult, error) {
	started := time.Now()
	nb := startRecords(req.Notebook, started)
	total := len(nb.Cells)

	r.notifyProgress(ProgressEvent{EventType: EventNotebookStart, TotalCells: total})
	r.autosave(nb, req.Persist)

	sess, err := r.startKernel(ctx, req.Spec, r.startupTimeout)
	if err != nil {
		// The output still gets the stamped, never-executed notebook.
		finishRecords(nb, started)
		r.autosave(nb, req.Persist)
		return r.finish(nb, total, started, 0, StatusFailed, err)
	}
	defer func() {
		// Reap the kernel even when the caller's context is gone.
		if err := sess.Shutdown(context.Background()); err != nil {
			slog.Warn("kernel shutdown failed", "error", err)
		}
	}()

	rec := notebookRecord(nb)
	executionCount := 0
	status := StatusSucceeded
	var runErr error

	for i := range nb.Cells {
		cell := &nb.Cells[i]
		if !cell.IsCode() {
			r.notifyProgress(ProgressEvent{
				EventType: EventCellComplete, CellIndex: i, TotalCells: total, Status: string(CellCompleted),
			})
			continue
		}
		if cell.HasTag(nbformat.TagSkip) || cell.Options().Skip {
			markSkipped(cell)
			r.notifyProgress(ProgressEvent{
				EventType: EventCellSkipped, CellIndex: i, TotalCells: total, Status: string(CellSkipped),
			})
			continue
		}

		cellStart := time.Now()
		markRunning(cell, cellStart)
		r.notifyProgress(ProgressEvent{
			EventType: EventCellStart, CellIndex: i, TotalCells: total, Status: string(CellRunning),
		})

		res, execErr := r.executeCell(ctx, sess, cell.Source.String())
		finished := time.Now()

		if execErr != nil {
			switch {
			case ctx.Err() != nil:
				// The caller canceled. Stop the kernel's work; the cell
				// keeps its running record, mid-flight is what it was.
				if err := sess.Interrupt(); err != nil {
					slog.Warn("kernel interrupt failed", "error", err)
				}
				status = StatusInterrupted
				runErr = fmt.Errorf("interrupted at cell %d: %w", i+1, ctx.Err())
			case errors.Is(execErr, context.DeadlineExceeded):
				// The cell's own deadline fired, not the caller's context.
				if err := sess.Interrupt(); err != nil {
					slog.Warn("kernel interrupt failed", "error", err)
				}
				markFailed(cell, cellStart, finished)
				rec["exception"] = true
				status = StatusTimedOut
				runErr = &CellTimeoutError{CellIndex: i, Timeout: r.cellTimeout}
			default:
				markFailed(cell, cellStart, finished)
				rec["exception"] = true
				status = StatusFailed
				runErr = execErr
			}
			r.notifyProgress(ProgressEvent{
				EventType: EventCellComplete, CellIndex: i, TotalCells: total,
				Status: string(CellFailed), DurationMs: finished.Sub(cellStart).Milliseconds(),
				Details: map[string]any{"error": runErr.Error()},
			})
			break
		}

		executionCount++
		count := executionCount
		cell.ExecutionCount = &count
		cell.Outputs = res.Outputs

		if res.Errored() {
			if cell.HasTag(nbformat.TagRaisesException) {
				// The notebook declared this failure expected.
				markCompleted(cell, cellStart, finished)
				r.notifyProgress(ProgressEvent{
					EventType: EventCellComplete, CellIndex: i, TotalCells: total,
					Status: string(CellCompleted), DurationMs: finished.Sub(cellStart).Milliseconds(),
					Details: map[string]any{"ename": res.EName, "evalue": res.EValue},
				})
				r.autosave(nb, req.Persist)
				continue
			}

			markFailed(cell, cellStart, finished)
			rec["exception"] = true
			status = StatusFailed
			runErr = &CellExecutionError{
				CellIndex: i,
				EName:     res.EName,
				EValue:    res.EValue,
				Traceback: res.Traceback,
			}
			r.notifyProgress(ProgressEvent{
				EventType: EventCellComplete, CellIndex: i, TotalCells: total,
				Status: string(CellFailed), DurationMs: finished.Sub(cellStart).Milliseconds(),
				Details: map[string]any{"ename": res.EName, "evalue": res.EValue},
			})
			break
		}

		markCompleted(cell, cellStart, finished)
		event := ProgressEvent{
			EventType: EventCellComplete, CellIndex: i, TotalCells: total,
			Status: string(CellCompleted), DurationMs: finished.Sub(cellStart).Milliseconds(),
		}
		if text := outputText(res.Outputs); text != "" {
			event.Details = map[string]any{"text": text}
		}
		r.notifyProgress(event)
		r.autosave(nb, req.Persist)
	}

	finishRecords(nb, started)

	if req.Persist != nil {
		if err := req.Persist(nb); err != nil {
			if runErr == nil {
				status = StatusFailed
				runErr = fmt.Errorf("saving executed notebook: %w", err)
			} else {
				slog.Warn("saving executed notebook failed", "error", err)
			}
		}
	}

	return r.finish(nb, total, started, executionCount, status, runErr)
}

// finish emits the closing progress event and packages the result.
func (r *Runner) finish(nb *nbformat.Notebook, total int, started time.Time, executed int, status Status, runErr error) (*ExecutionResult, error) {
	res := &ExecutionResult{
		Notebook:      nb,
		Status:        status,
		ExecutedCells: executed,
		Duration:      time.Since(started),
		Err:           runErr,
	}
	event := ProgressEvent{
		EventType: EventNotebookComplete, TotalCells: total,
		Status: string(status), DurationMs: res.Duration.Milliseconds(),
	}
	if runErr != nil {
		event.Details = map[string]any{"error": runErr.Error()}
	}
	r.notifyProgress(event)
	return res, runErr
}

// executeCell runs one cell's code under the per-cell time budget.
func (r *Runner) executeCell(ctx context.Context, sess Kernel, code string) (*kernel.ExecuteResult, error) {
	if r.cellTimeout > 0 {
		cellCtx, cancel := context.WithTimeout(ctx, r.cellTimeout)
		defer cancel()
		return sess.Execute(cellCtx, code)
	}
	return sess.Execute(ctx, code)
}

// autosave persists intermediate state. Failures are logged, not fatal: a
// broken autosave should not abort an otherwise healthy run.
func (r *Runner) autosave(nb *nbformat.Notebook, save PersistFunc) {
	if save == nil {
		return
	}
	if err := save(nb); err != nil {
		slog.Warn("notebook autosave failed", "error", err)
	}
}

// startRecords copies the notebook and stamps it the way a fresh run
// should look: code cells lose their outputs and counters and start
// pending, text cells are complete from the start.
func startRecords(src *nbformat.Notebook, started time.Time) *nbformat.Notebook {
	nb := *src
	nb.Cells = make([]nbformat.Cell, len(src.Cells))
	copy(nb.Cells, src.Cells)
	nb.Metadata = cloneMeta(src.Metadata)

	// A fresh record map, so the caller's notebook is never written to.
	rec := map[string]any{}
	if old, ok := nb.Metadata[recordKey].(map[string]any); ok {
		maps.Copy(rec, old)
	}
	rec["start_time"] = stamp(started)
	rec["exception"] = false
	nb.Metadata[recordKey] = rec

	for i := range nb.Cells {
		cell := &nb.Cells[i]
		cell.Metadata = cloneMeta(cell.Metadata)
		status := CellCompleted
		if cell.IsCode() {
			cell.Outputs = nil
			cell.ExecutionCount = nil
			status = CellPending
		}

		// Reset the record fields while keeping cell options like skip,
		// which live under the same key.
		cellRec := map[string]any{}
		if old, ok := cell.Metadata[recordKey].(map[string]any); ok {
			maps.Copy(cellRec, old)
		}
		cellRec["exception"] = false
		cellRec["start_time"] = nil
		cellRec["end_time"] = nil
		cellRec["duration"] = nil
		cellRec["status"] = string(status)
		cell.Metadata[recordKey] = cellRec
	}
	return &nb
}

func finishRecords(nb *nbformat.Notebook, started time.Time) {
	end := time.Now()
	rec := notebookRecord(nb)
	rec["end_time"] = stamp(end)
	rec["duration"] = end.Sub(started).Seconds()
}

// notebookRecord returns the notebook's papermill record, creating it if
// needed. The notebook's metadata must already be safe to mutate.
func notebookRecord(nb *nbformat.Notebook) map[string]any {
	if nb.Metadata == nil {
		nb.Metadata = map[string]any{}
	}
	if rec, ok := nb.Metadata[recordKey].(map[string]any); ok {
		return rec
	}
	rec := map[string]any{}
	nb.Metadata[recordKey] = rec
	return rec
}

func cellRecord(c *nbformat.Cell) map[string]any {
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	if rec, ok := c.Metadata[recordKey].(map[string]any); ok {
		return rec
	}
	rec := map[string]any{}
	c.Metadata[recordKey] = rec
	return rec
}

func markRunning(c *nbformat.Cell, start time.Time) {
	rec := cellRecord(c)
	rec["start_time"] = stamp(start)
	rec["status"] = string(CellRunning)
}

func markCompleted(c *nbformat.Cell, start, end time.Time) {
	rec := cellRecord(c)
	rec["end_time"] = stamp(end)
	rec["duration"] = end.Sub(start).Seconds()
	rec["status"] = string(CellCompleted)
}

func markFailed(c *nbformat.Cell, start, end time.Time) {
	rec := cellRecord(c)
	rec["end_time"] = stamp(end)
	rec["duration"] = end.Sub(start).Seconds()
	rec["exception"] = true
	rec["status"] = string(CellFailed)
}

func markSkipped(c *nbformat.Cell) {
	rec := cellRecord(c)
	rec["status"] = string(CellSkipped)
}

func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func outputText(outputs []nbformat.Output) string {
	var sb strings.Builder
	for i := range outputs {
		sb.WriteString(outputs[i].PlainText())
	}
	return sb.String()
}
