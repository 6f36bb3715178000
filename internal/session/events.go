package session

import "time"

// EventType identifies the kind of run event.
type EventType string

const (
	EventRunStart     EventType = "run_start"
	EventRunComplete  EventType = "run_complete"
	EventCellStart    EventType = "cell_start"
	EventCellComplete EventType = "cell_complete"
	EventCellSkipped  EventType = "cell_skipped"
	EventError        EventType = "error"
)

// Event is a single timestamped entry in an execution log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// RunStartData returns event data for the start of a notebook run.
func RunStartData(inputPath, outputPath, kernelName string, totalCells int) map[string]any {
	return map[string]any{
		"input_path":  inputPath,
		"output_path": outputPath,
		"kernel":      kernelName,
		"total_cells": totalCells,
	}
}

// RunCompleteData returns event data for the end of a notebook run.
func RunCompleteData(status string, executed, failed int, durationMs int64) map[string]any {
	return map[string]any{
		"status":      status,
		"executed":    executed,
		"failed":      failed,
		"duration_ms": durationMs,
	}
}

// CellStartData returns event data for one cell beginning execution.
func CellStartData(index, totalCells int) map[string]any {
	return map[string]any{
		"cell_index":  index,
		"total_cells": totalCells,
	}
}

// CellCompleteData returns event data for one cell finishing.
func CellCompleteData(index int, status string, durationMs int64, ename string) map[string]any {
	d := map[string]any{
		"cell_index":  index,
		"status":      status,
		"duration_ms": durationMs,
	}
	if ename != "" {
		d["ename"] = ename
	}
	return d
}

// CellSkippedData returns event data for a cell the run passed over.
func CellSkippedData(index int) map[string]any {
	return map[string]any{
		"cell_index": index,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}
