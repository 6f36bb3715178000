package engine

import (
	"fmt"
	"time"
)

// CellExecutionError reports that a cell raised an exception the notebook
// did not declare as expected. CellIndex is the cell's zero-based position
// in the notebook.
type CellExecutionError struct {
	CellIndex int
	EName     string
	EValue    string
	Traceback []string
}

func (e *CellExecutionError) Error() string {
	if e.EValue != "" {
		return fmt.Sprintf("cell %d raised %s: %s", e.CellIndex+1, e.EName, e.EValue)
	}
	return fmt.Sprintf("cell %d raised %s", e.CellIndex+1, e.EName)
}

// CellTimeoutError reports that a cell was still running when its time
// budget ran out. The kernel has been interrupted by the time callers see
// this.
type CellTimeoutError struct {
	CellIndex int
	Timeout   time.Duration
}

func (e *CellTimeoutError) Error() string {
	return fmt.Sprintf("cell %d did not finish within %s", e.CellIndex+1, e.Timeout)
}
