package engine

import (
	"time"

	"github.com/willingc/papermill/internal/nbformat"
)

// Status is the terminal state of one notebook run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
	// StatusInterrupted means the caller canceled the run, as opposed to a
	// cell failing on its own.
	StatusInterrupted Status = "interrupted"
)

// ExecutionResult is what one run produced. Notebook holds executed state
// up to wherever the run stopped, whatever the status.
type ExecutionResult struct {
	Notebook      *nbformat.Notebook
	Status        Status
	ExecutedCells int
	Duration      time.Duration
	// Err is the error the run ended with, nil when Status is
	// StatusSucceeded.
	Err error
}
