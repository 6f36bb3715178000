package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/willingc/papermill/internal/engine"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // Notebook executed to completion
	ExitCellError = 1 // The run stopped partway; the output notebook was still written
	ExitError     = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code. Cell failures,
		// timeouts, and interrupted runs all leave a persisted notebook
		// behind.
		var cellErr *engine.CellExecutionError
		var timeoutErr *engine.CellTimeoutError
		if errors.As(err, &cellErr) || errors.As(err, &timeoutErr) || errors.Is(err, context.Canceled) {
			os.Exit(ExitCellError)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
