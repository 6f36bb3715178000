package kernel

import (
	"fmt"
	"time"
)

// StartupError means the kernel never became ready: it failed to launch,
// exited during startup, or missed the startup deadline.
type StartupError struct {
	Timeout time.Duration // set when the startup deadline elapsed
	Err     error
}

func (e *StartupError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("kernel did not become ready within %s", e.Timeout)
	}
	return fmt.Sprintf("kernel failed to start: %v", e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// DeadError means the kernel process exited while work was still expected
// from it.
type DeadError struct {
	Err error
}

func (e *DeadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kernel died unexpectedly: %v", e.Err)
	}
	return "kernel died unexpectedly"
}

func (e *DeadError) Unwrap() error { return e.Err }
