package cli

import (
	"errors"
	"fmt"
)

// DefaultOverrunExitCode is used by --fail-on-overrun when --exit-code is not set.
const DefaultOverrunExitCode = 2

// Exit statuses --exit-code accepts. 0 would report success for a failed run.
const (
	minExitCode = 1
	maxExitCode = 255
)

// ErrInvalidExitCode is returned when --exit-code is outside 1-255.
var ErrInvalidExitCode = errors.New("exit code must be between 1 and 255")

// OverrunExitError signals that a run overran its frame budget and the process
// should exit with ExitCode. main extracts it with errors.As.
type OverrunExitError struct {
	ExitCode int
	Reason   string
}

// Error implements error.
func (e *OverrunExitError) Error() string {
	return fmt.Sprintf("frame budget overrun: %s (exit code %d)", e.Reason, e.ExitCode)
}

func validateExitCode(code int) error {
	if code < minExitCode || code > maxExitCode {
		return fmt.Errorf("%w: got %d", ErrInvalidExitCode, code)
	}
	return nil
}
