package gitx

import (
	"fmt"
	"strings"
)

// GitError represents a failed git invocation. It carries the arguments, the
// exit code, and the captured stderr so call sites can surface a useful
// diagnostic without re-running the command.
type GitError struct {
	// Args is the argument list git was invoked with.
	Args []string

	// ExitCode is the exit code, or -1 if the process never started.
	ExitCode int

	// Stderr is the captured standard error output.
	Stderr string

	// Err is the underlying error from process execution.
	Err error
}

// Error implements the error interface.
func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed with exit code %d", strings.Join(e.Args, " "), e.ExitCode)
	if detail := strings.TrimSpace(e.Stderr); detail != "" {
		return msg + ": " + detail
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying execution error.
func (e *GitError) Unwrap() error {
	return e.Err
}
