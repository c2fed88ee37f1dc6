// Package engine runs the external assembly engine for one pass.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEngineFailure reports an engine run that exited non-zero.
var ErrEngineFailure = errors.New("engine failure")

// Engine runs the assembly engine on a materialized config file.
type Engine interface {
	// Run blocks until the engine exits. A non-zero exit is reported in
	// the Result, not as an error; the error is reserved for failures to
	// start or wait for the process.
	Run(ctx context.Context, configPath string) (*Result, error)
}

// Result describes one finished engine run.
type Result struct {
	Command  []string
	ExitCode int
	// Stderr holds the last bytes the engine wrote to stderr.
	Stderr   string
	Duration time.Duration
}

// Success reports whether the engine exited with code 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Err returns a *FailureError for a failed run and nil otherwise.
func (r *Result) Err() error {
	if r.Success() {
		return nil
	}
	return &FailureError{Result: r}
}

// FailureError wraps ErrEngineFailure with the failed run.
type FailureError struct {
	Result *Result
}

func (e *FailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: exit code %d", ErrEngineFailure, e.Result.ExitCode)
	if tail := strings.TrimSpace(e.Result.Stderr); tail != "" {
		fmt.Fprintf(&b, "\nrecent stderr (tail):\n%s", tail)
	}
	return b.String()
}

func (e *FailureError) Unwrap() error {
	return ErrEngineFailure
}

// ResultFrom returns the Result carried by err, if any.
func ResultFrom(err error) (*Result, bool) {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Result, true
	}
	return nil, false
}
