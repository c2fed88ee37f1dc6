package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
)

var _ Engine = (*Exec)(nil)

// Exec runs the engine binary as a child process.
type Exec struct {
	Binary string
	// Stdout and Stderr receive the engine output. They default to the
	// process stdout and stderr.
	Stdout    io.Writer
	Stderr    io.Writer
	TailLimit int
}

// NewExec returns an Exec engine for binary.
func NewExec(binary string) *Exec {
	return &Exec{Binary: binary}
}

// Run executes "<binary> <configPath>".
func (e *Exec) Run(ctx context.Context, configPath string) (*Result, error) {
	stdout := e.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := e.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	tail := NewTailWriter(stderr, e.TailLimit)

	cmd := exec.CommandContext(ctx, e.Binary, configPath) //nolint:gosec
	cmd.Stdout = stdout
	cmd.Stderr = tail

	logger.Debug(ctx, "Starting engine", tag.Command(cmd.String()))

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
		Stderr:   tail.Tail(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, fmt.Errorf("failed to run engine %s: %w", e.Binary, err)
	}
	return res, nil
}

// exitCodeFromError returns 0 for nil, the exit code of an *exec.ExitError
// and 1 otherwise.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
