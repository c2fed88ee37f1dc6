package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asmkit/multik/internal/cmn/dirlock"
	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
	"github.com/asmkit/multik/internal/dataset"
	"github.com/asmkit/multik/internal/driver"
	"github.com/asmkit/multik/internal/engine"
	"github.com/spf13/cobra"
)

// Run returns the cobra command that runs the pipeline.
func Run() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "run [flags]",
			Short: "Run the multi-k assembly pipeline",
			Long: `Run the assembly engine once per k-mer size, feeding each pass the
contigs of the previous one, and publish the results of the last pass.

With --continue, finished passes are skipped and the interrupted one is
resumed from its checkpoints. --restart-from resumes a given pass, optionally
at a named stage, and removes later passes that no longer match the k-mer
sizes.

Example:
  multik run -o out -d dataset.yaml --execution-home /opt/spades/bin -k 21,33,55
  multik run -o out -d dataset.yaml --restart-from k55:repeat_resolution
`,
			Args: cobra.NoArgs,
		}, runFlags(),
		runPipeline,
	)
}

func runFlags() []commandLineFlag {
	flags := make([]commandLineFlag, 0, len(pipelineFlags)+1)
	flags = append(flags, pipelineFlags...)
	return append(flags, waitFlag)
}

func runPipeline(ctx *Context, _ []string) error {
	cfg := ctx.Config

	wait, err := ctx.Command.Flags().GetBool(waitFlag.name)
	if err != nil {
		return fmt.Errorf("failed to get wait flag: %w", err)
	}
	lock, err := lockOutputDir(ctx, cfg.OutputDir, wait, nil)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	logFile, err := ctx.OpenLogFile()
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	ctx.LogToFile(logFile)

	ds, err := dataset.Load(cfg.Dataset)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Pipeline started",
		tag.RunID(ctx.RunID),
		tag.Dir(cfg.OutputDir),
		tag.Schedule(cfg.IterativeK),
	)

	out := newLineWriter(ctx)
	defer out.Flush()
	eng := engine.NewExec(cfg.EngineBinary)
	eng.Stdout = out
	eng.Stderr = out

	d := driver.New(cfg, eng, driver.WithExcludedLibraries(ds.ExcludedFromConstruction()))
	report, err := d.Run(ctx)
	out.Flush()
	report.RunID = ctx.RunID
	if !ctx.Quiet {
		_, _ = fmt.Fprint(ctx.Command.OutOrStdout(), report.Render())
	}
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	logger.Info(ctx, "Pipeline finished",
		tag.RunID(ctx.RunID),
		tag.Dir(report.Latest),
		tag.Duration(report.FinishedAt.Sub(report.StartedAt)),
	)
	return nil
}

// lockOutputDir takes the output directory lock. With wait set it blocks
// until the holder releases it or ctx is done.
func lockOutputDir(ctx context.Context, dir string, wait bool, opts *dirlock.LockOptions) (dirlock.DirLock, error) {
	lock := dirlock.New(dir, opts)
	if wait {
		if info, _ := lock.Info(); info != nil {
			logger.Info(ctx, "Waiting for another run to release the output directory",
				tag.Dir(dir), tag.PID(info.PID))
		}
		if err := lock.Lock(ctx); err != nil {
			return nil, fmt.Errorf("failed to lock output directory %s: %w", dir, err)
		}
		return lock, nil
	}

	err := lock.TryLock()
	if err == nil {
		return lock, nil
	}
	if !errors.Is(err, dirlock.ErrLockConflict) {
		return nil, fmt.Errorf("failed to lock output directory %s: %w", dir, err)
	}
	if info, ierr := lock.Info(); ierr == nil && info != nil {
		return nil, fmt.Errorf("output directory %s is used by another run (pid %d since %s): %w",
			dir, info.PID, info.AcquiredAt.Format(time.RFC3339), err)
	}
	return nil, fmt.Errorf("output directory %s is used by another run: %w", dir, err)
}

// lineWriter forwards engine output to the run log one line at a time.
type lineWriter struct {
	ctx context.Context
	mu  sync.Mutex
	buf []byte
}

func newLineWriter(ctx context.Context) *lineWriter {
	return &lineWriter{ctx: ctx}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		logger.Write(w.ctx, string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush writes a trailing partial line, if any.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		logger.Write(w.ctx, string(w.buf))
		w.buf = nil
	}
}
