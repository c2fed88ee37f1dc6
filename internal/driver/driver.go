// Package driver sequences the passes of a multi-k assembly run.
package driver

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/asmkit/multik/internal/cmn/config"
	"github.com/asmkit/multik/internal/cmn/fileutil"
	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
	"github.com/asmkit/multik/internal/collect"
	"github.com/asmkit/multik/internal/engine"
	"github.com/asmkit/multik/internal/kmer"
	"github.com/asmkit/multik/internal/layout"
	"github.com/asmkit/multik/internal/pass"
	"github.com/asmkit/multik/internal/readlen"
)

// Driver runs the passes of one pipeline run in order.
type Driver struct {
	cfg      *config.PipelineConfig
	runner   *pass.Runner
	excluded []int
}

// Option configures a Driver.
type Option func(*Driver)

// WithExcludedLibraries sets the library indexes ignored by the read
// length estimate.
func WithExcludedLibraries(ids []int) Option {
	return func(d *Driver) {
		d.excluded = ids
	}
}

// New creates a Driver for cfg that runs passes on eng.
func New(cfg *config.PipelineConfig, eng engine.Engine, opts ...Option) *Driver {
	d := &Driver{cfg: cfg, runner: pass.NewRunner(cfg, eng)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// run is the mutable state of one Run call.
type run struct {
	*Driver
	report       *Report
	continueMode bool
}

// Run executes the schedule and publishes the results of the terminal
// pass. Any error aborts the run; the report covers the passes so far.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	r := &run{
		Driver:       d,
		report:       &Report{Requested: d.cfg.IterativeK.Clone(), StartedAt: time.Now()},
		continueMode: d.cfg.Continue,
	}
	err := r.execute(ctx)
	r.report.FinishedAt = time.Now()
	return r.report, err
}

func (r *run) execute(ctx context.Context) error {
	sched := r.cfg.IterativeK.Clone()
	if err := kmer.Validate(sched); err != nil {
		return err
	}

	if r.cfg.RestartFrom != nil {
		if err := r.resolveRestart(ctx, sched); err != nil {
			return err
		}
	}

	if binReads := layout.BinReadsDir(r.cfg.OutputDir); !r.continueMode && fileutil.IsDir(binReads) {
		if err := os.RemoveAll(binReads); err != nil {
			return fmt.Errorf("failed to remove %s: %w", binReads, err)
		}
	}

	latest, err := r.runSchedule(ctx, sched)
	if err != nil {
		return err
	}
	r.report.Latest = layout.PassDir(r.cfg.OutputDir, latest)

	copies := collect.PlanCopies(r.cfg, r.report.Latest, r.continueMode)
	if err := collect.Apply(ctx, r.cfg, r.report.Latest, copies); err != nil {
		return err
	}
	r.report.Published = copies
	return nil
}

func (r *run) resolveRestart(ctx context.Context, sched kmer.Schedule) error {
	plan, err := kmer.PlanRestart(ctx, kmer.RestartInput{
		OutputDir: r.cfg.OutputDir,
		Schedule:  sched,
		Excluded:  r.excluded,
		Auto:      r.cfg.AutoKmers,
	})
	if err != nil {
		return err
	}
	if err := kmer.ApplyRestart(ctx, r.cfg.OutputDir, plan); err != nil {
		return err
	}
	r.report.Removed = plan.Stale
	return nil
}

// runSchedule runs the passes and returns the k of the terminal pass.
func (r *run) runSchedule(ctx context.Context, sched kmer.Schedule) (int, error) {
	first := sched[0]
	if len(sched) == 1 {
		return first, r.runPass(ctx, pass.Iteration{K: first, Terminal: true})
	}

	if err := r.runPass(ctx, pass.Iteration{K: first}); err != nil {
		return 0, err
	}
	rl, err := readlen.Estimate(r.cfg.OutputDir, first, r.excluded)
	if err != nil {
		return 0, err
	}
	r.report.ReadLength = rl
	logger.Info(ctx, "Estimated read length", tag.K(first), tag.ReadLength(rl))

	sched = kmer.AutoSelect(ctx, sched, rl, kmer.AutoOptions{Enabled: r.cfg.AutoKmers})
	r.report.Effective = sched

	t := planTail(first, sched, rl, r.cfg.RREnable)
	switch {
	case t.Rerun:
		logger.Warn(ctx, "Second k-mer value exceeds the estimated read length, rerunning the first one with repeat resolution",
			tag.K(first), tag.ExcludedK(t.Excluded), tag.ReadLength(rl))
	case len(t.Iterations) == 0:
		logger.Warn(ctx, "Second k-mer value exceeds the estimated read length, keeping the output of the first pass",
			tag.K(first), tag.ExcludedK(t.Excluded), tag.ReadLength(rl))
		return first, nil
	}

	latest := first
	for _, it := range t.Iterations {
		if err := r.runPass(ctx, it); err != nil {
			return 0, err
		}
		latest = it.K
	}
	if t.Excluded != 0 && !t.Rerun {
		logger.Warn(ctx, "Iterations stopped: k-mer value exceeds the estimated read length",
			tag.ExcludedK(t.Excluded), tag.ReadLength(rl))
	}
	return latest, nil
}

// runPass runs one pass and records it. The first pass that is not
// skipped consumes continue mode; later passes run fresh.
func (r *run) runPass(ctx context.Context, it pass.Iteration) error {
	out, err := r.runner.Run(ctx, it, r.continueMode)
	if out != nil {
		r.report.add(out)
		if out.Decision.State != pass.Skip && r.continueMode {
			logger.Info(ctx, "Resume point reached, continue mode off for later passes", tag.K(it.K))
			r.continueMode = false
		}
	}
	return err
}
