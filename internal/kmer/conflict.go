package kmer

import (
	"context"
	"fmt"
	"os"

	"github.com/asmkit/multik/internal/cmn/fileutil"
	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
	"github.com/asmkit/multik/internal/layout"
	"github.com/asmkit/multik/internal/readlen"
)

// ResolveConflicts returns the stale tail of completed: the passes that
// must be redone because the needed schedule no longer agrees with them.
//
// Both schedules are walked by position. The first mismatch makes every
// completed pass from that position on stale. When needed runs out first,
// the completed passes beyond it are stale; in particular, one extra
// completed pass is the old terminal pass, now redundant. When completed
// runs out first nothing is stale: the remaining needed passes simply
// have not run yet.
func ResolveConflicts(completed, needed Schedule) Schedule {
	for i, k := range needed {
		if i == len(completed) {
			return nil
		}
		if completed[i] != k {
			return completed[i:].Clone()
		}
	}
	if len(completed) > len(needed) {
		return completed[len(needed):].Clone()
	}
	return nil
}

// Completed returns the k-mer values whose pass directory holds the
// terminal-output file, in ascending order.
func Completed(outputDir string) Schedule {
	var done Schedule
	for k := MinK; k < MaxK; k += 2 {
		dir := layout.PassDir(outputDir, k)
		if fileutil.IsDir(dir) && fileutil.IsFile(layout.FinalContigs(dir)) {
			done = append(done, k)
		}
	}
	return done
}

// RestartInput is what PlanRestart needs to know about the run.
type RestartInput struct {
	OutputDir string
	Schedule  Schedule
	// Excluded lists library indexes ignored by the read length estimate.
	Excluded []int
	Auto     bool
}

// RestartPlan is the result of planning a restart. Nothing has been
// deleted when it is returned.
type RestartPlan struct {
	Completed  Schedule
	Needed     Schedule
	ReadLength int
	Stale      Schedule
}

// PlanRestart works out which completed passes conflict with the schedule.
// The read length comes from the first completed pass.
func PlanRestart(ctx context.Context, in RestartInput) (*RestartPlan, error) {
	plan := &RestartPlan{Completed: Completed(in.OutputDir)}
	if len(plan.Completed) == 0 {
		return plan, nil
	}

	rl, err := readlen.Estimate(in.OutputDir, plan.Completed[0], in.Excluded)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate read length for restart: %w", err)
	}
	plan.ReadLength = rl
	plan.Needed = AutoSelect(ctx, in.Schedule, rl, AutoOptions{Enabled: in.Auto, Silent: true}).Below(rl)
	plan.Stale = ResolveConflicts(plan.Completed, plan.Needed)
	return plan, nil
}

// ApplyRestart deletes the stale pass directories of plan.
func ApplyRestart(ctx context.Context, outputDir string, plan *RestartPlan) error {
	if plan == nil || len(plan.Stale) == 0 {
		return nil
	}
	logger.Info(ctx, "Restart mode: removing previously processed directories to avoid conflicts with the requested k-mer values",
		tag.Schedule(plan.Stale),
		tag.String("needed", fmt.Sprint([]int(plan.Needed))),
	)
	for _, k := range plan.Stale {
		dir := layout.PassDir(outputDir, k)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}
