package driver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/asmkit/multik/internal/kmer"
	"github.com/asmkit/multik/internal/layout"
	"github.com/asmkit/multik/internal/pass"
	"github.com/asmkit/multik/internal/readlen"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RunPlan is the dry-run view of a run: what Run would do given the
// current output directory. Nothing is executed or deleted.
type RunPlan struct {
	Schedule kmer.Schedule
	// ReadLength is known only when the first pass already left metadata.
	ReadLength int
	Restart    *kmer.RestartPlan
	Passes     []PlannedPass
	// Excluded is the first k dropped because of the read length, or 0.
	Excluded int
}

// PlannedPass is the expected handling of one pass. Err is set when the
// pass could not be resumed.
type PlannedPass struct {
	pass.Iteration
	Decision pass.Decision
	Stale    bool
	Err      error
}

// Plan computes the RunPlan without side effects.
func (d *Driver) Plan(ctx context.Context) (*RunPlan, error) {
	sched := d.cfg.IterativeK.Clone()
	if err := kmer.Validate(sched); err != nil {
		return nil, err
	}
	plan := &RunPlan{Schedule: sched}

	if d.cfg.RestartFrom != nil {
		rp, err := kmer.PlanRestart(ctx, kmer.RestartInput{
			OutputDir: d.cfg.OutputDir,
			Schedule:  sched,
			Excluded:  d.excluded,
			Auto:      d.cfg.AutoKmers,
		})
		if err != nil {
			return nil, err
		}
		plan.Restart = rp
	}

	its := []pass.Iteration{{K: sched[0], Terminal: len(sched) == 1}}
	if len(sched) > 1 {
		rl, err := readlen.Estimate(d.cfg.OutputDir, sched[0], d.excluded)
		switch {
		case err == nil:
			plan.ReadLength = rl
			sched = kmer.AutoSelect(ctx, sched, rl, kmer.AutoOptions{Enabled: d.cfg.AutoKmers, Silent: true})
			plan.Schedule = sched
			t := planTail(its[0].K, sched, rl, d.cfg.RREnable)
			its = append(its, t.Iterations...)
			plan.Excluded = t.Excluded
		case errors.Is(err, readlen.ErrMetadataMissing):
			// Read length unknown until the first pass runs.
			prev := sched[0]
			for i, k := range sched[1:] {
				its = append(its, pass.Iteration{K: k, PrevK: prev, Terminal: i == len(sched)-2})
				prev = k
			}
		default:
			return nil, err
		}
	}

	continueMode := d.cfg.Continue
	for _, it := range its {
		pp := PlannedPass{Iteration: it}
		if plan.Restart != nil && slices.Contains(plan.Restart.Stale, it.K) {
			pp.Stale = true
		}
		pp.Decision, pp.Err = d.decide(it.K, continueMode, pp.Stale)
		if pp.Err == nil && pp.Decision.State != pass.Skip {
			continueMode = false
		}
		plan.Passes = append(plan.Passes, pp)
	}
	return plan, nil
}

// decide is pass.Decide with stale directories treated as already removed.
func (d *Driver) decide(k int, continueMode, stale bool) (pass.Decision, error) {
	if stale && continueMode {
		if r := d.cfg.RestartFrom; r.Targets(k) && r.Compound() {
			saves := layout.SavesDir(layout.PassDir(d.cfg.OutputDir, k))
			return pass.Decision{}, fmt.Errorf("%w: K%d stage %s (%s removed by restart)",
				pass.ErrResumeImpossible, k, r.Stage, saves)
		}
		return pass.Decision{State: pass.Fresh, Stage: pass.BaseStage}, nil
	}
	return pass.Decide(k, pass.DecideInput{
		OutputDir: d.cfg.OutputDir,
		Continue:  continueMode,
		Restart:   d.cfg.RestartFrom,
	})
}

var planHeader = table.Row{
	"#",
	"K",
	"Directory",
	"Decision",
	"Terminal",
	"Note",
}

// Render returns the plan as a text table.
func (p *RunPlan) Render(outputDir string) string {
	t := table.NewWriter()
	t.AppendHeader(planHeader)
	for i, pp := range p.Passes {
		decision := pp.Decision.String()
		var notes []string
		if pp.Err != nil {
			decision = "error"
			notes = append(notes, pp.Err.Error())
		}
		if pp.Stale {
			notes = append(notes, "stale, removed before the run")
		}
		t.AppendRow(table.Row{
			i + 1,
			pp.K,
			layout.PassDir(outputDir, pp.K),
			decision,
			pp.Terminal,
			strings.Join(notes, "; "),
		})
	}
	return t.Render()
}
