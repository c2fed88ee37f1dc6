// Package pass runs one k-mer pass of the pipeline: it decides whether the
// pass is skipped, resumed or run fresh, prepares the pass directory and
// invokes the engine.
package pass

import (
	"errors"
	"fmt"

	"github.com/asmkit/multik/internal/cmn/fileutil"
	"github.com/asmkit/multik/internal/kmer"
	"github.com/asmkit/multik/internal/layout"
)

// BaseStage is the engine entry point of a pass run from the start.
const BaseStage = "construction"

var ErrResumeImpossible = errors.New("cannot resume pass: saves not found")

// State is the resume state of a pass.
type State int

const (
	Fresh State = iota
	Resume
	Skip
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Resume:
		return "resume"
	case Skip:
		return "skip"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decision is what happens to a pass. Stage is the engine entry point
// for Fresh and Resume.
type Decision struct {
	State State
	Stage string
}

func (d Decision) String() string {
	if d.State == Resume {
		return "resume at " + d.Stage
	}
	return d.State.String()
}

// DecideInput is the run state Decide looks at.
type DecideInput struct {
	OutputDir string
	Continue  bool
	Restart   *kmer.Directive
}

// Decide picks the resume state of the pass for k.
//
// Outside continue mode every pass is fresh. In continue mode a finished
// pass is skipped unless the restart directive targets it. A directive
// naming a stage resumes at that stage. Otherwise the pass resumes at the
// base stage from its saves; a pass directory that was never created runs
// fresh, while one that exists without saves cannot be resumed.
func Decide(k int, in DecideInput) (Decision, error) {
	if !in.Continue {
		return Decision{State: Fresh, Stage: BaseStage}, nil
	}

	dir := layout.PassDir(in.OutputDir, k)
	if fileutil.IsFile(layout.FinalContigs(dir)) && !in.Restart.Targets(k) {
		return Decision{State: Skip}, nil
	}

	stage := BaseStage
	if in.Restart.Targets(k) && in.Restart.Compound() {
		stage = in.Restart.Stage
	} else if !fileutil.IsDir(dir) {
		// Never started, so there is nothing to resume.
		return Decision{State: Fresh, Stage: BaseStage}, nil
	}

	if saves := layout.SavesDir(dir); !fileutil.IsDir(saves) {
		return Decision{}, fmt.Errorf("%w: K%d stage %s (%s)", ErrResumeImpossible, k, stage, saves)
	}
	return Decision{State: Resume, Stage: stage}, nil
}
