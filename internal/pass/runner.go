package pass

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asmkit/multik/internal/cmn/config"
	"github.com/asmkit/multik/internal/cmn/fileutil"
	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
	"github.com/asmkit/multik/internal/engine"
	"github.com/asmkit/multik/internal/layout"
	"github.com/asmkit/multik/internal/stageconf"
	"github.com/bmatcuk/doublestar/v4"
)

// templatePattern matches the config templates inside a pass config tree.
const templatePattern = "**/*.info" + layout.TemplateSuffix

// Iteration identifies one pass. PrevK is zero for the first pass.
type Iteration struct {
	K        int
	PrevK    int
	Terminal bool
}

// Outcome reports what Run did. Result is nil for skipped passes.
type Outcome struct {
	Iteration
	Decision Decision
	Result   *engine.Result
}

// Runner executes single passes.
type Runner struct {
	cfg    *config.PipelineConfig
	engine engine.Engine
}

// NewRunner creates a Runner for cfg using eng.
func NewRunner(cfg *config.PipelineConfig, eng engine.Engine) *Runner {
	return &Runner{cfg: cfg, engine: eng}
}

// Run executes the pass it describes. A non-zero engine exit is returned
// as an error wrapping engine.ErrEngineFailure.
func (r *Runner) Run(ctx context.Context, it Iteration, continueMode bool) (*Outcome, error) {
	ctx = logger.WithValues(ctx, tag.K(it.K))
	dir := layout.PassDir(r.cfg.OutputDir, it.K)

	decision, err := Decide(it.K, DecideInput{
		OutputDir: r.cfg.OutputDir,
		Continue:  continueMode,
		Restart:   r.cfg.RestartFrom,
	})
	if err != nil {
		return nil, err
	}
	out := &Outcome{Iteration: it, Decision: decision}

	switch decision.State {
	case Skip:
		logger.Info(ctx, "Skipping assembler (already processed)", tag.Dir(dir))
		return out, nil
	case Fresh:
		if err := r.prepareFresh(ctx, dir); err != nil {
			return nil, err
		}
	case Resume:
		if !fileutil.IsDir(layout.SavesDir(dir)) {
			return nil, fmt.Errorf("%w: K%d (%s)", ErrResumeImpossible, it.K, layout.SavesDir(dir))
		}
	}

	seed := r.seedContigs(ctx, it)
	params := stageconf.Params(r.cfg, stageconf.StageInput{
		K:           it.K,
		Stage:       decision.Stage,
		SavesDir:    layout.SavesDir(dir),
		Terminal:    it.Terminal,
		SeedContigs: seed,
	})
	configPath, err := filepath.Abs(layout.ConfigFile(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if err := stageconf.Materialize(ctx, configPath, params); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Running assembler",
		tag.Stage(decision.Stage),
		tag.Terminal(it.Terminal),
		tag.File(configPath),
	)
	res, err := r.engine.Run(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to run engine for K%d: %w", it.K, err)
	}
	out.Result = res
	if err := res.Err(); err != nil {
		return out, fmt.Errorf("assembler failed for K%d: %w", it.K, err)
	}
	logger.Info(ctx, "Assembler finished", tag.Duration(res.Duration))
	return out, nil
}

// prepareFresh recreates dir with a copy of the template config set.
func (r *Runner) prepareFresh(ctx context.Context, dir string) error {
	src := layout.TemplateRoot(r.cfg.ConfigsDir)
	if !fileutil.IsDir(src) {
		return fmt.Errorf("%w: config templates not found (%s)", stageconf.ErrConfig, src)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dst := layout.ConfigsDir(dir)
	if err := fileutil.CopyDir(src, dst); err != nil {
		return fmt.Errorf("failed to copy configs to %s: %w", dst, err)
	}
	return resolveTemplates(ctx, dst)
}

// resolveTemplates turns every template under root into its concrete
// file. An existing concrete file wins and the template is removed.
func resolveTemplates(ctx context.Context, root string) error {
	matches, err := doublestar.Glob(os.DirFS(root), templatePattern)
	if err != nil {
		return fmt.Errorf("failed to scan templates in %s: %w", root, err)
	}
	for _, m := range matches {
		tmpl := filepath.Join(root, filepath.FromSlash(m))
		concrete := strings.TrimSuffix(tmpl, layout.TemplateSuffix)
		if fileutil.IsFile(concrete) {
			if err := os.Remove(tmpl); err != nil {
				return fmt.Errorf("failed to remove template %s: %w", tmpl, err)
			}
			continue
		}
		if err := os.Rename(tmpl, concrete); err != nil {
			return fmt.Errorf("failed to activate template %s: %w", tmpl, err)
		}
		logger.Debug(ctx, "Activated config template", tag.File(concrete))
	}
	return nil
}

// seedContigs returns the previous pass's seed file, or "" when there is
// no previous pass or it left no seed.
func (r *Runner) seedContigs(ctx context.Context, it Iteration) string {
	if it.PrevK == 0 {
		return ""
	}
	seed := layout.SeedContigs(layout.PassDir(r.cfg.OutputDir, it.PrevK))
	if !fileutil.IsFile(seed) {
		logger.Warn(ctx, "Additional contigs from the previous pass were not found", tag.PrevK(it.PrevK), tag.File(seed))
		return ""
	}
	return seed
}
