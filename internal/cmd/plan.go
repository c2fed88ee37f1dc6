package cmd

import (
	"fmt"
	"strings"

	"github.com/asmkit/multik/internal/cmn/fileutil"
	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
	"github.com/asmkit/multik/internal/dataset"
	"github.com/asmkit/multik/internal/driver"
	"github.com/asmkit/multik/internal/engine"
	"github.com/spf13/cobra"
)

// Plan returns the cobra command that shows what run would do.
func Plan() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "plan [flags]",
			Short: "Show the passes a run would execute, without running them",
			Long: `Inspect the output directory and print, for every pass, whether it would
be skipped, resumed or run from scratch. Directories a restart would remove
are listed but left untouched.

Example:
  multik plan -o out -d dataset.yaml --continue
`,
			Args: cobra.NoArgs,
		}, pipelineFlags,
		runPlan,
	)
}

func runPlan(ctx *Context, _ []string) error {
	cfg := ctx.Config

	var opts []driver.Option
	if fileutil.FileExists(cfg.Dataset) {
		ds, err := dataset.Load(cfg.Dataset)
		if err != nil {
			return err
		}
		opts = append(opts, driver.WithExcludedLibraries(ds.ExcludedFromConstruction()))
	} else {
		logger.Warn(ctx, "Dataset not found, all libraries count towards the read length", tag.File(cfg.Dataset))
	}

	plan, err := driver.New(cfg, engine.NewExec(cfg.EngineBinary), opts...).Plan(ctx)
	if err != nil {
		return fmt.Errorf("failed to plan run: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "K-mer sizes: %v\n", []int(plan.Schedule))
	if plan.ReadLength > 0 {
		fmt.Fprintf(&b, "Read length: %d\n", plan.ReadLength)
	}
	if plan.Excluded > 0 {
		fmt.Fprintf(&b, "Stops before K%d (exceeds read length)\n", plan.Excluded)
	}
	if plan.Restart != nil && len(plan.Restart.Stale) > 0 {
		fmt.Fprintf(&b, "Restart removes: %v\n", []int(plan.Restart.Stale))
	}
	b.WriteString(plan.Render(cfg.OutputDir))
	b.WriteString("\n")

	_, err = fmt.Fprint(ctx.Command.OutOrStdout(), b.String())
	return err
}
