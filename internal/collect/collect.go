// Package collect publishes the results of the terminal pass.
package collect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/asmkit/multik/internal/cmn/config"
	"github.com/asmkit/multik/internal/cmn/fileutil"
	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
	"github.com/asmkit/multik/internal/layout"
)

// Copy is one artifact to publish.
type Copy struct {
	Src string
	Dst string
	// Contigs marks sequence files worth summarizing after publishing.
	Contigs bool
}

// PlanCopies lists the artifacts of latest to publish. Artifacts missing
// from latest are left out, as are destinations that already exist in
// continue mode.
func PlanCopies(cfg *config.PipelineConfig, latest string, continueMode bool) []Copy {
	candidates := []Copy{
		{Src: layout.BeforeRR(latest), Dst: filepath.Join(cfg.ResultDir(), layout.BeforeRRName)},
		{Src: layout.FinalContigs(latest), Dst: cfg.ResultContigs, Contigs: true},
	}
	if cfg.RREnable {
		candidates = append(candidates, Copy{Src: layout.Scaffolds(latest), Dst: cfg.ResultScaffolds, Contigs: true})
	}

	var copies []Copy
	for _, c := range candidates {
		if !fileutil.IsFile(c.Src) {
			continue
		}
		if continueMode && fileutil.IsFile(c.Dst) {
			continue
		}
		copies = append(copies, c)
	}
	return copies
}

// Apply copies the planned artifacts, links the saves of latest in
// developer mode and removes the binary reads cache.
func Apply(ctx context.Context, cfg *config.PipelineConfig, latest string, copies []Copy) error {
	for _, c := range copies {
		if err := fileutil.CopyFile(c.Src, c.Dst); err != nil {
			return fmt.Errorf("failed to publish %s: %w", c.Src, err)
		}
		logger.Info(ctx, "Published result", tag.Src(c.Src), tag.Dst(c.Dst))
		if c.Contigs {
			logStats(ctx, c.Dst)
		}
	}

	if cfg.DeveloperMode {
		if err := linkSaves(cfg.ResultDir(), latest); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(layout.BinReadsDir(cfg.OutputDir)); err != nil {
		return fmt.Errorf("failed to remove binary reads: %w", err)
	}
	return nil
}

// linkSaves points resultDir/saves at the saves of latest, replacing any
// existing entry, broken links included.
func linkSaves(resultDir, latest string) error {
	link := filepath.Join(resultDir, layout.SavesLinkName)
	if fileutil.Lexists(link) {
		if err := os.Remove(link); err != nil {
			return fmt.Errorf("failed to remove %s: %w", link, err)
		}
	}
	if err := os.Symlink(layout.SavesDir(latest), link); err != nil {
		return fmt.Errorf("failed to link saves: %w", err)
	}
	return nil
}

func logStats(ctx context.Context, path string) {
	stats, err := Summarize(path)
	if err != nil {
		logger.Warn(ctx, "Failed to summarize sequences", tag.File(path), tag.Error(err))
		return
	}
	logger.Info(ctx, "Sequence statistics",
		tag.File(path),
		tag.Count(stats.Count),
		tag.Length(stats.TotalLength),
		tag.N50(stats.N50),
	)
}
