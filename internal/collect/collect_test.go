package collect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/asmkit/multik/internal/cmn/config"
	"github.com/asmkit/multik/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*config.PipelineConfig, string) {
	t.Helper()
	out := t.TempDir()
	cfg := &config.PipelineConfig{
		OutputDir:       out,
		ResultContigs:   filepath.Join(out, "contigs.fasta"),
		ResultScaffolds: filepath.Join(out, "scaffolds.fasta"),
		RREnable:        true,
	}
	latest := layout.PassDir(out, 55)
	require.NoError(t, os.MkdirAll(layout.SavesDir(latest), 0750))
	for path, content := range map[string]string{
		layout.BeforeRR(latest):     ">b\nACGT\n",
		layout.FinalContigs(latest): ">c1\nACGTACGTAC\n>c2\nACGTA\n>c3\nAC\n",
		layout.Scaffolds(latest):    ">s\nACGTNNACGT\n",
	} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	return cfg, latest
}

func dsts(copies []Copy) []string {
	var out []string
	for _, c := range copies {
		out = append(out, filepath.Base(c.Dst))
	}
	return out
}

func TestPlanCopies(t *testing.T) {
	t.Run("AllArtifacts", func(t *testing.T) {
		cfg, latest := setup(t)
		assert.Equal(t, []string{"before_rr.fasta", "contigs.fasta", "scaffolds.fasta"}, dsts(PlanCopies(cfg, latest, false)))
	})

	t.Run("ScaffoldsOnlyWithRepeatResolution", func(t *testing.T) {
		cfg, latest := setup(t)
		cfg.RREnable = false
		assert.Equal(t, []string{"before_rr.fasta", "contigs.fasta"}, dsts(PlanCopies(cfg, latest, false)))
	})

	t.Run("MissingArtifactsSkipped", func(t *testing.T) {
		cfg, latest := setup(t)
		require.NoError(t, os.Remove(layout.BeforeRR(latest)))
		assert.Equal(t, []string{"contigs.fasta", "scaffolds.fasta"}, dsts(PlanCopies(cfg, latest, false)))
	})

	t.Run("ContinueKeepsExistingResults", func(t *testing.T) {
		cfg, latest := setup(t)
		require.NoError(t, os.WriteFile(cfg.ResultContigs, []byte(">old\nA\n"), 0600))

		assert.Equal(t, []string{"before_rr.fasta", "scaffolds.fasta"}, dsts(PlanCopies(cfg, latest, true)))
		assert.Equal(t, []string{"before_rr.fasta", "contigs.fasta", "scaffolds.fasta"}, dsts(PlanCopies(cfg, latest, false)))
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("CopiesAndCleansUp", func(t *testing.T) {
		cfg, latest := setup(t)
		binReads := layout.BinReadsDir(cfg.OutputDir)
		require.NoError(t, os.MkdirAll(binReads, 0750))

		require.NoError(t, Apply(ctx, cfg, latest, PlanCopies(cfg, latest, false)))

		data, err := os.ReadFile(cfg.ResultContigs)
		require.NoError(t, err)
		assert.Contains(t, string(data), ">c1")
		assert.FileExists(t, layout.FinalContigs(latest), "artifacts are copied, not moved")
		assert.FileExists(t, filepath.Join(cfg.OutputDir, "before_rr.fasta"))
		assert.FileExists(t, cfg.ResultScaffolds)
		assert.NoDirExists(t, binReads)
		assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "saves"))
	})

	t.Run("DeveloperModeReplacesBrokenLink", func(t *testing.T) {
		cfg, latest := setup(t)
		cfg.DeveloperMode = true
		link := filepath.Join(cfg.OutputDir, "saves")
		require.NoError(t, os.Symlink(filepath.Join(cfg.OutputDir, "gone"), link))

		require.NoError(t, Apply(ctx, cfg, latest, nil))

		target, err := os.Readlink(link)
		require.NoError(t, err)
		assert.Equal(t, layout.SavesDir(latest), target)
		info, err := os.Stat(link)
		require.NoError(t, err, "link resolves")
		assert.True(t, info.IsDir())
	})

	t.Run("BinReadsRemovedWithNothingToCopy", func(t *testing.T) {
		cfg, latest := setup(t)
		require.NoError(t, os.MkdirAll(layout.BinReadsDir(cfg.OutputDir), 0750))
		require.NoError(t, Apply(ctx, cfg, latest, nil))
		assert.NoDirExists(t, layout.BinReadsDir(cfg.OutputDir))
	})
}

func TestSummarize(t *testing.T) {
	_, latest := setup(t)

	stats, err := Summarize(layout.FinalContigs(latest))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, int64(17), stats.TotalLength)
	assert.Equal(t, 10, stats.Longest)
	assert.Equal(t, 10, stats.N50)

	_, err = Summarize(filepath.Join(t.TempDir(), "missing.fasta"))
	require.Error(t, err)
}

func TestSummarizeLengths(t *testing.T) {
	assert.Equal(t, &Stats{}, summarizeLengths(nil))

	stats := summarizeLengths([]int{2, 3, 4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, int64(54), stats.TotalLength)
	assert.Equal(t, 8, stats.N50)
}
