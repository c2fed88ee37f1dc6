package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/asmkit/multik/internal/cmn/config"
	"github.com/asmkit/multik/internal/engine"
	"github.com/asmkit/multik/internal/engine/enginetest"
	"github.com/asmkit/multik/internal/kmer"
	"github.com/asmkit/multik/internal/layout"
	"github.com/asmkit/multik/internal/pass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig(t *testing.T, ks ...int) *config.PipelineConfig {
	t.Helper()
	out := t.TempDir()
	return &config.PipelineConfig{
		OutputDir:       out,
		Dataset:         filepath.Join(out, "dataset.yaml"),
		ConfigsDir:      enginetest.WriteConfigs(t),
		EngineBinary:    "fake",
		ResultContigs:   filepath.Join(out, "contigs.fasta"),
		ResultScaffolds: filepath.Join(out, "scaffolds.fasta"),
		IterativeK:      kmer.Normalize(ks...),
		MaxThreads:      2,
		MaxMemory:       4,
		RREnable:        true,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func terminalFlags(fake *enginetest.Fake) []string {
	var out []string
	for _, c := range fake.Calls() {
		out = append(out, c.Params["rr_enable"])
	}
	return out
}

func TestRun_SingleValue(t *testing.T) {
	cfg := newConfig(t, 33)
	fake := &enginetest.Fake{ReadLengths: []int{100}}

	report, err := New(cfg, fake).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{33}, fake.Ks())
	assert.Equal(t, []string{"true"}, terminalFlags(fake))
	assert.Equal(t, layout.PassDir(cfg.OutputDir, 33), report.Latest)
	assert.Zero(t, report.ReadLength)
	assert.Contains(t, readFile(t, cfg.ResultContigs), ">K33_final")
}

func TestRun_FullSchedule(t *testing.T) {
	cfg := newConfig(t, 21, 33, 55)
	fake := &enginetest.Fake{ReadLengths: []int{60}}

	report, err := New(cfg, fake).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{21, 33, 55}, fake.Ks())
	assert.Equal(t, []string{"false", "false", "true"}, terminalFlags(fake))
	assert.Equal(t, 60, report.ReadLength)
	assert.Equal(t, layout.PassDir(cfg.OutputDir, 55), report.Latest)
	assert.Equal(t, 3, report.Invocations())

	assert.Contains(t, readFile(t, cfg.ResultContigs), ">K55_final")
	assert.Contains(t, readFile(t, cfg.ResultScaffolds), ">K55_scaffold")
	assert.Contains(t, readFile(t, filepath.Join(cfg.OutputDir, "before_rr.fasta")), ">K55_before_rr")

	calls := fake.Calls()
	assert.Equal(t, "false", calls[0].Params["use_additional_contigs"])
	assert.Equal(t, layout.SeedContigs(layout.PassDir(cfg.OutputDir, 21)), calls[1].Params["additional_contigs"])
	assert.Equal(t, layout.SeedContigs(layout.PassDir(cfg.OutputDir, 33)), calls[2].Params["additional_contigs"])

	assert.Equal(t, kmer.Schedule{21, 33, 55}, cfg.IterativeK, "config schedule is never modified")
}

func TestRun_SecondValueExceedsReadLength(t *testing.T) {
	t.Run("RerunsFirstWithRepeatResolution", func(t *testing.T) {
		cfg := newConfig(t, 21, 77)
		fake := &enginetest.Fake{ReadLengths: []int{60}}

		report, err := New(cfg, fake).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []int{21, 21}, fake.Ks())
		assert.Equal(t, []string{"false", "true"}, terminalFlags(fake))
		assert.Equal(t, layout.PassDir(cfg.OutputDir, 21), report.Latest)
		assert.Equal(t, pass.Fresh, report.Passes[1].Decision.State)
		assert.Contains(t, readFile(t, cfg.ResultContigs), ">K21_final")
		assert.FileExists(t, cfg.ResultScaffolds)
	})

	t.Run("StopsWithoutRepeatResolution", func(t *testing.T) {
		cfg := newConfig(t, 21, 77)
		cfg.RREnable = false
		fake := &enginetest.Fake{ReadLengths: []int{60}}

		report, err := New(cfg, fake).Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []int{21}, fake.Ks())
		assert.Equal(t, layout.PassDir(cfg.OutputDir, 21), report.Latest)
		assert.Contains(t, readFile(t, cfg.ResultContigs), ">K21_final")
		assert.NoFileExists(t, cfg.ResultScaffolds)
	})
}

func TestRun_TruncatedSchedule(t *testing.T) {
	cfg := newConfig(t, 21, 33, 55, 77)
	fake := &enginetest.Fake{ReadLengths: []int{60}}

	report, err := New(cfg, fake).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{21, 33, 55}, fake.Ks())
	assert.Equal(t, []string{"false", "false", "true"}, terminalFlags(fake))
	assert.Equal(t, layout.PassDir(cfg.OutputDir, 55), report.Latest)
}

func TestRun_AutoSelectedPreset(t *testing.T) {
	cfg := newConfig(t, 21, 33)
	cfg.AutoKmers = true
	fake := &enginetest.Fake{ReadLengths: []int{150}}

	report, err := New(cfg, fake).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{21, 33, 55, 77}, fake.Ks())
	assert.Equal(t, kmer.Medium, report.Effective)
	assert.Equal(t, kmer.Schedule{21, 33}, cfg.IterativeK)
}

func TestRun_ExcludedLibraries(t *testing.T) {
	cfg := newConfig(t, 21, 33, 77)
	fake := &enginetest.Fake{ReadLengths: []int{60, 1000}}

	report, err := New(cfg, fake, WithExcludedLibraries([]int{1})).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 60, report.ReadLength)
	assert.Equal(t, []int{21, 33}, fake.Ks())
}

func TestRun_ContinueIsIdempotent(t *testing.T) {
	cfg := newConfig(t, 21, 33, 55)
	_, err := New(cfg, &enginetest.Fake{ReadLengths: []int{100}}).Run(context.Background())
	require.NoError(t, err)

	cfg.Continue = true
	fake := &enginetest.Fake{ReadLengths: []int{100}}
	report, err := New(cfg, fake).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, fake.Calls())
	assert.Zero(t, report.Invocations())
	require.Len(t, report.Passes, 3)
	for _, p := range report.Passes {
		assert.Equal(t, pass.Skip, p.Decision.State)
	}
	assert.Empty(t, report.Published, "existing results are kept in continue mode")
}

func TestRun_ContinueAfterFailure(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, 21, 33, 55)

	_, err := New(cfg, &enginetest.Fake{ReadLengths: []int{100}, FailK: 33}).Run(ctx)
	require.ErrorIs(t, err, engine.ErrEngineFailure)
	assert.NoFileExists(t, cfg.ResultContigs)

	cfg.Continue = true
	fake := &enginetest.Fake{ReadLengths: []int{100}}
	report, err := New(cfg, fake).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int{33, 55}, fake.Ks())
	require.Len(t, report.Passes, 3)
	assert.Equal(t, pass.Skip, report.Passes[0].Decision.State)
	assert.Equal(t, pass.Decision{State: pass.Resume, Stage: pass.BaseStage}, report.Passes[1].Decision)
	assert.Equal(t, pass.Fresh, report.Passes[2].Decision.State, "continue mode ends at the resume point")
	assert.Contains(t, readFile(t, cfg.ResultContigs), ">K55_final")
}

func TestRun_RestartResolvesConflicts(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t, 21, 33, 55)
	_, err := New(cfg, &enginetest.Fake{ReadLengths: []int{100}}).Run(ctx)
	require.NoError(t, err)

	directive, err := kmer.ParseRestart("k33:repeat_resolution")
	require.NoError(t, err)
	cfg.IterativeK = kmer.Schedule{21, 33}
	cfg.RestartFrom = directive
	cfg.Continue = true

	fake := &enginetest.Fake{ReadLengths: []int{100}}
	report, err := New(cfg, fake).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, kmer.Schedule{55}, report.Removed)
	assert.NoDirExists(t, layout.PassDir(cfg.OutputDir, 55))

	require.Len(t, fake.Calls(), 1)
	call := fake.Calls()[0]
	assert.Equal(t, 33, call.K())
	assert.Equal(t, "repeat_resolution", call.Params["entry_point"])
	assert.Equal(t, "true", call.Params["rr_enable"])
	assert.Equal(t, layout.PassDir(cfg.OutputDir, 33), report.Latest)
	assert.Contains(t, readFile(t, cfg.ResultContigs), ">K33_final", "results are republished once a pass ran")
}

func TestRun_BinaryReadsCache(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovedAtStartOutsideContinueMode", func(t *testing.T) {
		cfg := newConfig(t, 21)
		binReads := layout.BinReadsDir(cfg.OutputDir)
		require.NoError(t, os.MkdirAll(binReads, 0750))

		_, err := New(cfg, &enginetest.Fake{FailK: 21}).Run(ctx)
		require.Error(t, err)
		assert.NoDirExists(t, binReads)
	})

	t.Run("KeptInContinueModeUntilTheEnd", func(t *testing.T) {
		cfg := newConfig(t, 21)
		cfg.Continue = true
		binReads := layout.BinReadsDir(cfg.OutputDir)
		require.NoError(t, os.MkdirAll(binReads, 0750))

		_, err := New(cfg, &enginetest.Fake{FailK: 21}).Run(ctx)
		require.Error(t, err)
		assert.DirExists(t, binReads)

		_, err = New(cfg, &enginetest.Fake{}).Run(ctx)
		require.NoError(t, err)
		assert.NoDirExists(t, binReads)
	})
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingReadLengthMetadata", func(t *testing.T) {
		cfg := newConfig(t, 21, 33)
		report, err := New(cfg, &noMetadata{}).Run(ctx)
		require.Error(t, err)
		assert.Len(t, report.Passes, 1)
	})

	t.Run("InvalidSchedule", func(t *testing.T) {
		cfg := newConfig(t, 22)
		_, err := New(cfg, &enginetest.Fake{}).Run(ctx)
		require.ErrorIs(t, err, kmer.ErrInvalidSchedule)
	})
}

// noMetadata succeeds without writing any output.
type noMetadata struct{}

func (noMetadata) Run(context.Context, string) (*engine.Result, error) {
	return &engine.Result{}, nil
}

func TestReport_Render(t *testing.T) {
	cfg := newConfig(t, 21, 33)
	report, err := New(cfg, &enginetest.Fake{ReadLengths: []int{100}}).Run(context.Background())
	require.NoError(t, err)
	report.RunID = "run-1"

	out := report.Render()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "[21 33]")
	assert.Contains(t, out, "Passes ->")
	assert.Contains(t, out, "fresh")
}
