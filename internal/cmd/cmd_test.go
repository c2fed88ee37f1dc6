package cmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/asmkit/multik/internal/build"
	"github.com/asmkit/multik/internal/cmd"
	"github.com/asmkit/multik/internal/engine/enginetest"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const engineScript = `#!/bin/sh
cfg="$1"
dir=$(dirname "$(dirname "$cfg")")
k=$(sed -n 's/^K \([0-9]*\).*/\1/p' "$cfg")
mkdir -p "$dir/saves"
printf 'lib_count 1\nread_length_0 100\n' > "$dir/_est_params.info"
printf '>K%s_final\nACGTACGT\n' "$k" > "$dir/final_contigs.fasta"
printf '>K%s_before_rr\nACGT\n' "$k" > "$dir/before_rr.fasta"
printf '>seed\nACG\n' > "$dir/simplified_contigs.fasta"
if grep -q '^rr_enable true' "$cfg"; then
  printf '>K%s_scaffold\nACGTNNACGT\n' "$k" > "$dir/scaffolds.fasta"
fi
echo "assembled K$k"
`

type fixture struct {
	ConfigFile string
	OutputDir  string
}

func setup(t *testing.T, extra string) fixture {
	t.Helper()
	dir := t.TempDir()

	engine := filepath.Join(dir, "engine.sh")
	require.NoError(t, os.WriteFile(engine, []byte(engineScript), 0700)) //nolint:gosec

	ds := filepath.Join(dir, "dataset.yaml")
	require.NoError(t, os.WriteFile(ds, []byte("- type: paired-end\n  orientation: fr\n  left reads: [/data/r1.fq]\n  right reads: [/data/r2.fq]\n"), 0600))

	out := filepath.Join(dir, "out")
	content := "output_dir: " + out + "\n" +
		"dataset: " + ds + "\n" +
		"configs_dir: " + enginetest.WriteConfigs(t) + "\n" +
		"engine: " + engine + "\n" +
		"max_threads: 2\n" +
		"max_memory: 4\n" +
		extra
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0600))

	return fixture{ConfigFile: cfg, OutputDir: out}
}

func execute(t *testing.T, c *cobra.Command, args ...string) string {
	t.Helper()

	root := &cobra.Command{Use: "root"}
	root.AddCommand(c)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()))
	return out.String()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, cmd.Version(), "version")
	assert.Equal(t, build.Version+"\n", out)
}

func TestRunCommand(t *testing.T) {
	fx := setup(t, "iterative_k: [21, 33]\n")

	out := execute(t, cmd.Run(), "run", "--config", fx.ConfigFile)
	assert.Contains(t, out, "Passes ->")
	assert.Contains(t, out, "[21 33]")

	assert.Contains(t, readFile(t, filepath.Join(fx.OutputDir, "contigs.fasta")), ">K33_final")
	assert.Contains(t, readFile(t, filepath.Join(fx.OutputDir, "scaffolds.fasta")), ">K33_scaffold")

	log := readFile(t, filepath.Join(fx.OutputDir, "multik.log"))
	assert.Contains(t, log, "Pipeline started")
	assert.Contains(t, log, "assembled K21")
	assert.Contains(t, log, "Pipeline finished")

	t.Run("ContinueSkipsFinishedPasses", func(t *testing.T) {
		out := execute(t, cmd.Run(), "run", "--config", fx.ConfigFile, "--continue")
		assert.Contains(t, out, "skip")
		assert.NotContains(t, out, "fresh")
	})
}

func TestRunCommand_FlagsOverrideDefaults(t *testing.T) {
	fx := setup(t, "")

	execute(t, cmd.Run(), "run", "--config", fx.ConfigFile, "-k", "21", "--rr-enable=false")

	assert.Contains(t, readFile(t, filepath.Join(fx.OutputDir, "contigs.fasta")), ">K21_final")
	assert.NoFileExists(t, filepath.Join(fx.OutputDir, "scaffolds.fasta"))
	assert.NoDirExists(t, filepath.Join(fx.OutputDir, "K33"))
}

func TestPlanCommand(t *testing.T) {
	fx := setup(t, "")

	out := execute(t, cmd.Plan(), "plan", "--config", fx.ConfigFile)
	assert.Contains(t, out, "K-mer sizes: [21 33 55]")
	assert.Contains(t, out, "fresh")
	assert.NoDirExists(t, fx.OutputDir, "planning creates nothing")
}

func TestPlanCommand_EnvFile(t *testing.T) {
	fx := setup(t, "")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MULTIK_ITERATIVE_K=21,77\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("MULTIK_ITERATIVE_K") })

	out := execute(t, cmd.Plan(), "plan", "--config", fx.ConfigFile, "--env-file", envFile)
	assert.Contains(t, out, "K-mer sizes: [21 77]")
}
