// Package enginetest provides an in-process engine for tests. It writes the
// files a real engine run leaves in the pass directory.
package enginetest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/asmkit/multik/internal/engine"
	"github.com/asmkit/multik/internal/infocfg"
	"github.com/asmkit/multik/internal/layout"
	"github.com/stretchr/testify/require"
)

var _ engine.Engine = (*Fake)(nil)

// Call records one engine invocation.
type Call struct {
	ConfigPath string
	Params     map[string]string
}

// K returns the k-mer value the call was configured with.
func (c Call) K() int {
	k, _ := strconv.Atoi(c.Params["K"])
	return k
}

// Fake is an engine that records calls and writes pass outputs.
type Fake struct {
	// ReadLengths are written to _est_params.info, one per library.
	ReadLengths []int
	// FailK makes the run for that k exit with code 1 after creating saves.
	FailK int
	// NoSeed suppresses simplified_contigs.fasta.
	NoSeed bool

	mu    sync.Mutex
	calls []Call
}

// Run implements engine.Engine.
func (f *Fake) Run(_ context.Context, configPath string) (*engine.Result, error) {
	cfg, err := infocfg.Load(configPath)
	if err != nil {
		return nil, err
	}
	call := Call{ConfigPath: configPath, Params: make(map[string]string)}
	for _, key := range cfg.Keys() {
		call.Params[key], _ = cfg.Get(key)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	res := &engine.Result{Command: []string{"fake", configPath}}
	dir := filepath.Dir(filepath.Dir(configPath))
	if call.K() == f.FailK {
		// A failed run still leaves its checkpoints behind.
		if err := os.MkdirAll(layout.SavesDir(dir), 0750); err != nil {
			return nil, err
		}
		res.ExitCode = 1
		res.Stderr = "fake failure\n"
		return res, nil
	}
	return res, f.writeOutputs(dir, call)
}

func (f *Fake) writeOutputs(dir string, call Call) error {
	if err := os.MkdirAll(layout.SavesDir(dir), 0750); err != nil {
		return err
	}
	est := fmt.Sprintf("lib_count %d\n", len(f.ReadLengths))
	for i, rl := range f.ReadLengths {
		est += fmt.Sprintf("read_length_%d %d\n", i, rl)
	}
	files := map[string]string{
		layout.EstParams(dir):    est,
		layout.FinalContigs(dir): fmt.Sprintf(">K%s_final\nACGTACGT\n", call.Params["K"]),
		layout.BeforeRR(dir):     fmt.Sprintf(">K%s_before_rr\nACGT\n", call.Params["K"]),
	}
	if !f.NoSeed {
		files[layout.SeedContigs(dir)] = ">seed\nACG\n"
	}
	if call.Params["rr_enable"] == "true" {
		files[layout.Scaffolds(dir)] = fmt.Sprintf(">K%s_scaffold\nACGTNNACGT\n", call.Params["K"])
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			return err
		}
	}
	return nil
}

// Calls returns the recorded calls in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Ks returns the k-mer values of the recorded calls in order.
func (f *Fake) Ks() []int {
	var ks []int
	for _, c := range f.Calls() {
		ks = append(ks, c.K())
	}
	return ks
}

// ConfigKeys are the keys declared by the template WriteConfigs creates.
var ConfigKeys = []string{
	"K", "run_mode", "dataset", "output_base", "entry_point", "load_from",
	"developer_mode", "gap_closer_enable", "rr_enable", "topology_simplif_enabled",
	"max_threads", "max_memory", "correct_mismatches", "use_additional_contigs",
	"additional_contigs", "resolving_mode", "mismatch_careful", "pacbio_test_on",
	"pacbio_reads",
}

// WriteConfigs creates a configs root holding the debruijn template set
// and returns its path.
func WriteConfigs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	set := layout.TemplateRoot(root)
	require.NoError(t, os.MkdirAll(filepath.Join(set, "simplification"), 0750))

	var main string
	for _, key := range ConfigKeys {
		main += key + " none\n"
	}
	main += "#include \"simplification/simplification.info\"\n"

	files := map[string]string{
		"config.info" + layout.TemplateSuffix:                        main,
		"construction.info" + layout.TemplateSuffix:                  "early_tc\n{\n    enable true\n}\n",
		"construction.info":                                          "early_tc\n{\n    enable false\n}\n",
		"simplification/simplification.info" + layout.TemplateSuffix: "tc\n{\n    max_length 100\n}\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(set, name), []byte(content), 0600))
	}
	return root
}
