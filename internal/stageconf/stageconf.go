// Package stageconf renders the engine configuration of one pass.
package stageconf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/asmkit/multik/internal/cmn/config"
	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/asmkit/multik/internal/cmn/logger/tag"
	"github.com/asmkit/multik/internal/infocfg"
)

// ErrConfig reports a missing config template or config file.
var ErrConfig = errors.New("config error")

// Keys understood by the engine.
const (
	KeyK                    = "K"
	KeyRunMode              = "run_mode"
	KeyDataset              = "dataset"
	KeyOutputBase           = "output_base"
	KeyEntryPoint           = "entry_point"
	KeyLoadFrom             = "load_from"
	KeyDeveloperMode        = "developer_mode"
	KeyGapCloserEnable      = "gap_closer_enable"
	KeyRREnable             = "rr_enable"
	KeyTopologySimplif      = "topology_simplif_enabled"
	KeyMaxThreads           = "max_threads"
	KeyMaxMemory            = "max_memory"
	KeyCorrectMismatches    = "correct_mismatches"
	KeyUseAdditionalContigs = "use_additional_contigs"
	KeyAdditionalContigs    = "additional_contigs"
	KeyResolvingMode        = "resolving_mode"
	KeyMismatchCareful      = "mismatch_careful"
	KeyPacBioTestOn         = "pacbio_test_on"
	KeyPacBioReads          = "pacbio_reads"
)

// StageInput describes the pass being configured.
type StageInput struct {
	K        int
	Stage    string
	SavesDir string
	Terminal bool
	// SeedContigs is the previous pass's seed file; empty when absent.
	SeedContigs string
}

// Params builds the parameter map for one pass.
func Params(cfg *config.PipelineConfig, in StageInput) map[string]string {
	p := map[string]string{
		KeyK:                 strconv.Itoa(in.K),
		KeyRunMode:           formatBool(false),
		KeyDataset:           quotePath(cfg.Dataset),
		KeyOutputBase:        quotePath(cfg.OutputDir),
		KeyEntryPoint:        in.Stage,
		KeyLoadFrom:          in.SavesDir,
		KeyDeveloperMode:     formatBool(cfg.DeveloperMode),
		KeyGapCloserEnable:   formatBool(in.Terminal),
		KeyRREnable:          formatBool(in.Terminal && cfg.RREnable),
		KeyTopologySimplif:   formatBool(in.Terminal),
		KeyMaxThreads:        strconv.Itoa(cfg.MaxThreads),
		KeyMaxMemory:         strconv.Itoa(cfg.MaxMemory),
		KeyCorrectMismatches: formatBool(in.Terminal),
	}

	if in.SeedContigs != "" {
		p[KeyAdditionalContigs] = quotePath(in.SeedContigs)
		p[KeyUseAdditionalContigs] = formatBool(true)
	} else {
		p[KeyUseAdditionalContigs] = formatBool(false)
	}

	if cfg.ResolvingMode != nil {
		p[KeyResolvingMode] = *cfg.ResolvingMode
	}
	if cfg.Careful != nil {
		p[KeyMismatchCareful] = formatBool(*cfg.Careful)
	}
	if cfg.PacBio != nil {
		p[KeyPacBioTestOn] = formatBool(cfg.PacBio.Mode)
		p[KeyPacBioReads] = quotePath(cfg.PacBio.Reads)
	}
	return p
}

// Materialize writes params into the config file at path. Keys the file
// does not declare are logged and skipped.
func Materialize(ctx context.Context, path string, params map[string]string) error {
	missing, err := infocfg.Substitute(path, params)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: config file %s not found", ErrConfig, path)
		}
		return fmt.Errorf("failed to materialize %s: %w", path, err)
	}
	for _, key := range missing {
		logger.Info(ctx, "Parameter not declared in config, skipped", tag.Key(key), tag.File(path))
	}
	return nil
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

// quotePath wraps paths containing spaces in double quotes.
func quotePath(path string) string {
	if strings.Contains(path, " ") {
		return `"` + path + `"`
	}
	return path
}
