package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/asmkit/multik/internal/kmer"
)

var ErrInvalidConfig = errors.New("invalid config")

// PipelineConfig is the validated, read-only configuration of one run.
// Optional engine settings are nil when not configured.
type PipelineConfig struct {
	OutputDir       string
	Dataset         string
	ConfigsDir      string
	ExecutionHome   string
	EngineBinary    string
	ResultContigs   string
	ResultScaffolds string

	// IterativeK is normalized. Components derive schedules from it and
	// never modify it.
	IterativeK kmer.Schedule
	AutoKmers  bool

	MaxThreads int
	MaxMemory  int

	RREnable      bool
	DeveloperMode bool
	Continue      bool
	RestartFrom   *kmer.Directive

	ResolvingMode *string
	Careful       *bool
	PacBio        *PacBio

	Debug     bool
	LogFormat string

	ConfigFileUsed string
	Warnings       []string
}

// PacBio holds the long-read settings handed to the engine.
type PacBio struct {
	Mode  bool
	Reads string
}

// ResultDir is the directory next to the published contigs.
func (c *PipelineConfig) ResultDir() string {
	return filepath.Dir(c.ResultContigs)
}

// Validate checks the fields every run needs.
func (c *PipelineConfig) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Dataset == "" {
		errs = append(errs, errors.New("dataset is required"))
	}
	if c.ConfigsDir == "" {
		errs = append(errs, errors.New("configs directory is required"))
	}
	if c.EngineBinary == "" {
		errs = append(errs, errors.New("engine binary is required"))
	}
	if err := kmer.Validate(c.IterativeK); err != nil {
		errs = append(errs, err)
	}
	if c.MaxThreads <= 0 {
		errs = append(errs, fmt.Errorf("max threads must be positive, got %d", c.MaxThreads))
	}
	if c.MaxMemory <= 0 {
		errs = append(errs, fmt.Errorf("max memory must be positive, got %d", c.MaxMemory))
	}
	if c.PacBio != nil && c.PacBio.Reads == "" {
		errs = append(errs, errors.New("pacbio reads path is required when pacbio is configured"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
