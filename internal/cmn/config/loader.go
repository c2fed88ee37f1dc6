package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/asmkit/multik/internal/build"
	"github.com/asmkit/multik/internal/cmn/fileutil"
	"github.com/asmkit/multik/internal/kmer"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Defaults applied when a key is not configured anywhere.
const (
	DefaultEngine     = "spades"
	DefaultMaxThreads = 16
	DefaultMaxMemory  = 250
	DefaultLogFormat  = "text"

	defaultContigsName   = "contigs.fasta"
	defaultScaffoldsName = "scaffolds.fasta"
)

// Loader reads and merges configuration from the config file, the
// environment and bound flags.
type Loader struct {
	v          *viper.Viper
	configFile string
	configDir  string
	warnings   []string
}

// LoaderOption defines a functional option for configuring a Loader.
type LoaderOption func(*Loader)

// WithConfigFile sets an explicit configuration file path.
func WithConfigFile(configFile string) LoaderOption {
	return func(l *Loader) {
		l.configFile = configFile
	}
}

// WithConfigDir overrides the directory searched for config.yaml.
func WithConfigDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.configDir = dir
	}
}

// NewLoader creates a Loader with the given viper instance and options.
// Flags should already be bound to v.
func NewLoader(v *viper.Viper, options ...LoaderOption) *Loader {
	loader := &Loader{v: v}
	for _, opt := range options {
		opt(loader)
	}
	return loader
}

// Load reads configuration sources, applies defaults and returns a
// validated PipelineConfig.
func (l *Loader) Load() (*PipelineConfig, error) {
	l.configureViper()
	l.setViperDefaultValues()

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var def Definition
	if err := l.v.Unmarshal(&def, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		kmerListHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg, err := l.buildConfig(def)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	cfg.ConfigFileUsed = l.v.ConfigFileUsed()
	cfg.Warnings = l.warnings
	return cfg, nil
}

func (l *Loader) configureViper() {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		dir := l.configDir
		if dir == "" {
			dir = filepath.Join(xdg.ConfigHome, build.Slug)
		}
		l.v.AddConfigPath(dir)
		l.v.SetConfigName("config")
	}
	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix(strings.ToUpper(build.Slug))
	l.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	l.v.AutomaticEnv()
	l.bindEnvironmentVariables()
}

// envKeys are bound explicitly so that values set only in the
// environment reach Unmarshal.
var envKeys = []string{
	"output_dir",
	"dataset",
	"configs_dir",
	"execution_home",
	"engine",
	"result_contigs",
	"result_scaffolds",
	"iterative_k",
	"auto_kmers",
	"max_threads",
	"max_memory",
	"rr_enable",
	"developer_mode",
	"continue",
	"restart_from",
	"resolving_mode",
	"careful",
	"pacbio.mode",
	"pacbio.reads",
	"debug",
	"log_format",
}

func (l *Loader) bindEnvironmentVariables() {
	for _, key := range envKeys {
		_ = l.v.BindEnv(key)
	}
}

func (l *Loader) setViperDefaultValues() {
	l.v.SetDefault("engine", DefaultEngine)
	l.v.SetDefault("max_threads", DefaultMaxThreads)
	l.v.SetDefault("max_memory", DefaultMaxMemory)
	l.v.SetDefault("rr_enable", true)
	l.v.SetDefault("log_format", DefaultLogFormat)
}

// buildConfig transforms the Definition into a validated PipelineConfig.
func (l *Loader) buildConfig(def Definition) (*PipelineConfig, error) {
	cfg := &PipelineConfig{
		MaxThreads:    def.MaxThreads,
		MaxMemory:     def.MaxMemory,
		RREnable:      def.RREnable,
		DeveloperMode: def.DeveloperMode,
		Continue:      def.Continue,
		Debug:         def.Debug,
		LogFormat:     def.LogFormat,
	}

	if err := l.loadPaths(cfg, def); err != nil {
		return nil, err
	}
	if err := l.loadSchedule(cfg, def); err != nil {
		return nil, err
	}
	l.loadOptionalEngineSettings(cfg, def)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadPaths(cfg *PipelineConfig, def Definition) error {
	paths := []struct {
		name  string
		value string
		dst   *string
	}{
		{"output", def.OutputDir, &cfg.OutputDir},
		{"dataset", def.Dataset, &cfg.Dataset},
		{"configs", def.ConfigsDir, &cfg.ConfigsDir},
		{"execution home", def.ExecutionHome, &cfg.ExecutionHome},
		{"result contigs", def.ResultContigs, &cfg.ResultContigs},
		{"result scaffolds", def.ResultScaffolds, &cfg.ResultScaffolds},
	}
	for _, p := range paths {
		resolved, err := fileutil.ResolvePath(p.value)
		if err != nil {
			return fmt.Errorf("failed to resolve %s path %q: %w", p.name, p.value, err)
		}
		*p.dst = resolved
	}

	if cfg.ConfigsDir == "" && cfg.ExecutionHome != "" {
		cfg.ConfigsDir = filepath.Join(cfg.ExecutionHome, "configs")
	}
	if cfg.OutputDir != "" {
		if cfg.ResultContigs == "" {
			cfg.ResultContigs = filepath.Join(cfg.OutputDir, defaultContigsName)
		}
		if cfg.ResultScaffolds == "" {
			cfg.ResultScaffolds = filepath.Join(cfg.OutputDir, defaultScaffoldsName)
		}
	}

	switch {
	case def.Engine == "":
	case filepath.IsAbs(def.Engine), cfg.ExecutionHome == "":
		cfg.EngineBinary = def.Engine
	default:
		cfg.EngineBinary = filepath.Join(cfg.ExecutionHome, def.Engine)
	}
	return nil
}

func (l *Loader) loadSchedule(cfg *PipelineConfig, def Definition) error {
	cfg.IterativeK = kmer.Normalize(def.IterativeK...)
	if len(def.IterativeK) == 0 {
		cfg.IterativeK = kmer.Default.Clone()
	}

	switch {
	case def.AutoKmers != nil && l.v.IsSet("auto_kmers"):
		cfg.AutoKmers = *def.AutoKmers
	default:
		cfg.AutoKmers = !l.v.IsSet("iterative_k")
	}

	directive, err := kmer.ParseRestart(def.RestartFrom)
	if err != nil {
		return err
	}
	cfg.RestartFrom = directive
	if directive != nil && !cfg.Continue {
		cfg.Continue = true
		l.warnings = append(l.warnings, fmt.Sprintf("Restart from %s enables continue mode", directive))
	}
	return nil
}

// loadOptionalEngineSettings keeps optional settings only when they were
// configured. Bound flags always decode to a value, so presence is
// checked on viper.
func (l *Loader) loadOptionalEngineSettings(cfg *PipelineConfig, def Definition) {
	if def.ResolvingMode != nil && l.v.IsSet("resolving_mode") {
		mode := *def.ResolvingMode
		cfg.ResolvingMode = &mode
	}
	if def.Careful != nil && l.v.IsSet("careful") {
		careful := *def.Careful
		cfg.Careful = &careful
	}
	if def.PacBio != nil && (l.v.IsSet("pacbio.mode") || l.v.IsSet("pacbio.reads")) {
		reads, err := fileutil.ResolvePath(def.PacBio.Reads)
		if err != nil {
			reads = def.PacBio.Reads
			l.warnings = append(l.warnings, fmt.Sprintf("Invalid pacbio reads path: %s", def.PacBio.Reads))
		}
		cfg.PacBio = &PacBio{Mode: def.PacBio.Mode, Reads: reads}
	}
}

// kmerListHook decodes "21, 33,55" into a list of ints.
func kmerListHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]int(nil)) {
			return data, nil
		}
		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []int{}, nil
		}
		var values []int
		for field := range strings.SplitSeq(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("invalid k-mer value %q: %w", field, err)
			}
			values = append(values, n)
		}
		return values, nil
	}
}
