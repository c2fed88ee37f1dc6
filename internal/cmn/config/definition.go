package config

// Definition holds the raw configuration as read from the config file,
// environment variables and bound command-line flags.
// Each field maps to a configuration key in snake_case.
type Definition struct {
	// OutputDir is the pipeline output directory holding every pass directory.
	OutputDir string `mapstructure:"output_dir"`

	// Dataset is the path of the YAML dataset descriptor.
	Dataset string `mapstructure:"dataset"`

	// ConfigsDir is the root of the shipped engine config templates.
	// The "debruijn" subdirectory is copied into every pass.
	ConfigsDir string `mapstructure:"configs_dir"`

	// ExecutionHome is the directory holding the engine executable.
	ExecutionHome string `mapstructure:"execution_home"`

	// Engine is the engine executable name, resolved against ExecutionHome
	// unless it is an absolute path.
	Engine string `mapstructure:"engine"`

	// ResultContigs and ResultScaffolds are the published result paths.
	ResultContigs   string `mapstructure:"result_contigs"`
	ResultScaffolds string `mapstructure:"result_scaffolds"`

	// IterativeK lists the k-mer values, as a YAML list or "21,33,55".
	IterativeK []int `mapstructure:"iterative_k"`

	// AutoKmers allows presets to replace IterativeK for long reads.
	// Defaults to true when IterativeK is not set explicitly.
	AutoKmers *bool `mapstructure:"auto_kmers"`

	MaxThreads int `mapstructure:"max_threads"`

	// MaxMemory is the memory cap in gigabytes.
	MaxMemory int `mapstructure:"max_memory"`

	RREnable      bool `mapstructure:"rr_enable"`
	DeveloperMode bool `mapstructure:"developer_mode"`

	// Continue resumes a previous run in OutputDir.
	Continue bool `mapstructure:"continue"`

	// RestartFrom is "k<value>" or "k<value>:<stage>". It implies Continue.
	RestartFrom string `mapstructure:"restart_from"`

	// Optional engine settings. They reach the engine config only when set.
	ResolvingMode *string    `mapstructure:"resolving_mode"`
	Careful       *bool      `mapstructure:"careful"`
	PacBio        *PacBioDef `mapstructure:"pacbio"`

	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
}

// PacBioDef configures the long-read test mode of the engine.
type PacBioDef struct {
	Mode  bool   `mapstructure:"mode"`
	Reads string `mapstructure:"reads"`
}
