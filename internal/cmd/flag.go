package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type commandLineFlag struct {
	name, shorthand, defaultValue, usage string
	required                             bool
	isBool                               bool
	// key is the config key the flag is bound to. Empty means the flag is
	// read from cobra only.
	key string
}

var (
	configFlag = commandLineFlag{
		name:      "config",
		shorthand: "c",
		usage:     "config file (default is $HOME/.config/multik/config.yaml)",
	}
	envFileFlag = commandLineFlag{
		name:  "env-file",
		usage: "dotenv file loaded before the configuration",
	}
	quietFlag = commandLineFlag{
		name:      "quiet",
		shorthand: "q",
		usage:     "suppress console log output",
		isBool:    true,
	}
	outputDirFlag = commandLineFlag{
		name:      "output-dir",
		shorthand: "o",
		usage:     "output directory of the run",
		key:       "output_dir",
	}
	datasetFlag = commandLineFlag{
		name:      "dataset",
		shorthand: "d",
		usage:     "dataset descriptor (YAML)",
		key:       "dataset",
	}
	configsDirFlag = commandLineFlag{
		name:  "configs-dir",
		usage: "engine config templates (default is <execution-home>/configs)",
		key:   "configs_dir",
	}
	executionHomeFlag = commandLineFlag{
		name:  "execution-home",
		usage: "directory holding the engine binary and its configs",
		key:   "execution_home",
	}
	engineFlag = commandLineFlag{
		name:  "engine",
		usage: "engine binary, absolute or relative to the execution home",
		key:   "engine",
	}
	iterativeKFlag = commandLineFlag{
		name:      "iterative-k",
		shorthand: "k",
		usage:     "comma-separated odd k-mer sizes, e.g. 21,33,55",
		key:       "iterative_k",
	}
	autoKmersFlag = commandLineFlag{
		name:   "auto-kmers",
		usage:  "replace the k-mer sizes with a preset chosen from the read length",
		isBool: true,
		key:    "auto_kmers",
	}
	maxThreadsFlag = commandLineFlag{
		name:      "threads",
		shorthand: "t",
		usage:     "maximum number of engine threads",
		key:       "max_threads",
	}
	maxMemoryFlag = commandLineFlag{
		name:      "memory",
		shorthand: "m",
		usage:     "engine memory limit in GB",
		key:       "max_memory",
	}
	rrEnableFlag = commandLineFlag{
		name:         "rr-enable",
		defaultValue: "true",
		usage:        "run repeat resolution in the terminal pass",
		isBool:       true,
		key:          "rr_enable",
	}
	developerModeFlag = commandLineFlag{
		name:   "developer-mode",
		usage:  "keep intermediate engine output and link the latest saves",
		isBool: true,
		key:    "developer_mode",
	}
	continueFlag = commandLineFlag{
		name:   "continue",
		usage:  "skip finished passes and resume the interrupted one",
		isBool: true,
		key:    "continue",
	}
	restartFromFlag = commandLineFlag{
		name:  "restart-from",
		usage: "restart from a pass, e.g. k55 or k55:repeat_resolution",
		key:   "restart_from",
	}
	resolvingModeFlag = commandLineFlag{
		name:  "resolving-mode",
		usage: "repeat resolving mode handed to the engine",
		key:   "resolving_mode",
	}
	carefulFlag = commandLineFlag{
		name:   "careful",
		usage:  "let the engine correct mismatches carefully",
		isBool: true,
		key:    "careful",
	}
	debugFlag = commandLineFlag{
		name:   "debug",
		usage:  "enable debug logging",
		isBool: true,
		key:    "debug",
	}
	logFormatFlag = commandLineFlag{
		name:  "log-format",
		usage: "log format: text or json",
		key:   "log_format",
	}
	waitFlag = commandLineFlag{
		name:   "wait",
		usage:  "wait for another run to release the output directory instead of failing",
		isBool: true,
	}
)

// pipelineFlags are shared by the commands that load a pipeline config.
var pipelineFlags = []commandLineFlag{
	outputDirFlag,
	datasetFlag,
	configsDirFlag,
	executionHomeFlag,
	engineFlag,
	iterativeKFlag,
	autoKmersFlag,
	maxThreadsFlag,
	maxMemoryFlag,
	rrEnableFlag,
	developerModeFlag,
	continueFlag,
	restartFromFlag,
	resolvingModeFlag,
	carefulFlag,
	debugFlag,
	logFormatFlag,
}

func initFlags(cmd *cobra.Command, additionalFlags ...commandLineFlag) {
	flags := append([]commandLineFlag{configFlag, envFileFlag, quietFlag}, additionalFlags...)
	for _, flag := range flags {
		if flag.isBool {
			cmd.Flags().BoolP(flag.name, flag.shorthand, flag.defaultValue == "true", flag.usage)
		} else {
			cmd.Flags().StringP(flag.name, flag.shorthand, flag.defaultValue, flag.usage)
		}
		if flag.required {
			if err := cmd.MarkFlagRequired(flag.name); err != nil {
				fmt.Printf("failed to mark flag %s as required: %v\n", flag.name, err)
			}
		}
	}
}

// bindFlags binds keyed flags to v. A flag left unchanged only supplies a
// fallback below the config file and the environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command, flags ...commandLineFlag) error {
	for _, flag := range flags {
		if flag.key == "" {
			continue
		}
		if err := v.BindPFlag(flag.key, cmd.Flags().Lookup(flag.name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.name, err)
		}
	}
	return nil
}
