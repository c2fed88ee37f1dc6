package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/asmkit/multik/internal/build"
	"github.com/asmkit/multik/internal/cmn/config"
	"github.com/asmkit/multik/internal/cmn/fileutil"
	"github.com/asmkit/multik/internal/cmn/logger"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Context holds the configuration for a command.
type Context struct {
	context.Context

	Command *cobra.Command
	Flags   []commandLineFlag
	Config  *config.PipelineConfig
	Quiet   bool
	RunID   string
}

// LogToFile creates a new logger context with a file writer.
func (c *Context) LogToFile(f *os.File) {
	c.Context = logger.WithLogger(c.Context, logger.NewLogger(c.loggerOptions(f)...))
}

func (c *Context) loggerOptions(f *os.File) []logger.Option {
	var opts []logger.Option
	if c.Config.Debug || os.Getenv("DEBUG") != "" {
		opts = append(opts, logger.WithDebug())
	}
	if c.Quiet {
		opts = append(opts, logger.WithQuiet())
	}
	if c.Config.LogFormat != "" {
		opts = append(opts, logger.WithFormat(c.Config.LogFormat))
	}
	if f != nil {
		opts = append(opts, logger.WithWriter(f))
	}
	return opts
}

// OpenLogFile opens the run log inside the output directory.
func (c *Context) OpenLogFile() (*os.File, error) {
	return fileutil.OpenOrCreateFile(filepath.Join(c.Config.OutputDir, build.Slug+".log"))
}

// NewContext loads the environment file and the configuration, and sets up
// the logger. Warnings collected while loading are logged.
func NewContext(cmd *cobra.Command, flags []commandLineFlag) (*Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	if err := bindFlags(v, cmd, flags...); err != nil {
		return nil, err
	}

	var loaderOpts []config.LoaderOption
	if cfgPath, _ := cmd.Flags().GetString("config"); cfgPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(cfgPath))
	}

	cfg, err := config.NewLoader(v, loaderOpts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	runID, err := genRunID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}

	c := &Context{
		Context: ctx,
		Command: cmd,
		Flags:   flags,
		Config:  cfg,
		Quiet:   quiet,
		RunID:   runID,
	}
	c.Context = logger.WithLogger(ctx, logger.NewLogger(c.loggerOptions(nil)...))

	for _, w := range cfg.Warnings {
		logger.Warn(c, w)
	}
	return c, nil
}

// NewCommand creates a new command instance with the given cobra command and run function.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, runFunc func(cmd *Context, args []string) error) *cobra.Command {
	initFlags(cmd, flags...)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, err := NewContext(cmd, flags)
		if err != nil {
			fmt.Printf("Initialization error: %v\n", err)
			os.Exit(1)
		}
		if err := runFunc(ctx, args); err != nil {
			logger.Error(ctx.Context, "Command failed", "err", err)
			os.Exit(1)
		}
		return nil
	}

	return cmd
}

// genRunID creates a new UUID string identifying one invocation.
func genRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
