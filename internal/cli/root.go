package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/treemig/internal/config"
	"github.com/roach88/treemig/internal/ir"
	"github.com/roach88/treemig/internal/log"
)

// RootOptions holds global flags and the state resolved from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Set by PersistentPreRunE. The logger travels in the command context.
	Config *config.Config
}

// NewRootCommand creates the root command for the treemig CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "treemig",
		Short:   "Migrate decision trees to the new predicate encoding",
		Version: ir.ToolVersion,
		Long: `treemig rewrites serialized decision trees from the legacy predicate
encoding (eq, lt, not, or, exists) to the restricted encoding (isEq, notEq,
lt, ltEq, gt, gtEq). A tree is migrated only when every split can be
represented exactly; anything else is rejected, never approximated.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (implies --log-level debug)")
	pf.StringVar(&opts.Format, "format", config.DefaultFormat, "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default treemig.yaml if present)")
	pf.String("log-level", config.DefaultLogLevel, fmt.Sprintf("log level (%s)", strings.Join(log.AllLevels, "|")))
	pf.String("log-format", config.DefaultLogFormat, fmt.Sprintf("log format (%s)", strings.Join(log.AllFormats, "|")))

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "", err)
	})

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// resolve loads configuration and installs the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	flags := cmd.Flags()

	cfg, err := config.Load(o.ConfigFile, flags)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.Verbose && !changed(flags, "log-level") {
		cfg.LogLevel = string(log.LevelDebug)
	}
	o.Config = cfg
	o.Format = cfg.Format

	handler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	logger := slog.New(handler)
	cmd.SetContext(log.NewContext(cmd.Context(), logger))

	if cfg.FileUsed != "" {
		logger.Debug("loaded config file", "path", cfg.FileUsed)
	}
	return nil
}

// formatter returns an OutputFormatter writing to cmd's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func changed(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// exactArgs is cobra.ExactArgs reporting a command error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "", err)
		}
		return nil
	}
}

// rangeArgs is cobra.RangeArgs reporting a command error.
func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(min, max)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "", err)
		}
		return nil
	}
}
