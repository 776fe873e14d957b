package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/treemig/internal/batch"
	"github.com/roach88/treemig/internal/config"
	"github.com/roach88/treemig/internal/log"
	"github.com/roach88/treemig/internal/schema"
	"github.com/roach88/treemig/internal/store"
	"github.com/roach88/treemig/internal/tree"
)

// stdinName selects standard input as a migrate input.
const stdinName = "-"

// now stamps ledger runs.
var now = time.Now

// MigrateOptions holds flags for the migrate command. Everything except
// Output is resolved through config.Load.
type MigrateOptions struct {
	*RootOptions
	Output string
}

// migrateSummary is the JSON payload for one input.
type migrateSummary struct {
	Input    string `json:"input"`
	RunID    string `json:"run_id,omitempty"`
	Lines    int    `json:"lines"`
	Records  int    `json:"records"`
	Migrated int    `json:"migrated"`
	Failed   int    `json:"failed"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate [file...]",
		Short: "Migrate tree records to the new predicate encoding",
		Long: `Migrate reads delimited records, one per line, and rewrites the tree
column of each to the new predicate encoding. Other columns are copied
unchanged and output lines keep input order. Empty lines are passed through.

With no files, or "-", records are read from stdin.

In fail-fast mode the first failing record stops the run; nothing from that
record on is written. In skip mode failing records are logged and dropped
and the command exits 1 once all input is processed.

Exit codes:
  0 - Every record migrated
  1 - One or more records failed
  2 - Command error (bad flags, unreadable input, ledger errors)

Examples:
  treemig migrate trees.tsv -o migrated.tsv
  treemig migrate --mode skip --workers 8 < trees.tsv
  treemig migrate --delimiter , --column 2 --verify trees.csv
  treemig migrate --ledger runs.db trees.tsv`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	f.String("mode", config.DefaultMode, "failure handling (fail-fast|skip)")
	f.Int("column", config.DefaultColumn, "tree column, negative counts from the end")
	f.String("delimiter", `\t`, "column delimiter")
	f.Int("workers", config.DefaultWorkers, "parallel migration workers")
	f.Int("max-depth", config.DefaultMaxDepth, "maximum split nesting (0 disables the limit)")
	f.Bool("strict-complement", false, "require complementary predicates to compare equal values")
	f.Bool("verify", false, "validate every migrated split against the schema")
	f.String("ledger", "", "record outcomes in this SQLite ledger")

	return cmd
}

func runMigrate(cmd *cobra.Command, opts *MigrateOptions, args []string) error {
	cfg := opts.Config
	ctx := cmd.Context()
	logger := log.FromContext(ctx)

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{stdinName}
	}

	// Diagnostics go to stderr; stdout carries only records.
	diag := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.ErrOrStderr(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	bopts, err := driverOptions(cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "", err)
	}

	var ledger *store.Store
	if cfg.Ledger != "" {
		ledger, err = store.Open(cfg.Ledger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open ledger", err)
		}
		defer ledger.Close()
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		file, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output", err)
		}
		defer file.Close()
		out = file
	}

	var summaries []migrateSummary
	skipped := false
	for _, input := range inputs {
		r, closeInput, err := openInput(cmd.InOrStdin(), input)
		if err != nil {
			return WrapExitError(ExitCommandError, "", err)
		}
		sum, err := migrateInput(ctx, input, r, out, bopts, ledger, logger)
		closeInput()
		summaries = append(summaries, sum)
		diag.VerboseLog("%s: %d records, %d migrated, %d failed", input, sum.Records, sum.Migrated, sum.Failed)

		var exitErr *ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			return err
		case errors.Is(err, batch.ErrRecordsFailed):
			// Skip mode: keep going, report at the end.
			skipped = true
		default:
			return reportMigrateError(diag, input, err)
		}
	}

	if opts.Output != "" && opts.Format == "json" {
		if err := opts.formatter(cmd).Success(summaries); err != nil {
			return err
		}
	}

	if skipped {
		total := 0
		for _, s := range summaries {
			total += s.Failed
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("%d record(s) failed", total), batch.ErrRecordsFailed)
	}
	return nil
}

// driverOptions maps resolved configuration onto batch options.
func driverOptions(cfg *config.Config, logger *slog.Logger) (batch.Options, error) {
	mode, err := batch.ParseMode(cfg.Mode)
	if err != nil {
		return batch.Options{}, err
	}

	opts := batch.DefaultOptions()
	opts.Mode = mode
	opts.Column = cfg.Column
	opts.Delimiter = cfg.Delimiter
	opts.Workers = cfg.Workers
	opts.Logger = logger
	opts.Migrator = tree.NewMigrator(
		tree.WithStrictComplement(cfg.StrictComplement),
		tree.WithMaxDepth(cfg.MaxDepth),
	)

	if cfg.Verify {
		v, err := schema.NewVerifier()
		if err != nil {
			return batch.Options{}, fmt.Errorf("failed to load schema: %w", err)
		}
		opts.Verifier = v
	}
	return opts, nil
}

// migrateInput runs one input through a driver, bracketing it with a ledger
// run when a ledger is configured.
func migrateInput(
	ctx context.Context,
	input string,
	r io.Reader,
	w io.Writer,
	opts batch.Options,
	ledger *store.Store,
	logger *slog.Logger,
) (migrateSummary, error) {
	summary := migrateSummary{Input: input}

	if ledger != nil {
		run := store.NewRun(input, string(opts.Mode), now())
		if err := ledger.WriteRun(ctx, run); err != nil {
			return summary, WrapExitError(ExitCommandError, "failed to record run", err)
		}
		opts.Ledger = ledger
		opts.RunID = run.ID
		summary.RunID = run.ID
	}

	driver, err := batch.NewDriver(opts)
	if err != nil {
		return summary, WrapExitError(ExitCommandError, "", err)
	}

	sum, runErr := driver.Run(ctx, r, w)
	summary.Lines = sum.Lines
	summary.Records = sum.Records
	summary.Migrated = sum.Migrated
	summary.Failed = sum.Failed

	if ledger != nil {
		status := store.RunSucceeded
		if runErr != nil {
			status = store.RunFailed
		}
		if err := ledger.FinishRun(context.WithoutCancel(ctx), opts.RunID, status, now()); err != nil {
			return summary, WrapExitError(ExitCommandError, "failed to finish run", err)
		}
	}

	logger.Info("migrated input",
		"input", input,
		"run_id", summary.RunID,
		"records", sum.Records,
		"migrated", sum.Migrated,
		"failed", sum.Failed,
	)
	return summary, runErr
}

// openInput opens a named file, or stdin for "-".
func openInput(stdin io.Reader, name string) (io.Reader, func(), error) {
	if name == stdinName {
		return stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// reportMigrateError prints a fail-fast record failure, or any other run
// error, and maps it to an exit code.
func reportMigrateError(f *OutputFormatter, input string, err error) error {
	var recErr *batch.RecordError
	if !errors.As(err, &recErr) {
		return WrapExitError(ExitCommandError, input, err)
	}

	cliErr := predicateCLIError(recErr.Err)
	cliErr.Code = batch.ErrorCode(recErr.Err)
	cliErr.Message = fmt.Sprintf("%s line %d: %s", input, recErr.Line, cliErr.Message)
	if printErr := f.Error(cliErr); printErr != nil {
		return printErr
	}
	return reportedError(ExitFailure, err)
}
