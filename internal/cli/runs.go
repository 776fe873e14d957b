package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/treemig/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Digest string
}

// runView is the JSON form of a ledger run.
type runView struct {
	ID            string `json:"id"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at,omitempty"`
	Source        string `json:"source"`
	Mode          string `json:"mode"`
	ToolVersion   string `json:"tool_version"`
	FormatVersion string `json:"format_version"`
	Status        string `json:"status"`
	Records       int    `json:"records"`
	Migrated      int    `json:"migrated"`
	Failed        int    `json:"failed"`
}

// recordView is the JSON form of a ledger record.
type recordView struct {
	RunID        string            `json:"run_id"`
	Line         int               `json:"line"`
	Status       string            `json:"status"`
	InputDigest  string            `json:"input_digest"`
	OutputDigest string            `json:"output_digest,omitempty"`
	Code         string            `json:"code,omitempty"`
	Reason       string            `json:"reason,omitempty"`
	Path         string            `json:"path,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Inspect the run ledger",
		Long: `Runs lists the migrate runs recorded in a ledger. Given a run ID it
shows the outcome of every record in that run. With --digest it shows every
recorded outcome for one input tree across all runs.

Examples:
  treemig runs --ledger runs.db
  treemig runs --ledger runs.db 0b7c...
  treemig runs --ledger runs.db --digest 3f1a...`,
		Args: rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, opts, args)
		},
	}

	cmd.Flags().String("ledger", "", "SQLite ledger to read")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "show outcomes for this input digest")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions, args []string) error {
	path := opts.Config.Ledger
	if path == "" {
		return NewExitError(ExitCommandError, "no ledger configured (use --ledger)")
	}
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "ledger not found", err)
	}

	ledger, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer ledger.Close()

	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	switch {
	case len(args) == 1:
		run, err := ledger.ReadRun(ctx, args[0])
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error(CLIError{Code: CodeLedger, Message: fmt.Sprintf("run not found: %s", args[0])})
			return reportedError(ExitFailure, err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "", err)
		}
		records, err := ledger.ReadRecords(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "", err)
		}
		if opts.Format == "json" {
			return formatter.Success(map[string]any{
				"run":     newRunView(run),
				"records": newRecordViews(records),
			})
		}
		writeRun(formatter.Writer, run)
		return writeRecords(formatter.Writer, records)

	case opts.Digest != "":
		records, err := ledger.FindByInputDigest(ctx, opts.Digest)
		if err != nil {
			return WrapExitError(ExitCommandError, "", err)
		}
		if opts.Format == "json" {
			return formatter.Success(newRecordViews(records))
		}
		return writeRecords(formatter.Writer, records)

	default:
		runs, err := ledger.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "", err)
		}
		if opts.Format == "json" {
			views := make([]runView, len(runs))
			for i, r := range runs {
				views[i] = newRunView(r)
			}
			return formatter.Success(views)
		}
		return writeRuns(formatter.Writer, runs)
	}
}

func newRunView(r store.Run) runView {
	v := runView{
		ID:            r.ID,
		StartedAt:     r.StartedAt.Format(time.RFC3339),
		Source:        r.Source,
		Mode:          r.Mode,
		ToolVersion:   r.ToolVersion,
		FormatVersion: r.FormatVersion,
		Status:        string(r.Status),
		Records:       r.Records,
		Migrated:      r.Migrated,
		Failed:        r.Failed,
	}
	if !r.FinishedAt.IsZero() {
		v.FinishedAt = r.FinishedAt.Format(time.RFC3339)
	}
	return v
}

func newRecordViews(records []store.Record) []recordView {
	views := make([]recordView, len(records))
	for i, r := range records {
		views[i] = recordView{
			RunID:        r.RunID,
			Line:         r.Line,
			Status:       string(r.Status),
			InputDigest:  r.InputDigest,
			OutputDigest: r.OutputDigest,
			Code:         r.Code,
			Reason:       r.Reason,
			Path:         r.Path,
			Details:      r.Details,
		}
	}
	return views
}

func writeRuns(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tMODE\tRECORDS\tMIGRATED\tFAILED\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Status, r.Mode,
			r.Records, r.Migrated, r.Failed, r.Source)
	}
	return tw.Flush()
}

func writeRun(w io.Writer, r store.Run) {
	fmt.Fprintf(w, "Run:      %s\n", r.ID)
	fmt.Fprintf(w, "Source:   %s\n", r.Source)
	fmt.Fprintf(w, "Mode:     %s\n", r.Mode)
	fmt.Fprintf(w, "Status:   %s\n", r.Status)
	fmt.Fprintf(w, "Started:  %s\n", r.StartedAt.Format(time.RFC3339))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Version:  %s (format %s)\n", r.ToolVersion, r.FormatVersion)
	fmt.Fprintf(w, "Records:  %d migrated, %d failed, %d total\n\n", r.Migrated, r.Failed, r.Records)
}

func writeRecords(w io.Writer, records []store.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tLINE\tSTATUS\tCODE\tPATH\tREASON")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.RunID), strconv.Itoa(r.Line), r.Status,
			dash(r.Code), dash(r.Path), dash(r.Reason))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
