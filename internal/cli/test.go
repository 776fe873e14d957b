package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/treemig/internal/harness"
	"github.com/roach88/treemig/internal/log"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // suite filter (glob pattern)
}

// SuiteResult holds the result of a single suite file.
type SuiteResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Cases  int      `json:"cases"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Suites []SuiteResult `json:"suites"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
	Total  int           `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <cases.yaml|dir>...",
		Short: "Run fixture suites",
		Long: `Run fixture suites against the predicate algebra and tree migrator.

Each argument is a suite file or a directory searched for .yaml/.yml
suites. When a golden file exists at <dir>/golden/<suite>.golden the suite
result must also match it.

Exit codes:
  0 - All suites passed
  1 - One or more suites failed
  2 - Command error (invalid paths, etc.)

Examples:
  treemig test ./cases
  treemig test ./cases --filter "union-*"
  treemig test ./cases/core.yaml --update
  treemig test ./cases --format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return WrapExitError(ExitCommandError, "", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern on the file name")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	var suiteFiles []string
	for _, path := range paths {
		files, err := findSuiteFiles(path, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "", err)
		}
		suiteFiles = append(suiteFiles, files...)
	}

	if len(suiteFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Suites: []SuiteResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No suites found.")
		return nil
	}

	result := TestResult{
		Suites: make([]SuiteResult, 0, len(suiteFiles)),
		Total:  len(suiteFiles),
	}

	for _, suiteFile := range suiteFiles {
		suiteResult := runSuite(suiteFile, opts, cmd)
		result.Suites = append(result.Suites, suiteResult)

		if suiteResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// findSuiteFiles returns path itself if it is a file, or every YAML suite
// below it if it is a directory. Golden directories are skipped.
func findSuiteFiles(path string, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("suite path not found: %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// runSuite runs one suite file, prints its outcome in text mode and
// returns the result.
func runSuite(suiteFile string, opts *TestOptions, cmd *cobra.Command) SuiteResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"
	fail := func(name string, res SuiteResult, lines ...string) SuiteResult {
		res.Pass = false
		res.Errors = append(res.Errors, lines...)
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, l := range lines {
				fmt.Fprintf(w, "  %s\n", l)
			}
		}
		return res
	}

	suite, err := harness.LoadSuite(suiteFile)
	if err != nil {
		name := filepath.Base(suiteFile)
		return fail(name, SuiteResult{Name: name, File: suiteFile}, fmt.Sprintf("load error: %v", err))
	}

	res := SuiteResult{Name: suite.Name, File: suiteFile, Cases: len(suite.Cases)}
	result := harness.Run(suite)
	log.FromContext(cmd.Context()).Debug("ran suite", "suite", suite.Name, "passed", result.Passed, "failed", result.Failed)

	snapshot, err := harness.Snapshot(result)
	if err != nil {
		return fail(suite.Name, res, fmt.Sprintf("snapshot error: %v", err))
	}

	goldenPath := goldenFilePath(suiteFile, suite.Name)
	if opts.Update {
		if err := updateGoldenFile(goldenPath, snapshot); err != nil {
			return fail(suite.Name, res, fmt.Sprintf("golden update error: %v", err))
		}
		if text {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", suite.Name)
		}
		res.Pass = true
		return res
	}

	var errs []string
	for _, c := range result.Cases {
		for _, e := range c.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", c.Name, e))
		}
	}

	match, err := compareWithGolden(goldenPath, snapshot)
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("golden comparison error: %v", err))
	case !match:
		errs = append(errs, "golden file mismatch (run with --update to regenerate)")
	}

	if len(errs) > 0 || !result.Pass {
		return fail(suite.Name, res, errs...)
	}
	if text {
		fmt.Fprintf(w, "✓ %s (%d cases)\n", suite.Name, res.Cases)
	}
	res.Pass = true
	return res
}

// goldenFilePath returns the golden file for a suite: golden/<name>.golden
// next to the suite file.
func goldenFilePath(suiteFile, name string) string {
	return filepath.Join(filepath.Dir(suiteFile), "golden", name+".golden")
}

func updateGoldenFile(goldenPath string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, snapshot, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden reports whether snapshot matches the golden file.
// A missing golden file matches.
func compareWithGolden(goldenPath string, snapshot []byte) (bool, error) {
	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(bytes.TrimSpace(golden), bytes.TrimSpace(snapshot)), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}

	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    CodeTestFailed,
			Message: fmt.Sprintf("%d suite(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return reportedError(ExitFailure, fmt.Errorf("%d suite(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All suites passed")
	return nil
}
