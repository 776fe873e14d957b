package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/treemig/internal/log"
	"github.com/roach88/treemig/internal/predicate"
)

// translation is the JSON payload of the translate command.
type translation struct {
	Input  string          `json:"input"`
	Output json.RawMessage `json:"output"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <old-predicate-json|->",
		Short: "Translate a single old-form predicate",
		Long: `Translate rewrites one old-form predicate to its new-form equivalent
and prints it as compact JSON. Pass "-" to read the predicate from stdin.

Exit codes:
  0 - Translated
  1 - The predicate has no exact new-form equivalent
  2 - Command error

Examples:
  treemig translate '{"not": {"lt": 5}}'
  treemig translate '{"or": [{"lt": 5}, {"eq": 5}]}' --format json
  echo '{"eq": "red"}' | treemig translate -`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, rootOpts, args[0])
		},
	}
}

func runTranslate(cmd *cobra.Command, opts *RootOptions, arg string) error {
	formatter := opts.formatter(cmd)

	input := []byte(arg)
	if arg == stdinName {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		input = []byte(strings.TrimSpace(string(data)))
	}

	old, err := predicate.DecodeOld(input)
	if err == nil {
		var translated predicate.New
		translated, err = predicate.Translate(old)
		if err == nil {
			return outputTranslation(formatter, old, translated)
		}
	}

	log.FromContext(cmd.Context()).Debug("translation failed", "input", string(input), "error", err)
	if printErr := formatter.Error(predicateCLIError(err)); printErr != nil {
		return printErr
	}
	return reportedError(ExitFailure, err)
}

func outputTranslation(f *OutputFormatter, old predicate.Old, p predicate.New) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode predicate: %w", err)
	}
	if f.Format == "json" {
		return f.Success(translation{Input: predicate.FormatOld(old), Output: data})
	}
	return f.Success(string(data))
}
