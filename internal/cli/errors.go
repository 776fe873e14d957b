package cli

import (
	"errors"

	"github.com/roach88/treemig/internal/predicate"
)

// predicateCLIError converts a migration failure to its CLI form.
func predicateCLIError(err error) CLIError {
	var pe *predicate.Error
	if !errors.As(err, &pe) {
		return CLIError{Code: CodeInvalidArgs, Message: err.Error()}
	}
	cliErr := CLIError{
		Code:    string(pe.Code),
		Message: pe.Message,
		Path:    pe.Path,
	}
	if len(pe.Details) > 0 {
		cliErr.Details = pe.Details
	}
	return cliErr
}
