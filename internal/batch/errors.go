package batch

import (
	"errors"
	"fmt"

	"github.com/roach88/treemig/internal/predicate"
)

// MsgMissingColumn is the reason for a line with too few columns.
const MsgMissingColumn = "missing tree column"

// CodeSchemaViolation is recorded in the ledger for records whose migrated
// tree failed verification.
const CodeSchemaViolation = "SCHEMA_VIOLATION"

// ErrRecordsFailed is wrapped by the error Run returns in skip mode when at
// least one record was dropped.
var ErrRecordsFailed = errors.New("records failed")

// RecordError is a failure of one input record.
type RecordError struct {
	// Line is the 1-based input line number.
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ErrorCode classifies a record failure: a predicate error code, or
// CodeSchemaViolation for anything else.
func ErrorCode(err error) string {
	if c := predicate.CodeOf(err); c != "" {
		return string(c)
	}
	return CodeSchemaViolation
}

// reason returns the message and path of a record failure.
func reason(err error) (msg, path string, details map[string]string) {
	var pe *predicate.Error
	if errors.As(err, &pe) {
		return pe.Message, pe.Path, pe.Details
	}
	return err.Error(), "", nil
}
