package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/treemig/internal/ir"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RecordStatus is the outcome of one input record.
type RecordStatus string

const (
	RecordMigrated RecordStatus = "migrated"
	RecordFailed   RecordStatus = "failed"
)

// Run is one migrate invocation.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time // zero while running
	Source        string    // input file names, "-" for stdin
	Mode          string
	ToolVersion   string
	FormatVersion string
	Status        RunStatus
	Records       int
	Migrated      int
	Failed        int
}

// Record is the outcome of one input line.
type Record struct {
	RunID        string
	Line         int
	Status       RecordStatus
	InputDigest  string
	OutputDigest string // empty on failure
	Code         string // predicate error code, empty on success
	Reason       string
	Path         string
	Details      map[string]string
}

// NewRun returns a running Run with a fresh ID, stamped with the current
// tool and format versions.
func NewRun(source, mode string, started time.Time) Run {
	return Run{
		ID:            uuid.NewString(),
		StartedAt:     started.UTC(),
		Source:        source,
		Mode:          mode,
		ToolVersion:   ir.ToolVersion,
		FormatVersion: ir.FormatVersion,
		Status:        RunRunning,
	}
}
