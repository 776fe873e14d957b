package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestRun writes a running run started offset after testEpoch.
func createTestRun(t *testing.T, s *Store, offset time.Duration) Run {
	t.Helper()
	run := NewRun("trees.tsv", "fail-fast", testEpoch.Add(offset))
	require.NoError(t, s.WriteRun(context.Background(), run))
	return run
}

func migratedRecord(runID string, line int) Record {
	return Record{
		RunID:        runID,
		Line:         line,
		Status:       RecordMigrated,
		InputDigest:  "in-" + runID,
		OutputDigest: "out-" + runID,
	}
}

func failedRecord(runID string, line int) Record {
	return Record{
		RunID:       runID,
		Line:        line,
		Status:      RecordFailed,
		InputDigest: "bad-" + runID,
		Code:        "UNSUPPORTED_PREDICATE",
		Reason:      `unsupported predicate "exists"`,
		Path:        "left.predicate",
		Details:     map[string]string{"operator": "exists"},
	}
}
