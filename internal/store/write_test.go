package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treemig/internal/ir"
)

func TestNewRun(t *testing.T) {
	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	a := NewRun("-", "skip", started)
	b := NewRun("-", "skip", started)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
	assert.Equal(t, time.UTC, a.StartedAt.Location())
	assert.True(t, a.StartedAt.Equal(started))
	assert.Equal(t, RunRunning, a.Status)
	assert.Equal(t, ir.ToolVersion, a.ToolVersion)
	assert.Equal(t, ir.FormatVersion, a.FormatVersion)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, s, 0)

	require.NoError(t, s.WriteRun(ctx, run))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteRecord_FirstOutcomeWins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, s, 0)

	require.NoError(t, s.WriteRecord(ctx, migratedRecord(run.ID, 1)))
	require.NoError(t, s.WriteRecord(ctx, failedRecord(run.ID, 1)))

	records, err := s.ReadRecords(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, RecordMigrated, records[0].Status)
}

func TestWriteRecord_RequiresRun(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteRecord(context.Background(), migratedRecord("no-such-run", 1))
	assert.Error(t, err, "foreign key must reject records of unknown runs")
}

func TestFinishRun_Counts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, s, 0)

	require.NoError(t, s.WriteRecord(ctx, migratedRecord(run.ID, 1)))
	require.NoError(t, s.WriteRecord(ctx, failedRecord(run.ID, 2)))
	require.NoError(t, s.WriteRecord(ctx, migratedRecord(run.ID, 4)))

	finished := testEpoch.Add(2 * time.Second)
	require.NoError(t, s.FinishRun(ctx, run.ID, RunFailed, finished))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, got.Status)
	assert.Equal(t, 3, got.Records)
	assert.Equal(t, 2, got.Migrated)
	assert.Equal(t, 1, got.Failed)
	assert.True(t, got.FinishedAt.Equal(finished))
}

func TestFinishRun_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	err := s.FinishRun(context.Background(), "missing", RunSucceeded, testEpoch)
	assert.ErrorIs(t, err, ErrRunNotFound)
}
