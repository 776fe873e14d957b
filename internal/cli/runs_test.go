package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treemig/internal/testutil"
)

type runsResponse struct {
	Status string    `json:"status"`
	Data   []runView `json:"data"`
	Error  *CLIError `json:"error"`
}

type runDetailResponse struct {
	Status string `json:"status"`
	Data   struct {
		Run     runView      `json:"run"`
		Records []recordView `json:"records"`
	} `json:"data"`
}

// useClock stamps ledger runs from a step clock for the rest of the test.
func useClock(t *testing.T, step time.Duration) *testutil.StepClock {
	t.Helper()
	clock := testutil.NewStepClock(step)
	now = clock.Now
	t.Cleanup(func() { now = time.Now })
	return clock
}

// migrateWithLedger runs the mixed fixture in skip mode into a fresh ledger.
func migrateWithLedger(t *testing.T) string {
	t.Helper()
	ledger := filepath.Join(t.TempDir(), "runs.db")
	_, _, err := execute(t, "", "--log-level", "error", "migrate", "--mode", "skip", "--ledger", ledger, treesFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	return ledger
}

func TestRunsListsRecordedRuns(t *testing.T) {
	clock := useClock(t, time.Second)
	ledger := migrateWithLedger(t)
	assert.Equal(t, 2, clock.Reads(), "one read to start the run, one to finish it")

	stdout, _, err := execute(t, "", "--format", "json", "runs", "--ledger", ledger)
	require.NoError(t, err)

	var resp runsResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 1)
	run := resp.Data[0]
	assert.Equal(t, treesFile, run.Source)
	assert.Equal(t, "skip", run.Mode)
	assert.Equal(t, "failed", run.Status)
	assert.Equal(t, 6, run.Records)
	assert.Equal(t, 4, run.Migrated)
	assert.Equal(t, 2, run.Failed)
	assert.Equal(t, "2024-01-01T00:00:00Z", run.StartedAt)
	assert.Equal(t, "2024-01-01T00:00:01Z", run.FinishedAt)

	stdout, _, err = execute(t, "", "runs", "--ledger", ledger)
	require.NoError(t, err)
	assert.Contains(t, stdout, "STATUS")
	assert.Contains(t, stdout, run.ID)
}

func TestRunsShowsRecords(t *testing.T) {
	ledger := migrateWithLedger(t)

	stdout, _, err := execute(t, "", "--format", "json", "runs", "--ledger", ledger)
	require.NoError(t, err)
	var list runsResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	require.Len(t, list.Data, 1)
	id := list.Data[0].ID

	stdout, _, err = execute(t, "", "--format", "json", "runs", "--ledger", ledger, id)
	require.NoError(t, err)
	var detail runDetailResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &detail))
	assert.Equal(t, id, detail.Data.Run.ID)

	lines := make([]int, len(detail.Data.Records))
	for i, r := range detail.Data.Records {
		lines[i] = r.Line
	}
	assert.Equal(t, []int{1, 3, 4, 5, 6, 7}, lines, "empty lines are not records")

	failed := detail.Data.Records[2]
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "UNSUPPORTED_PREDICATE", failed.Code)
	assert.Equal(t, "left.predicate", failed.Path)
	assert.Empty(t, failed.OutputDigest)
	assert.Equal(t, map[string]string{"operator": "exists"}, failed.Details)

	migrated := detail.Data.Records[0]
	assert.Equal(t, "migrated", migrated.Status)
	assert.NotEmpty(t, migrated.OutputDigest)

	stdout, _, err = execute(t, "", "runs", "--ledger", ledger, id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run:      "+id)
	assert.Contains(t, stdout, "4 migrated, 2 failed, 6 total")
	assert.Contains(t, stdout, "STRUCTURAL_ERROR")
}

func TestRunsByDigest(t *testing.T) {
	useClock(t, time.Minute)
	ledger := migrateWithLedger(t)
	_, _, err := execute(t, "", "--log-level", "error", "migrate", "--mode", "skip", "--ledger", ledger, treesFile)
	require.Error(t, err)

	stdout, _, err := execute(t, "", "--format", "json", "runs", "--ledger", ledger)
	require.NoError(t, err)
	var list runsResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	require.Len(t, list.Data, 2)

	stdout, _, err = execute(t, "", "--format", "json", "runs", "--ledger", ledger, list.Data[0].ID)
	require.NoError(t, err)
	var detail runDetailResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &detail))
	digest := detail.Data.Records[0].InputDigest

	stdout, _, err = execute(t, "", "--format", "json", "runs", "--ledger", ledger, "--digest", digest)
	require.NoError(t, err)
	var found struct {
		Data []recordView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &found))
	require.Len(t, found.Data, 2, "one outcome per run")
	assert.Equal(t, list.Data[0].ID, found.Data[0].RunID)
	assert.Equal(t, list.Data[1].ID, found.Data[1].RunID)
}

func TestRunsUnknownRun(t *testing.T) {
	ledger := migrateWithLedger(t)

	_, stderr, err := execute(t, "", "runs", "--ledger", ledger, "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E_LEDGER]: run not found: no-such-run")
}

func TestRunsRequiresLedger(t *testing.T) {
	_, _, err := execute(t, "", "runs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "", "runs", "--ledger", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
