package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treemig/internal/batch"
)

const treesFile = "testdata/trees.tsv"

const basicTree = `[{"feature":"x","predicate":{"lt":3},"children":"A"},{"feature":"x","predicate":{"not":{"lt":3}},"children":"B"}]`

const basicMigrated = `{"key":"x","predicate":{"lt":3},"left":"A","right":"B"}`

func TestMigrateFailFastGolden(t *testing.T) {
	stdout, stderr, err := execute(t, "", "--log-level", "error", "migrate", treesFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))

	var recErr *batch.RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 4, recErr.Line)
	assert.Contains(t, stderr, "Error [UNSUPPORTED_PREDICATE]: testdata/trees.tsv line 4:")
	assert.Contains(t, stderr, "(at left.predicate)")

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "migrate_fail_fast", []byte(stdout))
}

func TestMigrateSkipGolden(t *testing.T) {
	stdout, stderr, err := execute(t, "", "--log-format", "json", "migrate", "--mode", "skip", "--workers", "4", treesFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.False(t, IsReported(err))
	assert.ErrorIs(t, err, batch.ErrRecordsFailed)
	assert.Contains(t, err.Error(), "2 record(s) failed")
	assert.Contains(t, stderr, `"msg":"skipped record"`)
	assert.Contains(t, stderr, `"msg":"migrated input"`)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "migrate_skip", []byte(stdout))
}

func TestMigrateModeFromEnv(t *testing.T) {
	t.Setenv("TREEMIG_MODE", "skip")
	t.Setenv("TREEMIG_LOG_LEVEL", "error")

	stdout, _, err := execute(t, "", "migrate", treesFile)
	require.ErrorIs(t, err, batch.ErrRecordsFailed)

	golden, readErr := os.ReadFile("testdata/golden/migrate_skip.golden")
	require.NoError(t, readErr)
	assert.Equal(t, string(golden), stdout)
}

func TestMigrateStdin(t *testing.T) {
	stdout, _, err := execute(t, "7\t"+basicTree+"\n", "migrate")
	require.NoError(t, err)
	assert.Equal(t, "7\t"+basicMigrated+"\n", stdout)

	stdout, _, err = execute(t, basicTree+"\n", "migrate", "-")
	require.NoError(t, err)
	assert.Equal(t, basicMigrated+"\n", stdout)
}

func TestMigrateColumnAndDelimiter(t *testing.T) {
	stdout, _, err := execute(t, basicTree+"|tail\n", "migrate", "--delimiter", "|", "--column", "0")
	require.NoError(t, err)
	assert.Equal(t, basicMigrated+"|tail\n", stdout)
}

func TestMigrateOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.tsv")

	stdout, _, err := execute(t, "a\t"+basicTree+"\n", "--format", "json", "migrate", "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a\t"+basicMigrated+"\n", string(data))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.JSONEq(t, `[{"input":"-","lines":1,"records":1,"migrated":1,"failed":0}]`, mustJSON(t, resp.Data))
}

func TestMigrateStrictComplement(t *testing.T) {
	input := `[{"feature":"x","predicate":{"lt":3},"children":0},{"feature":"x","predicate":{"not":{"lt":7}},"children":1}]` + "\n"

	_, _, err := execute(t, input, "migrate")
	require.NoError(t, err)

	_, stderr, err := execute(t, input, "--log-level", "error", "migrate", "--strict-complement")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [STRUCTURAL_ERROR]")
}

func TestMigrateMaxDepth(t *testing.T) {
	_, stderr, err := execute(t, basicTree+"\n", "--log-level", "error", "migrate", "--max-depth", "1")
	require.NoError(t, err, stderr)

	inner := `[{"feature":"y","predicate":{"eq":1},"children":0},{"feature":"y","predicate":{"not":{"eq":1}},"children":1}]`
	nested := `[{"feature":"x","predicate":{"lt":3},"children":` + inner + `},{"feature":"x","predicate":{"not":{"lt":3}},"children":"B"}]`
	_, stderr, err = execute(t, nested+"\n", "--log-level", "error", "migrate", "--max-depth", "1")
	require.Error(t, err)
	assert.Contains(t, stderr, "tree exceeds maximum depth")
}

func TestMigrateVerify(t *testing.T) {
	input := `[{"feature":{"a":1},"predicate":{"lt":3},"children":0},{"feature":{"a":1},"predicate":{"not":{"lt":3}},"children":1}]` + "\n"

	_, _, err := execute(t, input, "migrate")
	require.NoError(t, err, "object keys migrate without verification")

	stdout, stderr, err := execute(t, input, "--log-level", "error", "migrate", "--verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error [SCHEMA_VIOLATION]")
}

func TestMigrateMissingInput(t *testing.T) {
	_, _, err := execute(t, "", "migrate", filepath.Join(t.TempDir(), "absent.tsv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMigrateInvalidMode(t *testing.T) {
	_, _, err := execute(t, "", "migrate", "--mode", "lenient")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestMigrateSeveralInputs(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.tsv")
	second := filepath.Join(dir, "second.tsv")
	require.NoError(t, os.WriteFile(first, []byte("1\t"+basicTree+"\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("2\t"+basicTree+"\n"), 0o644))

	stdout, _, err := execute(t, "", "--log-level", "error", "migrate", first, second)
	require.NoError(t, err)
	assert.Equal(t, "1\t"+basicMigrated+"\n2\t"+basicMigrated+"\n", stdout)
}
