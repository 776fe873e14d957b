package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCoreSuite(t *testing.T) {
	result := RunWithGolden(t, filepath.Join("testdata", "cases", "core.yaml"))

	for _, c := range result.Cases {
		assert.True(t, c.Pass, "%s: %v", c.Name, c.Errors)
	}
	assert.True(t, result.Pass)
	assert.Equal(t, 11, result.Passed)
}

func TestRunReportsMismatches(t *testing.T) {
	suite, err := ParseSuite([]byte(`
name: wrong
cases:
  - name: wrong output
    kind: predicate
    input: '{"lt": 1}'
    expect: {output: '{"gt": 1}'}
  - name: expected error but migrated
    kind: predicate
    input: '{"eq": 1}'
    expect: {error: UNSUPPORTED_PREDICATE}
  - name: wrong code
    kind: predicate
    input: '{"exists": true}'
    expect: {error: STRUCTURAL_ERROR}
  - name: expected output but failed
    kind: predicate
    input: '{"exists": true}'
    expect: {output: '{"isEq": 1}'}
  - name: wrong path
    input: '[{"feature":"x","predicate":{"exists":true},"children":0},{"feature":"x","predicate":{"lt":1},"children":1}]'
    expect: {error: UNSUPPORTED_PREDICATE, path: right.predicate}
  - name: wrong reason
    input: '[{"feature":"x","predicate":{"lt":1},"children":0},{"feature":"y","predicate":{"lt":1},"children":1}]'
    expect: {error: STRUCTURAL_ERROR, reason: not binary}
`))
	require.NoError(t, err)

	result := Run(suite)
	assert.False(t, result.Pass)
	assert.Equal(t, 6, result.Failed)
	assert.Equal(t, 0, result.Passed)

	for _, c := range result.Cases {
		assert.False(t, c.Pass, c.Name)
		assert.NotEmpty(t, c.Errors, c.Name)
	}

	assert.Contains(t, result.Cases[0].Errors[0], "output mismatch")
	assert.Equal(t, `{"isEq":1}`, result.Cases[1].Output)
	assert.Equal(t, "UNSUPPORTED_PREDICATE", result.Cases[2].Code)
	assert.Contains(t, result.Cases[3].Errors[0], "expected output, got error")
	assert.Equal(t, "left.predicate", result.Cases[4].Path)
	assert.Contains(t, result.Cases[5].Errors[0], "expected reason")
}

func TestRunCaseMaxDepth(t *testing.T) {
	suite, err := ParseSuite([]byte(`
name: depth
options: {max_depth: 1}
cases:
  - name: too deep
    input: '[{"feature":"x","predicate":{"lt":1},"children":[{"feature":"y","predicate":{"lt":1},"children":0},{"feature":"y","predicate":{"not":{"lt":1}},"children":1}]},{"feature":"x","predicate":{"not":{"lt":1}},"children":1}]'
    expect: {error: STRUCTURAL_ERROR, reason: maximum depth}
  - name: unlimited
    options: {max_depth: 0}
    input: '[{"feature":"x","predicate":{"lt":1},"children":[{"feature":"y","predicate":{"lt":1},"children":0},{"feature":"y","predicate":{"not":{"lt":1}},"children":1}]},{"feature":"x","predicate":{"not":{"lt":1}},"children":1}]'
    expect: {output: '{"key":"x","predicate":{"lt":1},"left":{"key":"y","predicate":{"lt":1},"left":0,"right":1},"right":1}'}
`))
	require.NoError(t, err)

	result := Run(suite)
	for _, c := range result.Cases {
		assert.True(t, c.Pass, "%s: %v", c.Name, c.Errors)
	}
}

func TestSnapshotOmitsEmptyFields(t *testing.T) {
	result := NewResult("s")
	result.Add(CaseResult{Name: "a", Pass: true, Output: "1"})
	result.Add(CaseResult{Name: "b", Code: "STRUCTURAL_ERROR", Errors: []string{"x"}})

	data, err := Snapshot(result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"cases":[{"name":"a","output":"1","pass":true},{"code":"STRUCTURAL_ERROR","name":"b","pass":false}],"failed":1,"pass":false,"passed":1,"suite":"s"}`,
		string(data),
	)
}
