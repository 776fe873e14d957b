package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/treemig/internal/ir"
)

// Snapshot renders a result as canonical JSON for golden comparison.
// Failure explanations are left out; they are not stable across versions.
func Snapshot(result *Result) ([]byte, error) {
	cases := make(ir.IRArray, len(result.Cases))
	for i, c := range result.Cases {
		obj := ir.IRObject{
			"name": ir.IRString(c.Name),
			"pass": ir.IRBool(c.Pass),
		}
		if c.Output != "" {
			obj["output"] = ir.IRString(c.Output)
		}
		if c.Code != "" {
			obj["code"] = ir.IRString(c.Code)
		}
		if c.Path != "" {
			obj["path"] = ir.IRString(c.Path)
		}
		cases[i] = obj
	}

	return ir.MarshalCanonical(ir.IRObject{
		"suite":  ir.IRString(result.Suite),
		"pass":   ir.IRBool(result.Pass),
		"passed": ir.NewIRInt(int64(result.Passed)),
		"failed": ir.NewIRInt(int64(result.Failed)),
		"cases":  cases,
	})
}

// AssertGolden compares a result snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// RunWithGolden loads the suite at path, runs it and compares the result
// against the golden file named after the suite.
func RunWithGolden(t *testing.T, path string) *Result {
	t.Helper()

	suite, err := LoadSuite(path)
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	result := Run(suite)
	AssertGolden(t, suite.Name, result)
	return result
}
