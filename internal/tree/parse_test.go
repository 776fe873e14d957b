package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treemig/internal/ir"
	"github.com/roach88/treemig/internal/predicate"
)

func TestParseDecidesShapeOnce(t *testing.T) {
	old, err := Parse([]byte(split(`"x"`, `{"lt":3}`, `"A"`, `{"not":{"lt":3}}`, `"B"`)))
	require.NoError(t, err)

	s, ok := old.(OldSplit)
	require.True(t, ok, "expected OldSplit, got %T", old)
	require.Len(t, s.Branches, 2)
	assert.Equal(t, ir.IRString("x"), s.Branches[0].Feature)
	assert.JSONEq(t, `{"lt":3}`, string(s.Branches[0].Predicate))
	assert.Equal(t, OldLeaf{Raw: []byte(`"A"`)}, s.Branches[0].Children)
	assert.JSONEq(t, `{"not":{"lt":3}}`, string(s.Branches[1].Predicate))
}

func TestParseLeavesPredicatesUndecoded(t *testing.T) {
	old, err := Parse([]byte(split(`"x"`, `{"lt":1,"eq":1}`, `0`, `{"not":3}`, `1`)))
	require.NoError(t, err, "predicate content is checked by Migrate")

	s, ok := old.(OldSplit)
	require.True(t, ok)
	assert.JSONEq(t, `{"not":3}`, string(s.Branches[1].Predicate))
}

func TestParseArraysWithoutFeatureAreLeaves(t *testing.T) {
	for _, input := range []string{`[{"score":1},{"score":2}]`, `[1,{"Feature":"x"}]`, `[[],{}]`} {
		old, err := Parse([]byte(input))
		require.NoError(t, err)
		assert.IsType(t, OldLeaf{}, old, input)
	}
}

func TestParseKeepsOddBranchCounts(t *testing.T) {
	old, err := Parse([]byte(`[{"feature":"x","predicate":{"lt":1},"children":0}]`))
	require.NoError(t, err)

	s, ok := old.(OldSplit)
	require.True(t, ok)
	assert.Len(t, s.Branches, 1, "branch count is checked by Migrate")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		check     func(error) bool
		errSubstr string
	}{
		{"invalid json", `[{"feature":`, predicate.IsStructural, MsgInvalidJSON},
		{"empty input", ``, predicate.IsStructural, MsgInvalidJSON},
		{
			"missing predicate",
			`[{"feature":"x","children":0},{"feature":"x","predicate":{"lt":1},"children":1}]`,
			predicate.IsStructural,
			`missing "predicate"`,
		},
		{
			"missing children",
			`[{"feature":"x","predicate":{"lt":1}},{"feature":"x","predicate":{"lt":1},"children":1}]`,
			predicate.IsStructural,
			`missing "children"`,
		},
		{
			"misspelled feature",
			`[{"feature":"x","predicate":{"exists":1},"children":"A"},{"Feature":"x","predicate":{"not":{"lt":3}},"children":"B"}]`,
			predicate.IsStructural,
			`missing "feature"`,
		},
		{
			"missing feature",
			`[{"predicate":{"lt":1},"children":0},{"feature":"x","predicate":{"lt":1},"children":1}]`,
			predicate.IsStructural,
			`missing "feature"`,
		},
		{
			"non-object branch",
			`[{"feature":"x","predicate":{"lt":1},"children":0},"B"]`,
			predicate.IsStructural,
			MsgBranchNotObject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestParseErrorPath(t *testing.T) {
	inner := split(`"y"`, `{"lt":1}`, `0`, `{"lt":[1}`, `1`)
	_, err := Parse([]byte(split(`"x"`, `{"lt":1}`, `0`, `{"not":{"lt":1}}`, inner)))
	require.Error(t, err)
	assert.True(t, predicate.IsStructural(err), "invalid JSON anywhere fails the whole tree")

	inner = `[{"feature":"y","predicate":{"lt":1},"children":0},{"feature":"y","predicate":{"lt":1}}]`
	_, err = Parse([]byte(split(`"x"`, `{"lt":1}`, inner, `{"not":{"lt":1}}`, `0`)))
	require.Error(t, err)

	var pe *predicate.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "left.right", pe.Path)

	_, err = Parse([]byte(`[{"feature":"x","predicate":{"lt":1},"children":0},{"feature":"x","predicate":{"lt":1},"children":1},{"children":2}]`))
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "branch[2]", pe.Path)
	assert.Contains(t, pe.Message, `missing "feature"`)
}
