package predicate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/treemig/internal/ir"
)

func TestDecodeOld(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Old
	}{
		{"eq", `{"eq": 3}`, Eq{Value: num("3")}},
		{"lt", `{"lt": 0.5}`, Lt{Value: num("0.5")}},
		{"eq string", `{"eq": "red"}`, Eq{Value: ir.IRString("red")}},
		{"exists", `{"exists": true}`, Exists{Value: ir.IRBool(true)}},
		{"unknown", `{"gt": 1}`, Unknown{Name: "gt", Value: num("1")}},
		{"not", `{"not": {"lt": 3}}`, Not{Operand: Lt{Value: num("3")}}},
		{
			"or",
			`{"or": [{"lt": 3}, {"eq": 3}]}`,
			Or{Operands: []Old{Lt{Value: num("3")}, Eq{Value: num("3")}}},
		},
		{"empty or", `{"or": []}`, Or{Operands: []Old{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeOld([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecodeOldRejectsMalformed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		errSubstr string
	}{
		{"not json", `{"lt":`, "not valid JSON"},
		{"not an object", `[1]`, "must be an object"},
		{"no operator", `{}`, "exactly one operator"},
		{"two operators", `{"lt": 1, "eq": 1}`, "exactly one operator"},
		{"not with scalar", `{"not": 3}`, "must be an object"},
		{"or with object", `{"or": {"lt": 1}}`, `"or" operand must be an array`},
		{"or with bad element", `{"or": [{"lt": 1}, 2]}`, "must be an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOld([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, IsUnsupported(err))
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestNewJSONRoundTrip(t *testing.T) {
	p := GreaterEq(num("5.50"))

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"gtEq":5.50}`, string(data))

	var decoded New
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p, decoded)
}

func TestNewMarshalRejectsInvalid(t *testing.T) {
	_, err := New{Op: "between", Value: num("1")}.MarshalJSON()
	require.Error(t, err)

	_, err = New{Op: OpLt}.MarshalJSON()
	require.Error(t, err)
}

func TestDecodeNewRejectsOldOperators(t *testing.T) {
	_, err := DecodeNew([]byte(`{"eq": 1}`))
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}

func TestFormatOld(t *testing.T) {
	p, err := DecodeOld([]byte(`{"not":{"or":[{"lt":3},{"eq":"a"},{"exists":true}]}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"not":{"or":[{"lt":3},{"eq":"a"},{"exists":true}]}}`, FormatOld(p))
}
