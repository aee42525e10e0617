package clinical

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want Value
	}{
		{"", Missing()},
		{"NaN", Missing()},
		{"nan", Missing()},
		{"  ", Missing()},
		{"TRUE", Bool(true)},
		{"False", Bool(false)},
		{"98.6", Number(98.6)},
		{"0", Number(0)},
		{"-1", Number(-1)},
		{"Positive", String("Positive")},
		{"Severe", String("Severe")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.raw))
		})
	}
}

func TestValueAccessors(t *testing.T) {
	b, ok := Bool(true).AsBool()
	require.True(t, ok)
	assert.True(t, b)

	_, ok = Missing().AsBool()
	assert.False(t, ok)

	f, ok := Number(37.5).AsNumber()
	require.True(t, ok)
	assert.Equal(t, 37.5, f)

	s, ok := String("Mild").AsString()
	require.True(t, ok)
	assert.Equal(t, "Mild", s)

	assert.True(t, Bool(true).IsTrue())
	assert.False(t, Bool(false).IsTrue())
	assert.False(t, Number(1).IsTrue())
	assert.False(t, Missing().IsTrue())
}

func TestValueJSON(t *testing.T) {
	row := Row{
		"flag":  Bool(true),
		"temp":  Number(98.6),
		"name":  String("PCR"),
		"blank": Missing(),
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"flag":true,"temp":98.6,"name":"PCR","blank":null}`, string(data))
}

func TestRowGetMissingColumn(t *testing.T) {
	row := Row{"a": Number(1)}
	assert.True(t, row.Get("nonexistent").IsMissing())
}

func TestAddColumnIsAdditiveOnly(t *testing.T) {
	table := NewTable([]string{"a"})
	table.Rows = []Row{{"a": Number(1)}, {"a": Number(2)}}

	require.NoError(t, table.AddColumn("b", []Value{Bool(true), Missing()}))
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	assert.True(t, table.Rows[0].Get("b").IsTrue())
	assert.True(t, table.Rows[1].Get("b").IsMissing())

	// Raw fields are never overwritten.
	assert.Error(t, table.AddColumn("a", []Value{Missing(), Missing()}))

	// Length mismatch is rejected.
	assert.Error(t, table.AddColumn("c", []Value{Missing()}))
}

func TestSelect(t *testing.T) {
	table := NewTable([]string{"a", "b", "c"})
	table.Rows = []Row{
		{"a": Number(1), "b": String("x"), "c": Bool(true)},
		{"a": Number(2), "b": String("y"), "c": Bool(false)},
	}

	out, err := table.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, out.Columns)
	require.Len(t, out.Rows, 2)
	assert.True(t, out.Rows[0].Get("c").IsTrue())

	_, err = table.Select("missing")
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	table := NewTable([]string{"a"})
	table.Rows = []Row{{"a": Number(1)}}

	clone := table.Clone()
	clone.Rows[0]["a"] = Number(99)

	v, _ := table.Rows[0].Get("a").AsNumber()
	assert.Equal(t, 1.0, v)
}
