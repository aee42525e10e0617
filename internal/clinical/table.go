// Package clinical implements the clinical report pipeline: loading CSV
// batches of patient encounters, row filtering, radiology impression
// classification, symptom severity scoring and fill-rate reporting.
package clinical

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindBool
	KindNumber
	KindString
)

// Value is a single table cell. Missing is an explicit state, never an
// error; it propagates through every derived computation.
type Value struct {
	kind Kind
	b    bool
	f    float64
	s    string
}

// Missing returns the missing value.
func Missing() Value {
	return Value{kind: KindMissing}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, f: f}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// ParseValue converts a raw CSV cell into a Value. Empty cells and the
// literal NaN marker are missing. Numbers are tried before booleans so
// "1"/"0" stay numeric, matching how the source batches are written.
func ParseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "NaN" || raw == "nan" {
		return Missing()
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(f)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return Bool(b)
	}
	return String(raw)
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// AsBool returns the boolean value and whether the cell holds one.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the numeric value and whether the cell holds one.
func (v Value) AsNumber() (float64, bool) {
	return v.f, v.kind == KindNumber
}

// AsString returns the string value and whether the cell holds one.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// IsTrue reports whether the cell holds boolean true. Missing and
// non-boolean cells are false.
func (v Value) IsTrue() bool {
	return v.kind == KindBool && v.b
}

// Equal reports whether two values are identical in kind and content.
func (v Value) Equal(o Value) bool {
	return v == o
}

// MarshalJSON renders the cell as its native JSON type; missing is null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// Row is one patient encounter keyed by column name. Columns absent from
// the map are treated as missing.
type Row map[string]Value

// Get returns the value for a column, Missing if the row has none.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Missing()
}

// Table is an ordered collection of rows with a fixed column order.
// Loaded tables are treated as immutable input; derived columns are
// added to copies, never written back over raw fields.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// HasColumn reports whether the table schema contains a column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a derived column. The values slice must have one
// entry per row. Overwriting an existing column is an error: derived
// columns are additive only.
func (t *Table) AddColumn(name string, values []Value) error {
	if t.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	t.Columns = append(t.Columns, name)
	for i, row := range t.Rows {
		row[name] = values[i]
	}
	return nil
}

// Select returns a new table containing only the named columns, in the
// given order. Row order is preserved. Unknown columns are an error.
func (t *Table) Select(columns ...string) (*Table, error) {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("unknown column %q", c)
		}
	}

	out := NewTable(columns)
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		projected := make(Row, len(columns))
		for _, c := range columns {
			projected[c] = row.Get(c)
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

// Clone returns a deep copy of the table. Used by the report assembler
// so derived columns never mutate the loaded input.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		dup := make(Row, len(row))
		for k, v := range row {
			dup[k] = v
		}
		out.Rows = append(out.Rows, dup)
	}
	return out
}
