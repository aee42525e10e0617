package clinical

// FilterMode selects the row predicate applied by FilterRows.
type FilterMode int

const (
	// ModeAnyBoolTrue keeps rows where at least one of the named
	// columns is boolean true.
	ModeAnyBoolTrue FilterMode = iota
	// ModeAnyNumericPresent keeps rows where at least one of the named
	// columns holds a non-missing numeric value.
	ModeAnyNumericPresent
)

func (m FilterMode) String() string {
	if m == ModeAnyNumericPresent {
		return "numeric"
	}
	return "bool"
}

// FilterStats describes a filter run: row counts before and after, and
// the retention percentage.
type FilterStats struct {
	Before  int     `json:"before"`
	After   int     `json:"after"`
	Percent float64 `json:"percent"`
}

// Percent returns x as a percentage of total. Returns 0 when total is 0;
// an empty input is a legitimate state, not a division error.
func Percent(x, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(x) / float64(total) * 100
}

// AnyBoolTrue reports whether at least one named column is boolean true.
// Missing, false and non-boolean cells all count as false.
func AnyBoolTrue(row Row, columns []string) bool {
	for _, col := range columns {
		if row.Get(col).IsTrue() {
			return true
		}
	}
	return false
}

// AnyNumericPresent reports whether at least one named column holds a
// non-missing numeric value.
func AnyNumericPresent(row Row, columns []string) bool {
	for _, col := range columns {
		if _, ok := row.Get(col).AsNumber(); ok {
			return true
		}
	}
	return false
}

// FilterRows returns the sub-table of rows satisfying the predicate for
// the given mode, preserving row order, plus the run's stats.
func FilterRows(t *Table, columns []string, mode FilterMode) (*Table, FilterStats) {
	pred := AnyBoolTrue
	if mode == ModeAnyNumericPresent {
		pred = AnyNumericPresent
	}

	out := NewTable(t.Columns)
	for _, row := range t.Rows {
		if pred(row, columns) {
			out.Rows = append(out.Rows, row)
		}
	}

	return out, FilterStats{
		Before:  t.NumRows(),
		After:   out.NumRows(),
		Percent: Percent(out.NumRows(), t.NumRows()),
	}
}

// FilterPositive returns the sub-table of rows whose test-result label
// is Positive.
func FilterPositive(t *Table) (*Table, FilterStats) {
	out := NewTable(t.Columns)
	for _, row := range t.Rows {
		if s, ok := row.Get(LabelColumn).AsString(); ok && s == LabelPositive {
			out.Rows = append(out.Rows, row)
		}
	}

	return out, FilterStats{
		Before:  t.NumRows(),
		After:   out.NumRows(),
		Percent: Percent(out.NumRows(), t.NumRows()),
	}
}
