package clinical

// FillRate is the fraction of non-missing values in one column, tagged
// with its category and display color for the visualization layer. This
// component computes numbers, not pixels.
type FillRate struct {
	Column   string   `json:"column"`
	Rate     float64  `json:"rate"`
	Category Category `json:"category"`
	Color    string   `json:"color"`
}

// FillRates computes the fill rate of every column, in the table's
// column order. An empty table yields rate 0 for every column, the same
// explicit-zero rule the filters use.
func FillRates(t *Table) []FillRate {
	total := t.NumRows()
	rates := make([]FillRate, 0, len(t.Columns))

	for _, col := range t.Columns {
		filled := 0
		for _, row := range t.Rows {
			if !row.Get(col).IsMissing() {
				filled++
			}
		}

		rate := 0.0
		if total > 0 {
			rate = float64(filled) / float64(total)
		}

		rates = append(rates, FillRate{
			Column:   col,
			Rate:     rate,
			Category: CategoryOf(col),
			Color:    ColorFor(col),
		})
	}

	return rates
}
