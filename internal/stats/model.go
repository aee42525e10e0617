// Package stats serves the public COVID-19 statistics feed, with a
// bundled fallback snapshot for when the upstream feed is unreachable.
package stats

// StateStats is one state's row in the statistics feed. Field names
// follow the upstream feed's schema.
type StateStats struct {
	State                 string  `json:"state"`
	Positive              int64   `json:"positive"`
	Negative              int64   `json:"negative"`
	Pending               int64   `json:"pending"`
	TotalTestResults      int64   `json:"totalTestResults"`
	HospitalizedCurrently int64   `json:"hospitalizedCurrently"`
	Recovered             int64   `json:"recovered"`
	CheckTimeEt           string  `json:"checkTimeEt"`
	Death                 int64   `json:"death"`
	Total                 int64   `json:"total"`
}

// Snapshot is a fetched feed with its provenance.
type Snapshot struct {
	Source string       `json:"source"`
	States []StateStats `json:"states"`
}

// Totals aggregates the feed across states.
type Totals struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Death    int64 `json:"death"`
	Total    int64 `json:"total"`
}

// Aggregate sums the snapshot's per-state counters.
func (s *Snapshot) Aggregate() Totals {
	t := Totals{}
	for _, st := range s.States {
		t.Positive += st.Positive
		t.Negative += st.Negative
		t.Death += st.Death
		t.Total += st.Total
	}
	return t
}
