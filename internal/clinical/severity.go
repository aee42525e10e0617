package clinical

// SeverityLabel is the bucketed symptom severity of an encounter.
type SeverityLabel string

const (
	Asymptomatic  SeverityLabel = "Asymptomatic"
	ExtremelyMild SeverityLabel = "Extremely Mild"
	Mild          SeverityLabel = "Mild"
	Moderate      SeverityLabel = "Moderate"
	Severe        SeverityLabel = "Severe"
)

// severityWeights maps the ordinal severity fields to score points.
// Absent or unrecognized values weigh 0.
var severityWeights = map[string]int{
	"Mild":     1,
	"Moderate": 2,
	"Severe":   3,
}

// NumSymptoms counts the symptom columns whose value is boolean true.
// The ordinal and numeric symptom columns never equal true, so only the
// flag columns contribute.
func NumSymptoms(row Row) int {
	n := 0
	for _, col := range SymptomColumns {
		if row.Get(col).IsTrue() {
			n++
		}
	}
	return n
}

// SeverityScore computes the symptom severity score for a row.
//
// A row with no symptoms scores -1, the asymptomatic sentinel. Otherwise
// the score is the sum of the cough and shortness-of-breath severity
// weights plus one point for fever, giving at most 3+3+1 = 7. The score
// is a pure function of the row's input fields; recomputing it is
// idempotent.
func SeverityScore(row Row) int {
	if NumSymptoms(row) == 0 {
		return -1
	}

	score := 0
	if s, ok := row.Get("cough_severity").AsString(); ok {
		score += severityWeights[s]
	}
	if s, ok := row.Get("sob_severity").AsString(); ok {
		score += severityWeights[s]
	}
	if row.Get("fever").IsTrue() {
		score++
	}
	return score
}

// SeverityBucket maps a severity score to its label. Boundaries are
// half-open on the lower side; scores are integers so the edges at
// 0, 1, 2 and 3 are deterministic.
func SeverityBucket(score int) SeverityLabel {
	switch {
	case score < 0:
		return Asymptomatic
	case score < 1:
		return ExtremelyMild
	case score < 2:
		return Mild
	case score < 3:
		return Moderate
	default:
		return Severe
	}
}
