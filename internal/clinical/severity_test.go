package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumSymptoms(t *testing.T) {
	assert.Equal(t, 0, NumSymptoms(Row{}))
	assert.Equal(t, 2, NumSymptoms(Row{"cough": Bool(true), "fever": Bool(true), "sob": Bool(false)}))

	// The ordinal and numeric symptom fields never count; only the
	// boolean flags do.
	row := Row{
		"cough_severity":           String("Severe"),
		"days_since_symptom_onset": Number(4),
	}
	assert.Equal(t, 0, NumSymptoms(row))

	// Non-symptom columns never contribute.
	assert.Equal(t, 0, NumSymptoms(Row{"diabetes": Bool(true), "temperature": Number(101)}))
}

func TestSeverityScore(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want int
	}{
		{
			name: "no symptoms is the sentinel",
			row:  Row{},
			want: -1,
		},
		{
			name: "ordinal fields alone do not lift the sentinel",
			row:  Row{"cough_severity": String("Severe"), "sob_severity": String("Severe")},
			want: -1,
		},
		{
			name: "symptomatic with no scored fields",
			row:  Row{"headache": Bool(true)},
			want: 0,
		},
		{
			name: "fever alone",
			row:  Row{"fever": Bool(true)},
			want: 1,
		},
		{
			name: "severe cough, mild sob, fever",
			row: Row{
				"cough":          Bool(true),
				"cough_severity": String("Severe"),
				"sob":            Bool(true),
				"sob_severity":   String("Mild"),
				"fever":          Bool(true),
			},
			want: 5,
		},
		{
			name: "maximum score",
			row: Row{
				"cough":          Bool(true),
				"cough_severity": String("Severe"),
				"sob":            Bool(true),
				"sob_severity":   String("Severe"),
				"fever":          Bool(true),
			},
			want: 7,
		},
		{
			name: "unrecognized severity weighs zero",
			row:  Row{"cough": Bool(true), "cough_severity": String("Critical")},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityScore(tt.row))
			// Scoring is a pure function of the row.
			assert.Equal(t, tt.want, SeverityScore(tt.row))
			assert.GreaterOrEqual(t, tt.want, -1)
			assert.LessOrEqual(t, tt.want, 7)
		})
	}
}

func TestSeverityBucket(t *testing.T) {
	assert.Equal(t, Asymptomatic, SeverityBucket(-1))
	assert.Equal(t, ExtremelyMild, SeverityBucket(0))
	assert.Equal(t, Mild, SeverityBucket(1))
	assert.Equal(t, Moderate, SeverityBucket(2))
	assert.Equal(t, Severe, SeverityBucket(3))
	assert.Equal(t, Severe, SeverityBucket(7))
}

func TestSeverityBucketMonotonic(t *testing.T) {
	order := map[SeverityLabel]int{
		Asymptomatic:  0,
		ExtremelyMild: 1,
		Mild:          2,
		Moderate:      3,
		Severe:        4,
	}

	prev := SeverityBucket(-1)
	for score := 0; score <= 7; score++ {
		cur := SeverityBucket(score)
		assert.GreaterOrEqual(t, order[cur], order[prev], "score %d", score)
		prev = cur
	}
}
