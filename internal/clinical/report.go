package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coviddx/platform/internal/shared/config"
	"github.com/coviddx/platform/internal/shared/metrics"
)

// Derived column names added by the report assembler. Always computed
// together, in this order, and never overwrite raw fields.
const (
	ColAbnormalCXR   = "is_abnormal_cxr"
	ColNumSymptoms   = "num_symptoms"
	ColSeverityScore = "severity_score"
	ColSymSeverity   = "sym_severity"
)

// displayColumns is the fixed projection returned to the web view,
// before the derived severity columns are appended.
var displayColumns = []string{
	"batch_date",
	"test_name",
	LabelColumn,
	"age",
	"high_risk_exposure_occupation",
	"diabetes",
	"temperature",
	"pulse",
	"cough",
	"sats",
}

// Diagnostics carries the before/after stats of the diagnostic filter
// passes. The subsets are computed for inspection but never gate the
// projected report table.
type Diagnostics struct {
	Positive    FilterStats `json:"positive"`
	Symptomatic FilterStats `json:"symptomatic"`
	WithVitals  FilterStats `json:"with_vitals"`
}

// Report is the assembled clinical report.
type Report struct {
	Columns     []string    `json:"columns"`
	Rows        []Row       `json:"rows"`
	FillRates   []FillRate  `json:"fill_rates"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Assembler builds clinical reports from the configured data directory.
// Each build loads the data fresh; derived columns are never cached
// across requests.
type Assembler struct {
	dataDir    string
	classifier *Classifier
	logger     zerolog.Logger
}

// NewAssembler creates a report assembler with the default radiology
// rule corpus.
func NewAssembler(cfg config.ClinicalConfig, logger zerolog.Logger) *Assembler {
	return &Assembler{
		dataDir:    cfg.DataDir,
		classifier: DefaultClassifier(),
		logger:     logger,
	}
}

// Build assembles the report: load, fill rates, diagnostic filter
// passes, derived radiology and severity columns, final projection.
func (a *Assembler) Build(ctx context.Context) (*Report, error) {
	start := time.Now()

	report, err := a.build()
	if err != nil {
		metrics.RecordReportBuilt("error", time.Since(start))
		return nil, err
	}

	metrics.RecordReportBuilt("ok", time.Since(start))
	return report, nil
}

func (a *Assembler) build() (*Report, error) {
	data, err := Load(a.dataDir)
	if err != nil {
		return nil, fmt.Errorf("load clinical data: %w", err)
	}
	a.logger.Info().
		Int("rows", data.NumRows()).
		Int("columns", len(data.Columns)).
		Str("dir", a.dataDir).
		Msg("clinical data loaded")

	fillRates := FillRates(data)

	_, positive := FilterPositive(data)
	a.logFilter("positive", positive)

	_, symptomatic := FilterRows(data, SymptomColumns, ModeAnyBoolTrue)
	a.logFilter("symptomatic", symptomatic)

	_, withVitals := FilterRows(data, VitalColumns, ModeAnyNumericPresent)
	a.logFilter("with_vitals", withVitals)

	derived := data.Clone()
	if err := a.deriveColumns(derived); err != nil {
		return nil, err
	}

	projected, err := derived.Select(append(append([]string(nil), displayColumns...),
		ColAbnormalCXR, ColNumSymptoms, ColSeverityScore, ColSymSeverity)...)
	if err != nil {
		return nil, fmt.Errorf("project report columns: %w", err)
	}

	return &Report{
		Columns:   projected.Columns,
		Rows:      projected.Rows,
		FillRates: fillRates,
		Diagnostics: Diagnostics{
			Positive:    positive,
			Symptomatic: symptomatic,
			WithVitals:  withVitals,
		},
	}, nil
}

// deriveColumns adds is_abnormal_cxr where the impression text is
// present, then num_symptoms, severity_score and sym_severity for every
// row, in that order.
func (a *Assembler) deriveColumns(t *Table) error {
	abnormal := make([]Value, len(t.Rows))
	numSymptoms := make([]Value, len(t.Rows))
	scores := make([]Value, len(t.Rows))
	buckets := make([]Value, len(t.Rows))

	for i, row := range t.Rows {
		// Rows without impression text get no derived value at all,
		// not Unknown.
		abnormal[i] = Missing()
		if text, ok := row.Get("cxr_impression").AsString(); ok {
			abnormal[i] = String(string(a.classifier.Classify(text)))
		}

		n := NumSymptoms(row)
		score := SeverityScore(row)
		numSymptoms[i] = Number(float64(n))
		scores[i] = Number(float64(score))
		buckets[i] = String(string(SeverityBucket(score)))
	}

	for _, col := range []struct {
		name   string
		values []Value
	}{
		{ColAbnormalCXR, abnormal},
		{ColNumSymptoms, numSymptoms},
		{ColSeverityScore, scores},
		{ColSymSeverity, buckets},
	} {
		if err := t.AddColumn(col.name, col.values); err != nil {
			return fmt.Errorf("derive %s: %w", col.name, err)
		}
	}

	return nil
}

func (a *Assembler) logFilter(name string, stats FilterStats) {
	a.logger.Info().
		Str("filter", name).
		Int("before", stats.Before).
		Int("after", stats.After).
		Float64("percent", stats.Percent).
		Msg("clinical filter applied")
	metrics.RecordFilterRetention(name, stats.Percent)
}
