package clinical

// Category is the semantic group of a column. Any column outside the
// known groups falls back to CategoryOther.
type Category string

const (
	CategoryTestResult  Category = "Test Results"
	CategoryRisk        Category = "Epi Factors"
	CategoryComorbidity Category = "Comorbidities"
	CategoryVital       Category = "Vitals"
	CategorySymptom     Category = "Symptoms"
	CategoryRadiology   Category = "Radiological Findings"
	CategoryOther       Category = "Other"
)

// LabelColumn is the test-result label column; LabelPositive is the
// value selected by the positive-patient filter.
const (
	LabelColumn   = "covid19_test_results"
	LabelPositive = "Positive"
)

// Column groups. Process-wide constants, initialized once and never
// mutated, so concurrent report requests can read them unsynchronized.
var (
	SymptomColumns = []string{
		"labored_respiration",
		"rhonchi",
		"wheezes",
		"cough",
		"cough_severity",
		"loss_of_smell",
		"loss_of_taste",
		"runny_nose",
		"muscle_sore",
		"sore_throat",
		"fever",
		"sob",
		"sob_severity",
		"diarrhea",
		"fatigue",
		"headache",
		"ctab",
		"days_since_symptom_onset",
	}

	VitalColumns = []string{
		"temperature",
		"pulse",
		"sys",
		"dia",
		"rr",
		"sats",
	}

	ComorbidityColumns = []string{
		"diabetes",
		"chd",
		"htn",
		"cancer",
		"asthma",
		"copd",
		"autoimmune_dis",
		"smoker",
	}

	RiskColumns = []string{
		"age",
		"high_risk_exposure_occupation",
		"high_risk_interactions",
	}

	TestResultColumns = []string{
		"batch_date",
		LabelColumn,
		"rapid_flu_results",
		"rapid_strep_results",
		"swab_type",
		"test_name",
	}

	RadiologyColumns = []string{
		"cxr_findings", "cxr_impression", "cxr_label", "cxr_link",
	}
)

// categoryIndex maps column name to category, built once at init.
var categoryIndex = buildCategoryIndex()

func buildCategoryIndex() map[string]Category {
	idx := make(map[string]Category)
	for _, c := range TestResultColumns {
		idx[c] = CategoryTestResult
	}
	for _, c := range RiskColumns {
		idx[c] = CategoryRisk
	}
	for _, c := range ComorbidityColumns {
		idx[c] = CategoryComorbidity
	}
	for _, c := range VitalColumns {
		idx[c] = CategoryVital
	}
	for _, c := range SymptomColumns {
		idx[c] = CategorySymptom
	}
	for _, c := range RadiologyColumns {
		idx[c] = CategoryRadiology
	}
	return idx
}

// CategoryOf returns the category of a column. Unknown columns never
// error; they fall back to CategoryOther.
func CategoryOf(column string) Category {
	if cat, ok := categoryIndex[column]; ok {
		return cat
	}
	return CategoryOther
}

// Display colors per category, one hue per group; Other is always the
// neutral gray. Consumed by the fill-rate visualization layer.
var categoryColors = map[Category]string{
	CategoryTestResult:  "#f77189",
	CategoryRisk:        "#c19432",
	CategoryComorbidity: "#77ab31",
	CategoryVital:       "#33b07a",
	CategorySymptom:     "#36a2eb",
	CategoryRadiology:   "#cc7af4",
	CategoryOther:       "gray",
}

// ColorFor returns the display color for a column.
func ColorFor(column string) string {
	return categoryColors[CategoryOf(column)]
}
