package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategorySymptom, CategoryOf("cough"))
	assert.Equal(t, CategoryVital, CategoryOf("temperature"))
	assert.Equal(t, CategoryComorbidity, CategoryOf("diabetes"))
	assert.Equal(t, CategoryRisk, CategoryOf("age"))
	assert.Equal(t, CategoryTestResult, CategoryOf(LabelColumn))
	assert.Equal(t, CategoryRadiology, CategoryOf("cxr_impression"))

	// Unknown columns fall back, never error.
	assert.Equal(t, CategoryOther, CategoryOf("patient_notes"))
	assert.Equal(t, CategoryOther, CategoryOf(""))
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, "gray", ColorFor("unmapped_column"))

	// Every known category has a color, and columns in different
	// categories get different ones.
	assert.NotEmpty(t, ColorFor("cough"))
	assert.NotEqual(t, ColorFor("cough"), ColorFor("temperature"))
}

func TestColumnGroupsAreDisjoint(t *testing.T) {
	seen := map[string]string{}
	groups := map[string][]string{
		"symptoms":      SymptomColumns,
		"vitals":        VitalColumns,
		"comorbidities": ComorbidityColumns,
		"risks":         RiskColumns,
		"test_results":  TestResultColumns,
		"radiology":     RadiologyColumns,
	}

	for name, cols := range groups {
		for _, c := range cols {
			if prev, ok := seen[c]; ok {
				t.Fatalf("column %q in both %s and %s", c, prev, name)
			}
			seen[c] = name
		}
	}
}

func TestFillRates(t *testing.T) {
	table := NewTable([]string{"cough", "temperature", "notes"})
	table.Rows = []Row{
		{"cough": Bool(true), "temperature": Number(98.6)},
		{"cough": Bool(false)},
		{"temperature": Number(101.1), "notes": String("follow up")},
		{},
	}

	rates := FillRates(table)
	assert.Len(t, rates, 3)

	// Output follows the table's column order.
	assert.Equal(t, "cough", rates[0].Column)
	assert.Equal(t, "temperature", rates[1].Column)
	assert.Equal(t, "notes", rates[2].Column)

	assert.Equal(t, 0.5, rates[0].Rate)
	assert.Equal(t, 0.5, rates[1].Rate)
	assert.Equal(t, 0.25, rates[2].Rate)

	assert.Equal(t, CategorySymptom, rates[0].Category)
	assert.Equal(t, CategoryOther, rates[2].Category)
	assert.Equal(t, "gray", rates[2].Color)
}

func TestFillRatesEmptyTable(t *testing.T) {
	table := NewTable([]string{"cough"})

	rates := FillRates(table)
	assert.Len(t, rates, 1)
	assert.Equal(t, 0.0, rates[0].Rate)
}
