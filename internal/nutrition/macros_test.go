package nutrition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMacrosScale(t *testing.T) {
	per100 := Macros{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6}

	scaled := per100.Scale(250)
	assert.InDelta(t, 412.5, scaled.Calories, 0.001)
	assert.InDelta(t, 77.5, scaled.Protein, 0.001)
	assert.InDelta(t, 9.0, scaled.Fat, 0.001)

	assert.True(t, per100.Scale(0).IsZero())
}

func TestMacrosAdd(t *testing.T) {
	a := Macros{Calories: 100, Protein: 10, Carbs: 5, Fat: 2}
	b := Macros{Calories: 50, Protein: 1, Carbs: 12, Fat: 0.5}

	sum := a.Add(b)
	assert.Equal(t, Macros{Calories: 150, Protein: 11, Carbs: 17, Fat: 2.5}, sum)
}

func TestMacrosPerServing(t *testing.T) {
	total := Macros{Calories: 800, Protein: 60, Carbs: 40, Fat: 20}

	per := total.PerServing(4)
	assert.Equal(t, Macros{Calories: 200, Protein: 15, Carbs: 10, Fat: 5}, per)

	assert.True(t, total.PerServing(0).IsZero())
	assert.True(t, total.PerServing(-1).IsZero())
}

func TestMacrosRound(t *testing.T) {
	m := Macros{Calories: 123.456, Protein: 0.04, Carbs: 9.95, Fat: 1.111}
	r := m.Round()
	assert.Equal(t, 123.5, r.Calories)
	assert.Equal(t, 0.0, r.Protein)
	assert.Equal(t, 10.0, r.Carbs)
	assert.Equal(t, 1.1, r.Fat)
}

func TestFoodRecordExternalID(t *testing.T) {
	usda := &FoodRecord{Source: SourceUSDA, FDCID: 171077}
	assert.Equal(t, "171077", usda.ExternalID())

	off := &FoodRecord{Source: SourceOpenFoodFacts, OFFCode: "3017620422003"}
	assert.Equal(t, "3017620422003", off.ExternalID())

	offByUPC := &FoodRecord{Source: SourceOpenFoodFacts, UPC: "0123456789012"}
	assert.Equal(t, "0123456789012", offByUPC.ExternalID())

	manual := &FoodRecord{Source: SourceManual}
	assert.Equal(t, "", manual.ExternalID())
}

func TestFoodRecordStale(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rec := &FoodRecord{FetchedAt: now.Add(-48 * time.Hour)}

	assert.True(t, rec.Stale(24*time.Hour, now))
	assert.False(t, rec.Stale(72*time.Hour, now))
	assert.False(t, rec.Stale(0, now), "zero max age disables staleness")
}
