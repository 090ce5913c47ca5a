package nutrition

import (
	"strconv"
	"time"
)

// Source identifies which database a food record came from.
type Source string

const (
	SourceUSDA          Source = "usda"
	SourceFatSecret     Source = "fatsecret"
	SourceOpenFoodFacts Source = "openfoodfacts"
	SourceManual        Source = "manual"
)

// FoodRecord is a nutrition record fetched from an external database and
// cached locally. Macros are per 100 g. External identifiers (FDC ID,
// FatSecret food id, UPC, OFF code) prevent duplicate re-fetching and support
// attribution links.
type FoodRecord struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Source      Source    `json:"source"`
	FDCID       int       `json:"fdc_id,omitempty"`
	FatSecretID string    `json:"fatsecret_id,omitempty"`
	UPC         string    `json:"upc,omitempty"`
	OFFCode     string    `json:"off_code,omitempty"`
	Macros      Macros    `json:"macros"`
	DensityGML  float64   `json:"density_g_ml,omitempty"` // grams per ml, 0 = unknown
	FetchedAt   time.Time `json:"fetched_at"`
}

// ExternalID returns the provider-native identifier for deduplication,
// empty when the record has none.
func (f *FoodRecord) ExternalID() string {
	switch f.Source {
	case SourceUSDA:
		if f.FDCID > 0 {
			return strconv.Itoa(f.FDCID)
		}
	case SourceOpenFoodFacts:
		if f.OFFCode != "" {
			return f.OFFCode
		}
		return f.UPC
	case SourceFatSecret:
		if f.FatSecretID != "" {
			return f.FatSecretID
		}
		return f.UPC
	}
	return ""
}

// Stale reports whether the record was fetched longer than maxAge ago.
func (f *FoodRecord) Stale(maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(f.FetchedAt) > maxAge
}
