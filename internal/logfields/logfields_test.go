package logfields

import (
	"fmt"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"User", KeyUser, "alice", User("alice")},
		{"RecipeID", KeyRecipeID, "r-1", RecipeID("r-1")},
		{"ListID", KeyListID, "l-1", ListID("l-1")},
		{"Ingredient", KeyIngredient, "tomato", Ingredient("tomato")},
		{"Provider", KeyProvider, "usda", Provider("usda")},
		{"Source", KeySource, "openfoodfacts", Source("openfoodfacts")},
		{"Query", KeyQuery, "chicken breast", Query("chicken breast")},
		{"UPC", KeyUPC, "0123456789012", UPC("0123456789012")},
		{"Status", KeyStatus, "matched", Status("matched")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"Path", KeyPath, "/recipes", Path("/recipes")},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.attr.Key != c.attrKey {
				t.Errorf("key = %q, want %q", c.attr.Key, c.attrKey)
			}
			if c.attr.Value.String() != c.attrVal {
				t.Errorf("value = %q, want %q", c.attr.Value.String(), c.attrVal)
			}
		})
	}
}

func TestErrorHelper(t *testing.T) {
	attr := Error(fmt.Errorf("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Error attr = %v", attr)
	}

	attr = Error(nil)
	if attr.Value.String() != "" {
		t.Errorf("nil error should render empty, got %q", attr.Value.String())
	}
}

func TestNumericHelpers(t *testing.T) {
	if attr := FDCID(171077); attr.Value.Int64() != 171077 {
		t.Errorf("FDCID value = %d", attr.Value.Int64())
	}
	if attr := DurationMS(12.5); attr.Value.Float64() != 12.5 {
		t.Errorf("DurationMS value = %f", attr.Value.Float64())
	}
}
