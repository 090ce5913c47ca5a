package nutrition

import (
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/units"
)

// IngredientPortion is one recipe line paired with its resolved record.
// Record is nil when the ingredient has not been linked yet.
type IngredientPortion struct {
	Name     string
	Quantity float64
	Unit     string
	Record   *FoodRecord
}

// PortionMacros is the contribution of a single ingredient.
type PortionMacros struct {
	Name      string  `json:"name"`
	Grams     float64 `json:"grams"`
	Macros    Macros  `json:"macros"`
	Estimated bool    `json:"estimated,omitempty"`
}

// RecipeBreakdown is the computed nutrition of a recipe.
type RecipeBreakdown struct {
	Total       Macros          `json:"total"`
	PerServing  Macros          `json:"per_serving"`
	Items       []PortionMacros `json:"items"`
	Unlinked    []string        `json:"unlinked,omitempty"`    // no nutrition record
	Unconverted []string        `json:"unconverted,omitempty"` // count units without a per-piece weight
}

// ComputeRecipeMacros converts each linked portion to grams (using the
// record's density for volume units), scales the per-100g macros and sums.
// Unlinked and unconvertible ingredients are reported, not errors: a recipe
// with partial links still gets a partial answer.
func ComputeRecipeMacros(servings int, portions []IngredientPortion) (*RecipeBreakdown, error) {
	if servings <= 0 {
		return nil, apperrors.ValidationError("servings must be positive")
	}

	out := &RecipeBreakdown{}
	for _, p := range portions {
		if p.Record == nil {
			out.Unlinked = append(out.Unlinked, p.Name)
			continue
		}

		unit, err := units.Normalize(p.Unit)
		if err != nil {
			return nil, err
		}
		res, err := units.ToGrams(p.Quantity, unit, p.Record.DensityGML)
		if err != nil {
			out.Unconverted = append(out.Unconverted, p.Name)
			continue
		}

		m := p.Record.Macros.Scale(res.Quantity)
		out.Items = append(out.Items, PortionMacros{
			Name:      p.Name,
			Grams:     res.Quantity,
			Macros:    m,
			Estimated: res.Estimated,
		})
		out.Total = out.Total.Add(m)
	}

	out.PerServing = out.Total.PerServing(servings)
	return out, nil
}
