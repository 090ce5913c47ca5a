// Package nutrition holds the macro-nutrient value types and food records
// shared across resolution, recipes and shopping.
package nutrition

import "math"

// Macros are macronutrient amounts. In a FoodRecord they are per 100 g of
// food; elsewhere they are absolute amounts for a given weight.
type Macros struct {
	Calories float64 `json:"calories"` // kcal
	Protein  float64 `json:"protein"`  // g
	Carbs    float64 `json:"carbs"`    // g
	Fat      float64 `json:"fat"`      // g
}

// Scale returns the macros for the given number of grams, interpreting the
// receiver as per-100g values.
func (m Macros) Scale(grams float64) Macros {
	factor := grams / 100.0
	return Macros{
		Calories: m.Calories * factor,
		Protein:  m.Protein * factor,
		Carbs:    m.Carbs * factor,
		Fat:      m.Fat * factor,
	}
}

// Add returns the element-wise sum.
func (m Macros) Add(other Macros) Macros {
	return Macros{
		Calories: m.Calories + other.Calories,
		Protein:  m.Protein + other.Protein,
		Carbs:    m.Carbs + other.Carbs,
		Fat:      m.Fat + other.Fat,
	}
}

// PerServing divides by the serving count. Servings <= 0 returns the zero value.
func (m Macros) PerServing(servings int) Macros {
	if servings <= 0 {
		return Macros{}
	}
	n := float64(servings)
	return Macros{
		Calories: m.Calories / n,
		Protein:  m.Protein / n,
		Carbs:    m.Carbs / n,
		Fat:      m.Fat / n,
	}
}

// IsZero reports whether all components are zero.
func (m Macros) IsZero() bool {
	return m.Calories == 0 && m.Protein == 0 && m.Carbs == 0 && m.Fat == 0
}

// Round returns the macros rounded to one decimal place, for API responses.
func (m Macros) Round() Macros {
	return Macros{
		Calories: round1(m.Calories),
		Protein:  round1(m.Protein),
		Carbs:    round1(m.Carbs),
		Fat:      round1(m.Fat),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
