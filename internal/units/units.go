// Package units converts between the kitchen units used in recipes and the
// gram/milliliter base units nutrition records are expressed in.
package units

import (
	"fmt"
	"sort"
	"strings"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
)

// Dimension classifies a unit.
type Dimension string

const (
	Mass   Dimension = "mass"
	Volume Dimension = "volume"
	Count  Dimension = "count"
)

// Unit is a normalized unit symbol.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Ounce      Unit = "oz"
	Pound      Unit = "lb"
	Milliliter Unit = "ml"
	Liter      Unit = "l"
	Teaspoon   Unit = "tsp"
	Tablespoon Unit = "tbsp"
	Cup        Unit = "cup"
	FluidOunce Unit = "floz"
	Piece      Unit = "piece"
)

// factor converts a unit to its dimension base (g for mass, ml for volume).
var factors = map[Unit]struct {
	dim    Dimension
	factor float64
}{
	Gram:       {Mass, 1},
	Kilogram:   {Mass, 1000},
	Ounce:      {Mass, 28.3495},
	Pound:      {Mass, 453.592},
	Milliliter: {Volume, 1},
	Liter:      {Volume, 1000},
	Teaspoon:   {Volume, 4.92892},
	Tablespoon: {Volume, 14.7868},
	Cup:        {Volume, 236.588},
	FluidOunce: {Volume, 29.5735},
	Piece:      {Count, 1},
}

// aliases maps user spellings to normalized units.
var aliases = map[string]Unit{
	"g": Gram, "gram": Gram, "grams": Gram,
	"kg": Kilogram, "kilogram": Kilogram, "kilograms": Kilogram,
	"oz": Ounce, "ounce": Ounce, "ounces": Ounce,
	"lb": Pound, "lbs": Pound, "pound": Pound, "pounds": Pound,
	"ml": Milliliter, "milliliter": Milliliter, "milliliters": Milliliter, "millilitre": Milliliter, "millilitres": Milliliter,
	"l": Liter, "liter": Liter, "liters": Liter, "litre": Liter, "litres": Liter,
	"tsp": Teaspoon, "teaspoon": Teaspoon, "teaspoons": Teaspoon,
	"tbsp": Tablespoon, "tablespoon": Tablespoon, "tablespoons": Tablespoon,
	"cup": Cup, "cups": Cup,
	"floz": FluidOunce, "fl oz": FluidOunce, "fluid ounce": FluidOunce, "fluid ounces": FluidOunce,
	"piece": Piece, "pieces": Piece, "each": Piece, "unit": Piece, "units": Piece, "count": Piece, "": Piece,
}

// Normalize resolves a user-supplied unit spelling. Unknown units return a
// validation error listing the supported spellings.
func Normalize(raw string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.Join(strings.Fields(key), " ")
	if u, ok := aliases[key]; ok {
		return u, nil
	}
	return "", apperrors.ValidationError(fmt.Sprintf("unknown unit %q (known: %s)", raw, knownUnits()))
}

// DimensionOf returns the dimension of a normalized unit.
func DimensionOf(u Unit) (Dimension, bool) {
	info, ok := factors[u]
	return info.dim, ok
}

// ConvertResult carries a converted quantity and whether a density fallback
// made it an estimate.
type ConvertResult struct {
	Quantity  float64
	Unit      Unit
	Estimated bool
}

// ToGrams converts a quantity of the given unit to grams. Volume conversions
// use density (g/ml); a zero density falls back to 1.0 (water) and marks the
// result estimated. Count units cannot be converted without a per-piece weight.
func ToGrams(qty float64, u Unit, densityGML float64) (ConvertResult, error) {
	info, ok := factors[u]
	if !ok {
		return ConvertResult{}, apperrors.ValidationError(fmt.Sprintf("unknown unit %q", u))
	}

	switch info.dim {
	case Mass:
		return ConvertResult{Quantity: qty * info.factor, Unit: Gram}, nil
	case Volume:
		ml := qty * info.factor
		estimated := false
		if densityGML <= 0 {
			densityGML = 1.0
			estimated = true
		}
		return ConvertResult{Quantity: ml * densityGML, Unit: Gram, Estimated: estimated}, nil
	default:
		return ConvertResult{}, apperrors.ValidationError(fmt.Sprintf("cannot convert count unit %q to grams without a per-piece weight", u))
	}
}

// Convert converts between any two known units. Converting across mass/volume
// uses density (g/ml); count units only convert to themselves.
func Convert(qty float64, from, to Unit, densityGML float64) (ConvertResult, error) {
	if from == to {
		return ConvertResult{Quantity: qty, Unit: to}, nil
	}

	fromInfo, ok := factors[from]
	if !ok {
		return ConvertResult{}, apperrors.ValidationError(fmt.Sprintf("unknown unit %q", from))
	}
	toInfo, ok := factors[to]
	if !ok {
		return ConvertResult{}, apperrors.ValidationError(fmt.Sprintf("unknown unit %q", to))
	}

	if fromInfo.dim == Count || toInfo.dim == Count {
		return ConvertResult{}, apperrors.ValidationError(fmt.Sprintf("cannot convert between %q and %q", from, to))
	}

	estimated := false
	base := qty * fromInfo.factor // g or ml

	if fromInfo.dim != toInfo.dim {
		if densityGML <= 0 {
			densityGML = 1.0
			estimated = true
		}
		if fromInfo.dim == Volume { // ml -> g
			base *= densityGML
		} else { // g -> ml
			base /= densityGML
		}
	}

	return ConvertResult{Quantity: base / toInfo.factor, Unit: to, Estimated: estimated}, nil
}

func knownUnits() string {
	names := make([]string, 0, len(aliases))
	seen := map[Unit]bool{}
	for _, u := range aliases {
		if !seen[u] {
			seen[u] = true
			names = append(names, string(u))
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
