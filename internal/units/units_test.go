package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Unit
	}{
		{"g", Gram},
		{"Grams", Gram},
		{"TABLESPOONS", Tablespoon},
		{"fl  oz", FluidOunce},
		{"each", Piece},
		{"", Piece},
		{" cups ", Cup},
	}

	for _, test := range tests {
		t.Run(test.raw, func(t *testing.T) {
			got, err := Normalize(test.raw)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestNormalizeUnknown(t *testing.T) {
	_, err := Normalize("smidgen")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
	assert.Contains(t, err.Error(), "smidgen")
}

func TestToGramsMass(t *testing.T) {
	res, err := ToGrams(2, Kilogram, 0)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, res.Quantity)
	assert.False(t, res.Estimated)

	res, err = ToGrams(1, Pound, 0)
	require.NoError(t, err)
	assert.InDelta(t, 453.592, res.Quantity, 0.001)
}

func TestToGramsVolumeWithDensity(t *testing.T) {
	// olive oil at 0.91 g/ml
	res, err := ToGrams(1, Cup, 0.91)
	require.NoError(t, err)
	assert.InDelta(t, 236.588*0.91, res.Quantity, 0.01)
	assert.False(t, res.Estimated)
}

func TestToGramsVolumeWaterFallback(t *testing.T) {
	res, err := ToGrams(2, Tablespoon, 0)
	require.NoError(t, err)
	assert.InDelta(t, 29.5736, res.Quantity, 0.001)
	assert.True(t, res.Estimated, "missing density should mark result estimated")
}

func TestToGramsCountFails(t *testing.T) {
	_, err := ToGrams(3, Piece, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func TestConvertSameDimension(t *testing.T) {
	res, err := Convert(1000, Milliliter, Liter, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Quantity, 0.0001)
	assert.False(t, res.Estimated)

	res, err = Convert(16, Ounce, Pound, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Quantity, 0.001)
}

func TestConvertAcrossDimensions(t *testing.T) {
	// 1 cup of honey at 1.42 g/ml
	res, err := Convert(1, Cup, Gram, 1.42)
	require.NoError(t, err)
	assert.InDelta(t, 335.955, res.Quantity, 0.01)
	assert.False(t, res.Estimated)

	// without density: water assumption, flagged
	res, err = Convert(100, Gram, Milliliter, 0)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.Quantity, 0.001)
	assert.True(t, res.Estimated)
}

func TestConvertCountRejected(t *testing.T) {
	_, err := Convert(2, Piece, Gram, 0)
	require.Error(t, err)

	_, err = Convert(2, Gram, Piece, 0)
	require.Error(t, err)
}

func TestConvertIdentity(t *testing.T) {
	res, err := Convert(3, Piece, Piece, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Quantity)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"2", 2},
		{"1.5", 1.5},
		{"1/2", 0.5},
		{"3/4", 0.75},
		{"1 1/2", 1.5},
		{"2 3/4", 2.75},
	}

	for _, test := range tests {
		t.Run(test.raw, func(t *testing.T) {
			got, err := ParseQuantity(test.raw)
			require.NoError(t, err)
			assert.InDelta(t, test.want, got, 0.0001)
		})
	}
}

func TestParseQuantityInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "1/0", "1 2 3", "-1", "x/2"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseQuantity(raw)
			assert.Error(t, err)
		})
	}
}
