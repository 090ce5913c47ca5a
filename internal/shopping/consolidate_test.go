package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mealprep/internal/ingredient"
	"git.home.luguber.info/inful/mealprep/internal/store"
)

func TestConsolidateMergesAcrossRecipes(t *testing.T) {
	recipes := []*store.Recipe{
		{
			Name: "Chili",
			Ingredients: []store.RecipeIngredient{
				{Name: "Black Beans", Quantity: 400, Unit: "g"},
				{Name: "Onions", Quantity: 2, Unit: "piece"},
			},
		},
		{
			Name: "Burrito Bowl",
			Ingredients: []store.RecipeIngredient{
				{Name: "black beans", Quantity: 0.5, Unit: "kg"},
				{Name: "Onion", Quantity: 1, Unit: ""},
			},
		},
	}

	items, err := Consolidate(recipes, nil, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Alphabetical: black bean before onion.
	assert.Equal(t, "black bean", items[0].Name)
	assert.Equal(t, "g", items[0].Unit)
	assert.InDelta(t, 900, items[0].Quantity, 0.001)
	assert.Equal(t, []string{"Chili", "Burrito Bowl"}, items[0].Recipes)

	assert.Equal(t, "onion", items[1].Name)
	assert.Equal(t, "piece", items[1].Unit)
	assert.Equal(t, 3.0, items[1].Quantity)
}

func TestConsolidateVolumeUnification(t *testing.T) {
	recipes := []*store.Recipe{
		{
			Name: "Dressing",
			Ingredients: []store.RecipeIngredient{
				{Name: "olive oil", Quantity: 2, Unit: "tbsp"},
				{Name: "olive oil", Quantity: 0.25, Unit: "cup"},
			},
		},
	}

	items, err := Consolidate(recipes, nil, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ml", items[0].Unit)
	assert.InDelta(t, 2*14.7868+0.25*236.588, items[0].Quantity, 0.01)
}

func TestConsolidateAppliesAliasesAndStaples(t *testing.T) {
	recipes := []*store.Recipe{
		{
			Name: "Stir Fry",
			Ingredients: []store.RecipeIngredient{
				{Name: "Scallions", Quantity: 3, Unit: "piece"},
				{Name: "Salt", Quantity: 1, Unit: "tsp"},
				{Name: "green onions", Quantity: 2, Unit: "piece"},
			},
		},
	}
	aliases := ingredient.AliasMap{"scallion": "green onion"}

	items, err := Consolidate(recipes, aliases, []string{"salt"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "green onion", items[0].Name)
	assert.Equal(t, 5.0, items[0].Quantity)
}

func TestConsolidateKeepsIncompatibleDimensionsApart(t *testing.T) {
	recipes := []*store.Recipe{
		{
			Name: "Mixed",
			Ingredients: []store.RecipeIngredient{
				{Name: "lemon", Quantity: 2, Unit: "piece"},
				{Name: "lemon", Quantity: 30, Unit: "ml"},
			},
		},
	}

	items, err := Consolidate(recipes, nil, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestConsolidateUnknownUnit(t *testing.T) {
	recipes := []*store.Recipe{
		{Name: "Bad", Ingredients: []store.RecipeIngredient{{Name: "flour", Quantity: 1, Unit: "handful"}}},
	}
	_, err := Consolidate(recipes, nil, nil)
	assert.Error(t, err)
}
