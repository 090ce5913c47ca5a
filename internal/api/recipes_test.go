package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mealprep/internal/provider/llm"
	"git.home.luguber.info/inful/mealprep/internal/store"
)

func TestCreateRecipe(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := doJSON(t, srv, http.MethodPost, "/recipes", "alice", map[string]any{
		"name":     "Pancakes",
		"servings": 2,
		"tags":     []string{"breakfast"},
		"ingredients": []map[string]any{
			{"name": "flour", "quantity": "1 1/2", "unit": "cups"},
			{"name": "milk", "quantity": 300, "unit": "ml"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var recipe store.Recipe
	resp := decodeResponse(t, w, &recipe)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, recipe.ID)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, 1.5, recipe.Ingredients[0].Quantity)
	assert.Equal(t, "cup", recipe.Ingredients[0].Unit, "unit spellings are normalized")
}

func TestCreateRecipeValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"servings": 2}},
		{"zero servings", map[string]any{"name": "x", "servings": 0}},
		{"bad unit", map[string]any{"name": "x", "servings": 1, "ingredients": []map[string]any{{"name": "flour", "quantity": 1, "unit": "handful"}}}},
		{"zero quantity", map[string]any{"name": "x", "servings": 1, "ingredients": []map[string]any{{"name": "flour", "quantity": 0, "unit": "g"}}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := doJSON(t, srv, http.MethodPost, "/recipes", "alice", test.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetRecipeOwnership(t *testing.T) {
	srv, st := newTestServer(t, nil)
	recipe := seedLinkedRecipe(t, st, "alice")

	w := doJSON(t, srv, http.MethodGet, "/recipes/"+recipe.ID, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/recipes/"+recipe.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAndDeleteRecipe(t *testing.T) {
	srv, st := newTestServer(t, nil)
	recipe := seedLinkedRecipe(t, st, "alice")

	w := doJSON(t, srv, http.MethodPut, "/recipes/"+recipe.ID, "alice", RecipeRequest{
		Name:     "Leftover Chili",
		Servings: 2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := st.GetRecipe(context.Background(), "alice", recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leftover Chili", updated.Name)

	w = doJSON(t, srv, http.MethodDelete, "/recipes/"+recipe.ID, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/recipes/"+recipe.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRecipePreservesNutritionLinks(t *testing.T) {
	srv, st := newTestServer(t, nil)
	recipe := seedLinkedRecipe(t, st, "alice")
	require.NotEmpty(t, recipe.Ingredients[0].FoodRecordID)

	// A client round-tripping the recipe sends the links back.
	req := RecipeRequest{Name: "Chili", Servings: 4}
	for _, ing := range recipe.Ingredients {
		req.Ingredients = append(req.Ingredients, IngredientRequest{
			Name:         ing.Name,
			Quantity:     Quantity(ing.Quantity),
			Unit:         ing.Unit,
			FoodRecordID: ing.FoodRecordID,
		})
	}

	w := doJSON(t, srv, http.MethodPut, "/recipes/"+recipe.ID, "alice", req)
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := st.GetRecipe(context.Background(), "alice", recipe.ID)
	require.NoError(t, err)
	require.Len(t, updated.Ingredients, 2)
	assert.Equal(t, recipe.Ingredients[0].FoodRecordID, updated.Ingredients[0].FoodRecordID)
}

func TestRecipeMacros(t *testing.T) {
	srv, st := newTestServer(t, nil)
	recipe := seedLinkedRecipe(t, st, "alice")

	w := doJSON(t, srv, http.MethodGet, "/recipes/"+recipe.ID+"/macros", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var breakdown struct {
		Total      struct{ Calories float64 } `json:"total"`
		PerServing struct{ Calories float64 } `json:"per_serving"`
		Unlinked   []string                   `json:"unlinked"`
	}
	decodeResponse(t, w, &breakdown)

	// 400 g of beans at 132 kcal/100g = 528 kcal, 4 servings.
	assert.Equal(t, 528.0, breakdown.Total.Calories)
	assert.Equal(t, 132.0, breakdown.PerServing.Calories)
	assert.Equal(t, []string{"cilantro"}, breakdown.Unlinked)
}

type fakeGenerator struct {
	got llm.RecipeInput
	out string
	err error
}

func (f *fakeGenerator) GenerateInstructions(_ context.Context, in llm.RecipeInput) (string, error) {
	f.got = in
	return f.out, f.err
}

func TestGenerateInstructions(t *testing.T) {
	gen := &fakeGenerator{out: "1. Rinse the beans.\n2. Simmer."}
	srv, st := newTestServer(t, func(d *Deps) { d.Instructions = gen })
	recipe := seedLinkedRecipe(t, st, "alice")

	w := doJSON(t, srv, http.MethodPost, "/recipes/"+recipe.ID+"/instructions", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "Chili", gen.got.Name)
	require.Len(t, gen.got.Ingredients, 2)

	var out map[string]string
	decodeResponse(t, w, &out)
	assert.Equal(t, gen.out, out["instructions"])
	assert.True(t, strings.Contains(out["instructions_html"], "<li>"), "markdown is rendered to HTML")

	stored, err := st.GetRecipe(context.Background(), "alice", recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, gen.out, stored.Instructions)
}

func TestGenerateInstructionsUnconfigured(t *testing.T) {
	srv, st := newTestServer(t, nil)
	recipe := seedLinkedRecipe(t, st, "alice")

	w := doJSON(t, srv, http.MethodPost, "/recipes/"+recipe.ID+"/instructions", "alice", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
