package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecipe(user string) *Recipe {
	return &Recipe{
		User:     user,
		Name:     "Chili",
		Servings: 4,
		Tags:     []string{"dinner", "batch"},
		Ingredients: []RecipeIngredient{
			{Name: "black beans", Quantity: 400, Unit: "g"},
			{Name: "ground beef", Quantity: 1, Unit: "lb"},
		},
	}
}

func TestRecipeCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := sampleRecipe("alice")
	require.NoError(t, s.CreateRecipe(ctx, r))
	require.NotEmpty(t, r.ID)
	require.NotEmpty(t, r.Ingredients[0].ID)

	got, err := s.GetRecipe(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chili", got.Name)
	assert.Equal(t, []string{"dinner", "batch"}, got.Tags)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "black beans", got.Ingredients[0].Name)

	// Ownership is enforced.
	_, err = s.GetRecipe(ctx, "bob", r.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))

	got.Name = "Spicy Chili"
	got.Ingredients = got.Ingredients[:1]
	require.NoError(t, s.UpdateRecipe(ctx, got))

	updated, err := s.GetRecipe(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spicy Chili", updated.Name)
	assert.Len(t, updated.Ingredients, 1)

	require.NoError(t, s.DeleteRecipe(ctx, "alice", r.ID))
	_, err = s.GetRecipe(ctx, "alice", r.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestListRecipes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRecipe(ctx, sampleRecipe("alice")))
	require.NoError(t, s.CreateRecipe(ctx, &Recipe{User: "alice", Name: "Soup", Servings: 2}))
	require.NoError(t, s.CreateRecipe(ctx, &Recipe{User: "bob", Name: "Toast", Servings: 1}))

	recipes, err := s.ListRecipes(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, recipes, 2)
}

func TestSetRecipeInstructions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := sampleRecipe("alice")
	require.NoError(t, s.CreateRecipe(ctx, r))
	require.NoError(t, s.SetRecipeInstructions(ctx, "alice", r.ID, "1. Brown the beef."))

	got, err := s.GetRecipe(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, "1. Brown the beef.", got.Instructions)

	err = s.SetRecipeInstructions(ctx, "alice", "missing", "x")
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestLinkIngredient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := sampleRecipe("alice")
	require.NoError(t, s.CreateRecipe(ctx, r))

	rec := &nutrition.FoodRecord{
		Description: "Beans, black, mature seeds, cooked",
		Source:      nutrition.SourceUSDA,
		FDCID:       173735,
		Macros:      nutrition.Macros{Calories: 132, Protein: 8.9, Carbs: 23.7, Fat: 0.5},
	}
	require.NoError(t, s.UpsertFoodRecord(ctx, "black bean", rec))
	require.NoError(t, s.LinkIngredient(ctx, "alice", r.Ingredients[0].ID, rec.ID))

	ing, err := s.GetIngredient(ctx, "alice", r.Ingredients[0].ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, ing.FoodRecordID)

	// Another user cannot see or relink the line.
	_, err = s.GetIngredient(ctx, "bob", r.Ingredients[0].ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
	err = s.LinkIngredient(ctx, "bob", r.Ingredients[0].ID, rec.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestUpsertFoodRecordDedup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &nutrition.FoodRecord{
		Description: "Bananas, raw",
		Source:      nutrition.SourceUSDA,
		FDCID:       173944,
		Macros:      nutrition.Macros{Calories: 89},
	}
	require.NoError(t, s.UpsertFoodRecord(ctx, "banana", first))

	second := &nutrition.FoodRecord{
		Description: "Bananas, raw (refreshed)",
		Source:      nutrition.SourceUSDA,
		FDCID:       173944,
		Macros:      nutrition.Macros{Calories: 90},
	}
	require.NoError(t, s.UpsertFoodRecord(ctx, "banana", second))
	assert.Equal(t, first.ID, second.ID, "same source+external id reuses the row")

	got, err := s.FindFoodByName(ctx, "banana")
	require.NoError(t, err)
	assert.Equal(t, "Bananas, raw (refreshed)", got.Description)
	assert.Equal(t, 90.0, got.Macros.Calories)
}

func TestUpsertFoodRecordDedupFatSecret(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &nutrition.FoodRecord{
		Description: "Apple",
		Source:      nutrition.SourceFatSecret,
		FatSecretID: "35718",
		Macros:      nutrition.Macros{Calories: 52},
	}
	require.NoError(t, s.UpsertFoodRecord(ctx, "apple", first))

	second := &nutrition.FoodRecord{
		Description: "Apple",
		Source:      nutrition.SourceFatSecret,
		FatSecretID: "35718",
		Macros:      nutrition.Macros{Calories: 53},
	}
	require.NoError(t, s.UpsertFoodRecord(ctx, "apple", second))
	assert.Equal(t, first.ID, second.ID, "same FatSecret food id reuses the row")

	stale, err := s.ListStaleFoodRecords(ctx, time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "35718", stale[0].Record.FatSecretID)
	assert.Equal(t, 53.0, stale[0].Record.Macros.Calories)
}

func TestFindFoodByUPC(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &nutrition.FoodRecord{
		Description: "Nutella",
		Source:      nutrition.SourceOpenFoodFacts,
		OFFCode:     "3017620422003",
		UPC:         "3017620422003",
		Macros:      nutrition.Macros{Calories: 539},
	}
	require.NoError(t, s.UpsertFoodRecord(ctx, "nutella", rec))

	got, err := s.FindFoodByUPC(ctx, "3017620422003")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = s.FindFoodByUPC(ctx, "000")
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestListStaleFoodRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := &nutrition.FoodRecord{
		Description: "Old record",
		Source:      nutrition.SourceUSDA,
		FDCID:       1,
		FetchedAt:   time.Now().Add(-48 * time.Hour),
	}
	fresh := &nutrition.FoodRecord{
		Description: "Fresh record",
		Source:      nutrition.SourceUSDA,
		FDCID:       2,
	}
	require.NoError(t, s.UpsertFoodRecord(ctx, "old thing", old))
	require.NoError(t, s.UpsertFoodRecord(ctx, "fresh thing", fresh))

	stale, err := s.ListStaleFoodRecords(ctx, time.Now().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old thing", stale[0].LookupName)
	assert.Equal(t, old.ID, stale[0].Record.ID)
}

func TestAliases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetAlias(ctx, "alice", "scallion", "green onion"))
	require.NoError(t, s.SetAlias(ctx, "alice", "scallion", "spring onion"))

	aliases, err := s.ListAliases(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "spring onion", aliases["scallion"])

	require.NoError(t, s.DeleteAlias(ctx, "alice", "scallion"))
	err = s.DeleteAlias(ctx, "alice", "scallion")
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestPantryStaples(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddPantryStaple(ctx, "alice", "salt"))
	require.NoError(t, s.AddPantryStaple(ctx, "alice", "salt")) // idempotent
	require.NoError(t, s.AddPantryStaple(ctx, "alice", "olive oil"))

	staples, err := s.ListPantryStaples(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"olive oil", "salt"}, staples)

	require.NoError(t, s.DeletePantryStaple(ctx, "alice", "salt"))
	err = s.DeletePantryStaple(ctx, "alice", "salt")
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestShoppingLists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	l := &ShoppingList{
		User:      "alice",
		RecipeIDs: []string{"r1", "r2"},
		Items: []ShoppingListItem{
			{Name: "black bean", Quantity: 800, Unit: "g", Recipes: []string{"Chili"}},
			{Name: "olive oil", Quantity: 30, Unit: "ml", Recipes: []string{"Chili", "Soup"}, Estimated: true},
		},
	}
	require.NoError(t, s.CreateShoppingList(ctx, l))
	require.NotEmpty(t, l.ID)

	got, err := s.GetShoppingList(ctx, "alice", l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, got.RecipeIDs)
	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[1].Estimated)
	assert.Nil(t, got.PushedAt)

	pushedAt := time.Now()
	require.NoError(t, s.MarkListPushed(ctx, "alice", l.ID, pushedAt))

	got, err = s.GetShoppingList(ctx, "alice", l.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PushedAt)
	assert.Equal(t, pushedAt.Unix(), got.PushedAt.Unix())

	_, err = s.GetShoppingList(ctx, "bob", l.ID)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}
