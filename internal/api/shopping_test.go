package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/provider/kroger"
	"git.home.luguber.info/inful/mealprep/internal/shopping"
	"git.home.luguber.info/inful/mealprep/internal/store"
)

func seedTwoRecipes(t *testing.T, st *store.MemoryStore) []string {
	t.Helper()
	ctx := context.Background()

	chili := &store.Recipe{
		User: "alice", Name: "Chili", Servings: 4,
		Ingredients: []store.RecipeIngredient{
			{Name: "black beans", Quantity: 400, Unit: "g"},
			{Name: "salt", Quantity: 1, Unit: "tsp"},
		},
	}
	bowl := &store.Recipe{
		User: "alice", Name: "Burrito Bowl", Servings: 2,
		Ingredients: []store.RecipeIngredient{
			{Name: "Black Beans", Quantity: 0.5, Unit: "kg"},
		},
	}
	require.NoError(t, st.CreateRecipe(ctx, chili))
	require.NoError(t, st.CreateRecipe(ctx, bowl))
	return []string{chili.ID, bowl.ID}
}

func TestCreateShoppingList(t *testing.T) {
	srv, st := newTestServer(t, nil)
	ids := seedTwoRecipes(t, st)
	require.NoError(t, st.AddPantryStaple(context.Background(), "alice", "salt"))

	w := doJSON(t, srv, http.MethodPost, "/shopping-lists", "alice", ShoppingListRequest{RecipeIDs: ids})
	require.Equal(t, http.StatusCreated, w.Code)

	var list store.ShoppingList
	decodeResponse(t, w, &list)
	assert.NotEmpty(t, list.ID)
	require.Len(t, list.Items, 1, "salt is a pantry staple")
	assert.Equal(t, "black bean", list.Items[0].Name)
	assert.InDelta(t, 900, list.Items[0].Quantity, 0.001)
	assert.ElementsMatch(t, []string{"Chili", "Burrito Bowl"}, list.Items[0].Recipes)
}

func TestCreateShoppingListUnknownRecipe(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodPost, "/shopping-lists", "alice", ShoppingListRequest{RecipeIDs: []string{"missing"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stubCart struct {
	added []kroger.CartItem
	fail  bool
}

func (c *stubCart) SearchProducts(_ context.Context, term string) ([]kroger.Product, error) {
	if c.fail {
		return nil, apperrors.ProviderError("kroger", "down")
	}
	return []kroger.Product{{UPC: "000111", Description: "Store " + term}}, nil
}

func (c *stubCart) AddToCart(_ context.Context, items []kroger.CartItem) error {
	c.added = append(c.added, items...)
	return nil
}

func TestPushShoppingList(t *testing.T) {
	cart := &stubCart{}
	srv, st := newTestServer(t, func(d *Deps) {
		d.Pusher = shopping.NewPusher(cart, nil, nil)
	})
	ids := seedTwoRecipes(t, st)

	w := doJSON(t, srv, http.MethodPost, "/shopping-lists", "alice", ShoppingListRequest{RecipeIDs: ids})
	require.Equal(t, http.StatusCreated, w.Code)
	var list store.ShoppingList
	decodeResponse(t, w, &list)

	w = doJSON(t, srv, http.MethodPost, "/shopping-lists/"+list.ID+"/push", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result shopping.PushResult
	decodeResponse(t, w, &result)
	assert.NotEmpty(t, result.Pushed)
	assert.NotEmpty(t, cart.added)

	// Push state recorded.
	stored, err := st.GetShoppingList(context.Background(), "alice", list.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.PushedAt)
}

func TestPushShoppingListUnconfigured(t *testing.T) {
	srv, st := newTestServer(t, nil)
	ids := seedTwoRecipes(t, st)

	w := doJSON(t, srv, http.MethodPost, "/shopping-lists", "alice", ShoppingListRequest{RecipeIDs: ids})
	var list store.ShoppingList
	decodeResponse(t, w, &list)

	w = doJSON(t, srv, http.MethodPost, "/shopping-lists/"+list.ID+"/push", "alice", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
