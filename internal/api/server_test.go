package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mealprep/internal/config"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
	"git.home.luguber.info/inful/mealprep/internal/resolve"
	"git.home.luguber.info/inful/mealprep/internal/store"
)

// newTestServer builds a server over an in-memory store with a resolver that
// has no sources. Tests add deps by mutating the returned Deps before use.
func newTestServer(t *testing.T, mutate func(*Deps)) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	deps := Deps{
		Store:    st,
		Resolver: resolve.New(st, nil, nil),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewServer(config.ServerConfig{Addr: ":0"}, deps), st
}

func doJSON(t *testing.T, srv *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data any) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	if data != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, data))
	}
	return resp
}

func TestServerTimeoutsFromConfig(t *testing.T) {
	st := store.NewMemoryStore()
	deps := Deps{Store: st, Resolver: resolve.New(st, nil, nil)}

	srv := NewServer(config.ServerConfig{
		Addr:         ":0",
		ReadTimeout:  config.Duration(5 * time.Second),
		WriteTimeout: config.Duration(2 * time.Minute),
	}, deps)
	require.Equal(t, 5*time.Second, srv.server.ReadTimeout)
	require.Equal(t, 2*time.Minute, srv.server.WriteTimeout)

	// Zero values fall back to the defaults.
	fallback := NewServer(config.ServerConfig{Addr: ":0"}, deps)
	require.Equal(t, 15*time.Second, fallback.server.ReadTimeout)
	require.Equal(t, 60*time.Second, fallback.server.WriteTimeout)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUserDefaulting(t *testing.T) {
	srv, st := newTestServer(t, nil)

	// Created without a header, readable as the default user.
	w := doJSON(t, srv, http.MethodPost, "/recipes", "", RecipeRequest{Name: "Toast", Servings: 1})
	require.Equal(t, http.StatusCreated, w.Code)

	recipes, err := st.ListRecipes(context.Background(), "default")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
}

// seedLinkedRecipe creates a recipe with one resolved ingredient.
func seedLinkedRecipe(t *testing.T, st *store.MemoryStore, user string) *store.Recipe {
	t.Helper()
	ctx := context.Background()

	recipe := &store.Recipe{
		User:     user,
		Name:     "Chili",
		Servings: 4,
		Ingredients: []store.RecipeIngredient{
			{Name: "black beans", Quantity: 400, Unit: "g"},
			{Name: "cilantro", Quantity: 1, Unit: "piece"},
		},
	}
	require.NoError(t, st.CreateRecipe(ctx, recipe))

	rec := &nutrition.FoodRecord{
		Description: "Beans, black, cooked",
		Source:      nutrition.SourceUSDA,
		FDCID:       173735,
		Macros:      nutrition.Macros{Calories: 132, Protein: 8.9, Carbs: 23.7, Fat: 0.5},
	}
	require.NoError(t, st.UpsertFoodRecord(ctx, "black bean", rec))
	require.NoError(t, st.LinkIngredient(ctx, user, recipe.Ingredients[0].ID, rec.ID))

	loaded, err := st.GetRecipe(ctx, user, recipe.ID)
	require.NoError(t, err)
	return loaded
}
