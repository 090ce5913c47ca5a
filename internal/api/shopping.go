package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/shopping"
	"git.home.luguber.info/inful/mealprep/internal/store"
)

// ShoppingListRequest names the recipes to consolidate.
type ShoppingListRequest struct {
	RecipeIDs []string `json:"recipe_ids"`
}

func (s *Server) handleCreateShoppingList(w http.ResponseWriter, r *http.Request) {
	var req ShoppingListRequest
	if err := decode(r, &req); err != nil {
		s.Fail(w, r, err)
		return
	}
	if len(req.RecipeIDs) == 0 {
		s.Fail(w, r, apperrors.ValidationError("recipe_ids is required"))
		return
	}

	ctx := r.Context()
	user := userFrom(r)

	recipes := make([]*store.Recipe, 0, len(req.RecipeIDs))
	for _, id := range req.RecipeIDs {
		recipe, err := s.deps.Store.GetRecipe(ctx, user, id)
		if err != nil {
			s.Fail(w, r, err)
			return
		}
		recipes = append(recipes, recipe)
	}

	aliases, err := s.deps.Store.ListAliases(ctx, user)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	staples, err := s.deps.Store.ListPantryStaples(ctx, user)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	items, err := shopping.Consolidate(recipes, aliases, staples)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	list := &store.ShoppingList{User: user, RecipeIDs: req.RecipeIDs, Items: items}
	if err := s.deps.Store.CreateShoppingList(ctx, list); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusCreated, list)
}

func (s *Server) handleGetShoppingList(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Store.GetShoppingList(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, list)
}

func (s *Server) handlePushShoppingList(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pusher == nil {
		s.Fail(w, r, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "cart provider is not configured"))
		return
	}

	ctx := r.Context()
	user := userFrom(r)
	list, err := s.deps.Store.GetShoppingList(ctx, user, chi.URLParam(r, "id"))
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	result, err := s.deps.Pusher.Push(ctx, list)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if len(result.Pushed) > 0 {
		if err := s.deps.Store.MarkListPushed(ctx, user, list.ID, time.Now()); err != nil {
			s.Fail(w, r, err)
			return
		}
	}
	s.Success(w, http.StatusOK, result)
}
