package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/resolve"
)

// ResolveRequest is the ad-hoc resolution payload.
type ResolveRequest struct {
	Name         string `json:"name"`
	UPC          string `json:"upc,omitempty"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decode(r, &req); err != nil {
		s.Fail(w, r, err)
		return
	}
	if req.Name == "" && req.UPC == "" {
		s.Fail(w, r, apperrors.ValidationError("name or upc is required"))
		return
	}

	result, err := s.deps.Resolver.Resolve(r.Context(), userFrom(r), req.Name, resolve.Options{
		UPC:          req.UPC,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, result)
}

func (s *Server) handleResolveIngredient(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	// Body is optional here; the ingredient line supplies the name.
	_ = decode(r, &req)

	user := userFrom(r)
	ingredientID := chi.URLParam(r, "id")
	ing, err := s.deps.Store.GetIngredient(r.Context(), user, ingredientID)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	result, err := s.deps.Resolver.Resolve(r.Context(), user, ing.Name, resolve.Options{
		UPC:          req.UPC,
		ForceRefresh: req.ForceRefresh,
		IngredientID: ingredientID,
	})
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, result)
}
