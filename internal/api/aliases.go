package api

import (
	"net/http"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/ingredient"
)

// AliasRequest maps an alias spelling to a canonical ingredient name.
type AliasRequest struct {
	Alias     string `json:"alias"`
	Canonical string `json:"canonical,omitempty"`
}

func (s *Server) handleSetAlias(w http.ResponseWriter, r *http.Request) {
	var req AliasRequest
	if err := decode(r, &req); err != nil {
		s.Fail(w, r, err)
		return
	}

	// Aliases are stored in cleaned form so lookups after Clean() hit them.
	alias := ingredient.Clean(req.Alias)
	canonical := ingredient.Clean(req.Canonical)
	if alias == "" || canonical == "" {
		s.Fail(w, r, apperrors.ValidationError("alias and canonical are required"))
		return
	}

	if err := s.deps.Store.SetAlias(r.Context(), userFrom(r), alias, canonical); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusCreated, map[string]string{"alias": alias, "canonical": canonical})
}

func (s *Server) handleListAliases(w http.ResponseWriter, r *http.Request) {
	aliases, err := s.deps.Store.ListAliases(r.Context(), userFrom(r))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, aliases)
}

func (s *Server) handleDeleteAlias(w http.ResponseWriter, r *http.Request) {
	var req AliasRequest
	if err := decode(r, &req); err != nil {
		s.Fail(w, r, err)
		return
	}
	alias := ingredient.Clean(req.Alias)
	if alias == "" {
		s.Fail(w, r, apperrors.ValidationError("alias is required"))
		return
	}

	if err := s.deps.Store.DeleteAlias(r.Context(), userFrom(r), alias); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, nil)
}

// PantryRequest names a staple ingredient.
type PantryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddPantryStaple(w http.ResponseWriter, r *http.Request) {
	var req PantryRequest
	if err := decode(r, &req); err != nil {
		s.Fail(w, r, err)
		return
	}
	name := ingredient.Clean(req.Name)
	if name == "" {
		s.Fail(w, r, apperrors.ValidationError("name is required"))
		return
	}

	if err := s.deps.Store.AddPantryStaple(r.Context(), userFrom(r), name); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleListPantryStaples(w http.ResponseWriter, r *http.Request) {
	staples, err := s.deps.Store.ListPantryStaples(r.Context(), userFrom(r))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if staples == nil {
		staples = []string{}
	}
	s.Success(w, http.StatusOK, staples)
}

func (s *Server) handleDeletePantryStaple(w http.ResponseWriter, r *http.Request) {
	var req PantryRequest
	if err := decode(r, &req); err != nil {
		s.Fail(w, r, err)
		return
	}
	name := ingredient.Clean(req.Name)
	if name == "" {
		s.Fail(w, r, apperrors.ValidationError("name is required"))
		return
	}

	if err := s.deps.Store.DeletePantryStaple(r.Context(), userFrom(r), name); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, nil)
}
