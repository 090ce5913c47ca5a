package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
	"git.home.luguber.info/inful/mealprep/internal/provider/llm"
	"git.home.luguber.info/inful/mealprep/internal/store"
	"git.home.luguber.info/inful/mealprep/internal/units"
)

// Quantity accepts a JSON number or a kitchen-style string ("1/2", "1 1/2").
type Quantity float64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := units.ParseQuantity(s)
		if err != nil {
			return err
		}
		*q = Quantity(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*q = Quantity(f)
	return nil
}

// IngredientRequest is one ingredient line in a recipe request. FoodRecordID
// carries an existing nutrition link through updates; clients round-tripping
// a recipe keep their resolved links.
type IngredientRequest struct {
	Name         string   `json:"name"`
	Quantity     Quantity `json:"quantity"`
	Unit         string   `json:"unit"`
	FoodRecordID string   `json:"food_record_id,omitempty"`
}

// RecipeRequest is the create/update payload.
type RecipeRequest struct {
	Name         string              `json:"name"`
	Servings     int                 `json:"servings"`
	Instructions string              `json:"instructions,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Ingredients  []IngredientRequest `json:"ingredients"`
}

func (req *RecipeRequest) toRecipe(user string) (*store.Recipe, error) {
	if req.Name == "" {
		return nil, apperrors.ValidationError("recipe name is required")
	}
	if req.Servings <= 0 {
		return nil, apperrors.ValidationError("servings must be positive")
	}

	r := &store.Recipe{
		User:         user,
		Name:         req.Name,
		Servings:     req.Servings,
		Instructions: req.Instructions,
		Tags:         req.Tags,
	}
	for _, ing := range req.Ingredients {
		if ing.Name == "" {
			return nil, apperrors.ValidationError("ingredient name is required")
		}
		if ing.Quantity <= 0 {
			return nil, apperrors.ValidationError("ingredient quantity must be positive")
		}
		unit, err := units.Normalize(ing.Unit)
		if err != nil {
			return nil, err
		}
		r.Ingredients = append(r.Ingredients, store.RecipeIngredient{
			Name:         ing.Name,
			Quantity:     float64(ing.Quantity),
			Unit:         string(unit),
			FoodRecordID: ing.FoodRecordID,
		})
	}
	return r, nil
}

// RecipeDetail is a recipe plus the rendered instruction HTML.
type RecipeDetail struct {
	*store.Recipe
	InstructionsHTML string `json:"instructions_html,omitempty"`
}

func renderMarkdown(md string) string {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if err := decode(r, &req); err != nil {
		s.Fail(w, r, err)
		return
	}

	recipe, err := req.toRecipe(userFrom(r))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if err := s.deps.Store.CreateRecipe(r.Context(), recipe); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusCreated, recipe)
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.deps.Store.ListRecipes(r.Context(), userFrom(r))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if recipes == nil {
		recipes = []*store.Recipe{}
	}
	s.Success(w, http.StatusOK, recipes)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.deps.Store.GetRecipe(r.Context(), userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, RecipeDetail{
		Recipe:           recipe,
		InstructionsHTML: renderMarkdown(recipe.Instructions),
	})
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if err := decode(r, &req); err != nil {
		s.Fail(w, r, err)
		return
	}

	recipe, err := req.toRecipe(userFrom(r))
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	recipe.ID = chi.URLParam(r, "id")
	if err := s.deps.Store.UpdateRecipe(r.Context(), recipe); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, recipe)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteRecipe(r.Context(), userFrom(r), chi.URLParam(r, "id")); err != nil {
		s.Fail(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, nil)
}

func (s *Server) handleGenerateInstructions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Instructions == nil {
		s.Fail(w, r, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "instruction generation is not configured"))
		return
	}

	user := userFrom(r)
	recipe, err := s.deps.Store.GetRecipe(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	in := llm.RecipeInput{Name: recipe.Name, Servings: recipe.Servings}
	for _, ing := range recipe.Ingredients {
		in.Ingredients = append(in.Ingredients, llm.IngredientInput{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}

	markdown, err := s.deps.Instructions.GenerateInstructions(r.Context(), in)
	if err != nil {
		s.Fail(w, r, err)
		return
	}
	if err := s.deps.Store.SetRecipeInstructions(r.Context(), user, recipe.ID, markdown); err != nil {
		s.Fail(w, r, err)
		return
	}

	s.Success(w, http.StatusOK, map[string]string{
		"instructions":      markdown,
		"instructions_html": renderMarkdown(markdown),
	})
}

func (s *Server) handleRecipeMacros(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipe, err := s.deps.Store.GetRecipe(ctx, userFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	portions := make([]nutrition.IngredientPortion, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		portion := nutrition.IngredientPortion{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		}
		if ing.FoodRecordID != "" {
			rec, err := s.deps.Store.GetFoodRecord(ctx, ing.FoodRecordID)
			if err == nil {
				portion.Record = rec
			}
		}
		portions = append(portions, portion)
	}

	breakdown, err := nutrition.ComputeRecipeMacros(recipe.Servings, portions)
	if err != nil {
		s.Fail(w, r, err)
		return
	}

	// Round only at the API boundary.
	breakdown.Total = breakdown.Total.Round()
	breakdown.PerServing = breakdown.PerServing.Round()
	for i := range breakdown.Items {
		breakdown.Items[i].Macros = breakdown.Items[i].Macros.Round()
	}
	s.Success(w, http.StatusOK, breakdown)
}
