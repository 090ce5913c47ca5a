package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/ingredient"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
)

// MemoryStore is an in-memory Store for handler tests. Not durable.
type MemoryStore struct {
	mu      sync.RWMutex
	recipes map[string]*Recipe
	foods   map[string]*nutrition.FoodRecord
	lookups map[string]string // lookup name -> record id
	aliases map[string]ingredient.AliasMap
	pantry  map[string]map[string]bool
	lists   map[string]*ShoppingList
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recipes: make(map[string]*Recipe),
		foods:   make(map[string]*nutrition.FoodRecord),
		lookups: make(map[string]string),
		aliases: make(map[string]ingredient.AliasMap),
		pantry:  make(map[string]map[string]bool),
		lists:   make(map[string]*ShoppingList),
	}
}

func copyRecipe(r *Recipe) *Recipe {
	out := *r
	out.Ingredients = append([]RecipeIngredient(nil), r.Ingredients...)
	out.Tags = append([]string(nil), r.Tags...)
	return &out
}

func (m *MemoryStore) CreateRecipe(_ context.Context, r *Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	for i := range r.Ingredients {
		if r.Ingredients[i].ID == "" {
			r.Ingredients[i].ID = uuid.NewString()
		}
		r.Ingredients[i].RecipeID = r.ID
	}
	m.recipes[r.ID] = copyRecipe(r)
	return nil
}

func (m *MemoryStore) GetRecipe(_ context.Context, user, id string) (*Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[id]
	if !ok || r.User != user {
		return nil, apperrors.NotFoundError("recipe not found")
	}
	return copyRecipe(r), nil
}

func (m *MemoryStore) ListRecipes(_ context.Context, user string) ([]*Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recipes []*Recipe
	for _, r := range m.recipes {
		if r.User == user {
			recipes = append(recipes, copyRecipe(r))
		}
	}
	sort.Slice(recipes, func(i, j int) bool {
		if !recipes[i].CreatedAt.Equal(recipes[j].CreatedAt) {
			return recipes[i].CreatedAt.After(recipes[j].CreatedAt)
		}
		return recipes[i].ID < recipes[j].ID
	})
	return recipes, nil
}

func (m *MemoryStore) UpdateRecipe(_ context.Context, r *Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.recipes[r.ID]
	if !ok || existing.User != r.User {
		return apperrors.NotFoundError("recipe not found")
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now()
	for i := range r.Ingredients {
		if r.Ingredients[i].ID == "" {
			r.Ingredients[i].ID = uuid.NewString()
		}
		r.Ingredients[i].RecipeID = r.ID
	}
	m.recipes[r.ID] = copyRecipe(r)
	return nil
}

func (m *MemoryStore) DeleteRecipe(_ context.Context, user, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[id]
	if !ok || r.User != user {
		return apperrors.NotFoundError("recipe not found")
	}
	delete(m.recipes, id)
	return nil
}

func (m *MemoryStore) SetRecipeInstructions(_ context.Context, user, id, markdown string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[id]
	if !ok || r.User != user {
		return apperrors.NotFoundError("recipe not found")
	}
	r.Instructions = markdown
	r.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetIngredient(_ context.Context, user, id string) (*RecipeIngredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.recipes {
		if r.User != user {
			continue
		}
		for i := range r.Ingredients {
			if r.Ingredients[i].ID == id {
				ing := r.Ingredients[i]
				return &ing, nil
			}
		}
	}
	return nil, apperrors.NotFoundError("ingredient not found")
}

func (m *MemoryStore) LinkIngredient(_ context.Context, user, ingredientID, foodRecordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.recipes {
		if r.User != user {
			continue
		}
		for i := range r.Ingredients {
			if r.Ingredients[i].ID == ingredientID {
				r.Ingredients[i].FoodRecordID = foodRecordID
				return nil
			}
		}
	}
	return apperrors.NotFoundError("ingredient not found")
}

func (m *MemoryStore) UpsertFoodRecord(_ context.Context, lookupName string, rec *nutrition.FoodRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
	}
	externalID := rec.ExternalID()
	if externalID != "" {
		for id, existing := range m.foods {
			if existing.Source == rec.Source && existing.ExternalID() == externalID {
				rec.ID = id
				break
			}
		}
	}
	stored := *rec
	m.foods[rec.ID] = &stored
	if lookupName != "" {
		m.lookups[lookupName] = rec.ID
	}
	return nil
}

func (m *MemoryStore) GetFoodRecord(_ context.Context, id string) (*nutrition.FoodRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.foods[id]
	if !ok {
		return nil, apperrors.NotFoundError("food record not found")
	}
	out := *rec
	return &out, nil
}

func (m *MemoryStore) FindFoodByName(_ context.Context, name string) (*nutrition.FoodRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.lookups[name]
	if !ok {
		return nil, apperrors.NotFoundError("food record not found")
	}
	out := *m.foods[id]
	return &out, nil
}

func (m *MemoryStore) FindFoodByUPC(_ context.Context, upc string) (*nutrition.FoodRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *nutrition.FoodRecord
	for _, rec := range m.foods {
		if rec.UPC == upc && upc != "" {
			if best == nil || rec.FetchedAt.After(best.FetchedAt) {
				best = rec
			}
		}
	}
	if best == nil {
		return nil, apperrors.NotFoundError("food record not found")
	}
	out := *best
	return &out, nil
}

func (m *MemoryStore) ListStaleFoodRecords(_ context.Context, olderThan time.Time, limit int) ([]StaleFood, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stale []StaleFood
	for name, id := range m.lookups {
		rec := m.foods[id]
		if rec != nil && rec.FetchedAt.Before(olderThan) {
			out := *rec
			stale = append(stale, StaleFood{LookupName: name, Record: &out})
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].Record.FetchedAt.Before(stale[j].Record.FetchedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (m *MemoryStore) SetAlias(_ context.Context, user, alias, canonical string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.aliases[user] == nil {
		m.aliases[user] = make(ingredient.AliasMap)
	}
	m.aliases[user][alias] = canonical
	return nil
}

func (m *MemoryStore) DeleteAlias(_ context.Context, user, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.aliases[user][alias]; !ok {
		return apperrors.NotFoundError("alias not found")
	}
	delete(m.aliases[user], alias)
	return nil
}

func (m *MemoryStore) ListAliases(_ context.Context, user string) (ingredient.AliasMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(ingredient.AliasMap, len(m.aliases[user]))
	for k, v := range m.aliases[user] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) AddPantryStaple(_ context.Context, user, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pantry[user] == nil {
		m.pantry[user] = make(map[string]bool)
	}
	m.pantry[user][name] = true
	return nil
}

func (m *MemoryStore) DeletePantryStaple(_ context.Context, user, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pantry[user][name] {
		return apperrors.NotFoundError("pantry staple not found")
	}
	delete(m.pantry[user], name)
	return nil
}

func (m *MemoryStore) ListPantryStaples(_ context.Context, user string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var staples []string
	for name := range m.pantry[user] {
		staples = append(staples, name)
	}
	sort.Strings(staples)
	return staples, nil
}

func (m *MemoryStore) CreateShoppingList(_ context.Context, l *ShoppingList) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()
	stored := *l
	stored.Items = append([]ShoppingListItem(nil), l.Items...)
	stored.RecipeIDs = append([]string(nil), l.RecipeIDs...)
	m.lists[l.ID] = &stored
	return nil
}

func (m *MemoryStore) GetShoppingList(_ context.Context, user, id string) (*ShoppingList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.lists[id]
	if !ok || l.User != user {
		return nil, apperrors.NotFoundError("shopping list not found")
	}
	out := *l
	out.Items = append([]ShoppingListItem(nil), l.Items...)
	out.RecipeIDs = append([]string(nil), l.RecipeIDs...)
	return &out, nil
}

func (m *MemoryStore) MarkListPushed(_ context.Context, user, id string, pushedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.lists[id]
	if !ok || l.User != user {
		return apperrors.NotFoundError("shopping list not found")
	}
	l.PushedAt = &pushedAt
	return nil
}

func (m *MemoryStore) Close() error { return nil }
