// Package store persists recipes, cached food records, aliases, pantry
// staples and shopping lists.
package store

import (
	"context"
	"time"

	"git.home.luguber.info/inful/mealprep/internal/ingredient"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
)

// Recipe is a user-owned recipe with its ingredient lines.
type Recipe struct {
	ID           string             `json:"id"`
	User         string             `json:"user"`
	Name         string             `json:"name"`
	Servings     int                `json:"servings"`
	Instructions string             `json:"instructions,omitempty"` // markdown
	Tags         []string           `json:"tags,omitempty"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// RecipeIngredient is a single ingredient line. FoodRecordID links the line
// to a cached nutrition record once it has been resolved.
type RecipeIngredient struct {
	ID           string  `json:"id"`
	RecipeID     string  `json:"recipe_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	FoodRecordID string  `json:"food_record_id,omitempty"`
}

// ShoppingList is a consolidated list generated from one or more recipes.
type ShoppingList struct {
	ID        string             `json:"id"`
	User      string             `json:"user"`
	RecipeIDs []string           `json:"recipe_ids"`
	Items     []ShoppingListItem `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	PushedAt  *time.Time         `json:"pushed_at,omitempty"`
}

// ShoppingListItem is one consolidated line on a shopping list.
type ShoppingListItem struct {
	Name      string   `json:"name"`
	Quantity  float64  `json:"quantity"`
	Unit      string   `json:"unit"`
	Recipes   []string `json:"recipes"`
	Estimated bool     `json:"estimated,omitempty"`
}

// StaleFood pairs a cached food record with the lookup name it was resolved
// under, so the refresh job can re-run the same query.
type StaleFood struct {
	LookupName string
	Record     *nutrition.FoodRecord
}

// Store is the persistence interface. Implemented by SQLiteStore and, for
// handler tests, by MemoryStore.
type Store interface {
	CreateRecipe(ctx context.Context, r *Recipe) error
	GetRecipe(ctx context.Context, user, id string) (*Recipe, error)
	ListRecipes(ctx context.Context, user string) ([]*Recipe, error)
	UpdateRecipe(ctx context.Context, r *Recipe) error
	DeleteRecipe(ctx context.Context, user, id string) error
	SetRecipeInstructions(ctx context.Context, user, id, markdown string) error

	GetIngredient(ctx context.Context, user, id string) (*RecipeIngredient, error)
	LinkIngredient(ctx context.Context, user, ingredientID, foodRecordID string) error

	UpsertFoodRecord(ctx context.Context, lookupName string, rec *nutrition.FoodRecord) error
	GetFoodRecord(ctx context.Context, id string) (*nutrition.FoodRecord, error)
	FindFoodByName(ctx context.Context, name string) (*nutrition.FoodRecord, error)
	FindFoodByUPC(ctx context.Context, upc string) (*nutrition.FoodRecord, error)
	ListStaleFoodRecords(ctx context.Context, olderThan time.Time, limit int) ([]StaleFood, error)

	SetAlias(ctx context.Context, user, alias, canonical string) error
	DeleteAlias(ctx context.Context, user, alias string) error
	ListAliases(ctx context.Context, user string) (ingredient.AliasMap, error)

	AddPantryStaple(ctx context.Context, user, name string) error
	DeletePantryStaple(ctx context.Context, user, name string) error
	ListPantryStaples(ctx context.Context, user string) ([]string, error)

	CreateShoppingList(ctx context.Context, l *ShoppingList) error
	GetShoppingList(ctx context.Context, user, id string) (*ShoppingList, error)
	MarkListPushed(ctx context.Context, user, id string, pushedAt time.Time) error

	Close() error
}
