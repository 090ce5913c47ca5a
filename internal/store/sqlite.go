package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/ingredient"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists. Use ":memory:" for an in-memory database in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "open sqlite database")
	}

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "initialize schema")
	}

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		user TEXT NOT NULL,
		name TEXT NOT NULL,
		servings INTEGER NOT NULL,
		instructions TEXT NOT NULL DEFAULT '',
		tags TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recipes_user ON recipes(user);

	CREATE TABLE IF NOT EXISTS recipe_ingredients (
		id TEXT PRIMARY KEY,
		recipe_id TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity REAL NOT NULL,
		unit TEXT NOT NULL,
		food_record_id TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ingredients_recipe ON recipe_ingredients(recipe_id);

	CREATE TABLE IF NOT EXISTS food_records (
		id TEXT PRIMARY KEY,
		lookup_name TEXT NOT NULL,
		description TEXT NOT NULL,
		source TEXT NOT NULL,
		external_id TEXT NOT NULL,
		fdc_id INTEGER NOT NULL DEFAULT 0,
		fatsecret_id TEXT NOT NULL DEFAULT '',
		upc TEXT NOT NULL DEFAULT '',
		off_code TEXT NOT NULL DEFAULT '',
		calories REAL NOT NULL,
		protein REAL NOT NULL,
		carbs REAL NOT NULL,
		fat REAL NOT NULL,
		density_g_ml REAL NOT NULL DEFAULT 0,
		fetched_at INTEGER NOT NULL,
		UNIQUE(source, external_id)
	);
	CREATE INDEX IF NOT EXISTS idx_food_lookup ON food_records(lookup_name);
	CREATE INDEX IF NOT EXISTS idx_food_upc ON food_records(upc);

	CREATE TABLE IF NOT EXISTS ingredient_aliases (
		user TEXT NOT NULL,
		alias TEXT NOT NULL,
		canonical TEXT NOT NULL,
		UNIQUE(user, alias)
	);

	CREATE TABLE IF NOT EXISTS pantry_staples (
		user TEXT NOT NULL,
		name TEXT NOT NULL,
		UNIQUE(user, name)
	);

	CREATE TABLE IF NOT EXISTS shopping_lists (
		id TEXT PRIMARY KEY,
		user TEXT NOT NULL,
		recipe_ids TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		pushed_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS shopping_list_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		list_id TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity REAL NOT NULL,
		unit TEXT NOT NULL,
		recipes TEXT NOT NULL,
		estimated INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_list_items ON shopping_list_items(list_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRecipe inserts a recipe and its ingredient lines. Missing IDs are
// generated.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, r *Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "marshal tags")
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO recipes (id, user, name, servings, instructions, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.User, r.Name, r.Servings, r.Instructions, tags, now.Unix(), now.Unix(),
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "insert recipe")
	}

	if err := insertIngredients(ctx, tx, r); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "commit")
	}
	return nil
}

func insertIngredients(ctx context.Context, tx *sql.Tx, r *Recipe) error {
	for i := range r.Ingredients {
		ing := &r.Ingredients[i]
		if ing.ID == "" {
			ing.ID = uuid.NewString()
		}
		ing.RecipeID = r.ID
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (id, recipe_id, name, quantity, unit, food_record_id, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			ing.ID, r.ID, ing.Name, ing.Quantity, ing.Unit, ing.FoodRecordID, i,
		)
		if err != nil {
			return apperrors.WrapError(err, apperrors.CategoryStorage, "insert ingredient")
		}
	}
	return nil
}

// GetRecipe returns a recipe owned by user, including its ingredients.
func (s *SQLiteStore) GetRecipe(ctx context.Context, user, id string) (*Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRecipe(ctx, user, id)
}

func (s *SQLiteStore) getRecipe(ctx context.Context, user, id string) (*Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user, name, servings, instructions, tags, created_at, updated_at FROM recipes WHERE id = ? AND user = ?",
		id, user,
	)
	r, err := scanRecipe(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, recipe_id, name, quantity, unit, food_record_id FROM recipe_ingredients WHERE recipe_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "query ingredients")
	}
	defer rows.Close()

	for rows.Next() {
		var ing RecipeIngredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.FoodRecordID); err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan ingredient")
		}
		r.Ingredients = append(r.Ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "iterate ingredients")
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*Recipe, error) {
	var r Recipe
	var tags []byte
	var createdAt, updatedAt int64
	err := row.Scan(&r.ID, &r.User, &r.Name, &r.Servings, &r.Instructions, &tags, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundError("recipe not found")
	}
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan recipe")
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &r.Tags); err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "unmarshal tags")
		}
	}
	r.CreatedAt = time.Unix(createdAt, 0)
	r.UpdatedAt = time.Unix(updatedAt, 0)
	return &r, nil
}

// ListRecipes returns the user's recipes without ingredient lines, newest
// first.
func (s *SQLiteStore) ListRecipes(ctx context.Context, user string) ([]*Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user, name, servings, instructions, tags, created_at, updated_at FROM recipes WHERE user = ? ORDER BY created_at DESC, id",
		user,
	)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "query recipes")
	}
	defer rows.Close()

	var recipes []*Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "iterate recipes")
	}
	return recipes, nil
}

// UpdateRecipe replaces the recipe row and all its ingredient lines.
func (s *SQLiteStore) UpdateRecipe(ctx context.Context, r *Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "marshal tags")
	}

	r.UpdatedAt = time.Now()
	res, err := tx.ExecContext(ctx,
		"UPDATE recipes SET name = ?, servings = ?, instructions = ?, tags = ?, updated_at = ? WHERE id = ? AND user = ?",
		r.Name, r.Servings, r.Instructions, tags, r.UpdatedAt.Unix(), r.ID, r.User,
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "update recipe")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFoundError("recipe not found")
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", r.ID); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "delete ingredients")
	}
	if err := insertIngredients(ctx, tx, r); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "commit")
	}
	return nil
}

// DeleteRecipe removes a recipe and its ingredient lines.
func (s *SQLiteStore) DeleteRecipe(ctx context.Context, user, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM recipes WHERE id = ? AND user = ?", id, user)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "delete recipe")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFoundError("recipe not found")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", id); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "delete ingredients")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "commit")
	}
	return nil
}

// SetRecipeInstructions stores generated markdown instructions on a recipe.
func (s *SQLiteStore) SetRecipeInstructions(ctx context.Context, user, id, markdown string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE recipes SET instructions = ?, updated_at = ? WHERE id = ? AND user = ?",
		markdown, time.Now().Unix(), id, user,
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "update instructions")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFoundError("recipe not found")
	}
	return nil
}

// GetIngredient returns a single ingredient line by id, scoped through the
// owning recipe's user.
func (s *SQLiteStore) GetIngredient(ctx context.Context, user, id string) (*RecipeIngredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ing RecipeIngredient
	err := s.db.QueryRowContext(ctx,
		`SELECT i.id, i.recipe_id, i.name, i.quantity, i.unit, i.food_record_id
		 FROM recipe_ingredients i
		 JOIN recipes r ON r.id = i.recipe_id
		 WHERE i.id = ? AND r.user = ?`,
		id, user,
	).Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.FoodRecordID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundError("ingredient not found")
	}
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan ingredient")
	}
	return &ing, nil
}

// LinkIngredient attaches a food record to an ingredient line owned by user.
func (s *SQLiteStore) LinkIngredient(ctx context.Context, user, ingredientID, foodRecordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE recipe_ingredients SET food_record_id = ?
		 WHERE id = ? AND recipe_id IN (SELECT id FROM recipes WHERE user = ?)`,
		foodRecordID, ingredientID, user,
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "link ingredient")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFoundError("ingredient not found")
	}
	return nil
}

// UpsertFoodRecord inserts a food record or, when a record from the same
// source with the same external id already exists, refreshes it in place.
// rec.ID is set to the stored id either way.
func (s *SQLiteStore) UpsertFoodRecord(ctx context.Context, lookupName string, rec *nutrition.FoodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
	}
	// Manual records have no provider-native id; key them by their own id so
	// the source+external_id constraint never collides.
	externalID := rec.ExternalID()
	if externalID == "" {
		externalID = rec.ID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO food_records (id, lookup_name, description, source, external_id, fdc_id, fatsecret_id, upc, off_code, calories, protein, carbs, fat, density_g_ml, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, external_id) DO UPDATE SET
			lookup_name = excluded.lookup_name,
			description = excluded.description,
			fdc_id = excluded.fdc_id,
			fatsecret_id = excluded.fatsecret_id,
			upc = excluded.upc,
			off_code = excluded.off_code,
			calories = excluded.calories,
			protein = excluded.protein,
			carbs = excluded.carbs,
			fat = excluded.fat,
			density_g_ml = excluded.density_g_ml,
			fetched_at = excluded.fetched_at`,
		rec.ID, lookupName, rec.Description, string(rec.Source), externalID,
		rec.FDCID, rec.FatSecretID, rec.UPC, rec.OFFCode,
		rec.Macros.Calories, rec.Macros.Protein, rec.Macros.Carbs, rec.Macros.Fat,
		rec.DensityGML, rec.FetchedAt.Unix(),
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "upsert food record")
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM food_records WHERE source = ? AND external_id = ?",
		string(rec.Source), externalID,
	).Scan(&rec.ID)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "read back food record id")
	}
	return nil
}

const foodColumns = "id, description, source, fdc_id, fatsecret_id, upc, off_code, calories, protein, carbs, fat, density_g_ml, fetched_at"

func scanFood(row rowScanner) (*nutrition.FoodRecord, error) {
	var rec nutrition.FoodRecord
	var source string
	var fetchedAt int64
	err := row.Scan(&rec.ID, &rec.Description, &source, &rec.FDCID, &rec.FatSecretID, &rec.UPC, &rec.OFFCode,
		&rec.Macros.Calories, &rec.Macros.Protein, &rec.Macros.Carbs, &rec.Macros.Fat,
		&rec.DensityGML, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundError("food record not found")
	}
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan food record")
	}
	rec.Source = nutrition.Source(source)
	rec.FetchedAt = time.Unix(fetchedAt, 0)
	return &rec, nil
}

// GetFoodRecord returns a food record by id.
func (s *SQLiteStore) GetFoodRecord(ctx context.Context, id string) (*nutrition.FoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM food_records WHERE id = ?", foodColumns), id)
	return scanFood(row)
}

// FindFoodByName returns the freshest cached record resolved under the given
// cleaned name.
func (s *SQLiteStore) FindFoodByName(ctx context.Context, name string) (*nutrition.FoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM food_records WHERE lookup_name = ? ORDER BY fetched_at DESC LIMIT 1", foodColumns), name)
	return scanFood(row)
}

// FindFoodByUPC returns the freshest cached record carrying the given barcode.
func (s *SQLiteStore) FindFoodByUPC(ctx context.Context, upc string) (*nutrition.FoodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM food_records WHERE upc = ? AND upc != '' ORDER BY fetched_at DESC LIMIT 1", foodColumns), upc)
	return scanFood(row)
}

// ListStaleFoodRecords returns up to limit records fetched before olderThan,
// oldest first, with the lookup name needed to re-resolve them.
func (s *SQLiteStore) ListStaleFoodRecords(ctx context.Context, olderThan time.Time, limit int) ([]StaleFood, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT lookup_name, %s FROM food_records WHERE fetched_at < ? ORDER BY fetched_at LIMIT ?", foodColumns),
		olderThan.Unix(), limit,
	)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "query stale records")
	}
	defer rows.Close()

	var stale []StaleFood
	for rows.Next() {
		var rec nutrition.FoodRecord
		var sf StaleFood
		var source string
		var fetchedAt int64
		err := rows.Scan(&sf.LookupName, &rec.ID, &rec.Description, &source, &rec.FDCID, &rec.FatSecretID, &rec.UPC, &rec.OFFCode,
			&rec.Macros.Calories, &rec.Macros.Protein, &rec.Macros.Carbs, &rec.Macros.Fat,
			&rec.DensityGML, &fetchedAt)
		if err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan stale record")
		}
		rec.Source = nutrition.Source(source)
		rec.FetchedAt = time.Unix(fetchedAt, 0)
		sf.Record = &rec
		stale = append(stale, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "iterate stale records")
	}
	return stale, nil
}

// SetAlias creates or replaces an alias mapping for the user.
func (s *SQLiteStore) SetAlias(ctx context.Context, user, alias, canonical string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ingredient_aliases (user, alias, canonical) VALUES (?, ?, ?) ON CONFLICT(user, alias) DO UPDATE SET canonical = excluded.canonical",
		user, alias, canonical,
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "set alias")
	}
	return nil
}

// DeleteAlias removes an alias mapping.
func (s *SQLiteStore) DeleteAlias(ctx context.Context, user, alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM ingredient_aliases WHERE user = ? AND alias = ?", user, alias)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "delete alias")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFoundError("alias not found")
	}
	return nil
}

// ListAliases returns the user's alias map.
func (s *SQLiteStore) ListAliases(ctx context.Context, user string) (ingredient.AliasMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT alias, canonical FROM ingredient_aliases WHERE user = ?", user)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "query aliases")
	}
	defer rows.Close()

	aliases := make(ingredient.AliasMap)
	for rows.Next() {
		var alias, canonical string
		if err := rows.Scan(&alias, &canonical); err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan alias")
		}
		aliases[alias] = canonical
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "iterate aliases")
	}
	return aliases, nil
}

// AddPantryStaple marks an ingredient as always on hand for the user.
func (s *SQLiteStore) AddPantryStaple(ctx context.Context, user, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO pantry_staples (user, name) VALUES (?, ?) ON CONFLICT(user, name) DO NOTHING",
		user, name,
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "add pantry staple")
	}
	return nil
}

// DeletePantryStaple removes a pantry staple.
func (s *SQLiteStore) DeletePantryStaple(ctx context.Context, user, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM pantry_staples WHERE user = ? AND name = ?", user, name)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "delete pantry staple")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFoundError("pantry staple not found")
	}
	return nil
}

// ListPantryStaples returns the user's staples, alphabetical.
func (s *SQLiteStore) ListPantryStaples(ctx context.Context, user string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pantry_staples WHERE user = ? ORDER BY name", user)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "query pantry staples")
	}
	defer rows.Close()

	var staples []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan pantry staple")
		}
		staples = append(staples, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "iterate pantry staples")
	}
	return staples, nil
}

// CreateShoppingList inserts a consolidated list and its items.
func (s *SQLiteStore) CreateShoppingList(ctx context.Context, l *ShoppingList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	recipeIDs, err := json.Marshal(l.RecipeIDs)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "marshal recipe ids")
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO shopping_lists (id, user, recipe_ids, created_at) VALUES (?, ?, ?, ?)",
		l.ID, l.User, recipeIDs, l.CreatedAt.Unix(),
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "insert shopping list")
	}

	for i, item := range l.Items {
		recipes, err := json.Marshal(item.Recipes)
		if err != nil {
			return apperrors.WrapError(err, apperrors.CategoryStorage, "marshal item recipes")
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO shopping_list_items (list_id, name, quantity, unit, recipes, estimated, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			l.ID, item.Name, item.Quantity, item.Unit, recipes, boolToInt(item.Estimated), i,
		)
		if err != nil {
			return apperrors.WrapError(err, apperrors.CategoryStorage, "insert list item")
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "commit")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetShoppingList returns a shopping list owned by user, with its items.
func (s *SQLiteStore) GetShoppingList(ctx context.Context, user, id string) (*ShoppingList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var l ShoppingList
	var recipeIDs []byte
	var createdAt int64
	var pushedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user, recipe_ids, created_at, pushed_at FROM shopping_lists WHERE id = ? AND user = ?",
		id, user,
	).Scan(&l.ID, &l.User, &recipeIDs, &createdAt, &pushedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundError("shopping list not found")
	}
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan shopping list")
	}
	if err := json.Unmarshal(recipeIDs, &l.RecipeIDs); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "unmarshal recipe ids")
	}
	l.CreatedAt = time.Unix(createdAt, 0)
	if pushedAt.Valid {
		t := time.Unix(pushedAt.Int64, 0)
		l.PushedAt = &t
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, quantity, unit, recipes, estimated FROM shopping_list_items WHERE list_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "query list items")
	}
	defer rows.Close()

	for rows.Next() {
		var item ShoppingListItem
		var recipes []byte
		var estimated int
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Unit, &recipes, &estimated); err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "scan list item")
		}
		if err := json.Unmarshal(recipes, &item.Recipes); err != nil {
			return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "unmarshal item recipes")
		}
		item.Estimated = estimated != 0
		l.Items = append(l.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryStorage, "iterate list items")
	}
	return &l, nil
}

// MarkListPushed records that a list was pushed to the retailer cart.
func (s *SQLiteStore) MarkListPushed(ctx context.Context, user, id string, pushedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE shopping_lists SET pushed_at = ? WHERE id = ? AND user = ?",
		pushedAt.Unix(), id, user,
	)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryStorage, "mark list pushed")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFoundError("shopping list not found")
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
