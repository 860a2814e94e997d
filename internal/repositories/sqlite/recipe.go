package sqlite

import (
	"context"
	"database/sql"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const recipeColumns = `id, name, price, category_id, ingredients, addon_group_ids, created_at, updated_at`

// RecipeRepository implements the RecipeRepository interface for SQLite
type RecipeRepository struct {
	*BaseRepository[models.Recipe]
}

// NewRecipeRepository creates a new SQLite recipe repository
func NewRecipeRepository(db *sql.DB, logger *logrus.Logger) repositories.RecipeRepository {
	return &RecipeRepository{
		BaseRepository: NewBaseRepository[models.Recipe](db, "recipes", "recipe", logger),
	}
}

// Create creates a new recipe
func (r *RecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return repositories.ValidationError("recipe", recipe.ID, err)
	}

	ingredients, groups, err := encodeRecipe(recipe)
	if err != nil {
		return repositories.NewRepositoryError("create", "recipe", recipe.ID, err)
	}

	query := `
		INSERT INTO recipes (` + recipeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := r.insert(ctx, query,
		nullableID(recipe.ID),
		recipe.Name,
		recipe.Price,
		recipe.CategoryID,
		ingredients,
		groups,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("recipe", "id", formatID(recipe.ID))
		}
		if isForeignKeyViolation(err) {
			return repositories.ConstraintError("recipe", "category", err)
		}
		return err
	}

	recipe.ID = id
	return nil
}

// GetByID retrieves a recipe by ID
func (r *RecipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = ?`

	recipe, err := scanRecipe(r.executeQueryRow(ctx, "get_by_id", query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("recipe", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "recipe", id, err)
	}

	return recipe, nil
}

// GetByIDs retrieves the recipes that exist among ids
func (r *RecipeRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Recipe, error) {
	result := make(map[int64]*models.Recipe, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id IN (` + placeholders(len(ids)) + `)`
	recipes, err := r.queryRecipes(ctx, "get_by_ids", query, int64Args(ids)...)
	if err != nil {
		return nil, err
	}

	for _, recipe := range recipes {
		result[recipe.ID] = recipe
	}
	return result, nil
}

// GetUsingProduct retrieves recipes that list the product as an ingredient
func (r *RecipeRepository) GetUsingProduct(ctx context.Context, productID int64) ([]*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes
		WHERE EXISTS (
			SELECT 1 FROM json_each(recipes.ingredients) AS ing
			WHERE json_extract(ing.value, '$.product_id') = ?
		)
		ORDER BY name ASC`

	return r.queryRecipes(ctx, "get_using_product", query, productID)
}

// Update updates an existing recipe
func (r *RecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	if err := recipe.Validate(); err != nil {
		return repositories.ValidationError("recipe", recipe.ID, err)
	}

	ingredients, groups, err := encodeRecipe(recipe)
	if err != nil {
		return repositories.NewRepositoryError("update", "recipe", recipe.ID, err)
	}

	recipe.UpdateTimestamp()

	query := `
		UPDATE recipes
		SET name = ?, price = ?, category_id = ?, ingredients = ?, addon_group_ids = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.executeExec(ctx, "update", query,
		recipe.Name,
		recipe.Price,
		recipe.CategoryID,
		ingredients,
		groups,
		recipe.UpdatedAt,
		recipe.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repositories.ConstraintError("recipe", "category", err)
		}
		return err
	}

	return r.checkRowsAffected(result, "update", recipe.ID)
}

// List retrieves recipes with optional filters
func (r *RecipeRepository) List(ctx context.Context, filters map[string]interface{}) ([]*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes`

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}

	query += " ORDER BY name ASC, id ASC"

	return r.queryRecipes(ctx, "list", query, args...)
}

func (r *RecipeRepository) queryRecipes(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Recipe, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []*models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError(operation, "recipe", 0, err)
		}
		recipes = append(recipes, recipe)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "recipe", 0, err)
	}

	return recipes, nil
}

func encodeRecipe(recipe *models.Recipe) (string, string, error) {
	ingredients := recipe.Ingredients
	if ingredients == nil {
		ingredients = []models.Ingredient{}
	}
	ingJSON, err := toJSON(ingredients)
	if err != nil {
		return "", "", err
	}
	groupJSON, err := toJSON(nonNilIDs(recipe.AddonGroupIDs))
	if err != nil {
		return "", "", err
	}
	return ingJSON, groupJSON, nil
}

func scanRecipe(s scanner) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	var ingredients, groups string
	err := s.Scan(
		&recipe.ID,
		&recipe.Name,
		&recipe.Price,
		&recipe.CategoryID,
		&ingredients,
		&groups,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	recipe.Ingredients = []models.Ingredient{}
	recipe.AddonGroupIDs = []int64{}
	if err := fromJSON(ingredients, &recipe.Ingredients); err != nil {
		return nil, err
	}
	if err := fromJSON(groups, &recipe.AddonGroupIDs); err != nil {
		return nil, err
	}
	return recipe, nil
}
