package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

// CategoryRepository implements the CategoryRepository interface for SQLite
type CategoryRepository struct {
	*BaseRepository[models.Category]
}

// NewCategoryRepository creates a new SQLite category repository
func NewCategoryRepository(db *sql.DB, logger *logrus.Logger) repositories.CategoryRepository {
	return &CategoryRepository{
		BaseRepository: NewBaseRepository[models.Category](db, "categories", "category", logger),
	}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := category.Validate(); err != nil {
		return repositories.ValidationError("category", category.ID, err)
	}

	query := `INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`

	id, err := r.insert(ctx, query, nullableID(category.ID), strings.TrimSpace(category.Name), category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("category", "name", category.Name)
		}
		return err
	}

	category.ID = id
	return nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT id, name, created_at FROM categories WHERE id = ?`

	category := &models.Category{}
	err := r.executeQueryRow(ctx, "get_by_id", query, id).Scan(&category.ID, &category.Name, &category.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("category", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "category", id, err)
	}

	return category, nil
}

// GetByName retrieves a category by name
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	query := `SELECT id, name, created_at FROM categories WHERE name = ?`

	category := &models.Category{}
	err := r.executeQueryRow(ctx, "get_by_name", query, strings.TrimSpace(name)).Scan(&category.ID, &category.Name, &category.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundByError("category", "name", name)
		}
		return nil, repositories.NewRepositoryError("get_by_name", "category", 0, err)
	}

	return category, nil
}

// Update updates an existing category
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	if err := category.Validate(); err != nil {
		return repositories.ValidationError("category", category.ID, err)
	}

	query := `UPDATE categories SET name = ? WHERE id = ?`

	result, err := r.executeExec(ctx, "update", query, strings.TrimSpace(category.Name), category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("category", "name", category.Name)
		}
		return err
	}

	return r.checkRowsAffected(result, "update", category.ID)
}

// List retrieves categories ordered by name
func (r *CategoryRepository) List(ctx context.Context, filters map[string]interface{}) ([]*models.Category, error) {
	query := `SELECT id, name, created_at FROM categories`

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}
	query += " ORDER BY name ASC"

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
			return nil, repositories.NewRepositoryError("list", "category", 0, err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "category", 0, err)
	}

	return categories, nil
}
