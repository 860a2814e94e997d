package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const productColumns = `id, name, price, wholesale_price, cost, stock, unit, is_raw_material,
	low_stock_threshold, barcode, category_id, addon_group_ids, created_at, updated_at`

// ProductRepository implements the ProductRepository interface for SQLite
type ProductRepository struct {
	*BaseRepository[models.Product]
}

// NewProductRepository creates a new SQLite product repository
func NewProductRepository(db *sql.DB, logger *logrus.Logger) repositories.ProductRepository {
	return &ProductRepository{
		BaseRepository: NewBaseRepository[models.Product](db, "products", "product", logger),
	}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := product.Validate(); err != nil {
		return repositories.ValidationError("product", product.ID, err)
	}

	groups, err := toJSON(nonNilIDs(product.AddonGroupIDs))
	if err != nil {
		return repositories.NewRepositoryError("create", "product", product.ID, err)
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := r.insert(ctx, query,
		nullableID(product.ID),
		product.Name,
		product.Price,
		product.WholesalePrice,
		product.Cost,
		product.Stock,
		product.Unit,
		product.IsRawMaterial,
		product.LowStockThreshold,
		product.Barcode,
		product.CategoryID,
		groups,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if product.Barcode != nil {
				return repositories.DuplicateError("product", "barcode", *product.Barcode)
			}
			return repositories.DuplicateError("product", "id", formatID(product.ID))
		}
		if isForeignKeyViolation(err) {
			return repositories.ConstraintError("product", "category", err)
		}
		return err
	}

	product.ID = id
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	product, err := scanProduct(r.executeQueryRow(ctx, "get_by_id", query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("product", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "product", id, err)
	}

	return product, nil
}

// GetByBarcode retrieves a product by its barcode
func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, repositories.NewRepositoryError("get_by_barcode", "product", 0, repositories.ErrInvalidID)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = ?`

	product, err := scanProduct(r.executeQueryRow(ctx, "get_by_barcode", query, barcode))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundByError("product", "barcode", barcode)
		}
		return nil, repositories.NewRepositoryError("get_by_barcode", "product", 0, err)
	}

	return product, nil
}

// GetByIDs retrieves the products that exist among ids
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	result := make(map[int64]*models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` + placeholders(len(ids)) + `)`
	products, err := r.queryProducts(ctx, "get_by_ids", query, int64Args(ids)...)
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

// Update updates an existing product. Stock is only changed through AdjustStock.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := product.Validate(); err != nil {
		return repositories.ValidationError("product", product.ID, err)
	}

	groups, err := toJSON(nonNilIDs(product.AddonGroupIDs))
	if err != nil {
		return repositories.NewRepositoryError("update", "product", product.ID, err)
	}

	product.UpdateTimestamp()

	query := `
		UPDATE products
		SET name = ?, price = ?, wholesale_price = ?, cost = ?, unit = ?, is_raw_material = ?,
			low_stock_threshold = ?, barcode = ?, category_id = ?, addon_group_ids = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.executeExec(ctx, "update", query,
		product.Name,
		product.Price,
		product.WholesalePrice,
		product.Cost,
		product.Unit,
		product.IsRawMaterial,
		product.LowStockThreshold,
		product.Barcode,
		product.CategoryID,
		groups,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		if isUniqueViolation(err) && product.Barcode != nil {
			return repositories.DuplicateError("product", "barcode", *product.Barcode)
		}
		if isForeignKeyViolation(err) {
			return repositories.ConstraintError("product", "category", err)
		}
		return err
	}

	return r.checkRowsAffected(result, "update", product.ID)
}

// AdjustStock adds delta to the stock in a single statement
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, delta float64) (float64, error) {
	if err := r.validateID(id); err != nil {
		return 0, err
	}

	query := `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ? RETURNING stock`

	var stock float64
	if err := r.executeQueryRow(ctx, "adjust_stock", query, delta, time.Now(), id).Scan(&stock); err != nil {
		if err == sql.ErrNoRows {
			return 0, repositories.NotFoundError("product", id)
		}
		return 0, repositories.NewRepositoryError("adjust_stock", "product", id, err)
	}

	return stock, nil
}

// List retrieves products with optional filters
func (r *ProductRepository) List(ctx context.Context, filters map[string]interface{}) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}

	query += " ORDER BY name ASC, id ASC"

	return r.queryProducts(ctx, "list", query, args...)
}

// Search performs a name or barcode search on products
func (r *ProductRepository) Search(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = models.DefaultPageSize
	}

	sqlQuery := `SELECT ` + productColumns + ` FROM products
		WHERE name LIKE ? OR barcode = ?
		ORDER BY name ASC
		LIMIT ?`

	pattern := "%" + strings.TrimSpace(query) + "%"
	return r.queryProducts(ctx, "search", sqlQuery, pattern, strings.TrimSpace(query), limit)
}

// GetLowStock retrieves products at or below their low stock threshold
func (r *ProductRepository) GetLowStock(ctx context.Context) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE low_stock_threshold IS NOT NULL AND stock <= low_stock_threshold
		ORDER BY stock ASC`

	return r.queryProducts(ctx, "get_low_stock", query)
}

func (r *ProductRepository) queryProducts(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Product, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError(operation, "product", 0, err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "product", 0, err)
	}

	return products, nil
}

func scanProduct(s scanner) (*models.Product, error) {
	product := &models.Product{}
	var groups string
	err := s.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.WholesalePrice,
		&product.Cost,
		&product.Stock,
		&product.Unit,
		&product.IsRawMaterial,
		&product.LowStockThreshold,
		&product.Barcode,
		&product.CategoryID,
		&groups,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.AddonGroupIDs = []int64{}
	if err := fromJSON(groups, &product.AddonGroupIDs); err != nil {
		return nil, err
	}
	return product, nil
}
