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

const supplierColumns = `id, name, phone, address, balance, created_at, updated_at`

// SupplierRepository implements the SupplierRepository interface for SQLite
type SupplierRepository struct {
	*BaseRepository[models.Supplier]
}

// NewSupplierRepository creates a new SQLite supplier repository
func NewSupplierRepository(db *sql.DB, logger *logrus.Logger) repositories.SupplierRepository {
	return &SupplierRepository{
		BaseRepository: NewBaseRepository[models.Supplier](db, "suppliers", "supplier", logger),
	}
}

// Create creates a new supplier
func (r *SupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	if err := supplier.Validate(); err != nil {
		return repositories.ValidationError("supplier", supplier.ID, err)
	}

	query := `INSERT INTO suppliers (` + supplierColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := r.insert(ctx, query,
		nullableID(supplier.ID),
		supplier.Name,
		supplier.Phone,
		supplier.Address,
		supplier.Balance,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("supplier", "id", formatID(supplier.ID))
		}
		return err
	}

	supplier.ID = id
	return nil
}

// GetByID retrieves a supplier by ID
func (r *SupplierRepository) GetByID(ctx context.Context, id int64) (*models.Supplier, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = ?`

	supplier, err := scanSupplier(r.executeQueryRow(ctx, "get_by_id", query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("supplier", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "supplier", id, err)
	}

	return supplier, nil
}

// Update updates a supplier's contact details
func (r *SupplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	if err := supplier.Validate(); err != nil {
		return repositories.ValidationError("supplier", supplier.ID, err)
	}

	supplier.UpdateTimestamp()

	result, err := r.executeExec(ctx, "update",
		`UPDATE suppliers SET name = ?, phone = ?, address = ?, updated_at = ? WHERE id = ?`,
		supplier.Name, supplier.Phone, supplier.Address, supplier.UpdatedAt, supplier.ID)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "update", supplier.ID)
}

// ApplyBalanceDelta adds to the supplier balance in one statement
func (r *SupplierRepository) ApplyBalanceDelta(ctx context.Context, id int64, delta float64) (*models.Supplier, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `UPDATE suppliers SET balance = balance + ?, updated_at = ? WHERE id = ? RETURNING ` + supplierColumns

	supplier, err := scanSupplier(r.executeQueryRow(ctx, "apply_balance_delta", query, delta, time.Now(), id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("supplier", id)
		}
		return nil, repositories.NewRepositoryError("apply_balance_delta", "supplier", id, err)
	}

	return supplier, nil
}

// List retrieves suppliers with optional filters
func (r *SupplierRepository) List(ctx context.Context, filters map[string]interface{}) ([]*models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers`

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}
	query += " ORDER BY name ASC, id ASC"

	return r.querySuppliers(ctx, "list", query, args...)
}

// Search performs a search on name, phone and address
func (r *SupplierRepository) Search(ctx context.Context, query string, limit int) ([]*models.Supplier, error) {
	if strings.TrimSpace(query) == "" {
		return []*models.Supplier{}, nil
	}
	if limit <= 0 {
		limit = models.DefaultPageSize
	}

	pattern := "%" + strings.TrimSpace(query) + "%"
	searchQuery := `SELECT ` + supplierColumns + ` FROM suppliers
		WHERE name LIKE ? OR phone LIKE ? OR address LIKE ?
		ORDER BY name ASC
		LIMIT ?`

	return r.querySuppliers(ctx, "search", searchQuery, pattern, pattern, pattern, limit)
}

func (r *SupplierRepository) querySuppliers(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Supplier, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := []*models.Supplier{}
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError(operation, "supplier", 0, err)
		}
		suppliers = append(suppliers, supplier)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "supplier", 0, err)
	}

	return suppliers, nil
}

func scanSupplier(s scanner) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	err := s.Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Phone,
		&supplier.Address,
		&supplier.Balance,
		&supplier.CreatedAt,
		&supplier.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return supplier, nil
}
