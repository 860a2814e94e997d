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

const customerColumns = `id, name, phone, address, balance, loyalty_points, created_at, updated_at`

// CustomerRepository implements the CustomerRepository interface for SQLite
type CustomerRepository struct {
	*BaseRepository[models.Customer]
}

// NewCustomerRepository creates a new SQLite customer repository
func NewCustomerRepository(db *sql.DB, logger *logrus.Logger) repositories.CustomerRepository {
	return &CustomerRepository{
		BaseRepository: NewBaseRepository[models.Customer](db, "customers", "customer", logger),
	}
}

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if err := customer.Validate(); err != nil {
		return repositories.ValidationError("customer", customer.ID, err)
	}

	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := r.insert(ctx, query,
		nullableID(customer.ID),
		customer.Name,
		customer.Phone,
		customer.Address,
		customer.Balance,
		customer.LoyaltyPoints,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("customer", "id", formatID(customer.ID))
		}
		return err
	}

	customer.ID = id
	return nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`

	customer, err := scanCustomer(r.executeQueryRow(ctx, "get_by_id", query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("customer", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "customer", id, err)
	}

	return customer, nil
}

// Update updates a customer's contact details. Balance and points only move
// through ApplyDelta.
func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	if err := customer.Validate(); err != nil {
		return repositories.ValidationError("customer", customer.ID, err)
	}

	customer.UpdateTimestamp()

	query := `UPDATE customers SET name = ?, phone = ?, address = ?, updated_at = ? WHERE id = ?`

	result, err := r.executeExec(ctx, "update", query,
		customer.Name,
		customer.Phone,
		customer.Address,
		customer.UpdatedAt,
		customer.ID,
	)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "update", customer.ID)
}

// ApplyDelta adds to the balance and loyalty points in one statement
func (r *CustomerRepository) ApplyDelta(ctx context.Context, id int64, balanceDelta float64, pointsDelta int64) (*models.Customer, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `
		UPDATE customers
		SET balance = balance + ?, loyalty_points = loyalty_points + ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + customerColumns

	customer, err := scanCustomer(r.executeQueryRow(ctx, "apply_delta", query, balanceDelta, pointsDelta, time.Now(), id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("customer", id)
		}
		return nil, repositories.NewRepositoryError("apply_delta", "customer", id, err)
	}

	return customer, nil
}

// List retrieves customers with optional filters
func (r *CustomerRepository) List(ctx context.Context, filters map[string]interface{}) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers`

	whereClause, args := r.buildWhereClause(filters)
	if whereClause != "" {
		query += " " + whereClause
	}

	query += " ORDER BY name ASC, id ASC"

	return r.queryCustomers(ctx, "list", query, args...)
}

// Search performs a search on name, phone and address
func (r *CustomerRepository) Search(ctx context.Context, query string, limit int) ([]*models.Customer, error) {
	if strings.TrimSpace(query) == "" {
		return []*models.Customer{}, nil
	}
	if limit <= 0 {
		limit = models.DefaultPageSize
	}

	searchQuery := `SELECT ` + customerColumns + ` FROM customers
		WHERE name LIKE ? OR phone LIKE ? OR address LIKE ?
		ORDER BY name ASC
		LIMIT ?`

	pattern := "%" + strings.TrimSpace(query) + "%"
	return r.queryCustomers(ctx, "search", searchQuery, pattern, pattern, pattern, limit)
}

// GetByPhone retrieves customers by phone number
func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone = ? ORDER BY name ASC`
	return r.queryCustomers(ctx, "get_by_phone", query, strings.TrimSpace(phone))
}

// GetDebtors retrieves customers with a negative balance, largest debt first
func (r *CustomerRepository) GetDebtors(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE balance < 0 ORDER BY balance ASC`
	return r.queryCustomers(ctx, "get_debtors", query)
}

func (r *CustomerRepository) queryCustomers(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Customer, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError(operation, "customer", 0, err)
		}
		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "customer", 0, err)
	}

	return customers, nil
}

func scanCustomer(s scanner) (*models.Customer, error) {
	customer := &models.Customer{}
	err := s.Scan(
		&customer.ID,
		&customer.Name,
		&customer.Phone,
		&customer.Address,
		&customer.Balance,
		&customer.LoyaltyPoints,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return customer, nil
}
