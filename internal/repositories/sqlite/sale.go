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

const saleColumns = `id, date, items, sub_total, discount_type, discount_value, discount_amount,
	loyalty_discount, tax_amount, delivery_fee, total_amount, total_cost, customer_id, user_id,
	user_name, payment_cash, payment_card, payment_credit, points_redeemed, points_earned,
	status, shift_id, canceled_at`

// SaleRepository implements the SaleRepository interface for SQLite
type SaleRepository struct {
	*BaseRepository[models.Sale]
}

// NewSaleRepository creates a new SQLite sale repository
func NewSaleRepository(db *sql.DB, logger *logrus.Logger) repositories.SaleRepository {
	return &SaleRepository{
		BaseRepository: NewBaseRepository[models.Sale](db, "sales", "sale", logger),
	}
}

// Create persists a new sale with its line snapshot
func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	if err := sale.Validate(); err != nil {
		return repositories.ValidationError("sale", sale.ID, err)
	}

	items, err := toJSON(sale.Items)
	if err != nil {
		return repositories.NewRepositoryError("create", "sale", sale.ID, err)
	}

	discountType := sale.Discount.Type
	if discountType == "" {
		discountType = models.DiscountNone
	}

	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := r.insert(ctx, query,
		nullableID(sale.ID),
		sale.Date,
		items,
		sale.SubTotal,
		discountType,
		sale.Discount.Value,
		sale.DiscountAmount,
		sale.LoyaltyDiscount,
		sale.TaxAmount,
		sale.DeliveryFee,
		sale.TotalAmount,
		sale.TotalCost,
		sale.CustomerID,
		sale.UserID,
		sale.UserName,
		sale.PaymentDetails.Cash,
		sale.PaymentDetails.Card,
		sale.PaymentDetails.Credit,
		sale.PointsRedeemed,
		sale.PointsEarned,
		sale.Status,
		sale.ShiftID,
		sale.CanceledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("sale", "id", formatID(sale.ID))
		}
		if isForeignKeyViolation(err) {
			return repositories.ConstraintError("sale", "customer or shift", err)
		}
		return err
	}

	sale.ID = id
	return nil
}

// GetByID retrieves a sale by ID
func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*models.Sale, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = ?`

	sale, err := scanSale(r.executeQueryRow(ctx, "get_by_id", query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("sale", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "sale", id, err)
	}

	return sale, nil
}

// List retrieves sales matching the filters, newest first
func (r *SaleRepository) List(ctx context.Context, filters models.SaleFilters) ([]*models.Sale, error) {
	filters.Normalize()

	where, args := saleWhere(filters)
	query := `SELECT ` + saleColumns + ` FROM sales` + where + ` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []*models.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "sale", 0, err)
		}
		sales = append(sales, sale)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "sale", 0, err)
	}

	return sales, nil
}

// Count returns the number of sales matching the filters
func (r *SaleRepository) Count(ctx context.Context, filters models.SaleFilters) (int64, error) {
	where, args := saleWhere(filters)

	var count int64
	if err := r.executeQueryRow(ctx, "count", `SELECT COUNT(*) FROM sales`+where, args...).Scan(&count); err != nil {
		return 0, repositories.NewRepositoryError("count", "sale", 0, err)
	}
	return count, nil
}

// MarkCanceled moves a completed sale to canceled
func (r *SaleRepository) MarkCanceled(ctx context.Context, id int64, at time.Time) error {
	if err := r.validateID(id); err != nil {
		return err
	}

	result, err := r.executeExec(ctx, "mark_canceled",
		`UPDATE sales SET status = ?, canceled_at = ? WHERE id = ? AND status = ?`,
		models.SaleCanceled, at, id, models.SaleCompleted)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "mark_canceled", id)
}

// ShiftTotals aggregates the completed sales of a shift
func (r *SaleRepository) ShiftTotals(ctx context.Context, shiftID int64) (*repositories.SaleTotals, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(payment_cash), 0),
			COALESCE(SUM(payment_card), 0),
			COALESCE(SUM(payment_credit), 0),
			COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE shift_id = ? AND status = ?`

	totals := &repositories.SaleTotals{}
	err := r.executeQueryRow(ctx, "shift_totals", query, shiftID, models.SaleCompleted).Scan(
		&totals.Count,
		&totals.CashSales,
		&totals.CardSales,
		&totals.CreditSales,
		&totals.TotalSales,
	)
	if err != nil {
		return nil, repositories.NewRepositoryError("shift_totals", "sale", 0, err)
	}

	return totals, nil
}

// ExistsWithProduct reports whether any sale line sells the product directly
func (r *SaleRepository) ExistsWithProduct(ctx context.Context, productID int64) (bool, error) {
	query := `SELECT 1 FROM sales, json_each(sales.items) AS item
		WHERE json_extract(item.value, '$.type') = ? AND json_extract(item.value, '$.id') = ?
		LIMIT 1`
	return r.exists(ctx, "exists_with_product", query, models.ItemTypeProduct, productID)
}

// ExistsWithRecipe reports whether any sale line sells one of the recipes
func (r *SaleRepository) ExistsWithRecipe(ctx context.Context, recipeIDs ...int64) (bool, error) {
	if len(recipeIDs) == 0 {
		return false, nil
	}

	query := `SELECT 1 FROM sales, json_each(sales.items) AS item
		WHERE json_extract(item.value, '$.type') = ?
			AND json_extract(item.value, '$.id') IN (` + placeholders(len(recipeIDs)) + `)
		LIMIT 1`

	args := append([]interface{}{models.ItemTypeRecipe}, int64Args(recipeIDs)...)
	return r.exists(ctx, "exists_with_recipe", query, args...)
}

// ExistsWithCustomer reports whether the customer has any sale
func (r *SaleRepository) ExistsWithCustomer(ctx context.Context, customerID int64) (bool, error) {
	return r.exists(ctx, "exists_with_customer", `SELECT 1 FROM sales WHERE customer_id = ? LIMIT 1`, customerID)
}

func saleWhere(filters models.SaleFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filters.ShiftID != nil {
		conditions = append(conditions, "shift_id = ?")
		args = append(args, *filters.ShiftID)
	}
	if filters.CustomerID != nil {
		conditions = append(conditions, "customer_id = ?")
		args = append(args, *filters.CustomerID)
	}
	if filters.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filters.UserID)
	}
	if filters.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filters.Status)
	}
	if filters.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filters.EndDate)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		conditions = append(conditions, "(user_name LIKE ? OR items LIKE ?)")
		args = append(args, "%"+q+"%", "%"+q+"%")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanSale(s scanner) (*models.Sale, error) {
	sale := &models.Sale{}
	var items string
	err := s.Scan(
		&sale.ID,
		&sale.Date,
		&items,
		&sale.SubTotal,
		&sale.Discount.Type,
		&sale.Discount.Value,
		&sale.DiscountAmount,
		&sale.LoyaltyDiscount,
		&sale.TaxAmount,
		&sale.DeliveryFee,
		&sale.TotalAmount,
		&sale.TotalCost,
		&sale.CustomerID,
		&sale.UserID,
		&sale.UserName,
		&sale.PaymentDetails.Cash,
		&sale.PaymentDetails.Card,
		&sale.PaymentDetails.Credit,
		&sale.PointsRedeemed,
		&sale.PointsEarned,
		&sale.Status,
		&sale.ShiftID,
		&sale.CanceledAt,
	)
	if err != nil {
		return nil, err
	}

	sale.Items = []models.CartItem{}
	if err := fromJSON(items, &sale.Items); err != nil {
		return nil, err
	}
	return sale, nil
}
