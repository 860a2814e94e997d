package sqlite

import (
	"context"
	"database/sql"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const expenseColumns = `id, shift_id, description, amount, date`

// ExpenseRepository implements the ExpenseRepository interface for SQLite
type ExpenseRepository struct {
	*BaseRepository[models.Expense]
}

// NewExpenseRepository creates a new SQLite expense repository
func NewExpenseRepository(db *sql.DB, logger *logrus.Logger) repositories.ExpenseRepository {
	return &ExpenseRepository{
		BaseRepository: NewBaseRepository[models.Expense](db, "expenses", "expense", logger),
	}
}

// Create persists a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if err := expense.Validate(); err != nil {
		return repositories.ValidationError("expense", expense.ID, err)
	}

	id, err := r.insert(ctx, `INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?)`,
		nullableID(expense.ID),
		expense.ShiftID,
		expense.Description,
		expense.Amount,
		expense.Date,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repositories.ConstraintError("expense", "shift", err)
		}
		return err
	}

	expense.ID = id
	return nil
}

// GetByShift retrieves a shift's expenses in insertion order
func (r *ExpenseRepository) GetByShift(ctx context.Context, shiftID int64) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE shift_id = ? ORDER BY id ASC`
	return r.queryExpenses(ctx, "get_by_shift", query, shiftID)
}

// SumByShift totals a shift's expenses
func (r *ExpenseRepository) SumByShift(ctx context.Context, shiftID int64) (float64, error) {
	var total float64
	err := r.executeQueryRow(ctx, "sum_by_shift",
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE shift_id = ?`, shiftID).Scan(&total)
	if err != nil {
		return 0, repositories.NewRepositoryError("sum_by_shift", "expense", 0, err)
	}
	return total, nil
}

// List retrieves all expenses
func (r *ExpenseRepository) List(ctx context.Context) ([]*models.Expense, error) {
	return r.queryExpenses(ctx, "list", `SELECT `+expenseColumns+` FROM expenses ORDER BY id ASC`)
}

func (r *ExpenseRepository) queryExpenses(ctx context.Context, operation, query string, args ...interface{}) ([]*models.Expense, error) {
	rows, err := r.executeQuery(ctx, operation, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []*models.Expense{}
	for rows.Next() {
		expense := &models.Expense{}
		if err := rows.Scan(&expense.ID, &expense.ShiftID, &expense.Description, &expense.Amount, &expense.Date); err != nil {
			return nil, repositories.NewRepositoryError(operation, "expense", 0, err)
		}
		expenses = append(expenses, expense)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError(operation, "expense", 0, err)
	}

	return expenses, nil
}
