package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"pos-engine/internal/models"
	"pos-engine/internal/repositories"

	"github.com/sirupsen/logrus"
)

const shiftColumns = `id, user_id, user_name, start_time, end_time, status, starting_cash, ending_cash,
	cash_sales, card_sales, total_expenses, total_sales, expected_cash, difference`

// ShiftRepository implements the ShiftRepository interface for SQLite
type ShiftRepository struct {
	*BaseRepository[models.Shift]
}

// NewShiftRepository creates a new SQLite shift repository
func NewShiftRepository(db *sql.DB, logger *logrus.Logger) repositories.ShiftRepository {
	return &ShiftRepository{
		BaseRepository: NewBaseRepository[models.Shift](db, "shifts", "shift", logger),
	}
}

// Create persists a new shift
func (r *ShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	if err := shift.Validate(); err != nil {
		return repositories.ValidationError("shift", shift.ID, err)
	}

	query := `
		INSERT INTO shifts (` + shiftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := r.insert(ctx, query,
		nullableID(shift.ID),
		shift.UserID,
		shift.UserName,
		shift.StartTime,
		shift.EndTime,
		shift.Status,
		shift.StartingCash,
		shift.EndingCash,
		shift.CashSales,
		shift.CardSales,
		shift.TotalExpenses,
		shift.TotalSales,
		shift.ExpectedCash,
		shift.Difference,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("shift", "id", formatID(shift.ID))
		}
		return err
	}

	shift.ID = id
	return nil
}

// GetByID retrieves a shift by ID
func (r *ShiftRepository) GetByID(ctx context.Context, id int64) (*models.Shift, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = ?`

	shift, err := scanShift(r.executeQueryRow(ctx, "get_by_id", query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("shift", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "shift", id, err)
	}

	return shift, nil
}

// GetActiveByUser retrieves the user's active shift
func (r *ShiftRepository) GetActiveByUser(ctx context.Context, userID int64) (*models.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
		WHERE user_id = ? AND status = ?
		ORDER BY start_time DESC
		LIMIT 1`

	shift, err := scanShift(r.executeQueryRow(ctx, "get_active_by_user", query, userID, models.ShiftActive))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundByError("shift", "active user", formatID(userID))
		}
		return nil, repositories.NewRepositoryError("get_active_by_user", "shift", 0, err)
	}

	return shift, nil
}

// Close persists the closing snapshot. Only an active shift can be closed.
func (r *ShiftRepository) Close(ctx context.Context, shift *models.Shift) error {
	if err := shift.Validate(); err != nil {
		return repositories.ValidationError("shift", shift.ID, err)
	}

	query := `
		UPDATE shifts
		SET end_time = ?, status = ?, ending_cash = ?, cash_sales = ?, card_sales = ?,
			total_expenses = ?, total_sales = ?, expected_cash = ?, difference = ?
		WHERE id = ? AND status = ?`

	result, err := r.executeExec(ctx, "close", query,
		shift.EndTime,
		shift.Status,
		shift.EndingCash,
		shift.CashSales,
		shift.CardSales,
		shift.TotalExpenses,
		shift.TotalSales,
		shift.ExpectedCash,
		shift.Difference,
		shift.ID,
		models.ShiftActive,
	)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "close", shift.ID)
}

// List retrieves shifts matching the filters, newest first
func (r *ShiftRepository) List(ctx context.Context, filters models.ShiftFilters) ([]*models.Shift, error) {
	filters.Normalize()

	var conditions []string
	var args []interface{}
	if filters.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filters.UserID)
	}
	if filters.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filters.Status)
	}
	if filters.StartDate != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, *filters.StartDate)
	}
	if filters.EndDate != nil {
		conditions = append(conditions, "start_time <= ?")
		args = append(args, *filters.EndDate)
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []*models.Shift{}
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "shift", 0, err)
		}
		shifts = append(shifts, shift)
	}

	if err = rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list", "shift", 0, err)
	}

	return shifts, nil
}

func scanShift(s scanner) (*models.Shift, error) {
	shift := &models.Shift{}
	err := s.Scan(
		&shift.ID,
		&shift.UserID,
		&shift.UserName,
		&shift.StartTime,
		&shift.EndTime,
		&shift.Status,
		&shift.StartingCash,
		&shift.EndingCash,
		&shift.CashSales,
		&shift.CardSales,
		&shift.TotalExpenses,
		&shift.TotalSales,
		&shift.ExpectedCash,
		&shift.Difference,
	)
	if err != nil {
		return nil, err
	}
	return shift, nil
}
