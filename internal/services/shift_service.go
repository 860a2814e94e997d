package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pos-engine/internal/events"
	"pos-engine/internal/models"
	"pos-engine/internal/repositories"
)

// shiftService implements the ShiftService interface
type shiftService struct {
	repos     repositories.RepositoryManager
	publisher events.Publisher
	logger    *logrus.Logger
}

// NewShiftService creates a new shift service instance
func NewShiftService(repos repositories.RepositoryManager, publisher events.Publisher, logger *logrus.Logger) ShiftService {
	if logger == nil {
		logger = logrus.New()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &shiftService{
		repos:     repos,
		publisher: publisher,
		logger:    logger,
	}
}

// StartShift opens a shift for the actor. A user holds at most one active shift.
func (s *shiftService) StartShift(ctx context.Context, actor Actor, startingCash float64) (*models.Shift, error) {
	if actor.UserID <= 0 {
		return nil, fmt.Errorf("validation failed: actor user ID is required")
	}
	if err := models.ValidateAmount(startingCash, "starting cash"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	shift := models.NewShift(actor.UserID, actor.UserName, startingCash)

	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.repos.Shifts().GetActiveByUser(txCtx, actor.UserID); err == nil {
			return ErrShiftAlreadyActive
		} else if !repositories.IsNotFound(err) {
			return fmt.Errorf("failed to get active shift: %w", err)
		}

		if err := s.repos.Shifts().Create(txCtx, shift); err != nil {
			return fmt.Errorf("failed to create shift: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"shift_id":      shift.ID,
		"user_id":       actor.UserID,
		"starting_cash": models.FormatMoney(startingCash),
	}).Info("Shift started")

	s.publisher.Publish(events.New(events.ShiftStarted, "shift", shift.ID, shift))
	return shift, nil
}

// EndShift closes the actor's active shift against the counted drawer cash
func (s *shiftService) EndShift(ctx context.Context, actor Actor, countedCash float64) (*ShiftReport, error) {
	if err := models.ValidateAmount(countedCash, "counted cash"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var report *ShiftReport
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		shift, err := s.activeShift(txCtx, actor.UserID)
		if err != nil {
			return err
		}

		totals, err := s.repos.Sales().ShiftTotals(txCtx, shift.ID)
		if err != nil {
			return fmt.Errorf("failed to total shift sales: %w", err)
		}

		expenses, err := s.repos.Expenses().GetByShift(txCtx, shift.ID)
		if err != nil {
			return fmt.Errorf("failed to get shift expenses: %w", err)
		}

		var totalExpenses float64
		for _, e := range expenses {
			totalExpenses += e.Amount
		}

		shift.Close(countedCash, models.ShiftTotals{
			CashSales:     totals.CashSales,
			CardSales:     totals.CardSales,
			TotalSales:    totals.TotalSales,
			TotalExpenses: totalExpenses,
		}, time.Now())

		if err := s.repos.Shifts().Close(txCtx, shift); err != nil {
			return fmt.Errorf("failed to close shift: %w", err)
		}

		report = &ShiftReport{Shift: shift, Expenses: expenses}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"shift_id":      report.Shift.ID,
		"user_id":       actor.UserID,
		"expected_cash": models.FormatMoney(report.Shift.ExpectedCash),
		"difference":    models.FormatMoney(report.Shift.Difference),
	}).Info("Shift closed")

	s.publisher.Publish(events.New(events.ShiftClosed, "shift", report.Shift.ID, report.Shift))
	return report, nil
}

// AddExpense records a cash payout against the actor's active shift
func (s *shiftService) AddExpense(ctx context.Context, actor Actor, description string, amount float64) (*models.Expense, error) {
	description = strings.TrimSpace(description)
	if err := models.ValidateRequired(description, "description"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := models.ValidatePositiveAmount(amount, "amount"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var expense *models.Expense
	err := s.repos.WithTransaction(ctx, func(txCtx context.Context) error {
		shift, err := s.activeShift(txCtx, actor.UserID)
		if err != nil {
			return err
		}

		expense = models.NewExpense(shift.ID, description, amount)
		if err := s.repos.Expenses().Create(txCtx, expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(events.New(events.ExpenseAdded, "expense", expense.ID, expense))
	return expense, nil
}

// GetActiveShift returns the user's active shift or ErrNoActiveShift
func (s *shiftService) GetActiveShift(ctx context.Context, userID int64) (*models.Shift, error) {
	return s.activeShift(ctx, userID)
}

// GetShift retrieves a shift by ID
func (s *shiftService) GetShift(ctx context.Context, id int64) (*models.Shift, error) {
	if id <= 0 {
		return nil, fmt.Errorf("validation failed: shift ID must be positive")
	}

	shift, err := s.repos.Shifts().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return shift, nil
}

// ListShifts retrieves shifts, most recent first
func (s *shiftService) ListShifts(ctx context.Context, filters models.ShiftFilters) ([]*models.Shift, error) {
	filters.Normalize()

	shifts, err := s.repos.Shifts().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

// GetShiftReport returns a shift with its expenses and sales
func (s *shiftService) GetShiftReport(ctx context.Context, shiftID int64) (*ShiftReport, error) {
	shift, err := s.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.repos.Expenses().GetByShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift expenses: %w", err)
	}

	filters := models.SaleFilters{ShiftID: &shiftID}
	filters.Limit = models.MaxPageSize
	sales, err := s.repos.Sales().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift sales: %w", err)
	}

	return &ShiftReport{Shift: shift, Expenses: expenses, Sales: sales}, nil
}

func (s *shiftService) activeShift(ctx context.Context, userID int64) (*models.Shift, error) {
	if userID <= 0 {
		return nil, ErrNoActiveShift
	}
	shift, err := s.repos.Shifts().GetActiveByUser(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrNoActiveShift
		}
		return nil, fmt.Errorf("failed to get active shift: %w", err)
	}
	return shift, nil
}
