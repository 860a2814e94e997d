package models

import (
	"fmt"
	"strings"
	"time"
)

// ShiftStatus represents the lifecycle state of a cash shift
type ShiftStatus string

const (
	ShiftActive ShiftStatus = "active"
	ShiftClosed ShiftStatus = "closed"
)

// Shift tracks a cashier's drawer from starting cash to counted cash
type Shift struct {
	ID            int64       `json:"id" db:"id"`
	UserID        int64       `json:"user_id" db:"user_id"`
	UserName      string      `json:"user_name" db:"user_name"`
	StartTime     time.Time   `json:"start_time" db:"start_time"`
	EndTime       *time.Time  `json:"end_time,omitempty" db:"end_time"`
	Status        ShiftStatus `json:"status" db:"status"`
	StartingCash  float64     `json:"starting_cash" db:"starting_cash"`
	EndingCash    float64     `json:"ending_cash" db:"ending_cash"`
	CashSales     float64     `json:"cash_sales" db:"cash_sales"`
	CardSales     float64     `json:"card_sales" db:"card_sales"`
	TotalExpenses float64     `json:"total_expenses" db:"total_expenses"`
	TotalSales    float64     `json:"total_sales" db:"total_sales"`
	ExpectedCash  float64     `json:"expected_cash" db:"expected_cash"`
	Difference    float64     `json:"difference" db:"difference"`
}

// NewShift opens a shift for the given user
func NewShift(userID int64, userName string, startingCash float64) *Shift {
	return &Shift{
		UserID:       userID,
		UserName:     userName,
		StartTime:    time.Now(),
		Status:       ShiftActive,
		StartingCash: startingCash,
	}
}

// Validate validates the shift data
func (s *Shift) Validate() error {
	if s.UserID <= 0 {
		return fmt.Errorf("shift user ID is required")
	}
	if s.StartingCash < 0 {
		return fmt.Errorf("starting cash cannot be negative")
	}
	switch s.Status {
	case ShiftActive:
		if s.EndTime != nil {
			return fmt.Errorf("active shift cannot have an end time")
		}
	case ShiftClosed:
		if s.EndTime == nil {
			return fmt.Errorf("closed shift must have an end time")
		}
	default:
		return fmt.Errorf("invalid shift status: %s", s.Status)
	}
	return nil
}

// IsActive returns true while the shift is open
func (s *Shift) IsActive() bool {
	return s.Status == ShiftActive
}

// ShiftTotals are the aggregates collected when a shift is closed
type ShiftTotals struct {
	CashSales     float64 `json:"cash_sales"`
	CardSales     float64 `json:"card_sales"`
	TotalSales    float64 `json:"total_sales"`
	TotalExpenses float64 `json:"total_expenses"`
}

// Close freezes the shift snapshot with the counted cash and aggregates
func (s *Shift) Close(countedCash float64, totals ShiftTotals, at time.Time) {
	s.Status = ShiftClosed
	s.EndTime = &at
	s.EndingCash = countedCash
	s.CashSales = totals.CashSales
	s.CardSales = totals.CardSales
	s.TotalSales = totals.TotalSales
	s.TotalExpenses = totals.TotalExpenses
	s.ExpectedCash = s.StartingCash + totals.CashSales - totals.TotalExpenses
	s.Difference = countedCash - s.ExpectedCash
}

// Expense is money taken out of the drawer during a shift
type Expense struct {
	ID          int64     `json:"id" db:"id"`
	ShiftID     int64     `json:"shift_id" db:"shift_id"`
	Description string    `json:"description" db:"description" validate:"required"`
	Amount      float64   `json:"amount" db:"amount" validate:"required,gt=0"`
	Date        time.Time `json:"date" db:"date"`
}

// NewExpense creates an expense tagged with a shift
func NewExpense(shiftID int64, description string, amount float64) *Expense {
	return &Expense{
		ShiftID:     shiftID,
		Description: description,
		Amount:      amount,
		Date:        time.Now(),
	}
}

// Validate validates the expense data
func (e *Expense) Validate() error {
	if e.ShiftID <= 0 {
		return fmt.Errorf("expense shift ID is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("expense description is required")
	}
	if e.Amount <= 0 {
		return fmt.Errorf("expense amount must be positive")
	}
	return nil
}
