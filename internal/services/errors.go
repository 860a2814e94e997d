package services

import (
	"errors"
	"fmt"
)

// PreconditionError is returned when an operation is rejected because the
// store is not in a state that allows it. Nothing has been mutated.
type PreconditionError struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return e.Message
}

// Precondition sentinels, matched with errors.Is
var (
	ErrNoActiveShift         = &PreconditionError{Code: "no_active_shift", Message: "no active shift for this user"}
	ErrShiftAlreadyActive    = &PreconditionError{Code: "shift_already_active", Message: "user already has an active shift"}
	ErrShiftClosed           = &PreconditionError{Code: "shift_closed", Message: "cannot cancel a sale belonging to a closed shift"}
	ErrCustomerRequired      = &PreconditionError{Code: "customer_required", Message: "a customer must be selected for credit or loyalty redemption"}
	ErrReferencedByHistory   = &PreconditionError{Code: "referenced_by_history", Message: "item is referenced by historical records and cannot be deleted"}
	ErrShopNotConfigured     = &PreconditionError{Code: "shop_not_configured", Message: "shop information has not been configured"}
	ErrEmptyCart             = &PreconditionError{Code: "empty_cart", Message: "the cart is empty"}
	ErrInsufficientPayment   = &PreconditionError{Code: "insufficient_payment", Message: "payment does not cover the total amount"}
	ErrNotSellable           = &PreconditionError{Code: "not_sellable", Message: "raw materials cannot be sold directly"}
	ErrInvalidAddonSelection = &PreconditionError{Code: "invalid_addon_selection", Message: "addon selection is not allowed for this item"}
	ErrInvalidIngredient     = &PreconditionError{Code: "invalid_ingredient", Message: "recipe ingredients must be existing raw materials"}
	ErrLastAdmin             = &PreconditionError{Code: "last_admin", Message: "the last active admin cannot be removed or demoted"}
	ErrInvalidTender         = &PreconditionError{Code: "invalid_tender", Message: "card payment cannot exceed the total amount"}
)

// ErrInvalidCredentials is returned when a PIN does not match
var ErrInvalidCredentials = errors.New("invalid user or PIN")

// preconditionf wraps a sentinel with extra detail while keeping errors.Is working
func preconditionf(sentinel *PreconditionError, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// IsPrecondition reports whether err is a rejected precondition
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// PreconditionCode returns the code of a precondition error, or ""
func PreconditionCode(err error) string {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
