package repositories

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP statuses, services branch on them
// with the Is helpers below.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("already exists")
	ErrInvalidID      = errors.New("invalid ID")
	ErrValidation     = errors.New("invalid record")
	ErrConstraint     = errors.New("still referenced")
	ErrTransaction    = errors.New("transaction failed")
	ErrConnection     = errors.New("database unavailable")
)

// RepositoryError carries the store operation and record that failed.
// Kind is one of the sentinels above, Cause the driver or validation error.
type RepositoryError struct {
	Op     string
	Entity string
	ID     int64
	Kind   error
	Cause  error
	Detail string // field lookup or constraint name
}

func (e *RepositoryError) Error() string {
	subject := e.Entity
	if e.ID != 0 {
		subject = fmt.Sprintf("%s %d", e.Entity, e.ID)
	}
	if e.Detail != "" {
		subject += " (" + e.Detail + ")"
	}

	switch {
	case e.Kind == nil:
		return fmt.Sprintf("%s %s operation failed: %v", e.Entity, e.Op, e.Cause)
	case e.Cause == nil:
		return fmt.Sprintf("%s %v", subject, e.Kind)
	default:
		return fmt.Sprintf("%s %v: %v", subject, e.Kind, e.Cause)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *RepositoryError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewRepositoryError wraps a driver failure. errors.Is on the cause still works,
// so a wrapped ErrInvalidID reports as invalid input.
func NewRepositoryError(op, entity string, id int64, err error) *RepositoryError {
	return &RepositoryError{Op: op, Entity: entity, ID: id, Cause: err}
}

// NotFoundError reports a missing row looked up by id
func NotFoundError(entity string, id int64) *RepositoryError {
	return &RepositoryError{Op: "get", Entity: entity, ID: id, Kind: ErrNotFound}
}

// NotFoundByError reports a missing row looked up by another column, such as a barcode
func NotFoundByError(entity, field, value string) *RepositoryError {
	return &RepositoryError{Op: "get", Entity: entity, Kind: ErrNotFound, Detail: fmt.Sprintf("%s %q", field, value)}
}

// DuplicateError reports a unique column clash
func DuplicateError(entity, field, value string) *RepositoryError {
	return &RepositoryError{Op: "create", Entity: entity, Kind: ErrDuplicateEntry, Detail: fmt.Sprintf("%s %q", field, value)}
}

// ValidationError reports a record rejected before it reached SQL
func ValidationError(entity string, id int64, err error) *RepositoryError {
	return &RepositoryError{Op: "validate", Entity: entity, ID: id, Kind: ErrValidation, Cause: err}
}

// ConstraintError reports a foreign key that blocks a write or delete
func ConstraintError(entity, constraint string, err error) *RepositoryError {
	return &RepositoryError{Op: "constraint", Entity: entity, Kind: ErrConstraint, Cause: err, Detail: constraint}
}

// TransactionError reports a failed begin, commit or rollback
func TransactionError(op string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Entity: "transaction", Kind: ErrTransaction, Cause: err}
}

// ConnectionError reports an unreachable database
func ConnectionError(err error) *RepositoryError {
	return &RepositoryError{Op: "connect", Entity: "database", Kind: ErrConnection, Cause: err}
}

// IsNotFound reports a missing row
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsDuplicate reports a unique column clash
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicateEntry) }

// IsValidation reports a record rejected by validation
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConstraint reports a foreign key violation
func IsConstraint(err error) bool { return errors.Is(err, ErrConstraint) }
