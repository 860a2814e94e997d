package storage

import (
	"errors"
	"fmt"
)

// Common storage error types
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectExists   = errors.New("object already exists")
	ErrInvalidKey     = errors.New("invalid storage key")
	ErrUnavailable    = errors.New("storage unavailable")
	ErrTimeout        = errors.New("operation timeout")
)

// StorageError represents a storage operation error with additional context
type StorageError struct {
	Op        string
	Key       string
	Err       error
	Retryable bool
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s failed for key '%s': %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(op, key string, err error, retryable bool) *StorageError {
	return &StorageError{
		Op:        op,
		Key:       key,
		Err:       err,
		Retryable: retryable,
	}
}

// IsNotFound returns true if the error indicates a missing object
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsAlreadyExists returns true if the error indicates the key is taken
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrObjectExists)
}

// IsRetryable returns true if the error indicates a transient condition
func IsRetryable(err error) bool {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr.Retryable
	}
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
