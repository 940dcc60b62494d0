package store

import (
	"errors"
	"fmt"
)

// Common store errors
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity indicates the entity failed validation before or
	// during persistence (check constraint, bad foreign key, null column).
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed indicates an update affected no rows for a reason other
	// than the entity being absent.
	ErrUpdateFailed = errors.New("update failed")

	// ErrDeleteFailed indicates a delete could not be completed.
	ErrDeleteFailed = errors.New("delete failed")

	// ErrInternal wraps unexpected database failures. The wrapped detail must
	// never reach clients.
	ErrInternal = errors.New("internal store error")

	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrRefreshTokenMismatch indicates a rotation whose expected current
	// refresh token id no longer matched the stored one.
	ErrRefreshTokenMismatch = fmt.Errorf("%w: refresh token", ErrUpdateFailed)
)

// IsNotFoundError reports whether err is any of the not-found errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err is any of the uniqueness errors.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsInternalError reports whether err is an unexpected storage failure.
func IsInternalError(err error) bool {
	return errors.Is(err, ErrInternal)
}

// StoreError carries the entity and operation that failed alongside the
// underlying error so that logs stay useful while callers match on sentinels.
type StoreError struct {
	Entity    string // "user", "task"
	Operation string // "create", "list", ...
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError builds a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
