package service

import (
	"errors"
	"fmt"
)

// Service sentinel errors. Callers match them with errors.Is; the API layer
// maps each to a status code.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. Maps to 403.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrInvalidCredentials covers both an unknown email and a wrong password
	// so that login does not reveal which accounts exist. Maps to 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRefreshTokenRevoked indicates a well-formed refresh token that is no
	// longer the one stored for the user. Maps to 403.
	ErrRefreshTokenRevoked = errors.New("refresh token has been revoked")
)

// TaskServiceError carries the failing operation alongside the cause.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
