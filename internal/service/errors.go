// Package service provides the application-level study operations.
package service

import (
	"errors"
	"fmt"
)

// Service sentinel errors. The API layer maps these to HTTP status codes.
var (
	// ErrDeckNotOwned indicates the deck belongs to a different user than the
	// one making the request. API layer should map this to HTTP 403 Forbidden.
	ErrDeckNotOwned = errors.New("deck is owned by another user")

	// ErrSessionNotFound indicates there is no open session with the given ID
	// for the requesting user. API layer should map this to HTTP 404 Not Found.
	ErrSessionNotFound = errors.New("study session not found")
)

// ServiceError wraps an unexpected failure with the operation that hit it.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("study service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("study service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
