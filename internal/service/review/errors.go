package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// Common error types for the review service
var (
	// ErrItemNotFound indicates that the vocabulary item does not exist.
	ErrItemNotFound = fmt.Errorf("%w: vocabulary item", domain.ErrNotFound)

	// ErrNotStarted indicates an operation that needs existing progress on an
	// item the user has never studied.
	ErrNotStarted = fmt.Errorf("%w: no learning progress for item", domain.ErrNotFound)
)

// Operation names used in ServiceError.
const (
	opGetReviewQueue   = "get_review_queue"
	opSubmitReview     = "submit_review"
	opPostponeReview   = "postpone_review"
	opGetLearningStats = "get_learning_stats"
	opGetUserStats     = "get_user_stats"
)

// ServiceError wraps errors from the review service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit_review", "get_review_queue")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ValidationError reports a rejected input field. It matches domain.ErrValidation
// and, when set, the more specific Err.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns domain.ErrValidation and the specific cause, if any.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrValidation, e.Err}
	}
	return []error{domain.ErrValidation}
}

// newServiceError classifies err into the domain error kinds and wraps it.
// Validation errors and already-classified errors keep their kind.
func newServiceError(operation, message string, err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return err
	}
	return &ServiceError{Operation: operation, Message: message, Err: classify(err)}
}

func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrStorage),
		errors.Is(err, domain.ErrValidation):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrItemNotFound):
		return fmt.Errorf("%w: %w", ErrItemNotFound, err)
	case store.IsNotFoundError(err):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case store.IsDuplicateError(err), errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
}
