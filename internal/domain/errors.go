// Package domain defines the core business entities and errors.
package domain

import "errors"

// Error kinds shared across layers. Callers classify failures with errors.Is
// against these values; concrete errors wrap them with more context.
var (
	// ErrValidation is returned when input or a domain entity fails validation.
	// It is never worth retrying.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage is returned when the underlying store fails to read or write.
	// The caller may retry.
	ErrStorage = errors.New("storage failure")

	// ErrConflict is returned when the store rejected a write because of a
	// concurrent modification. The caller should re-read before retrying.
	ErrConflict = errors.New("concurrent modification")

	// ErrInvalidID is returned when an ID is malformed or nil.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidGrade is returned when a quality grade is outside 0-3.
	ErrInvalidGrade = errors.New("invalid quality grade")

	// ErrInvalidResponseTime is returned when a response time is negative or
	// larger than MaxResponseTimeMs.
	ErrInvalidResponseTime = errors.New("invalid response time")

	// ErrInvalidPeriod is returned when a statistics period is not recognized.
	ErrInvalidPeriod = errors.New("invalid statistics period")
)

// IsRetryable reports whether err represents a transient failure that a
// caller may retry (storage or conflict errors).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrConflict)
}
