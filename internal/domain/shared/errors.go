// Package shared contains common domain errors used across all domain
// packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Setup errors: the data the system relies on is missing or inconsistent.
	ErrConfiguration = errors.New("configuration error")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "timetable", "calendar", "user"
	Op      string // Operation that failed, e.g., "Fetch", "Resolve"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Timetable domain errors
var (
	ErrCohortNotFound  = NewDomainError("timetable", "Fetch", ErrNotFound, "cohort has no timetable feed")
	ErrFacultyNotFound = NewDomainError("timetable", "Directory", ErrNotFound, "faculty not found")
	ErrInvalidCell     = NewDomainError("timetable", "Validate", ErrInvalidInput, "invalid cell")
	ErrInvalidTime     = NewDomainError("timetable", "Parse", ErrInvalidFormat, "invalid time of day")
	ErrInvalidDay      = NewDomainError("timetable", "Parse", ErrInvalidFormat, "invalid day of week")
	ErrInvalidWeekSign = NewDomainError("timetable", "Parse", ErrInvalidFormat, "invalid week sign")
)

// Calendar domain errors
var (
	ErrAnchorNotConfigured = NewDomainError("calendar", "Resolve", ErrConfiguration, "no calendar anchor configured for faculty")
	ErrInvalidAnchor       = NewDomainError("calendar", "Validate", ErrInvalidInput, "anchor must carry an odd or even sign")
)

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrNotRegistered     = NewDomainError("user", "Profile", ErrInvalidState, "user has not finished registration")
	ErrInvalidTelegramID = NewDomainError("user", "Validate", ErrInvalidInput, "invalid Telegram ID")
)

// External service errors
var (
	ErrFeedUnavailable     = NewDomainError("feed", "Request", ErrServiceUnavailable, "timetable feed is unavailable")
	ErrFeedRateLimited     = NewDomainError("feed", "Request", ErrRateLimited, "timetable feed rate limit exceeded")
	ErrFeedInvalidResponse = NewDomainError("feed", "Parse", ErrInvalidFormat, "invalid response from timetable feed")
	ErrTelegramAPIFailed   = NewDomainError("telegram", "Send", ErrExternalService, "Telegram API request failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConfiguration checks if the error signals missing setup data.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}
