// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
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
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrPreconditionFail = errors.New("precondition not met")
	ErrAlreadyProcessed = errors.New("already processed")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "progress", "certificate"
	Op      string // Operation that failed, e.g., "Enroll", "UpdateProgress"
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

// Learner domain errors
var (
	ErrLearnerNotFound = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrInvalidLearner  = NewDomainError("learner", "Validate", ErrInvalidEntity, "invalid learner record")
)

// Progress ledger errors
var (
	ErrCourseNotFound     = NewDomainError("progress", "ResolveCourse", ErrNotFound, "course not found")
	ErrNotEnrolled        = NewDomainError("progress", "Find", ErrNotFound, "learner is not enrolled in this course")
	ErrAlreadyEnrolled    = NewDomainError("progress", "Enroll", ErrAlreadyExists, "learner is already enrolled in this course")
	ErrInvalidCompletion  = NewDomainError("progress", "Validate", ErrValueOutOfRange, "completion must be between 0 and 100")
	ErrProgressImmutable  = NewDomainError("progress", "Update", ErrInvalidState, "completed progress record is immutable")
	ErrCourseNotCompleted = NewDomainError("progress", "CheckCompletion", ErrPreconditionFail, "course is not completed yet")
)

// Engagement & classification errors
var (
	ErrUnknownContentType = NewDomainError("engagement", "Validate", ErrInvalidInput, "unknown activity content type")
	ErrNoEngagementData   = NewDomainError("engagement", "Classify", ErrPreconditionFail, "no engagement data recorded yet")
)

// Achievement errors
var (
	ErrAchievementAlreadyEarned = NewDomainError("achievement", "Award", ErrAlreadyExists, "achievement already earned")
)

// Certificate workflow errors
var (
	ErrCertificateGenerationFailed = NewDomainError("certificate", "Render", ErrExternalService, "certificate generation failed")
	ErrRendererTimeout             = NewDomainError("certificate", "Render", ErrTimeout, "certificate renderer timed out")
)

// Reporter errors
var (
	ErrReportDispatchFailed = NewDomainError("reporter", "Send", ErrExternalService, "failed to dispatch analytics report")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a benign "already in desired state" outcome.
// Conflicts are idempotent results, not failures: callers translate them into
// success-with-indicator responses.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrAlreadyProcessed)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsPrecondition checks if the error is a failed operation precondition.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPreconditionFail)
}

// IsExternalService checks if the error is from an external service.
// External-service failures of dependent workflows never roll back the
// primary ledger mutation that triggered them.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
