package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common error types
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// ErrorKind classifies automation failures so the job queue can decide
// between retrying, deferring, dropping, or halting.
type ErrorKind string

const (
	// ErrKindTransient covers network errors, provider 5xx and timeouts;
	// retried with per-queue backoff up to the retry budget.
	ErrKindTransient ErrorKind = "TRANSIENT"
	// ErrKindRateLimited marks denials from the action rate limiter;
	// deferred without consuming a retry attempt.
	ErrKindRateLimited ErrorKind = "RATE_LIMITED"
	// ErrKindInvalidSettings marks validation failures; never retried.
	ErrKindInvalidSettings ErrorKind = "INVALID_SETTINGS"
	// ErrKindNotFound marks missing aggregates; logged and dropped.
	ErrKindNotFound ErrorKind = "NOT_FOUND"
	// ErrKindConflict marks optimistic concurrency losses; retried once
	// with a refreshed snapshot.
	ErrKindConflict ErrorKind = "CONFLICT"
	// ErrKindFatal marks invariant breaches; the worker stops.
	ErrKindFatal ErrorKind = "FATAL"
)

// AutomationError carries the failure classification through the engine and
// queue layers together with the sending domain it concerns.
type AutomationError struct {
	Kind     ErrorKind
	Message  string
	DomainID string
	// RetryAfter is the deferral hint for rate-limited failures.
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface
func (e *AutomationError) Error() string {
	if e.Err != nil {
		if e.DomainID != "" {
			return fmt.Sprintf("[%s] %s (domain: %s): %v", e.Kind, e.Message, e.DomainID, e.Err)
		}
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.DomainID != "" {
		return fmt.Sprintf("[%s] %s (domain: %s)", e.Kind, e.Message, e.DomainID)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *AutomationError) Unwrap() error {
	return e.Err
}

// NewAutomationError creates a new automation error
func NewAutomationError(kind ErrorKind, message string, err error) *AutomationError {
	return &AutomationError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NewTransientError creates a retryable automation error for the given domain
func NewTransientError(message string, domainID string, err error) *AutomationError {
	return &AutomationError{
		Kind:     ErrKindTransient,
		Message:  message,
		DomainID: domainID,
		Err:      err,
	}
}

// NewRateLimitedError creates a deferral error carrying the wait hint
func NewRateLimitedError(domainID string, retryAfter time.Duration) *AutomationError {
	return &AutomationError{
		Kind:       ErrKindRateLimited,
		Message:    "automation action rate limit exceeded",
		DomainID:   domainID,
		RetryAfter: retryAfter,
	}
}

// NewConflictError creates a concurrency-conflict error for the given domain
func NewConflictError(entity string, id string) *AutomationError {
	return &AutomationError{
		Kind:     ErrKindConflict,
		Message:  fmt.Sprintf("%s was modified concurrently", entity),
		DomainID: id,
	}
}

// NewFatalError creates a halting error for invariant breaches
func NewFatalError(message string, err error) *AutomationError {
	return &AutomationError{
		Kind:    ErrKindFatal,
		Message: message,
		Err:     err,
	}
}

// KindOf classifies any error into an ErrorKind. Unclassified errors are
// treated as transient so unknown provider failures get the retry path.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var autoErr *AutomationError
	if errors.As(err, &autoErr) {
		return autoErr.Kind
	}

	var notFound *ErrNotFound
	if errors.As(err, &notFound) {
		return ErrKindNotFound
	}

	var validation ValidationError
	if errors.As(err, &validation) {
		return ErrKindInvalidSettings
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrKindTransient
	}

	return ErrKindTransient
}

// IsRetryable reports whether the queue should spend a retry attempt on err.
func IsRetryable(err error) bool {
	return KindOf(err) == ErrKindTransient
}

// RetryAfterHint extracts the deferral hint from a rate-limited error, or
// zero when the error carries none.
func RetryAfterHint(err error) time.Duration {
	var autoErr *AutomationError
	if errors.As(err, &autoErr) && autoErr.Kind == ErrKindRateLimited {
		return autoErr.RetryAfter
	}
	return 0
}
