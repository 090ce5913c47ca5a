// Package errors provides a lightweight structured error type (MealPrepError)
// for category-based classification and retry semantics in HTTP adapters and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a MealPrep error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "notfound"

	// External system integration errors
	CategoryProvider ErrorCategory = "provider"
	CategoryQuota    ErrorCategory = "quota"

	// Storage and processing errors
	CategoryStorage    ErrorCategory = "storage"
	CategoryResolution ErrorCategory = "resolution"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// MealPrepError is a structured error with category, retryability, and context
type MealPrepError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for MealPrepError
type ContextFields map[string]any

// Error implements the error interface
func (e *MealPrepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *MealPrepError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *MealPrepError) WithContext(key string, value any) *MealPrepError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new MealPrepError
func New(category ErrorCategory, severity ErrorSeverity, message string) *MealPrepError {
	return &MealPrepError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new MealPrepError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *MealPrepError {
	return &MealPrepError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable MealPrepError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *MealPrepError {
	return &MealPrepError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable MealPrepError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *MealPrepError {
	return &MealPrepError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if mpe, ok := err.(*MealPrepError); ok {
		return mpe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if mpe, ok := err.(*MealPrepError); ok {
		return mpe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a MealPrepError
func GetCategory(err error) ErrorCategory {
	if mpe, ok := err.(*MealPrepError); ok {
		return mpe.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error (400 Bad Request)
func ValidationError(message string) *MealPrepError {
	return &MealPrepError{
		Category:  CategoryValidation,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: false,
	}
}

// NotFoundError creates a new not-found error (404)
func NotFoundError(message string) *MealPrepError {
	return &MealPrepError{
		Category:  CategoryNotFound,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: false,
	}
}

// ProviderError creates a new retryable upstream provider error (502)
func ProviderError(provider, message string) *MealPrepError {
	e := &MealPrepError{
		Category:  CategoryProvider,
		Severity:  SeverityError,
		Message:   message,
		Retryable: true,
	}
	return e.WithContext("provider", provider)
}

// QuotaError creates a new quota-exceeded error (429)
func QuotaError(message string) *MealPrepError {
	return &MealPrepError{
		Category:  CategoryQuota,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: true,
	}
}

// WrapError wraps an existing error with a new MealPrepError
func WrapError(err error, category ErrorCategory, message string) *MealPrepError {
	return &MealPrepError{
		Category:  category,
		Severity:  SeverityError,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}
