package errors

import (
	"net/http"
)

// HTTPStatusFor maps an error to the HTTP status code the API should return.
// Non-MealPrepError values map to 500.
func HTTPStatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	mpe, ok := err.(*MealPrepError)
	if !ok {
		return http.StatusInternalServerError
	}

	switch mpe.Category {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryQuota:
		return http.StatusTooManyRequests
	case CategoryProvider, CategoryResolution:
		return http.StatusBadGateway
	case CategoryConfig:
		return http.StatusInternalServerError
	case CategoryStorage, CategoryRuntime, CategoryInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ExitCodeFor determines the appropriate process exit code for an error
// surfaced by a CLI command.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	mpe, ok := err.(*MealPrepError)
	if !ok {
		return 1
	}

	switch mpe.Category {
	case CategoryValidation, CategoryNotFound:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryProvider, CategoryQuota:
		return 8 // External system error
	case CategoryStorage, CategoryResolution:
		return 11 // Processing error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}
