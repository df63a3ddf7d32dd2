package errors

import (
	"fmt"
	"net/http"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindForbidden          ErrorKind = "forbidden"
	KindConflict           ErrorKind = "conflict"
	KindInvalidState       ErrorKind = "invalid_state"
	KindRateLimited        ErrorKind = "rate_limited"
	KindInvalidSignature   ErrorKind = "invalid_signature"
	KindProvider           ErrorKind = "provider"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindBadRequest         ErrorKind = "bad_request"
)

// APIError represents a structured API error response
type APIError struct {
	Kind       ErrorKind         `json:"kind"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Code       string            `json:"code,omitempty"`
	RetryAfter int               `json:"retry_after_seconds,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized, KindInvalidSignature:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindInvalidState:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindProvider, KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInvalidStateError creates an error for an illegal lifecycle transition.
// The current state is included so callers can tell why the action was refused.
func NewInvalidStateError(action, currentState string) *APIError {
	return &APIError{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot %s in state %q", action, currentState),
		Details: map[string]string{"current_state": currentState},
	}
}

// NewRateLimitError creates a quota-exceeded error with a retry-after hint
func NewRateLimitError(message string, retryAfterSeconds int) *APIError {
	return &APIError{
		Kind:       KindRateLimited,
		Message:    message,
		RetryAfter: retryAfterSeconds,
	}
}

// NewInvalidSignatureError creates a webhook signature verification error
func NewInvalidSignatureError() *APIError {
	return &APIError{
		Kind:    KindInvalidSignature,
		Message: "webhook signature verification failed",
	}
}

// NewProviderError creates an error for an exhausted or failed external call.
// Raw provider errors never reach the caller; message must be human-readable.
func NewProviderError(message string) *APIError {
	return &APIError{
		Kind:    KindProvider,
		Message: message,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Message: message,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Kind:    KindConflict,
		Message: message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Kind:    KindServiceUnavailable,
		Message: message,
	}
}

// WrapError wraps an existing error with API error context
func WrapError(err error, kind ErrorKind, message string) *APIError {
	if err == nil {
		return nil
	}

	apiErr := &APIError{
		Kind:    kind,
		Message: message,
	}

	// If the original error is already an APIError, preserve details
	if origAPIErr, ok := err.(*APIError); ok {
		if origAPIErr.Details != nil {
			apiErr.Details = origAPIErr.Details
		}
		if origAPIErr.Code != "" {
			apiErr.Code = origAPIErr.Code
		}
	}

	return apiErr
}
