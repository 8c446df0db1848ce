package api

import (
	"errors"
	"net/http"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/generation"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/lifecycle"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/publish"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/publisher"
)

// Error represents an API error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeBadGateway       = "BAD_GATEWAY"
)

// Standard errors
var (
	ErrNotFound = &Error{
		Code:    ErrCodeNotFound,
		Message: "Resource not found",
		Status:  http.StatusNotFound,
	}

	ErrProjectNotFound = &Error{
		Code:    ErrCodeNotFound,
		Message: "Project not found",
		Status:  http.StatusNotFound,
	}

	ErrInternalServer = &Error{
		Code:    ErrCodeInternalError,
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
	}

	ErrRateLimited = &Error{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests",
		Status:  http.StatusTooManyRequests,
	}
)

// NewBadRequest creates a bad request error with custom message.
func NewBadRequest(message string) *Error {
	return &Error{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewValidationError creates a validation error with custom message.
func NewValidationError(message string) *Error {
	return &Error{
		Code:    ErrCodeValidationFailed,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewConflict creates a conflict error with custom message.
func NewConflict(message string) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// NewNotFound creates a not found error with custom message.
func NewNotFound(message string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: message,
		Status:  http.StatusNotFound,
	}
}

// NewBadGateway creates a bad gateway error with custom message.
func NewBadGateway(message string) *Error {
	return &Error{
		Code:    ErrCodeBadGateway,
		Message: message,
		Status:  http.StatusBadGateway,
	}
}

// errorFor maps a domain error to its API error. Unknown errors map to
// ErrInternalServer and should be logged by the caller.
func errorFor(err error) (*Error, bool) {
	switch {
	case errors.Is(err, lifecycle.ErrProjectNotFound):
		return ErrProjectNotFound, true
	case errors.Is(err, generation.ErrAlreadyInProgress):
		return NewConflict("generation already in progress"), true
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return NewConflict(err.Error()), true
	case errors.Is(err, publish.ErrRenderNotReady):
		return NewConflict("render is not ready"), true
	case errors.Is(err, publish.ErrCancelled):
		return NewConflict("publish cancelled"), true
	case errors.Is(err, publish.ErrUnknownChannel):
		return NewNotFound("channel not found"), true
	case errors.Is(err, publisher.ErrRateLimited):
		return ErrRateLimited, true
	case errors.Is(err, publish.ErrDeliveryFailed):
		return NewBadGateway(err.Error()), true
	default:
		return ErrInternalServer, false
	}
}
