package models

import (
	"errors"
	"fmt"

	"ampcast/internal/platform"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes surfaced to API consumers. Every externally visible failure
// carries one of these machine-readable kinds plus a human-readable message.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternal            = "INTERNAL_ERROR"
	CodeConfigurationError  = "CONFIGURATION_ERROR"
	CodePlatformRejected    = "PLATFORM_REJECTED"
	CodePlatformUnavailable = "PLATFORM_UNAVAILABLE"
	CodeInsufficientData    = "INSUFFICIENT_DATA"
	CodeConflict            = "CONFLICT"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewConfigurationError covers missing or unusable credentials and similar
// user-fixable setup problems. Terminal: the publisher never retries these.
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Code:    CodeConfigurationError,
		Message: message,
	}
}

// NewPlatformRejectedError wraps a platform-side validation failure
// (content too long, unsupported media). Terminal, surfaced with the
// platform's short message.
func NewPlatformRejectedError(message string) *AppError {
	return &AppError{
		Code:    CodePlatformRejected,
		Message: message,
	}
}

// NewPlatformUnavailableError wraps a transient platform failure (timeout,
// 5xx, rate limiting). Retry-eligible.
func NewPlatformUnavailableError(message string, err error) *AppError {
	return &AppError{
		Code:    CodePlatformUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewInsufficientDataError is a typed "inconclusive" result, not a failure:
// the statistics layer returns it when sample sizes are below the minimum.
func NewInsufficientDataError(message string) *AppError {
	return &AppError{
		Code:    CodeInsufficientData,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

// StatusForCode maps an application error code to an HTTP status.
func StatusForCode(code string) int {
	switch code {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeValidation, CodeConfigurationError, CodeInsufficientData:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeConflict, CodePlatformRejected:
		return fiber.StatusConflict
	case CodePlatformUnavailable:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		// Platform causes carry raw API response bodies; those stay in the
		// logs. The client only sees the normalized message and code.
		var platformErr *platform.Error
		if appErr.Err != nil && !errors.As(appErr.Err, &platformErr) {
			response.Details = appErr.Err.Error()
		}
		if status == 0 {
			status = StatusForCode(appErr.Code)
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
	}

	return c.Status(status).JSON(response)
}
