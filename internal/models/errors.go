package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the application.
const (
	// CodeStream marks a subscription or transport failure on the change
	// stream. Recoverable; the caller decides whether to resubscribe.
	CodeStream = "STREAM_ERROR"
	// CodePublish marks a create/update failure in the publish pipeline.
	// The user's draft is preserved and the operation may be retried.
	CodePublish = "PUBLISH_ERROR"
	// CodePermission marks an edit/delete attempted by a non-author.
	// Must not be retried automatically.
	CodePermission = "PERMISSION_DENIED"
	// CodeNotFound marks a lookup of a record that does not exist.
	CodeNotFound = "NOT_FOUND"
	// CodeUnauthorized marks a request without a valid session.
	CodeUnauthorized = "UNAUTHORIZED"
	// CodeValidation marks malformed request input. Composer drafts are
	// exempt: an empty draft is a silent no-op, never a validation error.
	CodeValidation = "VALIDATION_ERROR"
	// CodeInternal marks an unexpected failure.
	CodeInternal = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

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
func NewStreamError(err error) *AppError {
	return &AppError{
		Code:    CodeStream,
		Message: "Comment stream interrupted",
		Err:     err,
	}
}

func NewPublishError(message string, err error) *AppError {
	return &AppError{
		Code:    CodePublish,
		Message: message,
		Err:     err,
	}
}

func NewPermissionError(message string) *AppError {
	return &AppError{
		Code:    CodePermission,
		Message: message,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
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

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
