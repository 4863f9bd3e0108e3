package utils

import (
	"errors"
	"fmt"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/logger"
	"github.com/gofiber/fiber/v3"
)

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"error"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewBadRequestError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		Details:    details,
	}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

func NewForbiddenError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

// NewConflictError is returned for duplicates and state conflicts. Clients of
// the sales endpoint treat code DUPLICATE as an already-applied request.
func NewConflictError(code, message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusConflict,
		Code:       code,
		Message:    message,
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "An internal error occurred",
		Details:    err.Error(), // Only in development
	}
}

// FromError maps a service error onto an APIError by kind.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return NewBadRequestError(apperr.Message(err), nil)
	case apperr.KindNotFound:
		return &APIError{StatusCode: fiber.StatusNotFound, Code: "NOT_FOUND", Message: apperr.Message(err)}
	case apperr.KindConflict:
		return NewConflictError("CONFLICT", apperr.Message(err))
	default:
		return NewInternalError(err)
	}
}

// ErrorHandler renders any error returned by a handler. Fiber's own errors
// (404 route, 405, body limit) keep their status.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(&APIError{Code: "HTTP_ERROR", Message: fiberErr.Message})
	}

	apiErr := FromError(err)
	if apiErr.StatusCode >= fiber.StatusInternalServerError {
		log := logger.FromContext(c.Context())
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(apiErr.StatusCode).JSON(apiErr)
}
