package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// AbortWithError sends an error response and stops the handler chain
func AbortWithError(c *gin.Context, statusCode int, err *APIError) {
	c.AbortWithStatusJSON(statusCode, err)
}

func withDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// Unauthorized sends a 401 response and aborts
func Unauthorized(c *gin.Context, message string) {
	AbortWithError(c, http.StatusUnauthorized,
		NewAPIError(ErrCodeUnauthorized, withDefault(message, "Authentication required")))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden,
		NewAPIError(ErrCodeForbidden, withDefault(message, "Not authorized")))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound,
		NewAPIError(ErrCodeNotFound, withDefault(message, "Resource not found")))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest,
		NewAPIError(ErrCodeInvalidInput, withDefault(message, "Invalid request")))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details any) {
	RespondWithError(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeInvalidInput,
		Message: withDefault(message, "Invalid request"),
		Details: details,
	})
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict,
		NewAPIError(ErrCodeConflict, withDefault(message, "Resource conflict")))
}

// InternalError sends a 500 response. The message is shown to clients, so
// it must never contain the underlying error.
func InternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError,
		NewAPIError(ErrCodeInternalError, withDefault(message, "Server error")))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	RespondWithError(c, http.StatusServiceUnavailable,
		NewAPIError(ErrCodeServiceUnavailable, withDefault(message, "Service temporarily unavailable")))
}
