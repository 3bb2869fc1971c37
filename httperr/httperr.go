// Package httperr defines the error taxonomy shared by every resource
// handler and the single place where errors become HTTP responses.
package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Code classifies an error for status mapping.
type Code string

const (
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeConflict      Code = "CONFLICT"
	CodeNotFound      Code = "NOT_FOUND"
	CodeModelInactive Code = "MODEL_INACTIVE"
	CodeProxy         Code = "PROXY_ERROR"
	CodeUnexpected    Code = "UNEXPECTED"
)

// Error carries a classification alongside the user-visible message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput reports a missing or malformed request field.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a duplicate unique key.
func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing id or handle.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// ModelInactive reports a proxy attempt against a non-active model.
func ModelInactive(format string, args ...any) *Error {
	return &Error{Code: CodeModelInactive, Message: fmt.Sprintf(format, args...)}
}

// Proxy wraps a failure of the outbound model call.
func Proxy(message string, cause error) *Error {
	return &Error{Code: CodeProxy, Message: message, Err: cause}
}

// Unexpected wraps an uncategorized internal failure.
func Unexpected(message string, cause error) *Error {
	return &Error{Code: CodeUnexpected, Message: message, Err: cause}
}

// CodeOf extracts the classification, defaulting to CodeUnexpected.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnexpected
}

// IsNotFound reports whether err is classified as not found.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// IsConflict reports whether err is classified as a conflict.
func IsConflict(err error) bool {
	return CodeOf(err) == CodeConflict
}

// IsInvalidInput reports whether err is classified as invalid input.
func IsInvalidInput(err error) bool {
	return CodeOf(err) == CodeInvalidInput
}

// Status maps a classification to its HTTP status code.
func Status(err error) int {
	switch CodeOf(err) {
	case CodeInvalidInput, CodeModelInactive:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as the uniform {"error": message} JSON body with the
// status derived from its classification. Internal causes stay out of the
// body for unexpected errors; classified errors surface their message as-is.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	message := e.Message
	if e.Code == CodeProxy && e.Err != nil {
		message = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	c.JSON(Status(e), gin.H{"error": message})
}
