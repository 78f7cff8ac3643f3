package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/aws/smithy-go"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Input errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"

	// Store errors
	ErrorTypeLookupFailure ErrorType = "LOOKUP_FAILURE"
	ErrorTypeCreateFailure ErrorType = "CREATE_FAILURE"
	ErrorTypeUpdateFailure ErrorType = "UPDATE_FAILURE"
	ErrorTypeQueryFailure  ErrorType = "QUERY_FAILURE"

	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error. When the cause is an AWS API error its
// error code is recorded on the AppError as well.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	if e.Code == "" {
		e.Code = AWSErrorCode(err)
	}
	return e
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&sb, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

func newAppError(errType ErrorType, status int, message string, cause error) *AppError {
	appErr := &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
	if cause != nil {
		appErr.WithCause(cause)
	}
	return appErr
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewLookupFailure reports that table metadata could not be fetched for a
// reason other than the table being absent.
func NewLookupFailure(table string, err error) *AppError {
	return newAppError(ErrorTypeLookupFailure, http.StatusBadGateway,
		fmt.Sprintf("failed to describe table '%s'", table), err)
}

// NewCreateFailure reports a rejected create-table request.
func NewCreateFailure(table string, err error) *AppError {
	return newAppError(ErrorTypeCreateFailure, http.StatusBadGateway,
		fmt.Sprintf("failed to create table '%s'", table), err)
}

// NewUpdateFailure reports a rejected additive update.
func NewUpdateFailure(message string, err error) *AppError {
	return newAppError(ErrorTypeUpdateFailure, http.StatusBadGateway, message, err)
}

// NewQueryFailure reports a failed read (query, scan or batch get).
func NewQueryFailure(operation string, err error) *AppError {
	return newAppError(ErrorTypeQueryFailure, http.StatusBadGateway,
		fmt.Sprintf("%s failed", operation), err)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, nil)
}

// AWSErrorCode returns the service error code carried by err, or "" when err
// did not come from an AWS API call.
func AWSErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsLookupFailure checks if an error is a table lookup failure
func IsLookupFailure(err error) bool {
	return IsType(err, ErrorTypeLookupFailure)
}

// IsCreateFailure checks if an error is a table creation failure
func IsCreateFailure(err error) bool {
	return IsType(err, ErrorTypeCreateFailure)
}

// IsUpdateFailure checks if an error is an update failure
func IsUpdateFailure(err error) bool {
	return IsType(err, ErrorTypeUpdateFailure)
}

// IsQueryFailure checks if an error is a read failure
func IsQueryFailure(err error) bool {
	return IsType(err, ErrorTypeQueryFailure)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
