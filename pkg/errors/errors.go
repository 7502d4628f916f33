package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Request errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeRateLimit    ErrorType = "RATE_LIMIT"

	// Ingestion errors
	ErrorTypeNotConnected   ErrorType = "NOT_CONNECTED"
	ErrorTypeRecoveryFailed ErrorType = "RECOVERY_FAILED"
	ErrorTypeUploadFailed   ErrorType = "UPLOAD_FAILED"
	ErrorTypeWriteFailed    ErrorType = "WRITE_FAILED"
	ErrorTypeUnsupported    ErrorType = "UNSUPPORTED"

	// Infrastructure errors
	ErrorTypeInternal ErrorType = "INTERNAL"
	ErrorTypeDatabase ErrorType = "DATABASE"
	ErrorTypeExternal ErrorType = "EXTERNAL"
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

// WithDetail adds a single detail entry
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

func newAppError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		Cause:      cause,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newAppError(ErrorTypeUnauthorized, http.StatusUnauthorized, message, nil)
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(key string) *AppError {
	return newAppError(ErrorTypeRateLimit, http.StatusTooManyRequests, fmt.Sprintf("rate limit exceeded for %s", key), nil)
}

// NewNotConnectedError reports a user without a stored storage credential.
func NewNotConnectedError(userID string) *AppError {
	return newAppError(ErrorTypeNotConnected, http.StatusPreconditionFailed,
		"storage is not connected", nil).WithDetail("user_id", userID)
}

// NewRecoveryFailedError reports a provider failure while resolving resources.
func NewRecoveryFailedError(step string, err error) *AppError {
	return newAppError(ErrorTypeRecoveryFailed, http.StatusBadGateway,
		fmt.Sprintf("resource recovery failed at %s", step), err)
}

// NewUploadFailedError reports a provider failure while uploading bytes.
func NewUploadFailedError(fileName string, err error) *AppError {
	return newAppError(ErrorTypeUploadFailed, http.StatusBadGateway,
		fmt.Sprintf("upload of %q failed", fileName), err)
}

// NewWriteFailedError reports a ledger append failure.
func NewWriteFailedError(ledgerID string, err error) *AppError {
	return newAppError(ErrorTypeWriteFailed, http.StatusBadGateway,
		"ledger append failed", err).WithDetail("ledger_id", ledgerID)
}

// NewUnsupportedError reports content kind with no handler.
func NewUnsupportedError(kind string) *AppError {
	return newAppError(ErrorTypeUnsupported, http.StatusUnsupportedMediaType,
		fmt.Sprintf("%s content is not supported", kind), nil).WithDetail("kind", kind)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, nil)
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, err error) *AppError {
	return newAppError(ErrorTypeDatabase, http.StatusInternalServerError,
		fmt.Sprintf("database operation '%s' failed", operation), err)
}

// NewExternalError creates an external service error
func NewExternalError(service string, err error) *AppError {
	return newAppError(ErrorTypeExternal, http.StatusBadGateway,
		fmt.Sprintf("external service '%s' error", service), err)
}

// Helper functions

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

// IsNotConnected checks if an error is a not connected error
func IsNotConnected(err error) bool {
	return IsType(err, ErrorTypeNotConnected)
}

// IsRecoveryFailed checks if an error is a recovery failure
func IsRecoveryFailed(err error) bool {
	return IsType(err, ErrorTypeRecoveryFailed)
}

// IsUploadFailed checks if an error is an upload failure
func IsUploadFailed(err error) bool {
	return IsType(err, ErrorTypeUploadFailed)
}

// IsWriteFailed checks if an error is a ledger write failure
func IsWriteFailed(err error) bool {
	return IsType(err, ErrorTypeWriteFailed)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, add context to message
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
