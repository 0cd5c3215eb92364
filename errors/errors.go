package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"
)

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// Retryable reports whether the caller should try the same request again later
func (e AppError) Retryable() bool {
	return e.Code == ErrorCode_TIMED_OUT
}

// As extracts an AppError from an error chain
func As(err error) (AppError, bool) {
	var appErr AppError
	if stdErrors.As(err, &appErr) {
		return appErr, true
	}
	return AppError{}, false
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Pipeline Errors

// ErrConfiguration reports a provider credential that is neither configured
// for the process nor supplied with the request
func ErrConfiguration(key string) AppError {
	return AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_CONFIGURATION,
		Message:  fmt.Sprintf("%s not configured", key),
	}.WithDetail("key", key)
}

func ErrValidation(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_VALIDATION,
		Message:  message,
	}
}

// ErrUpstream reports a non-success response from an external provider
func ErrUpstream(provider string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_UPSTREAM,
		Message:  fmt.Sprintf("%s request failed", provider),
	}.WithDetail("provider", provider)
}

// ErrUpstreamStatus is ErrUpstream for an HTTP status plus the response body
func ErrUpstreamStatus(provider string, status int, body string) AppError {
	return ErrUpstream(provider, fmt.Errorf("%s returned status %d", provider, status)).
		WithDetail("status", fmt.Sprintf("%d", status)).
		WithDetail("body", body)
}

// ErrTimedOut reports a wait that hit its ceiling; the caller may retry later
func ErrTimedOut(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusGatewayTimeout,
		Code:     ErrorCode_TIMED_OUT,
		Message:  fmt.Sprintf("%s timed out", operation),
	}.WithDetail("operation", operation)
}

func ErrEmptyMix() AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_EMPTY_MIX,
		Message:  "No synthesized audio to mix",
	}
}

func ErrMediaEngine(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_MEDIA_ENGINE,
		Message:  fmt.Sprintf("Media engine failed: %s", operation),
	}.WithDetail("operation", operation)
}

// Integration Errors
func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_CACHE_FAILED,
		Message:  fmt.Sprintf("Cache operation failed: %s", operation),
	}
}

func ErrDBQueryFailed(query string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Message:  "Database query failed",
	}.WithDetail("query", query)
}

// ErrDubNotFound reports an unknown dub job id
func ErrDubNotFound(dubID string) AppError {
	return ErrNotFound("Dub job").WithDetail("dub_id", dubID)
}
