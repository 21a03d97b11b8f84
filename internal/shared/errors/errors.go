package errors

import "errors"

// ErrorCode classifies service failures.
type ErrorCode string

const (
	ErrorCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrorCodeAmbiguousState     ErrorCode = "AMBIGUOUS_STATE"
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeTimeout            ErrorCode = "TIMEOUT"
)

// ServiceError is the error type crossing service boundaries.
type ServiceError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a service error.
func NewServiceError(code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithCause creates a service error wrapping an underlying one.
func NewServiceErrorWithCause(code ErrorCode, message string, cause error) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithDetail attaches a diagnostic key/value to the error and returns it.
func (e *ServiceError) WithDetail(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the error code from err, or INTERNAL_ERROR when err is not
// a ServiceError.
func CodeOf(err error) ErrorCode {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrorCodeInternalError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Code == code
}

// IsNotFound reports whether err means the backend object does not exist.
func IsNotFound(err error) bool {
	return IsCode(err, ErrorCodeNotFound)
}

// IsBackendUnavailable reports whether err is a transport-level failure.
func IsBackendUnavailable(err error) bool {
	return IsCode(err, ErrorCodeBackendUnavailable)
}

// IsAmbiguousState reports whether the backend answered with a malformed
// response.
func IsAmbiguousState(err error) bool {
	return IsCode(err, ErrorCodeAmbiguousState)
}
