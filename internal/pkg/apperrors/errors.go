package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")

	// Authentication errors
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidRange     = errors.New("end date is before start date")

	// User errors
	ErrEmailAlreadyExists = errors.New("email already exists")

	// Upstream errors
	ErrExternalService = errors.New("external service failure")
)

// Domain not-found errors. Each one matches both itself and ErrResourceNotFound.
var (
	ErrUserNotFound    = NewCustomError(ErrResourceNotFound, "user not found").WithCode("USER_NOT_FOUND")
	ErrPostNotFound    = NewCustomError(ErrResourceNotFound, "post not found").WithCode("POST_NOT_FOUND")
	ErrCommentNotFound = NewCustomError(ErrResourceNotFound, "comment not found").WithCode("COMMENT_NOT_FOUND")
	ErrEventNotFound   = NewCustomError(ErrResourceNotFound, "event not found").WithCode("EVENT_NOT_FOUND")
)

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewValidationError creates a validation error carrying the offending field
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// NewExternalServiceError reports that an upstream dependency failed. The
// upstream cause is for the logs only and is not carried here.
func NewExternalServiceError(service string) error {
	return &CustomError{
		Err:     ErrExternalService,
		Message: service + " is unavailable",
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// AsCustom returns the first CustomError in err's chain, if any
func AsCustom(err error) (*CustomError, bool) {
	var custom *CustomError
	if errors.As(err, &custom) {
		return custom, true
	}
	return nil, false
}
