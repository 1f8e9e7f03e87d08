package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound           = errors.New("resource not found")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrValidation         = errors.New("validation error")
	ErrStoreUnavailable   = errors.New("attendance store unavailable")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrGroupRangeTooLong  = errors.New("group range too long")
	ErrExtraHoursExceeded = errors.New("extra hours limit exceeded")
	ErrExtraHoursLocked   = errors.New("extra hours locked")
	ErrUnknownAgent       = errors.New("unknown agent")
	ErrUnknownStatus      = errors.New("unknown status")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Attendance error kinds

// StoreUnavailable reports that the entry store or agent directory could not
// be reached. The cause is kept for logging but never rendered to clients.
func StoreUnavailable(cause error) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %v", ErrStoreUnavailable, cause),
		Code:       "STORE_UNAVAILABLE",
		Message:    "attendance store unavailable",
		StatusCode: http.StatusServiceUnavailable,
	}
}

func InvalidRange(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidRange,
		Code:       "INVALID_RANGE",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// GroupRangeTooLong reports a group edit over more days than the operator
// allows. The range itself is well formed.
func GroupRangeTooLong(days, limit int) *AppError {
	return &AppError{
		Err:        ErrGroupRangeTooLong,
		Code:       "GROUP_RANGE_TOO_LONG",
		Message:    fmt.Sprintf("group edits are limited to %d days, got %d", limit, days),
		StatusCode: http.StatusUnprocessableEntity,
		Details: map[string]string{
			"days":  fmt.Sprint(days),
			"limit": fmt.Sprint(limit),
		},
	}
}

// ExtraHoursExceeded reports a rejected extra-hours edit. scope is "daily"
// or "weekly"; currentTotal is what the agent already has in that scope.
func ExtraHoursExceeded(scope, currentTotal, requested, limit string) *AppError {
	return &AppError{
		Err:        ErrExtraHoursExceeded,
		Code:       "EXTRA_HOURS_EXCEEDED",
		Message:    fmt.Sprintf("%s extra hours limit of %s exceeded", scope, limit),
		StatusCode: http.StatusUnprocessableEntity,
		Details: map[string]string{
			"scope":         scope,
			"current_total": currentTotal,
			"requested":     requested,
			"limit":         limit,
		},
	}
}

func ExtraHoursLocked(date string) *AppError {
	return &AppError{
		Err:        ErrExtraHoursLocked,
		Code:       "EXTRA_HOURS_LOCKED",
		Message:    fmt.Sprintf("extra hours for %s can only be changed during that week", date),
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]string{"date": date},
	}
}

func UnknownAgent(agentID string) *AppError {
	return &AppError{
		Err:        ErrUnknownAgent,
		Code:       "UNKNOWN_AGENT",
		Message:    fmt.Sprintf("agent %s not found", agentID),
		StatusCode: http.StatusNotFound,
		Details:    map[string]string{"agent_id": agentID},
	}
}

func UnknownStatus(status string) *AppError {
	return &AppError{
		Err:        ErrUnknownStatus,
		Code:       "UNKNOWN_STATUS",
		Message:    fmt.Sprintf("unknown status %q", status),
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{"status": status},
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
