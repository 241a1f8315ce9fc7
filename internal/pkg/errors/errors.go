package errors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	cause      error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches on the code, so errors derived with Newf or Wrap still
// satisfy errors.Is against the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Newf derives a copy of base with a formatted message.
func Newf(base *AppError, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:       base.Code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: base.StatusCode,
	}
}

// Wrap derives a copy of base carrying err as the cause. The cause is
// preserved verbatim and reachable through errors.Unwrap.
func Wrap(base *AppError, err error) *AppError {
	return &AppError{
		Code:       base.Code,
		Message:    base.Message,
		StatusCode: base.StatusCode,
		cause:      err,
	}
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// AsAppError unwraps err to the nearest AppError, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
