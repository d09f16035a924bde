// Package errors defines AppError, the structured error carried from the
// stores up to the HTTP and CLI surfaces.  The code decides the HTTP status
// and the public message; Detail and Cause stay server-side.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a coded failure.  It unwraps to Cause so the standard
// errors.Is and errors.As keep working across layers.
//
//	return errors.New(errors.ErrCodeMissingAPIKey, "API key is required")
//	return errors.Wrap(err, errors.ErrCodeAnalyticsUnavailable, "failed to load analytics")
type AppError struct {
	Code    ErrorCode
	Message string

	// Detail is debugging context for logs.  Never sent to clients.
	Detail string
	Cause  error
}

// Error formats as "[CODE] message" or "[CODE] message: detail".
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus returns the status mapped to the code.
func (e *AppError) HTTPStatus() int {
	return HTTPStatusForCode(e.Code)
}

// WithDetail returns a copy with Detail set.  Nil-safe.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a copy with Cause set.  Nil-safe.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// New returns an AppError without a cause.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap returns an AppError around err, or nil when err is nil.  CodeUnknown
// keeps the code already carried by err.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		code = GetCode(err)
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// InvalidParam returns a BAD_REQUEST error.
func InvalidParam(message string) *AppError {
	return New(CodeInvalidParam, message)
}

// Unauthorized returns an UNAUTHORIZED error.
func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

// ─────────────────────────────────────────────────────────────────────────────
// Inspection
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether an AppError with code appears anywhere in err's
// chain, including behind an AppError with a different code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) {
			if ae.Code == code {
				return true
			}
			err = ae.Cause
			continue
		}
		return false
	}
	return false
}

// IsNotFound reports whether err carries one of the not-found codes.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound) ||
		IsCode(err, ErrCodeMemberNotFound) ||
		IsCode(err, ErrCodeApplicationNotFound)
}

// GetCode returns the code of the outermost AppError in err's chain,
// CodeOK for nil and CodeUnknown for foreign errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Public returns what a client may see of err.  Server-side failures and
// foreign errors collapse to INTERNAL_ERROR or their code's default message
// so causes and details never leak.
func Public(err error) (code ErrorCode, status int, message string) {
	var ae *AppError
	if !errors.As(err, &ae) {
		return CodeInternal, http.StatusInternalServerError, DefaultMessageForCode(CodeInternal)
	}
	code, status, message = ae.Code, HTTPStatusForCode(ae.Code), ae.Message
	if status >= http.StatusInternalServerError || message == "" {
		message = DefaultMessageForCode(code)
	}
	return code, status, message
}

// As is errors.As, re-exported for callers that import this package as
// "errors".
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is, re-exported.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

//Personal.AI order the ending
