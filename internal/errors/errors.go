package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// Predefined error codes
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeInternalError = "INTERNAL_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"

	// Fatal for the run
	CodeSchemaError = "SCHEMA_ERROR"

	// Non-fatal; counted in the ingestion and funnel reports
	CodeParseError         = "PARSE_ERROR"
	CodeDataIntegrityError = "DATA_INTEGRITY_ERROR"
	CodeEmptySample        = "EMPTY_SAMPLE"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// SchemaError reports required columns missing from a source file
func SchemaError(source string, missing []string) *AppError {
	return New(CodeSchemaError, fmt.Sprintf("%s: missing required column(s): %s", source, strings.Join(missing, ", ")))
}

// ParseError reports an unparseable timestamp on one row
func ParseError(source string, row int, value string, cause error) *AppError {
	return &AppError{
		Code:    CodeParseError,
		Message: fmt.Sprintf("%s row %d: cannot parse timestamp %q", source, row, value),
		Cause:   cause,
	}
}

// DataIntegrityError reports a session whose end precedes its begin
func DataIntegrityError(subject string, detail string) *AppError {
	return New(CodeDataIntegrityError, fmt.Sprintf("%s: %s", subject, detail))
}

// EmptySample reports an activity with no surviving sessions
func EmptySample(activity string) *AppError {
	return New(CodeEmptySample, fmt.Sprintf("activity %s has no data", activity))
}
