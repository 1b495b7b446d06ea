// Package errors defines the categorized error type shared by the import
// engine and its CLI.
//
// Every failure surfaced by a parser or engine is an *ImportError carrying a
// category (what subsystem failed), a code (the precise failure kind), an
// optional suggestion for the operator, and structured context. Parse
// failures are all-or-nothing: a single unrecoverable record aborts the
// whole call, so one error describes the whole batch.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category represents different categories of errors
type Category string

const (
	CategoryFile          Category = "file"
	CategoryParse         Category = "parse"
	CategoryValidation    Category = "validation"
	CategoryConfiguration Category = "configuration"
	CategoryInternal      Category = "internal"
)

// Code represents specific error codes within categories
type Code string

const (
	// File errors
	CodeIOError        Code = "io_error"
	CodeFileNotFound   Code = "file_not_found"
	CodeFilePermission Code = "file_permission"

	// Parse errors
	CodeMalformedRecord Code = "malformed_record"
	CodeNoDataRows      Code = "no_data_rows"

	// Validation errors
	CodeMissingField  Code = "missing_field"
	CodeInvalidDate   Code = "invalid_date"
	CodeInvalidAmount Code = "invalid_amount"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"
	CodeMissingConfig Code = "missing_config"

	// Internal errors
	CodeUnexpectedError Code = "unexpected_error"
)

// ImportError is the base error type for all engine errors
type ImportError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ImportError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ImportError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate process exit code for the error
func (e *ImportError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ImportError) WithContext(key string, value interface{}) *ImportError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ImportError) WithSuggestion(suggestion string) *ImportError {
	e.Suggestion = suggestion
	return e
}

// stackTracer is satisfied by errors produced with github.com/pkg/errors
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new ImportError
func New(category Category, code Code, message string) *ImportError {
	return &ImportError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ImportError context
func Wrap(err error, category Category, code Code, message string) *ImportError {
	if err == nil {
		return nil
	}

	return &ImportError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// FileError creates a file-related error
func FileError(code Code, path string, err error) *ImportError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	default:
		message = fmt.Sprintf("error reading %s", path)
		suggestion = "check the file and try again"
	}

	result := New(CategoryFile, code, message)
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error for a record or tag
func ParseError(code Code, line int, field, value string, err error) *ImportError {
	var message, suggestion string

	switch code {
	case CodeMalformedRecord:
		message = fmt.Sprintf("malformed record at line %d", line)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeNoDataRows:
		message = "no data rows found"
		suggestion = "ensure the file contains at least one row with a mapped date column"
	default:
		message = fmt.Sprintf("parse error at line %d", line)
		suggestion = "check the file format and data integrity"
	}

	result := New(CategoryParse, code, message)
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	}

	if line > 0 {
		result = result.WithContext("line", line)
	}
	if field != "" {
		result = result.WithContext("field", field)
	}
	if value != "" {
		result = result.WithContext("value", value)
	}

	return result.WithSuggestion(suggestion)
}

// ValidationError creates a validation-related error
func ValidationError(code Code, field string, value interface{}, err error) *ImportError {
	var message, suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are decimal numbers such as '12.34', '$1,234.56' or '(75.25)'"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use the profile's date format or a common form such as YYYY-MM-DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	result := New(CategoryValidation, code, message)
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code Code, setting string, value interface{}, err error) *ImportError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	result := New(CategoryConfiguration, code, message)
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *ImportError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	result := New(CategoryInternal, CodeUnexpectedError, message)
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// IsImportError checks if an error is an ImportError
func IsImportError(err error) bool {
	_, ok := err.(*ImportError)
	return ok
}

// AsImportError extracts an ImportError from an error chain
func AsImportError(err error) (*ImportError, bool) {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return importErr, true
	}
	return nil, false
}

// HasCode reports whether err is an ImportError with the given code
func HasCode(err error, code Code) bool {
	if importErr, ok := AsImportError(err); ok {
		return importErr.Code == code
	}
	return false
}
