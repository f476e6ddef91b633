package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConstruction   Category = "construction"
	CategoryClassification Category = "classification"
	CategoryWrite          Category = "write"
	CategoryUpdate         Category = "update"
	CategoryConfig         Category = "config"
	CategoryLifecycle      Category = "lifecycle"
	CategoryInvoke         Category = "invoke"
	CategoryCLI            Category = "cli"
)

// Error is a structured store error with a code, suggestion, and documentation.
type Error struct {
	// Code is a unique error identifier (e.g., "S001").
	Code string

	// Category is the error type (construction, write, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Key is the store key involved, if any.
	Key string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithKey records the store key the error refers to.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates an Error from a registered code, replacing the template
// message with a formatted one.
func Newf(code string, format string, args ...any) *Error {
	e := New(code)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*Error); ok {
		return se
	}
	return New(code).Wrap(err)
}
