package apperror

import (
	"errors"
	"fmt"
)

// Error is a coded pipeline error. Code is stable and matched by errors.Is;
// Message is human readable; Internal carries the underlying cause.
type Error struct {
	Code     string
	Message  string
	Internal error
	Details  map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error
func (e *Error) Unwrap() error {
	return e.Internal
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithInternal returns a copy of the error with an internal error attached
func (e *Error) WithInternal(err error) *Error {
	return &Error{
		Code:     e.Code,
		Message:  e.Message,
		Internal: err,
		Details:  e.Details,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		Code:     e.Code,
		Message:  message,
		Internal: e.Internal,
		Details:  e.Details,
	}
}

// WithDetails returns a copy of the error with details merged in
func (e *Error) WithDetails(details map[string]any) *Error {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Code:     e.Code,
		Message:  e.Message,
		Internal: e.Internal,
		Details:  merged,
	}
}

// New creates a new application error
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Common error definitions
var (
	// Document structure errors
	ErrMissingIdentity     = New("missing_document_identity", "missing document identity")
	ErrUnsupportedDocument = New("unsupported_document", "unsupported document kind")
	ErrUnrecognizedShape   = New("unrecognized_shape", "unrecognized element shape")
	ErrMalformedXML        = New("malformed_xml", "malformed XML")

	// Source and storage errors
	ErrSourceUnavailable = New("source_unavailable", "document source unavailable")
	ErrDatabase          = New("database_error", "database operation failed")

	ErrInternal = New("internal_error", "an internal error occurred")
)

// NewMissingIdentity reports a document lacking its chapter or instrument
// number. path is the source location of the document.
func NewMissingIdentity(path, field string) *Error {
	return ErrMissingIdentity.
		WithMessage(fmt.Sprintf("%s: missing %s", path, field)).
		WithDetails(map[string]any{"path": path, "field": field})
}

// NewUnrecognizedShape reports an element whose children match none of the
// shapes the decoder knows.
func NewUnrecognizedShape(element, context string) *Error {
	return ErrUnrecognizedShape.
		WithMessage(fmt.Sprintf("%s in %s", element, context)).
		WithDetails(map[string]any{"element": element, "context": context})
}

// NewInternal creates an internal error with a message and optional wrapped error
func NewInternal(message string, err error) *Error {
	return &Error{
		Code:     ErrInternal.Code,
		Message:  message,
		Internal: err,
	}
}

// NewDatabase wraps a storage failure
func NewDatabase(message string, err error) *Error {
	return ErrDatabase.WithMessage(message).WithInternal(err)
}

// Code extracts the code of an *Error anywhere in err's chain, or "".
func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
