package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMissingSource ErrorType = "MISSING_SOURCE"
	ErrTypeSchema        ErrorType = "SCHEMA"
	ErrTypeParsing       ErrorType = "PARSING"
	ErrTypeValidation    ErrorType = "VALIDATION"
	ErrTypeStorage       ErrorType = "STORAGE"
	ErrTypeConfig        ErrorType = "CONFIG"
	ErrTypeReference     ErrorType = "REFERENCE"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err (or anything it wraps) is an AppError of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper functions for common error types

// NewMissingSourceError signals that no ledger sources were found. This is
// the one fatal ingestion condition: the pipeline aborts rather than emit an
// empty dataset silently.
func NewMissingSourceError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMissingSource, message, cause)
}

// NewSchemaError signals that a mandatory canonical field could not be
// mapped onto any source column.
func NewSchemaError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchema, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewValidationError creates a validation-related error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration-related error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewReferenceError creates an error for unusable reference-value input.
// A failed check is never an error; this covers a reference file that cannot
// be read or parsed at all.
func NewReferenceError(message string, cause error) *AppError {
	return NewAppError(ErrTypeReference, message, cause)
}
