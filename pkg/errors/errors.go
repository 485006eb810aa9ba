package errors

import (
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeParse              ErrorType = "PARSE"
	ErrorTypeMissingSessionData ErrorType = "MISSING_SESSION_DATA"
	ErrorTypeValidation         ErrorType = "VALIDATION"
	ErrorTypeUnsafeIdentifier   ErrorType = "UNSAFE_IDENTIFIER"
	ErrorTypeTransactionFailed  ErrorType = "TRANSACTION_FAILED"
	ErrorTypeNotFound           ErrorType = "NOT_FOUND"
	ErrorTypeInternal           ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Details any
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewParse creates an error for an upload body that cannot be parsed
func NewParse(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewMissingSessionData creates an error for an archive without recognizable session content
func NewMissingSessionData(message string) error {
	return &AppError{
		Type:    ErrorTypeMissingSessionData,
		Message: message,
	}
}

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewValidationWithDetails creates a validation error carrying a structured
// list of violations safe to return to the caller
func NewValidationWithDetails(message string, details any) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: details,
	}
}

// NewUnsafeIdentifier creates an error for an identifier failing the allow-list check
func NewUnsafeIdentifier(fieldName string) error {
	return &AppError{
		Type:    ErrorTypeUnsafeIdentifier,
		Message: fmt.Sprintf("invalid %s: contains unsafe characters", fieldName),
	}
}

// NewTransactionFailed creates an error for a batch write that was rolled back
func NewTransactionFailed(err error) error {
	return &AppError{
		Type:    ErrorTypeTransactionFailed,
		Message: "unable to save all pitch data, the operation has been rolled back",
		Err:     err,
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Details: appErr.Details,
			Err:     appErr.Err,
		}
	}

	// Otherwise, create an internal error
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Message returns the client-safe message of an AppError, without the type
// prefix or wrapped cause. Unknown errors yield a generic message.
func Message(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an internal error occurred"
}

// Details returns the structured detail list attached to an error, if any
func Details(err error) any {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Details
	}
	return nil
}

// Type checking functions

func isType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

// IsParse checks if an error is a parse error
func IsParse(err error) bool {
	return isType(err, ErrorTypeParse)
}

// IsMissingSessionData checks if an error is a missing session data error
func IsMissingSessionData(err error) bool {
	return isType(err, ErrorTypeMissingSessionData)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsUnsafeIdentifier checks if an error is an unsafe identifier error
func IsUnsafeIdentifier(err error) bool {
	return isType(err, ErrorTypeUnsafeIdentifier)
}

// IsTransactionFailed checks if an error is a rolled back transaction error
func IsTransactionFailed(err error) bool {
	return isType(err, ErrorTypeTransactionFailed)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}
