package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeConversion  ErrorType = "conversion"
	ErrorTypeExtraction  ErrorType = "extraction"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeUnavailable ErrorType = "unavailable"
)

var (
	// ErrOCRUnavailable is returned when the binary was built without an OCR
	// engine or the engine cannot be initialised on this host.
	ErrOCRUnavailable = errors.New("ocr engine is not available")

	// ErrNoTables means extraction finished without finding any table.
	ErrNoTables = errors.New("no tables found")

	// ErrNoPages means the page selector resolved to an empty set.
	ErrNoPages = errors.New("no pages selected")

	// ErrEncrypted marks a PDF that is protected by a password.
	ErrEncrypted = errors.New("pdf is encrypted")
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ConversionError(message string, err error) *DomainError {
	return NewError(ErrorTypeConversion, message, err)
}

func ExtractionError(message string, err error) *DomainError {
	return NewError(ErrorTypeExtraction, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

func UnavailableError(message string, err error) *DomainError {
	return NewError(ErrorTypeUnavailable, message, err)
}

// UserMessage returns the text shown to callers of the conversion protocol.
// Domain errors expose only their message; anything else is printed as is.
func UserMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// IsType reports whether err is a DomainError of the given type.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Type == t
}

// DetailMessage is UserMessage followed by the wrapped cause, if any.
func DetailMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		if de.Err != nil {
			return de.Message + ": " + de.Err.Error()
		}
		return de.Message
	}
	return err.Error()
}
