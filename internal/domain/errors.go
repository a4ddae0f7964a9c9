// Package domain holds the error kinds shared by the showroom packages.
package domain

import (
	"errors"
	"fmt"
)

// ErrorType classifies a DomainError.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeDataAccess ErrorType = "data_access"
	ErrorTypeAPI        ErrorType = "api"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeState      ErrorType = "state"
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

// Is reports kind equality, so errors.Is(err, &DomainError{Type: ErrorTypeNotFound})
// matches any not-found error regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Type == e.Type
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Sentinels usable with errors.Is.
var (
	ErrValidation = &DomainError{Type: ErrorTypeValidation}
	ErrNotFound   = &DomainError{Type: ErrorTypeNotFound}
	ErrDataAccess = &DomainError{Type: ErrorTypeDataAccess}
	ErrAPI        = &DomainError{Type: ErrorTypeAPI}
	ErrParse      = &DomainError{Type: ErrorTypeParse}
	ErrConfig     = &DomainError{Type: ErrorTypeConfig}
	ErrState      = &DomainError{Type: ErrorTypeState}
)

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func NotFoundError(message string, err error) *DomainError {
	return NewError(ErrorTypeNotFound, message, err)
}

func DataAccessError(message string, err error) *DomainError {
	return NewError(ErrorTypeDataAccess, message, err)
}

func APIError(message string, err error) *DomainError {
	return NewError(ErrorTypeAPI, message, err)
}

func ParseError(message string, err error) *DomainError {
	return NewError(ErrorTypeParse, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func StateError(message string, err error) *DomainError {
	return NewError(ErrorTypeState, message, err)
}

// TypeOf returns the kind of the first DomainError in err's chain, or "" when
// there is none.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}
