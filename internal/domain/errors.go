package domain

import (
	"errors"
	"fmt"
)

// ErrorType categorises failures of a backup run.
type ErrorType string

const (
	ErrorTypeConfiguration  ErrorType = "configuration"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeDownload       ErrorType = "download"
	ErrorTypeFileNotFound   ErrorType = "file_not_found"
	ErrorTypeUpload         ErrorType = "upload"
)

// Sentinels for use with errors.Is.
var (
	ErrConfiguration  = &Error{Type: ErrorTypeConfiguration}
	ErrAuthentication = &Error{Type: ErrorTypeAuthentication}
	ErrDownload       = &Error{Type: ErrorTypeDownload}
	ErrFileNotFound   = &Error{Type: ErrorTypeFileNotFound}
	ErrUpload         = &Error{Type: ErrorTypeUpload}
)

type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func NewError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Type == e.Type
}

// TypeOf returns the ErrorType of the first *Error in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Type, true
	}
	return "", false
}
