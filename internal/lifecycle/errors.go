package lifecycle

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes lifecycle errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates no record (or photo) has the given id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidInput indicates the caller passed data that breaks a
	// precondition (intake validation, empty template, bad index).
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeNotOnboarded indicates settings have not been created yet.
	ErrCodeNotOnboarded ErrorCode = "NOT_ONBOARDED"

	// ErrCodeAlreadyOnboarded indicates Onboard was called twice.
	ErrCodeAlreadyOnboarded ErrorCode = "ALREADY_ONBOARDED"

	// ErrCodeImportSchema indicates imported data is structurally invalid.
	ErrCodeImportSchema ErrorCode = "IMPORT_SCHEMA"

	// ErrCodeInvalidLicense indicates a PRO activation key did not match.
	ErrCodeInvalidLicense ErrorCode = "INVALID_LICENSE"
)

// Error is returned by Manager operations that reject their input.
// Storage failures are returned wrapped, not as *Error.
type Error struct {
	Code    ErrorCode
	Message string
	ID      string
	Err     error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err is a NOT_FOUND lifecycle error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsImportSchema returns true if err is an IMPORT_SCHEMA lifecycle error.
func IsImportSchema(err error) bool {
	return hasCode(err, ErrCodeImportSchema)
}

// IsInvalidInput returns true if err is an INVALID_INPUT lifecycle error.
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrCodeInvalidInput)
}

// CodeOf returns the lifecycle error code of err, or "" when err is not a
// lifecycle error.
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func notFound(id string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: "record not found", ID: id}
}

func invalidInput(msg string, err error) *Error {
	return &Error{Code: ErrCodeInvalidInput, Message: msg, Err: err}
}

var errNotOnboarded = &Error{Code: ErrCodeNotOnboarded, Message: "shop settings have not been created; run onboarding first"}
