package domain

import (
	"errors"
	"fmt"
)

// Code classifies a workflow error for the request layer.
type Code string

const (
	CodeValidation Code = "validation"
	CodeDuplicate  Code = "duplicate"
	CodeForbidden  Code = "forbidden"
	CodeConflict   Code = "conflict"
	CodeNotFound   Code = "not_found"
	CodeInternal   Code = "internal"
)

// Error carries a classification code, a caller-facing message and an
// optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func NewError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorKind exposes the code as a plain string.
func (e *Error) ErrorKind() string {
	return string(e.Code)
}

// IsCode reports whether any error in err's chain carries code.
func IsCode(err error, code Code) bool {
	for err != nil {
		var target *Error
		if !errors.As(err, &target) {
			return false
		}
		if target.Code == code {
			return true
		}
		err = target.Err
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var target *Error
	if errors.As(err, &target) {
		return target.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-facing message of the outermost Error.
func MessageOf(err error) string {
	var target *Error
	if errors.As(err, &target) {
		return target.Message
	}
	return "internal error"
}

func ValidationError(message string) *Error {
	return NewError(CodeValidation, message, nil)
}

func AuthorizationError(message string) *Error {
	return NewError(CodeForbidden, message, nil)
}

func NotFoundError(message string) *Error {
	return NewError(CodeNotFound, message, nil)
}

func ConflictError(message string) *Error {
	return NewError(CodeConflict, message, nil)
}

func DuplicateError(message string, err error) *Error {
	return NewError(CodeDuplicate, message, err)
}
