// Package apperrors provides typed errors that the HTTP layer maps to status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrTypeValidation ErrorType = "validation"
	ErrTypeNotFound   ErrorType = "not_found"
	ErrTypeConflict   ErrorType = "conflict"
	ErrTypeDatabase   ErrorType = "database"
	ErrTypeConnection ErrorType = "connection"
	ErrTypeInternal   ErrorType = "internal"
)

// Error is a categorized error. Field names the input that caused a validation error.
type Error struct {
	Type    ErrorType
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithField attaches the name of the offending input.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message, Cause: err}
}

func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Cause: err}
}

func NotFound(what string, id int64) *Error {
	return Newf(ErrTypeNotFound, "%s %d not found", what, id)
}

func Validation(field, message string) *Error {
	return New(ErrTypeValidation, message).WithField(field)
}

func IsType(err error, errType ErrorType) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// GetType returns the outermost typed category, ErrTypeInternal for plain errors.
func GetType(err error) ErrorType {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrTypeInternal
}

// FieldOf returns the field recorded on a validation error, or fallback.
func FieldOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Field != "" {
		return appErr.Field
	}
	return fallback
}

func HTTPStatus(err error) int {
	switch GetType(err) {
	case ErrTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeConflict:
		return http.StatusConflict
	case ErrTypeConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
