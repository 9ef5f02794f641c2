// Package errors provides the structured error system used across the
// altseek storage subsystem, with error codes and categories suitable
// for logging and stats without leaking internals to callers.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code classifies an error for logs and metrics.
type Code string

const (
	// Configuration errors.
	CodeInvalidConfig    Code = "INVALID_CONFIG"
	CodeConfigLoad       Code = "CONFIG_LOAD"
	CodeConfigValidation Code = "CONFIG_VALIDATION"

	// Durable backend errors.
	CodeStorageWrite   Code = "STORAGE_WRITE"
	CodeStorageRead    Code = "STORAGE_READ"
	CodeRecordNotFound Code = "RECORD_NOT_FOUND"
	CodeRecordCorrupt  Code = "RECORD_CORRUPT"
	CodeNoBackend      Code = "NO_BACKEND"

	// Strategy and state errors.
	CodeInvalidStrategy Code = "INVALID_STRATEGY"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeAlreadyClosed   Code = "ALREADY_CLOSED"
)

// Category groups codes by subsystem.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategoryStorage       Category = "storage"
	CategoryState         Category = "state"
)

// categories maps every code to its category.
var categories = map[Code]Category{
	CodeInvalidConfig:    CategoryConfiguration,
	CodeConfigLoad:       CategoryConfiguration,
	CodeConfigValidation: CategoryConfiguration,
	CodeStorageWrite:     CategoryStorage,
	CodeStorageRead:      CategoryStorage,
	CodeRecordNotFound:   CategoryStorage,
	CodeRecordCorrupt:    CategoryStorage,
	CodeNoBackend:        CategoryStorage,
	CodeInvalidStrategy:  CategoryState,
	CodeInvalidState:     CategoryState,
	CodeAlreadyClosed:    CategoryState,
}

// Error is a structured error with a code, component context and an
// optional wrapped cause.
type Error struct {
	Code      Code      `json:"code"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	Component string    `json:"component,omitempty"`
	Key       string    `json:"key,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Cause     error     `json:"-"`
}

// New creates a structured error.
func New(code Code, message string) *Error {
	return &Error{
		Code:      code,
		Category:  categories[code],
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a structured error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a cause to a new structured error.
func Wrap(code Code, message string, cause error) *Error {
	err := New(code, message)
	err.Cause = cause
	return err
}

// WithComponent annotates the error with the emitting component.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithKey annotates the error with the cache key involved.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Component != "" {
		msg = e.Component + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so callers can use errors.Is with a bare
// New(code, "") probe.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the structured code from an error chain, or empty.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsStorage reports whether an error belongs to the storage category.
func IsStorage(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == CategoryStorage
	}
	return false
}
