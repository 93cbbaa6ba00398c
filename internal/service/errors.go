package service

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorType int

const (
	ErrFileRead ErrorType = iota
	ErrFileWrite
	ErrParse
	ErrReconstruct
	ErrTranslation
	ErrValidation
	ErrConfig
	ErrUnknown
)

// ProcessError carries the failure class alongside free-form context so
// callers can decide whether a file, a batch, or the whole run is affected.
type ProcessError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *ProcessError {
	return &ProcessError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *ProcessError {
	return &ProcessError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *ProcessError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

func (e *ProcessError) WithContext(key string, value any) *ProcessError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrFileRead:
		return "FileRead"
	case ErrFileWrite:
		return "FileWrite"
	case ErrParse:
		return "Parse"
	case ErrReconstruct:
		return "Reconstruct"
	case ErrTranslation:
		return "Translation"
	case ErrValidation:
		return "Validation"
	case ErrConfig:
		return "Config"
	case ErrUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var procErr *ProcessError
	if errors.As(err, &procErr) {
		return procErr.Type == errorType
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *ProcessError {
	return NewErrorWithCause(errorType, message, err)
}

func Must(err error, message string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", message, err))
	}
}

// SafeExecute converts panics inside fn into ErrUnknown errors so a bad
// document never takes the worker down.
func SafeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(ErrUnknown, fmt.Sprintf("runtime error: %v", r))
		}
	}()

	return fn()
}
