package errclass

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("this time slot is already booked")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAuth              = errors.New("session is expired or invalid")
	ErrPermission        = errors.New("access denied")
	ErrTransient         = errors.New("temporary backend failure")
)

// BackendError is the generic {code, message, details} shape returned by a
// hosted backend (REST gateway, RPC) that is not a driver-level error.
type BackendError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

func (e *BackendError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	}
	return "backend error"
}

// Validationf builds a validation error carrying a specific reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
