package overlay

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	ErrCodeInvalidFormat  = "INVALID_FORMAT"
	ErrCodeMaskAllocation = "MASK_ALLOCATION"
)

// Sentinels matched by errors.Is against any *OverlayError with the same code.
var (
	ErrInvalidFormat  = &OverlayError{Code: ErrCodeInvalidFormat, Message: "invalid frame format"}
	ErrMaskAllocation = &OverlayError{Code: ErrCodeMaskAllocation, Message: "mask allocation failed"}
)

// OverlayError represents a negotiation failure reported to the host.
type OverlayError struct {
	Code    string
	Message string
	Cause   error
}

func (e *OverlayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *OverlayError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *OverlayError carrying the same code.
func (e *OverlayError) Is(target error) bool {
	var t *OverlayError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewOverlayError creates a new overlay error.
func NewOverlayError(code, message string, cause error) *OverlayError {
	return &OverlayError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func invalidFormat(format string, args ...any) *OverlayError {
	return NewOverlayError(ErrCodeInvalidFormat, fmt.Sprintf(format, args...), nil)
}
