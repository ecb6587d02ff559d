package ctrl

// ErrorCode classifies the errors returned by the controller.
type ErrorCode int

const (
	// ErrCodeInvalidConfiguration marks a configuration that violates the
	// cycle/min/max invariant. The prior valid configuration stays in effect.
	ErrCodeInvalidConfiguration ErrorCode = iota

	// ErrCodeInvalidInput marks a malformed reading set, an out-of-range
	// speed multiplier, an unrecognized lane, or a control operation that is
	// not allowed in the current playback state. No state is changed.
	ErrCodeInvalidInput
)

// Error is a controller error carrying a machine-checkable code.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewInvalidConfigurationError creates an error for a rejected configuration.
func NewInvalidConfigurationError(message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidConfiguration,
		Message: message,
	}
}

// NewInvalidInputError creates an error for a rejected input or operation.
func NewInvalidInputError(message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// CodeOf extracts the error code from a controller error. It returns false
// if the error does not originate from this package.
func CodeOf(err error) (ErrorCode, bool) {
	cerr, ok := err.(*Error)
	if !ok {
		return 0, false
	}

	return cerr.Code, true
}
