package backend

import "fmt"

// ErrorCategory classifies automation failures for reporting and recovery.
type ErrorCategory int

// Error categories.
const (
	ErrCategoryNone        ErrorCategory = iota
	ErrCategoryResolution                // expected, recoverable; demote to a weaker strategy
	ErrCategoryTimeout                   // a bounded wait expired
	ErrCategoryEnvironment               // window not found, backend unavailable
	ErrCategoryConfig                    // missing script, corrupt JSON; aborts the run
)

// String returns the string representation of ErrorCategory.
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryResolution:
		return "resolution"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryEnvironment:
		return "environment"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// AutomationError is a structured error with a category and a stable
// machine-readable code. The code doubles as the failure class for
// once-per-session logging.
type AutomationError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *AutomationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AutomationError) Unwrap() error {
	return e.Cause
}

// Is matches on category and code so predefined errors work as sentinels
// through WithCause copies.
func (e *AutomationError) Is(target error) bool {
	t, ok := target.(*AutomationError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause attached.
func (e *AutomationError) WithCause(cause error) *AutomationError {
	return &AutomationError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message.
func (e *AutomationError) WithMessage(msg string) *AutomationError {
	return &AutomationError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Cause:    e.Cause,
	}
}

// Predefined errors.
var (
	ErrControlNotFound = &AutomationError{
		Category: ErrCategoryResolution,
		Code:     "control_not_found",
		Message:  "control not found in accessibility tree",
	}
	ErrPropertyMismatch = &AutomationError{
		Category: ErrCategoryResolution,
		Code:     "property_mismatch",
		Message:  "resolved control failed its property filter",
	}
	ErrWaitTimeout = &AutomationError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}
	ErrWindowNotFound = &AutomationError{
		Category: ErrCategoryEnvironment,
		Code:     "window_not_found",
		Message:  "target window not found",
	}
	ErrBackendUnavailable = &AutomationError{
		Category: ErrCategoryEnvironment,
		Code:     "backend_unavailable",
		Message:  "accessibility backend unavailable",
	}
	ErrPropertyUnsupported = &AutomationError{
		Category: ErrCategoryResolution,
		Code:     "property_unsupported",
		Message:  "control does not expose the requested property",
	}
	ErrInvalidScript = &AutomationError{
		Category: ErrCategoryConfig,
		Code:     "invalid_script",
		Message:  "script file missing or corrupt",
	}
)
