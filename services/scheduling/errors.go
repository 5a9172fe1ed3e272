package scheduling

import "fmt"

// ValidationError covers malformed inputs: bad dates, zero-duration windows,
// illegal status transitions. Caller-facing and never retried.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(code, msg string) error {
	return &ValidationError{Code: code, Message: msg}
}

// RetryableError marks a transient repository failure that survived the
// automatic retry budget. Callers may retry the whole operation.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// FatalError marks an unreachable repository or an invariant violation found
// at commit time. The transaction is rolled back; callers must not retry.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

var (
	ErrServiceNotActive = NewValidationError("serviceNotActive", "service is not active")
	ErrInvalidDate      = NewValidationError("invalidDate", "date must be formatted as 2006-01-02")
	ErrInvalidWindow    = NewValidationError("invalidWindow", "time window must have positive duration")
	ErrNotReschedulable = NewValidationError("notReschedulable", "appointment can no longer be moved")
	ErrBadTransition    = NewValidationError("badTransition", "status transition not allowed")
	ErrTooShort         = NewValidationError("tooShort", "adjustment would trim the appointment below the allowed minimum")
	ErrTimeout          = NewValidationError("timeout", "booking deadline exceeded")
)
