package domain

import (
	"errors"
	"fmt"
	"time"
)

// Engine-level errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCursor indicates the cursor format is invalid.
	ErrInvalidCursor = errors.New("invalid cursor format")

	// ErrPassInFlight indicates a pass for the same record kind is
	// already running.
	ErrPassInFlight = errors.New("sync pass already in flight")
)

// TransientError wraps a retryable network or server failure. The retry
// layer absorbs these up to its attempt budget; exhausting the budget
// converts the failure to a FatalError for that call.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// RateLimitError reports that the remote signalled quota exhaustion.
// The caller must wait at least RetryAfter before resubmitting the same
// request. Rate-limit waits are not counted against the transient budget.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// FatalError wraps a failure that must not be retried: bad request, auth
// failure, not-found, or a retryable failure whose budget was exhausted.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Cause)
}

func (e *FatalError) Unwrap() error { return e.Cause }

// PullError reports a pull that failed after some pages succeeded. Cursor
// is the last cursor that was fully consumed, so a later pull can resume
// without dropping pages.
type PullError struct {
	Kind   Kind
	Cursor Cursor
	Cause  error
}

func (e *PullError) Error() string {
	return fmt.Sprintf("pull %s: %v", e.Kind, e.Cause)
}

func (e *PullError) Unwrap() error { return e.Cause }

// IsTransient reports whether the error is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsRateLimited reports whether the error is a rate-limit signal, and
// returns the mandated delay when it is.
func IsRateLimited(err error) (time.Duration, bool) {
	var re *RateLimitError
	if errors.As(err, &re) {
		return re.RetryAfter, true
	}
	return 0, false
}

// IsFatal reports whether the error must not be retried.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
