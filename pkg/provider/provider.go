// Package provider defines the generation provider contract and its error
// classification. Real network clients live outside this engine; everything
// here is what the orchestrator needs to schedule, retry, and report.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Artifact is a provider's raw response: the media bytes plus the container
// format they arrived in.
type Artifact struct {
	Data   []byte
	Format string
}

// TransientError marks a failure worth retrying: rate limits, server errors,
// flaky transport.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient provider error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a malformed request; retrying cannot help and the task
// fails immediately.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return fmt.Sprintf("fatal provider error: %v", e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// TimeoutError marks an attempt that exceeded the per-attempt deadline
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("provider timeout: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// Transient builds a retryable error
func Transient(err error) error { return &TransientError{Err: err} }

// Fatal builds a non-retryable error
func Fatal(err error) error { return &FatalError{Err: err} }

// IsRetryable reports whether an attempt failure should be retried under the
// configured policy. Timeouts and transient failures are retryable; fatal
// (malformed request) failures are not.
func IsRetryable(err error) bool {
	var transient *TransientError
	var timeout *TimeoutError
	if errors.As(err, &transient) || errors.As(err, &timeout) {
		return true
	}
	// The provider contract is a classified error; anything unclassified is
	// treated like a malformed request and surfaced immediately.
	return errors.Is(err, context.DeadlineExceeded)
}
