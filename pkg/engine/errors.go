package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceExhausted reports that the concurrent-verification ceiling
	// was reached. Load is shed, never queued: no verification state is
	// created and the caller may retry later.
	ErrResourceExhausted = errors.New("verification capacity exhausted")

	// ErrNotFound reports a status lookup for a verification that is not
	// active. Terminal verifications leave the active table, so completed
	// work is only observable through its VerificationResult.
	ErrNotFound = errors.New("verification not found")

	// ErrCancelled reports a verification stopped at a cancellation point
	// after CancelVerification or context cancellation.
	ErrCancelled = errors.New("verification cancelled")
)

// InvalidRequestError reports a structurally malformed request, returned
// synchronously before any module dispatch.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid verification request: " + e.Reason
}

// AggregationError wraps an unexpected results-processor failure. The
// verification transitions to Failed and the wrapped error propagates.
type AggregationError struct {
	Err error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("result aggregation failed: %v", e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }
