package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDispatchRejected is returned when the chain refuses to accept a transaction
	ErrDispatchRejected = errors.New("dispatch rejected")

	// ErrEventNotFound is returned when a transaction's events were indexed but
	// none of them matched the expected success event
	ErrEventNotFound = errors.New("success event not found")

	// ErrConfirmationExhausted is returned when the events of a transaction never
	// appeared within the configured number of lookups
	ErrConfirmationExhausted = errors.New("confirmation retries exhausted")

	// ErrSubmissionTimeout is returned when the overall wait budget elapsed
	// before the transaction was confirmed
	ErrSubmissionTimeout = errors.New("submission timed out")
)

// TxError describes a failed submission. It unwraps to both its Kind (one of
// the sentinels above) and the underlying cause, if any.
type TxError struct {
	Kind     error
	TxHash   TxHandle
	Spec     ConfirmationSpec
	Attempts int
	Err      error
}

func (e *TxError) Error() string {
	msg := e.Kind.Error()
	if e.Spec != (ConfirmationSpec{}) {
		msg = fmt.Sprintf("%s (%s)", msg, e.Spec)
	}
	if e.TxHash != "" {
		msg = fmt.Sprintf("%s for tx %s", msg, e.TxHash)
	}
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TxError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
