package domain

import (
	"fmt"

	appdomain "jobtrack-backend/internal/application/domain"
)

// FetchError indicates the mailbox provider failed while listing or loading
// messages. It aborts the current run; the checkpoint keeps whatever progress
// was already committed.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("mailbox fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RateLimitedError indicates the mailbox provider throttled us. Fetching stops
// for the rest of the run; the run still counts as successful.
type RateLimitedError struct {
	Err error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("mailbox rate limited: %v", e.Err)
}

func (e *RateLimitedError) Unwrap() error {
	return e.Err
}

// ClassificationError indicates the classifier was unreachable or returned a
// malformed response for one message. Retried a bounded number of times, then
// the message is skipped.
type ClassificationError struct {
	MessageID string
	Err       error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed for message %s: %v", e.MessageID, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// InvalidTransitionError is a policy rejection from the status state machine.
// Logged, no mutation, not a run-level error.
type InvalidTransitionError struct {
	ApplicationID string
	From          appdomain.Status
	To            appdomain.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s for application %s", e.From, e.To, e.ApplicationID)
}

// StoreConflictError indicates the store rejected an update under its own
// concurrency control. The message is left unprocessed so the next run
// picks it up again.
type StoreConflictError struct {
	ApplicationID string
}

func (e *StoreConflictError) Error() string {
	return fmt.Sprintf("store rejected concurrent update for application %s", e.ApplicationID)
}
