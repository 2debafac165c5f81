package outbox

import (
	"errors"
	"time"
)

// Status constants for the entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// ActionTypeEmail is a transactional email rendered at enqueue time.
const ActionTypeEmail = "email"

// DefaultMaxAttempts applies when an entry is saved without one.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrEmptyCreatedAt  = errors.New("created_at must be set")
)

// Entry is one outbound side effect waiting to be delivered.
type Entry struct {
	ID              string
	ActionType      string
	Payload         string // JSON, decoded by the handler for ActionType
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ExternalID      string // provider id of the delivered message
	ErrorMessage    string
}

// NewEntry creates a pending entry.
func NewEntry(id, actionType, payload string, now time.Time) Entry {
	return Entry{
		ID:          id,
		ActionType:  actionType,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
	}
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid; a missing MaxAttempts becomes DefaultMaxAttempts
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrEmptyCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether another attempt is allowed.
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying) && e.Attempts < e.MaxAttempts
}

// MarkAttempt records the start of an attempt.
// POST: Attempts incremented, LastAttemptedAt = now, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry delivered.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusDone
	e.ExternalID = externalID
	e.ErrorMessage = ""
}

// MarkFailed records a failed attempt.
// POST: ErrorMessage set; status becomes failed once attempts are used up
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned stops further attempts.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// NextRetryDelay is the backoff after the current attempt count:
// baseDelay doubled per attempt, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay
	for i := 0; i < e.Attempts; i++ {
		if delay >= maxDelay {
			return maxDelay
		}
		delay *= 2
	}
	return min(delay, maxDelay)
}

// DueAt is when the entry may next be attempted. A never-attempted entry is due at once.
func (e *Entry) DueAt(baseDelay, maxDelay time.Duration) time.Time {
	if e.LastAttemptedAt.IsZero() {
		return e.CreatedAt
	}
	return e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay))
}
