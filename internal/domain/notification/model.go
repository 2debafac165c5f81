package notification

import (
	"errors"
	"time"
)

// Kind constants
const (
	KindScheduleChanged = "schedule_changed"
	KindBooking         = "booking"
	KindGeneral         = "general"
)

// Domain errors
var (
	ErrEmptyRecipientID = errors.New("recipient ID is required")
	ErrEmptyTitle       = errors.New("notification title cannot be empty")
	ErrInvalidKind      = errors.New("kind must be one of: schedule_changed, booking, general")
)

// Notification is an in-app message shown in an account's notification feed.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	ReadAt      time.Time `json:"readAt,omitzero"`
}

// Validate checks if the Notification has valid data.
// PRE: Notification struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notification) Validate() error {
	if n.RecipientID == "" {
		return ErrEmptyRecipientID
	}
	if n.Title == "" {
		return ErrEmptyTitle
	}
	switch n.Kind {
	case KindScheduleChanged, KindBooking, KindGeneral:
	default:
		return ErrInvalidKind
	}
	if n.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsRead returns true if the notification has been read.
func (n *Notification) IsRead() bool {
	return !n.ReadAt.IsZero()
}

// MarkRead records when the notification was read.
// POST: ReadAt is set to now if previously zero
func (n *Notification) MarkRead(now time.Time) {
	if n.ReadAt.IsZero() {
		n.ReadAt = now
	}
}
