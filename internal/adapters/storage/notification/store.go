package notification

import (
	"context"

	domain "billionsgym/internal/domain/notification"
)

// Store persists Notification state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Notification, error)
	Save(ctx context.Context, value domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, filter ListFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

// ListFilter carries filtering parameters for ListByRecipient.
type ListFilter struct {
	UnreadOnly bool
	Limit      int
}
