package booking

import (
	"context"

	domain "billionsgym/internal/domain/booking"
)

// Store reads and seeds PT sessions owned by the booking subsystem.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.ScheduledSession, error)
	Save(ctx context.Context, value domain.ScheduledSession) error
	ListByTrainerID(ctx context.Context, trainerID string) ([]domain.ScheduledSession, error)
}
