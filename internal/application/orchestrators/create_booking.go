package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billionsgym/internal/domain/booking"
	"billionsgym/internal/domain/notification"
)

// BookingStoreForCreate defines the store interface needed by CreateBooking.
type BookingStoreForCreate interface {
	Save(ctx context.Context, s booking.ScheduledSession) error
}

// CreateBookingInput carries input for the create booking orchestrator.
type CreateBookingInput struct {
	TrainerID         string
	Member            booking.Member
	Package           booking.Package
	TotalSessionCount int
	Status            string
	StartDate         time.Time
	EndDate           time.Time
}

// CreateBookingDeps holds dependencies for CreateBooking.
type CreateBookingDeps struct {
	AccountStore      TrainerLookup
	BookingStore      BookingStoreForCreate
	NotificationStore NotificationStoreForOrchestrator // optional
	GenerateID        func() string
	Now               func() time.Time
}

// ErrInvalidBooking wraps booking validation failures.
var ErrInvalidBooking = errors.New("invalid booking")

// ExecuteCreateBooking records a PT booking for a trainer and notifies the trainer.
// PRE: TrainerID names a trainer account
// POST: Session stored with a generated ID; status defaults to PENDING
func ExecuteCreateBooking(ctx context.Context, input CreateBookingInput, deps CreateBookingDeps) (booking.ScheduledSession, error) {
	trainer, err := requireTrainer(ctx, deps.AccountStore, input.TrainerID)
	if err != nil {
		return booking.ScheduledSession{}, err
	}

	status := input.Status
	if status == "" {
		status = booking.StatusPending
	}
	s := booking.ScheduledSession{
		ID:                deps.GenerateID(),
		TrainerID:         trainer.ID,
		Member:            input.Member,
		Package:           input.Package,
		TotalSessionCount: input.TotalSessionCount,
		Status:            status,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		CompletedSessions: []booking.CompletedSession{},
	}
	if err := s.Validate(); err != nil {
		return booking.ScheduledSession{}, fmt.Errorf("%w: %w", ErrInvalidBooking, err)
	}
	if err := deps.BookingStore.Save(ctx, s); err != nil {
		return booking.ScheduledSession{}, err
	}
	slog.Info("booking_event", "event", "booking_created", "session_id", s.ID, "trainer_id", trainer.ID, "member_id", s.Member.ID)

	if deps.NotificationStore != nil {
		n := notification.Notification{
			ID:          deps.GenerateID(),
			RecipientID: trainer.ID,
			Kind:        notification.KindBooking,
			Title:       "New PT booking",
			Body:        fmt.Sprintf("%s booked %s.", s.Member.Name, s.Package.Name),
			CreatedAt:   deps.Now(),
		}
		if err := deps.NotificationStore.Save(ctx, n); err != nil {
			slog.Error("booking_event", "event", "notify_failed", "session_id", s.ID, "error", err)
		}
	}
	return s, nil
}
