package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"billionsgym/internal/adapters/storage/trainerschedule"
	"billionsgym/internal/domain/account"
	"billionsgym/internal/domain/availability"
	"billionsgym/internal/domain/booking"
)

// Schedule errors
var (
	ErrForbidden       = errors.New("not allowed to change this trainer's schedule")
	ErrTrainerNotFound = errors.New("trainer not found")
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrVersionConflict = errors.New("schedule was changed by someone else; reload and try again")
)

// ScheduleStoreForOrchestrator defines the store interface needed by schedule orchestrators.
type ScheduleStoreForOrchestrator interface {
	Get(ctx context.Context, trainerID string) (availability.WeeklySchedule, error)
	Replace(ctx context.Context, value availability.WeeklySchedule, opts trainerschedule.ReplaceOptions) (availability.WeeklySchedule, error)
}

// BookingStoreForSchedule defines the booking reads needed alongside a schedule.
type BookingStoreForSchedule interface {
	ListByTrainerID(ctx context.Context, trainerID string) ([]booking.ScheduledSession, error)
}

// TrainerLookup resolves trainer accounts.
type TrainerLookup interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// requireTrainer loads trainerID and checks it is a trainer account.
func requireTrainer(ctx context.Context, accounts TrainerLookup, trainerID string) (account.Account, error) {
	if strings.TrimSpace(trainerID) == "" {
		return account.Account{}, availability.ErrEmptyTrainerID
	}
	acct, err := accounts.GetByID(ctx, trainerID)
	if err != nil || acct.Role != account.RoleTrainer {
		return account.Account{}, fmt.Errorf("%w: %s", ErrTrainerNotFound, trainerID)
	}
	return acct, nil
}

// --- Get Trainer Schedule ---

// GetTrainerScheduleInput carries input for the get orchestrator.
type GetTrainerScheduleInput struct {
	TrainerID string
}

// GetTrainerScheduleDeps holds dependencies for GetTrainerSchedule.
type GetTrainerScheduleDeps struct {
	AccountStore  TrainerLookup
	ScheduleStore ScheduleStoreForOrchestrator
	BookingStore  BookingStoreForSchedule
}

// TrainerScheduleResult is the stored week plus the trainer's booked sessions.
type TrainerScheduleResult struct {
	Trainer  account.Account
	Schedule availability.WeeklySchedule
	Sessions []booking.ScheduledSession
}

// ExecuteGetTrainerSchedule reads a trainer's week exactly as stored.
// PRE: TrainerID names a trainer account
// POST: Schedule.Days holds only stored days (none for a trainer who never saved);
// missing days are not synthesized. Sessions is never nil.
func ExecuteGetTrainerSchedule(ctx context.Context, input GetTrainerScheduleInput, deps GetTrainerScheduleDeps) (TrainerScheduleResult, error) {
	trainer, err := requireTrainer(ctx, deps.AccountStore, input.TrainerID)
	if err != nil {
		return TrainerScheduleResult{}, err
	}

	week, err := deps.ScheduleStore.Get(ctx, trainer.ID)
	switch {
	case errors.Is(err, trainerschedule.ErrNotFound):
		week = availability.WeeklySchedule{TrainerID: trainer.ID, Days: []availability.DaySchedule{}}
	case err != nil:
		return TrainerScheduleResult{}, err
	}

	sessions, err := deps.BookingStore.ListByTrainerID(ctx, trainer.ID)
	if err != nil {
		return TrainerScheduleResult{}, err
	}
	if sessions == nil {
		sessions = []booking.ScheduledSession{}
	}
	return TrainerScheduleResult{Trainer: trainer, Schedule: week, Sessions: sessions}, nil
}

// --- Replace Trainer Schedule ---

// ReplaceTrainerScheduleInput carries input for the replace orchestrator.
type ReplaceTrainerScheduleInput struct {
	TrainerID string
	Days      []availability.DaySchedule
	Version   *int // optional optimistic lock
	Actor     account.Account
}

// ReplaceTrainerScheduleDeps holds dependencies for ReplaceTrainerSchedule.
type ReplaceTrainerScheduleDeps struct {
	AccountStore  TrainerLookup
	ScheduleStore ScheduleStoreForOrchestrator
	Notify        *NotifyScheduleChangedDeps // optional
}

// ExecuteReplaceTrainerSchedule stores Days as the trainer's whole week.
// PRE: Actor may edit TrainerID's schedule
// POST: Stored week equals Days (last write wins unless Version is given);
// the trainer or the admins are notified of the change.
func ExecuteReplaceTrainerSchedule(ctx context.Context, input ReplaceTrainerScheduleInput, deps ReplaceTrainerScheduleDeps) (availability.WeeklySchedule, error) {
	if !input.Actor.CanEditSchedule(input.TrainerID) {
		slog.Info("schedule_event", "event", "replace_forbidden", "trainer_id", input.TrainerID, "actor_id", input.Actor.ID)
		return availability.WeeklySchedule{}, ErrForbidden
	}
	trainer, err := requireTrainer(ctx, deps.AccountStore, input.TrainerID)
	if err != nil {
		return availability.WeeklySchedule{}, err
	}

	week := availability.WeeklySchedule{TrainerID: trainer.ID, Days: input.Days}
	if week.Days == nil {
		week.Days = []availability.DaySchedule{}
	}
	if err := week.Validate(); err != nil {
		return availability.WeeklySchedule{}, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	saved, err := deps.ScheduleStore.Replace(ctx, week, trainerschedule.ReplaceOptions{
		ExpectedVersion: input.Version,
		UpdatedBy:       input.Actor.ID,
	})
	if errors.Is(err, trainerschedule.ErrVersionConflict) {
		slog.Info("schedule_event", "event", "replace_conflict", "trainer_id", trainer.ID, "actor_id", input.Actor.ID)
		return availability.WeeklySchedule{}, fmt.Errorf("%w: %w", ErrVersionConflict, err)
	}
	if err != nil {
		return availability.WeeklySchedule{}, err
	}

	slog.Info("schedule_event", "event", "schedule_replaced", "trainer_id", trainer.ID, "actor_id", input.Actor.ID, "version", saved.Version, "days", len(saved.Days))

	if deps.Notify != nil {
		_, err := ExecuteNotifyScheduleChanged(ctx, NotifyScheduleChangedInput{
			Trainer: trainer,
			Editor:  input.Actor,
			Version: saved.Version,
		}, *deps.Notify)
		if err != nil {
			// The schedule is saved; a failed notification must not undo that.
			slog.Error("schedule_event", "event", "notify_failed", "trainer_id", trainer.ID, "error", err)
		}
	}
	return saved, nil
}
