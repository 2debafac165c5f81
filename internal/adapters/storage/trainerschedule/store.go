package trainerschedule

import (
	"context"
	"errors"

	domain "billionsgym/internal/domain/availability"
)

// Store errors
var (
	ErrNotFound        = errors.New("trainer schedule not found")
	ErrVersionConflict = errors.New("trainer schedule was changed by someone else")
)

// Store persists trainer weekly availability as whole documents.
type Store interface {
	Get(ctx context.Context, trainerID string) (domain.WeeklySchedule, error)
	Replace(ctx context.Context, value domain.WeeklySchedule, opts ReplaceOptions) (domain.WeeklySchedule, error)
}

// ReplaceOptions controls a whole-document replace.
type ReplaceOptions struct {
	// ExpectedVersion, when non-nil, must equal the stored version (0 when absent).
	ExpectedVersion *int
	UpdatedBy       string
}
